package witness

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nbd-wtf/go-nostr"

	"aquachain/pkg/aqua"
)

// nostrWitnessKind is the event kind used for a witness attestation. Kind
// 1040 ("OpenTimestamps Attestation") is the closest NIP-03-adjacent slot
// for "this hash was witnessed at this time" that the protocol reserves.
const nostrWitnessKind = 1040

// NostrBackend publishes a witness attestation event to a single relay and
// answers Oracle lookups by re-querying that relay for the event by id,
// grounded on the teacher's WebSocket usage in
// cmd/diting/internal/delivery/feishu (long-connection mode) generalized
// to a relay connection using gorilla/websocket directly and go-nostr for
// event construction/signing, since the teacher's WS code is Feishu's
// event protocol, not Nostr's.
type NostrBackend struct {
	RelayURL   string
	PrivateKey string // hex, secp256k1 (NIP-01)
}

// NewNostrBackend returns a backend that publishes to a single relay.
func NewNostrBackend(relayURL, privateKeyHex string) *NostrBackend {
	return &NostrBackend{RelayURL: relayURL, PrivateKey: privateKeyHex}
}

func (b *NostrBackend) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, b.RelayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("witness: dial relay: %w", err)
	}
	return conn, nil
}

// Publish signs and sends a kind-1040 event whose content is the hex
// Merkle root, per NIP-01's ["EVENT", <event>] client message.
func (b *NostrBackend) Publish(ctx context.Context, root [64]byte) (Receipt, error) {
	ev := nostr.Event{
		Kind:      nostrWitnessKind,
		CreatedAt: nostr.Timestamp(time.Now().Unix()),
		Content:   hex.EncodeToString(root[:]),
		Tags:      nostr.Tags{},
	}
	if err := ev.Sign(b.PrivateKey); err != nil {
		return Receipt{}, fmt.Errorf("witness: sign nostr event: %w", err)
	}
	conn, err := b.dial(ctx)
	if err != nil {
		return Receipt{}, err
	}
	defer conn.Close()
	msg, err := json.Marshal([]interface{}{"EVENT", ev})
	if err != nil {
		return Receipt{}, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return Receipt{}, fmt.Errorf("witness: publish nostr event: %w", err)
	}
	return Receipt{
		Network:              "nostr",
		TransactionHash:      ev.ID,
		SenderAccountAddress: ev.PubKey,
		Timestamp:            int64(ev.CreatedAt),
	}, nil
}

// Transaction implements aqua.Oracle: it opens a REQ subscription filtered
// by event id and reads back the first matching EVENT frame.
func (b *NostrBackend) Transaction(ctx context.Context, network, txHash string) (aqua.TxRecord, error) {
	if !strings.EqualFold(network, "nostr") {
		return aqua.TxRecord{}, ErrUnsupportedNetwork
	}
	conn, err := b.dial(ctx)
	if err != nil {
		return aqua.TxRecord{}, err
	}
	defer conn.Close()

	sub := []interface{}{"REQ", "aqua-witness-lookup", map[string]interface{}{"ids": []string{txHash}}}
	req, err := json.Marshal(sub)
	if err != nil {
		return aqua.TxRecord{}, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, req); err != nil {
		return aqua.TxRecord{}, fmt.Errorf("witness: subscribe: %w", err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	_ = conn.SetReadDeadline(deadline)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return aqua.TxRecord{Found: false}, nil
		}
		var frame []json.RawMessage
		if err := json.Unmarshal(raw, &frame); err != nil || len(frame) < 2 {
			continue
		}
		var frameType string
		if err := json.Unmarshal(frame[0], &frameType); err != nil {
			continue
		}
		switch frameType {
		case "EVENT":
			if len(frame) < 3 {
				continue
			}
			var ev nostr.Event
			if err := json.Unmarshal(frame[2], &ev); err != nil {
				continue
			}
			if ev.ID == txHash {
				return aqua.TxRecord{Found: true, EventContent: ev.Content}, nil
			}
		case "EOSE":
			return aqua.TxRecord{Found: false}, nil
		}
	}
}

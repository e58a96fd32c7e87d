package witness

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"aquachain/pkg/aqua"
)

// ChainTip is one chain's contribution to a multi-chain witness round: its
// current tip hash and the Builder that will receive the resulting witness
// revision.
type ChainTip struct {
	Tip     aqua.Hash
	Builder *aqua.Builder
}

// Coordinator aggregates the tips of several chains into one shared Merkle
// root, publishes it through a single Backend call, and appends a witness
// revision onto each participating chain with that chain's own proof —
// spec §4.D. Grounded on the teacher's chain.Ledger/Backend split
// (pkg/chain/ledger.go): one coordinator instance, one backend, many
// chains.
type Coordinator struct {
	Backend Backend
}

// NewCoordinator returns a Coordinator publishing through backend.
func NewCoordinator(backend Backend) *Coordinator {
	return &Coordinator{Backend: backend}
}

// Witness runs one witnessing round over tips. On the degenerate
// single-chain case (len(tips) == 1) the shared root equals that chain's
// tip; spec §4.D still calls for a one-element proof ([t1]), recorded in
// the flat MerkleProof field rather than MerkleProofNodes since there is
// no sibling to pair it with.
func (c *Coordinator) Witness(ctx context.Context, tips []ChainTip) ([]aqua.Hash, error) {
	if len(tips) == 0 {
		return nil, fmt.Errorf("witness: no chains supplied")
	}
	leaves := make([]string, len(tips))
	for i, t := range tips {
		leaves[i] = string(t.Tip)
	}
	root, proofs := aqua.MerkleRootWithProofs(leaves)

	rootBytes, err := decodeRoot(root)
	if err != nil {
		return nil, fmt.Errorf("witness: decode aggregated root: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	receipt, err := c.Backend.Publish(ctx, rootBytes)
	if err != nil {
		return nil, fmt.Errorf("witness: publish: %w", err)
	}

	results := make([]aqua.Hash, len(tips))
	for i, t := range tips {
		payload := aqua.WitnessPayload{
			MerkleRoot:           root,
			Timestamp:            receipt.Timestamp,
			Network:              receipt.Network,
			SmartContractAddress: receipt.SmartContractAddress,
			TransactionHash:      receipt.TransactionHash,
			SenderAccountAddress: receipt.SenderAccountAddress,
		}
		if len(tips) > 1 {
			payload.MerkleProofNodes = proofs[i]
		} else {
			payload.MerkleProof = []string{root}
		}
		vhash, err := t.Builder.AppendWitness(payload)
		if err != nil {
			return nil, fmt.Errorf("witness: append to chain %d: %w", i, err)
		}
		results[i] = vhash
	}
	return results, nil
}

func decodeRoot(root string) ([64]byte, error) {
	var out [64]byte
	b, err := hex.DecodeString(root)
	if err != nil {
		return out, err
	}
	if len(b) != 64 {
		return out, fmt.Errorf("witness: expected 64-byte root, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// nowUnix exists so batcher.go's batchID timestamp formatting has a single
// place to change if the coordinator ever needs an injectable clock for
// tests, mirroring AuditChainBridge's use of time.Now().UTC().
func nowUnix() time.Time { return time.Now().UTC() }

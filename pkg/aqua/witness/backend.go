// Package witness implements the multi-chain Witness Coordinator and its
// three pluggable backends (Ethereum, Nostr, TSA/RFC-3161), grounded on the
// teacher's pluggable Backend/Ledger split in pkg/chain.
package witness

import (
	"context"
	"errors"

	"aquachain/pkg/aqua"
)

// ErrUnsupportedNetwork mirrors the teacher's chain.ErrNotFound-shaped
// sentinel error style (pkg/chain/ledger.go).
var ErrUnsupportedNetwork = errors.New("witness: unsupported network")

// Backend publishes a Merkle root to some external anchor and reports back
// what it takes to later prove the anchoring happened, per spec §4.D/§6.
type Backend interface {
	Publish(ctx context.Context, root [64]byte) (Receipt, error)
}

// Receipt is what a Backend hands back after a successful Publish, the
// material a Witness Coordinator folds into a WitnessPayload.
type Receipt struct {
	Network               string
	TransactionHash       string
	SenderAccountAddress  string
	SmartContractAddress  string
	Timestamp             int64
}

// Both Ethereum, Nostr and TSA backends additionally implement
// aqua.Oracle, so the same client can serve the Revision Verifier's
// witness cross-check without a second network client per backend.
var (
	_ aqua.Oracle = (*EthereumBackend)(nil)
	_ aqua.Oracle = (*NostrBackend)(nil)
	_ aqua.Oracle = (*TSABackend)(nil)
)

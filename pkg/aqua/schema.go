package aqua

// SchemaVersion selects which wire dialect a chain is decoded/verified
// against, per spec §9. verifySignature dispatches the signed message
// format on this; see LegacySignatureMessage's doc comment for the scope
// of what "supporting" the legacy dialect means here.
type SchemaVersion string

const (
	SchemaCurrent SchemaVersion = "current"
	SchemaV1_2    SchemaVersion = "1.2"
)

// LegacySignatureMessage returns the exact message a v1.2 signer signed
// over verificationHash, distinct from CurrentSignatureMessage. This is
// the only schema-versioned artifact this implementation reconstructs:
// the v1.2 scalar verification hash also folds in a domain_id and a
// per-kind merge_hash that spec.md and SPEC_FULL.md never model as
// tracked fields, so recomputing it would mean fabricating a concept
// this codebase has no other use for. A v1.2 chain therefore verifies
// its signature sub-result correctly but falls back to the current
// dialect's content-integrity reconstruction.
func LegacySignatureMessage(verificationHash Hash) string {
	return "I sign the following page verification_hash: [0x" + string(verificationHash.Normalize()) + "]"
}

package aqua

import (
	"aquachain/internal/ordered"
)

// RevisionKind tags the variant a Revision carries, mirroring the way the
// teacher models DIDDocument.Status as a string-backed enum rather than a
// class hierarchy (spec §9: "avoid a deep class hierarchy").
type RevisionKind string

const (
	KindFile      RevisionKind = "file"
	KindForm      RevisionKind = "form"
	KindSignature RevisionKind = "signature"
	KindWitness   RevisionKind = "witness"
	KindLink      RevisionKind = "link"
)

// SignatureScheme names the two signature schemes spec §3 recognizes.
type SignatureScheme string

const (
	SchemeEthereumEIP191 SignatureScheme = "ethereum:eip-191"
	SchemeDIDKey         SignatureScheme = "did:key"
)

// HashMode says how a Revision's verification hash was (or must be)
// computed, per spec §4.B. Merkle mode is inferred from the presence of a
// "leaves" field at load/verify time; a Revision under construction
// declares it up front.
type HashMode int

const (
	ModeScalar HashMode = iota
	ModeMerkle
)

// FilePayload carries the fields common to file and form revisions.
type FilePayload struct {
	FileHash  string // SHA3-512 hex of the file bytes
	FileNonce string // 32-byte random, base64url
	Content   []byte // optional inline bytes, nil when not embedded
}

// FormPayload extends FilePayload with the caller's form fields. Fields
// preserves insertion order because each entry is promoted to a top-level
// "forms_k:v" key and that order is part of the Merkle leaf sequence.
type FormPayload struct {
	FilePayload
	Fields *ordered.Map
}

// SignaturePayload carries an off-chain attestation over the revision.
type SignaturePayload struct {
	Signature       string // signature bytes, hex or base64 depending on scheme
	PublicKey       string
	WalletAddress   string
	Scheme          SignatureScheme
}

// WitnessPayload records an on-chain / timestamp-authority anchoring.
type WitnessPayload struct {
	MerkleRoot            string
	Timestamp             int64 // seconds since epoch
	Network               string
	SmartContractAddress  string
	TransactionHash       string
	SenderAccountAddress  string
	MerkleProof           []string // tip hashes aggregated together (single-chain), or...
	MerkleProofNodes      []MerkleProofNode // ...intermediate-node records (multi-chain), see §4.D
}

// MerkleProofNode is one step of a multi-chain witness Merkle proof: the
// pair of children hashed to produce the successor on the path from a
// chain's tip to the shared root.
type MerkleProofNode struct {
	LeftLeaf  string
	RightLeaf string
	Successor string
}

// LinkPayload cites the current tips of other aqua chains.
type LinkPayload struct {
	LinkType                  string // always "aqua"
	RequireIndepthVerification bool
	VerificationHashes        []string // tip hashes of linked chains
	FileHashes                []string // SHA3-512 of each linked aqua file's raw bytes
}

// Revision is one immutable record in a chain. Exactly one of File, Form,
// Signature, Witness, Link is non-nil, chosen by Kind — a tagged variant
// rather than a class hierarchy, per spec §9.
type Revision struct {
	PreviousVerificationHash Hash
	LocalTimestamp           string // YYYYMMDDHHMMSS, UTC
	Kind                     RevisionKind

	File      *FilePayload
	Form      *FormPayload
	Signature *SignaturePayload
	Witness   *WitnessPayload
	Link      *LinkPayload

	Mode   HashMode
	Leaves []string // persisted verbatim when Mode == ModeMerkle
}

// hasFile, hasSignature and hasWitness report whether the sub-payload
// relevant to a given verifier sub-result is present; when it is absent,
// that sub-result is MISSING rather than PASS/FAIL, per spec §4.E.
func (r *Revision) hasFile() bool      { return r.File != nil || r.Form != nil }
func (r *Revision) hasSignature() bool { return r.Signature != nil }
func (r *Revision) hasWitness() bool   { return r.Witness != nil }

// fileHash returns the file_hash field regardless of whether it arrived
// via a file or a form revision.
func (r *Revision) fileHash() string {
	switch {
	case r.Form != nil:
		return r.Form.FileHash
	case r.File != nil:
		return r.File.FileHash
	default:
		return ""
	}
}

func (r *Revision) content() []byte {
	switch {
	case r.Form != nil:
		return r.Form.Content
	case r.File != nil:
		return r.File.Content
	default:
		return nil
	}
}

package aqua

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	"aquachain/internal/ordered"
)

// Builder constructs revisions for a single AquaChain, computing each
// one's verification hash and appending it, per spec §4.B. One Builder is
// meant to own one chain for the lifetime of a batch of appends — the
// teacher's equivalent is a ledgerImpl wrapping one Backend.
type Builder struct {
	Chain  *AquaChain
	Files  FileProvider
	Signer Signer // optional; only needed by AppendSignature callers that don't already have a signature in hand
	Now    func() time.Time
}

// NewBuilder returns a Builder over chain, defaulting Now to time.Now and
// Files to an OSFileProvider rooted at the current directory.
func NewBuilder(chain *AquaChain) *Builder {
	return &Builder{Chain: chain, Files: OSFileProvider{}, Now: time.Now}
}

func (b *Builder) timestamp() string {
	return b.Now().UTC().Format("20060102150405")
}

// FileOptions configures AppendFile / AppendForm.
type FileOptions struct {
	Name          string // external name recorded in file_index
	EmbedContent  bool   // inline the bytes under "content"
	MerkleMode    bool   // opt into Merkle-mode hashing (forced true for AppendForm)
}

// AppendFile builds and appends a file revision for the bytes read from
// name via b.Files, per spec §3/§4.B.
func (b *Builder) AppendFile(ctx context.Context, name string, opts FileOptions) (Hash, error) {
	content, err := b.Files.Read(ctx, name)
	if err != nil {
		return "", fmt.Errorf("aqua: read %q: %w", name, err)
	}
	fileHash := SHA3_512Hex(content)
	if b.Chain.HasFileHash(fileHash) {
		return "", newErrf(KindDuplicateContent, "file_hash %q already present in chain", fileHash)
	}
	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}
	rev := &Revision{
		PreviousVerificationHash: b.Chain.Tip(),
		LocalTimestamp:           b.timestamp(),
		Kind:                     KindFile,
		File:                     &FilePayload{FileHash: fileHash, FileNonce: nonce},
	}
	if opts.EmbedContent {
		rev.File.Content = content
	}
	rev.Mode = ModeScalar
	if opts.MerkleMode {
		rev.Mode = ModeMerkle
	}
	vhash, err := b.finalize(rev)
	if err != nil {
		return "", err
	}
	if opts.Name == "" {
		opts.Name = name
	}
	b.Chain.append(vhash, rev, map[string]string{fileHash: opts.Name})
	return vhash, nil
}

// AppendForm builds and appends a form revision. fields must preserve the
// caller's insertion order (spec §3: each "k:v" is promoted to a top-level
// "forms_k:v" key in that order), so callers build it with NewOrderedMap
// rather than a plain Go map.
func (b *Builder) AppendForm(ctx context.Context, name string, fields *ordered.Map, opts FileOptions) (Hash, error) {
	content, err := b.Files.Read(ctx, name)
	if err != nil {
		return "", fmt.Errorf("aqua: read %q: %w", name, err)
	}
	fileHash := SHA3_512Hex(content)
	if b.Chain.HasFileHash(fileHash) {
		return "", newErrf(KindDuplicateContent, "file_hash %q already present in chain", fileHash)
	}
	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}
	form := &FormPayload{FilePayload: FilePayload{FileHash: fileHash, FileNonce: nonce}, Fields: fields}
	if opts.EmbedContent {
		form.Content = content
	}
	rev := &Revision{
		PreviousVerificationHash: b.Chain.Tip(),
		LocalTimestamp:           b.timestamp(),
		Kind:                     KindForm,
		Form:                     form,
		Mode:                     ModeMerkle, // spec §4.B: Merkle mode is required for form
	}
	vhash, err := b.finalize(rev)
	if err != nil {
		return "", err
	}
	if opts.Name == "" {
		opts.Name = name
	}
	b.Chain.append(vhash, rev, map[string]string{fileHash: opts.Name})
	return vhash, nil
}

// AppendSignature signs the current tip with signer (or b.Signer if signer
// is nil) and appends the resulting signature revision. The message signed
// is exactly "I sign this revision: [" + tip + "]" for the current schema
// (spec §3, §9); use AppendLegacySignature for the v1.2 message form.
func (b *Builder) AppendSignature(ctx context.Context, signer Signer) (Hash, error) {
	return b.appendSignature(ctx, signer, CurrentSignatureMessage)
}

// AppendLegacySignature signs the current tip the way a v1.2 signer would
// (LegacySignatureMessage's format) and appends the resulting signature
// revision. Verifying such a chain requires VerifierConfig.SchemaVersion
// set to SchemaV1_2 so verifySignature dispatches to the same message
// format.
func (b *Builder) AppendLegacySignature(ctx context.Context, signer Signer) (Hash, error) {
	return b.appendSignature(ctx, signer, LegacySignatureMessage)
}

func (b *Builder) appendSignature(ctx context.Context, signer Signer, message func(Hash) string) (Hash, error) {
	if signer == nil {
		signer = b.Signer
	}
	if signer == nil {
		return "", newErr(KindConfigMissing, "no signer configured")
	}
	tip := b.Chain.Tip()
	msg := message(tip)
	sig, err := signer.Sign(ctx, []byte(msg))
	if err != nil {
		return "", fmt.Errorf("aqua: sign: %w", err)
	}
	rev := &Revision{
		PreviousVerificationHash: tip,
		LocalTimestamp:           b.timestamp(),
		Kind:                     KindSignature,
		Signature: &SignaturePayload{
			Signature:     sig.Hex,
			PublicKey:     sig.PublicKey,
			WalletAddress: sig.WalletAddress,
			Scheme:        sig.Scheme,
		},
		Mode: ModeScalar,
	}
	vhash, err := b.finalize(rev)
	if err != nil {
		return "", err
	}
	b.Chain.append(vhash, rev, nil)
	return vhash, nil
}

// AppendWitness appends a pre-built witness revision (typically produced
// by witness.Coordinator, which knows the multi-chain root and per-chain
// proof) parented at the chain's current tip.
func (b *Builder) AppendWitness(payload WitnessPayload) (Hash, error) {
	rev := &Revision{
		PreviousVerificationHash: b.Chain.Tip(),
		LocalTimestamp:           b.timestamp(),
		Kind:                     KindWitness,
		Witness:                  &payload,
		Mode:                     ModeScalar,
	}
	vhash, err := b.finalize(rev)
	if err != nil {
		return "", err
	}
	b.Chain.append(vhash, rev, nil)
	return vhash, nil
}

// AppendLink appends a link revision citing the tips of other chains.
// linkedFiles maps the external name under which each linked chain's file
// should be indexed (so file_index can satisfy invariant 5) to that file's
// raw serialized bytes. link_file_hashes lists the files in name order.
func (b *Builder) AppendLink(verificationHashes []string, linkedFiles map[string][]byte, requireIndepth bool) (Hash, error) {
	fileHashes := make([]string, 0, len(linkedFiles))
	names := make(map[string]string, len(linkedFiles))
	sortedNames := make([]string, 0, len(linkedFiles))
	for name := range linkedFiles {
		sortedNames = append(sortedNames, name)
	}
	sort.Strings(sortedNames)
	for _, name := range sortedNames {
		raw := linkedFiles[name]
		if strings.HasSuffix(name, ".aqua.json") {
			return "", newErrf(KindInvalidLink, "linking an aqua file directly is forbidden: %q", name)
		}
		h := SHA3_512Hex(raw)
		fileHashes = append(fileHashes, h)
		names[h] = name
	}
	for _, h := range fileHashes {
		if b.Chain.HasFileHash(h) {
			return "", newErrf(KindInvalidLink, "link file hash %q already indexed", h)
		}
	}
	for _, vh := range verificationHashes {
		names[vh] = vh
	}
	rev := &Revision{
		PreviousVerificationHash: b.Chain.Tip(),
		LocalTimestamp:           b.timestamp(),
		Kind:                     KindLink,
		Link: &LinkPayload{
			LinkType:                   "aqua",
			RequireIndepthVerification: requireIndepth,
			VerificationHashes:         verificationHashes,
			FileHashes:                 fileHashes,
		},
		Mode: ModeScalar,
	}
	vhash, err := b.finalize(rev)
	if err != nil {
		return "", err
	}
	index := make(map[string]string, len(fileHashes)+len(verificationHashes))
	for _, h := range fileHashes {
		index[h] = names[h]
	}
	for _, vh := range verificationHashes {
		index[vh] = names[vh]
	}
	b.Chain.append(vhash, rev, index)
	return vhash, nil
}

// finalize computes rev's verification hash per its declared Mode (spec
// §4.B): scalar mode hashes the canonical JSON of the field assembly,
// Merkle mode builds a tree over the leaves the assembly produces and
// persists the leaves alongside the revision.
func (b *Builder) finalize(rev *Revision) (Hash, error) {
	fields, err := rev.toOrderedFields()
	if err != nil {
		return "", err
	}
	switch rev.Mode {
	case ModeScalar:
		canon, err := CanonicalJSON(fields)
		if err != nil {
			return "", fmt.Errorf("aqua: canonicalize revision: %w", err)
		}
		return Hash("0x" + SHA3_512Hex([]byte(canon))), nil
	case ModeMerkle:
		keys := fields.Keys()
		values := make(map[string]interface{}, len(keys))
		for _, k := range keys {
			v, _ := fields.Get(k)
			values[k] = v
		}
		leaves, err := Leaves(keys, values)
		if err != nil {
			return "", fmt.Errorf("aqua: leaf hashes: %w", err)
		}
		rev.Leaves = leaves
		return Hash(MerkleRoot(leaves)), nil
	default:
		return "", newErrf(KindCorruptChain, "unknown hash mode %d", rev.Mode)
	}
}

func randomNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("aqua: generate nonce: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

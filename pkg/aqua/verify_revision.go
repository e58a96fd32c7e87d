package aqua

import (
	"context"
	"strings"
)

// SubResultStatus is one of the three states spec §4.E assigns to each of
// a revision's five independent sub-results.
type SubResultStatus string

const (
	StatusMissing SubResultStatus = "MISSING"
	StatusPass    SubResultStatus = "PASS"
	StatusFail    SubResultStatus = "FAIL"
)

// SubResult is one line of a RevisionResult: a status plus, for FAIL, the
// reason and a typed Err a caller can errors.As against instead of
// string-matching Message (spec §7).
type SubResult struct {
	Status  SubResultStatus
	Message string
	Err     *Error
}

func missing() SubResult { return SubResult{Status: StatusMissing} }
func pass() SubResult    { return SubResult{Status: StatusPass} }

// fail builds a FAIL SubResult carrying a typed *Error of kind, tagged
// with subTag when the kind distinguishes flavors (spec §7's HASH_MISMATCH
// sub-tags: content, file, witness-root).
func fail(kind ErrorKind, subTag, msg string) SubResult {
	return SubResult{Status: StatusFail, Message: msg, Err: newSubErr(kind, subTag, msg)}
}

// RevisionResult is the complete diagnosis for one revision, per spec
// §4.E: five independent sub-results plus the aggregate.
type RevisionResult struct {
	Hash              Hash
	Linkage           SubResult
	FileIntegrity     SubResult
	ContentIntegrity  SubResult
	Signature         SubResult
	Witness           SubResult
	Pass              bool
}

// Oracle answers "what did the witness backend actually publish for this
// transaction", the external collaborator the Revision Verifier calls out
// to for witness cross-checking (spec §6). Concrete implementations live
// in pkg/aqua/witness, one per backend (Ethereum, Nostr, TSA); the core
// only depends on this interface, never a concrete backend.
type Oracle interface {
	Transaction(ctx context.Context, network, txHash string) (TxRecord, error)
}

// TxRecord is what an Oracle returns for a witness transaction lookup.
// Exactly one of InputData, EventContent, TimestampedDigest is populated,
// matching whichever backend network produced it.
type TxRecord struct {
	Found             bool
	InputData         string // Ethereum: raw call data, hex, 0x-prefixed
	EventContent      string // Nostr: the event's content field
	TimestampedDigest string // TSA: the digest the token attests to
}

// ethereumWitnessSelector is the 4-byte selector spec §6 mandates for
// witness call data.
const ethereumWitnessSelector = "9cef4ea1"

// VerifyRevision runs the five independent sub-checks of spec §4.E against
// rev, whose declared previous hash must equal prevHash (the tip threaded
// in by the Chain Verifier, or "" for the genesis revision). oracle may be
// nil; the witness sub-result is then FAIL rather than MISSING whenever
// witness fields are present but no oracle was supplied to check them.
func VerifyRevision(ctx context.Context, vhash Hash, rev *Revision, prevHash Hash, files FileProvider, oracle Oracle, cfg VerifierConfig) RevisionResult {
	res := RevisionResult{Hash: vhash}
	res.Linkage = verifyLinkage(rev, prevHash)
	res.FileIntegrity = verifyFileIntegrity(ctx, rev, files)
	res.ContentIntegrity = verifyContentIntegrity(vhash, rev)
	res.Signature = verifySignature(rev, prevHash, cfg)
	res.Witness = verifyWitness(ctx, rev, oracle, cfg)
	res.Pass = aggregate(cfg, res.Linkage, res.FileIntegrity, res.ContentIntegrity, res.Signature, res.Witness)
	return res
}

func aggregate(cfg VerifierConfig, subs ...SubResult) bool {
	for _, s := range subs {
		switch s.Status {
		case StatusFail:
			return false
		case StatusMissing:
			if cfg.Strict {
				return false
			}
		}
	}
	return true
}

// verifyLinkage checks sub-result 1: previous_verification_hash must equal
// the threaded prevHash. Linkage is never MISSING — every revision has a
// previous_verification_hash field, empty or not.
func verifyLinkage(rev *Revision, prevHash Hash) SubResult {
	if !rev.PreviousVerificationHash.Equal(prevHash) {
		return fail(KindLinkageBroken, "", "previous_verification_hash does not match chain tip")
	}
	return pass()
}

// verifyFileIntegrity checks sub-result 2: recompute SHA3-512 over the
// referenced content and compare to file_hash. MISSING for signature/
// witness/link revisions, which carry no file_hash.
func verifyFileIntegrity(ctx context.Context, rev *Revision, files FileProvider) SubResult {
	if !rev.hasFile() {
		return missing()
	}
	declared := rev.fileHash()
	if content := rev.content(); content != nil {
		if SHA3_512Hex(content) != strings.ToLower(declared) {
			return fail(KindHashMismatch, "file", "file_hash does not match embedded content")
		}
		return pass()
	}
	if files == nil {
		return fail(KindConfigMissing, "", "no file provider configured to resolve external content")
	}
	if declared == "" {
		return fail(KindHashMismatch, "file", "file revision has neither embedded content nor a resolvable file_hash")
	}
	data, err := files.Read(ctx, declared)
	if err != nil {
		return fail(KindHashMismatch, "file", "could not read external content: "+err.Error())
	}
	if SHA3_512Hex(data) != strings.ToLower(declared) {
		return fail(KindHashMismatch, "file", "file_hash does not match external content")
	}
	return pass()
}

// verifyContentIntegrity checks sub-result 3: recompute the verification
// hash from the payload under its declared mode and compare to vhash — the
// storage key under which the revision is filed.
func verifyContentIntegrity(vhash Hash, rev *Revision) SubResult {
	fields, err := rev.toOrderedFields()
	if err != nil {
		return fail(KindCorruptChain, "", "could not assemble revision fields: "+err.Error())
	}
	if rev.Mode == ModeMerkle {
		keys := fields.Keys()
		values := make(map[string]interface{}, len(keys))
		for _, k := range keys {
			v, _ := fields.Get(k)
			values[k] = v
		}
		leaves, err := Leaves(keys, values)
		if err != nil {
			return fail(KindHashMismatch, "content", "could not recompute leaves: "+err.Error())
		}
		if len(leaves) != len(rev.Leaves) {
			return fail(KindHashMismatch, "content", "recomputed leaf count does not match stored leaves")
		}
		for i := range leaves {
			if leaves[i] != rev.Leaves[i] {
				return fail(KindHashMismatch, "content", "recomputed leaves do not match stored leaves")
			}
		}
		root := MerkleRoot(rev.Leaves)
		if !Hash(root).Equal(vhash) {
			return fail(KindHashMismatch, "content", "recomputed Merkle root does not match verification hash")
		}
		return pass()
	}
	canon, err := CanonicalJSON(fields)
	if err != nil {
		return fail(KindCorruptChain, "", "could not canonicalize revision: "+err.Error())
	}
	recomputed := "0x" + SHA3_512Hex([]byte(canon))
	if !Hash(recomputed).Equal(vhash) {
		return fail(KindHashMismatch, "content", "recomputed hash does not match verification hash")
	}
	return pass()
}

// verifySignature checks sub-result 4, dispatching on signature_type. The
// signed message itself is schema-versioned (spec §9): SchemaV1_2 signers
// sign LegacySignatureMessage's format, everything else signs
// CurrentSignatureMessage's.
func verifySignature(rev *Revision, prevHash Hash, cfg VerifierConfig) SubResult {
	if !rev.hasSignature() {
		return missing()
	}
	s := *rev.Signature
	messageText := CurrentSignatureMessage(prevHash)
	if cfg.SchemaVersion == SchemaV1_2 {
		messageText = LegacySignatureMessage(prevHash)
	}
	message := []byte(messageText)
	switch s.Scheme {
	case SchemeEthereumEIP191:
		if verifyEthereumEIP191(message, s) {
			return pass()
		}
		return fail(KindSignatureInvalid, "", "recovered signer does not match signature_wallet_address")
	case SchemeDIDKey:
		if verifyDIDKey(message, s) {
			return pass()
		}
		return fail(KindSignatureInvalid, "", "JWS verification failed against embedded did:key public key")
	default:
		return fail(KindSignatureInvalid, "", "unknown signature_type "+string(s.Scheme))
	}
}

// verifyWitness checks sub-result 5: root cross-check against the oracle,
// then, if configured, Merkle proof traversal.
func verifyWitness(ctx context.Context, rev *Revision, oracle Oracle, cfg VerifierConfig) SubResult {
	if !rev.hasWitness() {
		return missing()
	}
	w := rev.Witness
	if oracle == nil {
		return fail(KindWitnessUnavailable, "", "no transaction oracle configured")
	}
	rec, err := oracle.Transaction(ctx, w.Network, w.TransactionHash)
	if err != nil {
		return fail(KindWitnessUnavailable, "", "witness transaction lookup failed: "+err.Error())
	}
	if !rec.Found {
		return fail(KindWitnessUnavailable, "", "witness transaction not found")
	}
	expectedRoot := strings.ToLower(strings.TrimPrefix(w.MerkleRoot, "0x"))
	switch {
	case rec.InputData != "":
		data := strings.ToLower(strings.TrimPrefix(rec.InputData, "0x"))
		if !strings.HasPrefix(data, ethereumWitnessSelector) {
			return fail(KindWitnessMismatch, "", "on-chain input data missing witness selector")
		}
		rootField := strings.TrimPrefix(data, ethereumWitnessSelector)
		if len(rootField) < len(expectedRoot) || rootField[:len(expectedRoot)] != expectedRoot {
			return fail(KindWitnessMismatch, "", "on-chain root does not match witness_merkle_root")
		}
	case rec.EventContent != "":
		if strings.ToLower(strings.TrimPrefix(rec.EventContent, "0x")) != expectedRoot {
			return fail(KindWitnessMismatch, "", "relay event content does not match witness_merkle_root")
		}
	case rec.TimestampedDigest != "":
		if strings.ToLower(strings.TrimPrefix(rec.TimestampedDigest, "0x")) != expectedRoot {
			return fail(KindWitnessMismatch, "", "timestamp token digest does not match witness_merkle_root")
		}
	default:
		return fail(KindWitnessUnavailable, "", "oracle returned an empty transaction record")
	}

	if !cfg.VerifyMerkleProof {
		return pass()
	}
	leaf := rev.fileHash()
	if leaf == "" {
		leaf = string(rev.PreviousVerificationHash)
	}
	switch {
	case len(w.MerkleProofNodes) > 0:
		if !VerifyMerkleProofNodes(leaf, w.MerkleProofNodes, w.MerkleRoot) {
			return fail(KindMerkleProofInvalid, "", "Merkle proof does not resolve to witness_merkle_root")
		}
	case len(w.MerkleProof) > 0:
		// Single-chain degenerate case, spec §4.D: R = t1, proof = [t1].
		if len(w.MerkleProof) != 1 || !Hash(w.MerkleProof[0]).Equal(Hash(w.MerkleRoot)) {
			return fail(KindMerkleProofInvalid, "", "single-chain witness proof does not resolve to witness_merkle_root")
		}
	}
	return pass()
}

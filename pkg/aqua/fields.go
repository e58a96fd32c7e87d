package aqua

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"aquachain/internal/ordered"
)

// toOrderedFields assembles the exact insertion-ordered key sequence spec
// §4.B's "Assembly" describes: the common skeleton first, then the
// kind-specific extension. This is the payload both scalar-mode hashing
// and Merkle leaf production operate over; "leaves" itself is never part
// of it (it is appended afterward once the mode's hash is known).
func (r *Revision) toOrderedFields() (*ordered.Map, error) {
	m := ordered.New()
	m.Set("previous_verification_hash", string(r.PreviousVerificationHash))
	m.Set("local_timestamp", r.LocalTimestamp)
	m.Set("revision_type", string(r.Kind))

	switch r.Kind {
	case KindFile:
		if r.File == nil {
			return nil, newErr(KindCorruptChain, "file revision missing File payload")
		}
		setFilePayload(m, r.File)
	case KindForm:
		if r.Form == nil {
			return nil, newErr(KindCorruptChain, "form revision missing Form payload")
		}
		setFilePayload(m, &r.Form.FilePayload)
		for _, k := range r.Form.Fields.Keys() {
			v, _ := r.Form.Fields.Get(k)
			m.Set("forms_"+k, v)
		}
	case KindSignature:
		if r.Signature == nil {
			return nil, newErr(KindCorruptChain, "signature revision missing Signature payload")
		}
		s := r.Signature
		m.Set("signature", s.Signature)
		m.Set("signature_public_key", s.PublicKey)
		m.Set("signature_wallet_address", s.WalletAddress)
		m.Set("signature_type", string(s.Scheme))
	case KindWitness:
		if r.Witness == nil {
			return nil, newErr(KindCorruptChain, "witness revision missing Witness payload")
		}
		w := r.Witness
		m.Set("witness_merkle_root", w.MerkleRoot)
		m.Set("witness_timestamp", strconv.FormatInt(w.Timestamp, 10))
		m.Set("witness_network", w.Network)
		m.Set("witness_smart_contract_address", w.SmartContractAddress)
		m.Set("witness_transaction_hash", w.TransactionHash)
		m.Set("witness_sender_account_address", w.SenderAccountAddress)
		if len(w.MerkleProofNodes) > 0 {
			m.Set("witness_merkle_proof", proofNodesToJSON(w.MerkleProofNodes))
		} else {
			m.Set("witness_merkle_proof", w.MerkleProof)
		}
	case KindLink:
		if r.Link == nil {
			return nil, newErr(KindCorruptChain, "link revision missing Link payload")
		}
		l := r.Link
		m.Set("link_type", l.LinkType)
		m.Set("link_require_indepth_verification", l.RequireIndepthVerification)
		m.Set("link_verification_hashes", l.VerificationHashes)
		m.Set("link_file_hashes", l.FileHashes)
	default:
		return nil, newErrf(KindCorruptChain, "unknown revision_type %q", r.Kind)
	}
	return m, nil
}

func setFilePayload(m *ordered.Map, f *FilePayload) {
	m.Set("file_hash", f.FileHash)
	m.Set("file_nonce", f.FileNonce)
	if f.Content != nil {
		m.Set("content", base64.URLEncoding.EncodeToString(f.Content))
	}
}

func proofNodesToJSON(nodes []MerkleProofNode) []map[string]string {
	out := make([]map[string]string, len(nodes))
	for i, n := range nodes {
		out[i] = map[string]string{
			"left_leaf": n.LeftLeaf, "right_leaf": n.RightLeaf, "successor": n.Successor,
		}
	}
	return out
}

// MarshalJSON renders the revision exactly as it is stored on the wire:
// the ordered field assembly, plus "leaves" appended last when the
// revision was built (or decoded) in Merkle mode.
func (r *Revision) MarshalJSON() ([]byte, error) {
	m, err := r.toOrderedFields()
	if err != nil {
		return nil, err
	}
	if r.Mode == ModeMerkle {
		m.Set("leaves", r.Leaves)
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a wire-format revision, dispatching on
// revision_type and reconstructing the typed payload. Unknown "forms_"
// prefixed keys are folded back into FormPayload.Fields in the order they
// appear in the source document, which is what makes hash recomputation at
// verify time reproduce the original insertion order (spec §4.A).
func (r *Revision) UnmarshalJSON(data []byte) error {
	var raw orderedRaw
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("aqua: decode revision: %w", err)
	}
	get := func(k string) (json.RawMessage, bool) { v, ok := raw.byKey[k]; return v, ok }
	getStr := func(k string) string {
		v, ok := get(k)
		if !ok {
			return ""
		}
		var s string
		_ = json.Unmarshal(v, &s)
		return s
	}

	r.PreviousVerificationHash = Hash(getStr("previous_verification_hash"))
	r.LocalTimestamp = getStr("local_timestamp")
	r.Kind = RevisionKind(getStr("revision_type"))

	if leavesRaw, ok := get("leaves"); ok {
		var leaves []string
		if err := json.Unmarshal(leavesRaw, &leaves); err != nil {
			return fmt.Errorf("aqua: decode leaves: %w", err)
		}
		r.Leaves = leaves
		r.Mode = ModeMerkle
	} else {
		r.Mode = ModeScalar
	}

	switch r.Kind {
	case KindFile:
		fp, err := decodeFilePayload(get, getStr)
		if err != nil {
			return err
		}
		r.File = fp
	case KindForm:
		fp, err := decodeFilePayload(get, getStr)
		if err != nil {
			return err
		}
		form := &FormPayload{FilePayload: *fp, Fields: ordered.New()}
		for _, k := range raw.order {
			if len(k) > 6 && k[:6] == "forms_" {
				v, _ := get(k)
				var val interface{}
				_ = json.Unmarshal(v, &val)
				form.Fields.Set(k[6:], val)
			}
		}
		r.Form = form
	case KindSignature:
		r.Signature = &SignaturePayload{
			Signature:     getStr("signature"),
			PublicKey:     getStr("signature_public_key"),
			WalletAddress: getStr("signature_wallet_address"),
			Scheme:        SignatureScheme(getStr("signature_type")),
		}
	case KindWitness:
		w := &WitnessPayload{
			MerkleRoot:           getStr("witness_merkle_root"),
			Network:              getStr("witness_network"),
			SmartContractAddress: getStr("witness_smart_contract_address"),
			TransactionHash:      getStr("witness_transaction_hash"),
			SenderAccountAddress: getStr("witness_sender_account_address"),
		}
		if ts := getStr("witness_timestamp"); ts != "" {
			n, _ := strconv.ParseInt(ts, 10, 64)
			w.Timestamp = n
		}
		if proofRaw, ok := get("witness_merkle_proof"); ok {
			var asStrings []string
			if err := json.Unmarshal(proofRaw, &asStrings); err == nil {
				w.MerkleProof = asStrings
			} else {
				var asNodes []map[string]string
				if err := json.Unmarshal(proofRaw, &asNodes); err == nil {
					w.MerkleProofNodes = make([]MerkleProofNode, len(asNodes))
					for i, n := range asNodes {
						w.MerkleProofNodes[i] = MerkleProofNode{
							LeftLeaf: n["left_leaf"], RightLeaf: n["right_leaf"], Successor: n["successor"],
						}
					}
				}
			}
		}
		r.Witness = w
	case KindLink:
		l := &LinkPayload{LinkType: getStr("link_type")}
		if v, ok := get("link_require_indepth_verification"); ok {
			_ = json.Unmarshal(v, &l.RequireIndepthVerification)
		}
		if v, ok := get("link_verification_hashes"); ok {
			_ = json.Unmarshal(v, &l.VerificationHashes)
		}
		if v, ok := get("link_file_hashes"); ok {
			_ = json.Unmarshal(v, &l.FileHashes)
		}
		r.Link = l
	default:
		return newErrf(KindCorruptChain, "unknown revision_type %q", r.Kind)
	}
	return nil
}

func decodeFilePayload(get func(string) (json.RawMessage, bool), getStr func(string) string) (*FilePayload, error) {
	fp := &FilePayload{FileHash: getStr("file_hash"), FileNonce: getStr("file_nonce")}
	if v, ok := get("content"); ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("aqua: decode content: %w", err)
		}
		b, err := base64.URLEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("aqua: decode content base64: %w", err)
		}
		fp.Content = b
	}
	return fp, nil
}

// orderedRaw preserves the key order of a decoded JSON object, which
// json.Unmarshal into a map[string]json.RawMessage would otherwise
// discard. We need that order back to reconstruct FormPayload.Fields in
// its original insertion order.
type orderedRaw struct {
	order []string
	byKey map[string]json.RawMessage
}

func (o *orderedRaw) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	o.byKey = make(map[string]json.RawMessage)
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("aqua: expected JSON object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		o.order = append(o.order, key)
		o.byKey[key] = raw
	}
	return nil
}

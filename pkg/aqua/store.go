package aqua

import (
	"encoding/json"
	"fmt"
	"os"

	"aquachain/internal/ordered"
)

// AquaChain is the in-memory "aqua object" of spec §3: an insertion-
// ordered mapping from verification hash to revision, plus a file index.
// It generalizes the teacher's LocalStore (pkg/chain/local.go), which
// keeps a similar map-plus-optional-directory shape for DID documents and
// witness batches; AquaChain collapses that split into one ordered
// revision map because a chain's revisions ARE its persisted state, there
// is no separate "batch" concept at this layer.
type AquaChain struct {
	revisions map[Hash]*Revision
	order     []Hash
	fileIndex map[string]string // file/form/link hash -> external name

	// indexContribs remembers exactly which file_index entries each
	// revision added, so RemoveTip can reverse them precisely instead of
	// guessing from the revision payload alone.
	indexContribs map[Hash]map[string]string
}

// New returns an empty aqua chain, ready to receive a genesis revision via
// a Builder.
func New() *AquaChain {
	return &AquaChain{
		revisions:     make(map[Hash]*Revision),
		fileIndex:     make(map[string]string),
		indexContribs: make(map[Hash]map[string]string),
	}
}

// Tip returns the most recently appended revision's verification hash, or
// "" for a chain with no revisions yet (spec §4.C).
func (c *AquaChain) Tip() Hash {
	if len(c.order) == 0 {
		return ""
	}
	return c.order[len(c.order)-1]
}

// Len returns the number of revisions.
func (c *AquaChain) Len() int { return len(c.order) }

// Revision returns the revision stored under h, if any.
func (c *AquaChain) Revision(h Hash) (*Revision, bool) {
	r, ok := c.revisions[h.Normalize()]
	return r, ok
}

// Order returns the verification hashes in insertion (chronological)
// order — invariant 6: this order is part of the contract, not an
// implementation detail.
func (c *AquaChain) Order() []Hash {
	out := make([]Hash, len(c.order))
	copy(out, c.order)
	return out
}

// FileIndexName returns the external name registered for hash, if any.
func (c *AquaChain) FileIndexName(hash string) (string, bool) {
	name, ok := c.fileIndex[hash]
	return name, ok
}

// HasFileHash reports whether a file/form/link hash is already indexed —
// used by the Builder to enforce invariant 3 (no duplicate file_hash) and
// the link-cycle prohibition of spec §4.B.
func (c *AquaChain) HasFileHash(hash string) bool {
	_, ok := c.fileIndex[hash]
	return ok
}

// append is the O(1) primitive of spec §4.C: store the revision under its
// verification hash and update the file index. It performs no validation;
// callers (the Builder) are responsible for invariants 1-5.
func (c *AquaChain) append(vhash Hash, r *Revision, indexEntries map[string]string) {
	norm := vhash.Normalize()
	c.revisions[norm] = r
	c.order = append(c.order, norm)
	if len(indexEntries) > 0 {
		contrib := make(map[string]string, len(indexEntries))
		for h, name := range indexEntries {
			c.fileIndex[h] = name
			contrib[h] = name
		}
		c.indexContribs[norm] = contrib
	}
}

// RemoveTip implements spec §4.C's rollback: deletes exactly the most
// recent revision and reverses its file_index contributions. Returns
// false if the chain was already empty. The caller is responsible for
// destroying the chain object once Len() reaches zero, per spec's
// lifecycle note ("a chain with zero revisions does not exist as a
// persisted object").
func (c *AquaChain) RemoveTip() bool {
	if len(c.order) == 0 {
		return false
	}
	last := c.order[len(c.order)-1]
	c.order = c.order[:len(c.order)-1]
	delete(c.revisions, last)
	for h, name := range c.indexContribs[last] {
		if c.fileIndex[h] == name {
			delete(c.fileIndex, h)
		}
	}
	delete(c.indexContribs, last)
	return true
}

// --- wire format (spec §6) ---

type wireChain struct {
	Revisions *ordered.Map `json:"revisions"`
	FileIndex *ordered.Map `json:"file_index"`
}

// MarshalJSON renders {"revisions": {vhash: revision, ...}, "file_index":
// {hash: name, ...}} with both maps in insertion order, the only stable
// interop contract named in spec §6.
func (c *AquaChain) MarshalJSON() ([]byte, error) {
	revs := ordered.New()
	for _, h := range c.order {
		revs.Set(string(h), c.revisions[h])
	}
	idx := ordered.New()
	for _, h := range c.order {
		r := c.revisions[h]
		switch r.Kind {
		case KindFile, KindForm:
			if fh := r.fileHash(); fh != "" {
				if name, ok := c.fileIndex[fh]; ok {
					idx.Set(fh, name)
				}
			}
		case KindLink:
			for _, lh := range r.Link.VerificationHashes {
				if name, ok := c.fileIndex[lh]; ok {
					idx.Set(lh, name)
				}
			}
		}
	}
	return json.Marshal(wireChain{Revisions: revs, FileIndex: idx})
}

// Open parses a serialized aqua object and validates invariants 1, 2, 4
// and 5 of spec §3, failing with CORRUPT_CHAIN on violation.
func Open(data []byte) (*AquaChain, error) {
	// A plain map[string]json.RawMessage loses insertion order, so the
	// revisions object is decoded through the same order-preserving
	// decoder fields.go uses for a single revision's dynamic keys.
	var envelope struct {
		Revisions orderedRaw        `json:"revisions"`
		FileIndex map[string]string `json:"file_index"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, wrapErr(KindCorruptChain, "malformed aqua object", err)
	}
	ordRaw := envelope.Revisions
	raw := envelope

	c := New()
	var prev Hash = ""
	for i, key := range ordRaw.order {
		vhash := Hash(key)
		revData, ok := ordRaw.byKey[key]
		if !ok {
			continue
		}
		var r Revision
		if err := json.Unmarshal(revData, &r); err != nil {
			return nil, wrapErr(KindCorruptChain, fmt.Sprintf("revision %q", key), err)
		}
		if i == 0 {
			if r.PreviousVerificationHash != "" {
				return nil, newErrf(KindCorruptChain, "genesis revision has non-empty previous_verification_hash")
			}
		} else if !r.PreviousVerificationHash.Equal(prev) {
			return nil, newErrf(KindCorruptChain, "revision %q does not chain from %q", key, prev)
		}
		c.revisions[vhash.Normalize()] = &r
		c.order = append(c.order, vhash.Normalize())
		prev = vhash
	}
	c.fileIndex = raw.FileIndex
	if c.fileIndex == nil {
		c.fileIndex = make(map[string]string)
	}

	for _, h := range c.order {
		r := c.revisions[h]
		switch r.Kind {
		case KindFile, KindForm:
			if fh := r.fileHash(); fh != "" {
				name, ok := c.fileIndex[fh]
				if !ok {
					return nil, newErrf(KindCorruptChain, "file_index missing entry for file_hash %q", fh)
				}
				c.indexContribs[h] = map[string]string{fh: name}
			}
		case KindLink:
			contrib := make(map[string]string, len(r.Link.VerificationHashes))
			for _, lh := range r.Link.VerificationHashes {
				name, ok := c.fileIndex[lh]
				if !ok {
					return nil, newErrf(KindCorruptChain, "file_index missing entry for link hash %q", lh)
				}
				contrib[lh] = name
			}
			c.indexContribs[h] = contrib
		}
	}
	return c, nil
}

// LoadFile reads and parses an aqua object from disk, the on-disk
// convenience the teacher's LocalStore provides via basePath — kept as a
// thin wrapper around Open rather than baked into AquaChain itself, since
// the core's contract (spec §1) treats persistence as an external concern.
func LoadFile(path string) (*AquaChain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(data)
}

// SaveFile serializes the chain and writes it to path.
func (c *AquaChain) SaveFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

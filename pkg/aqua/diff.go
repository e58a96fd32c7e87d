package aqua

// DiffResult reports where two chains diverge.
type DiffResult struct {
	CommonLength int  // number of leading revisions that agree
	Diverged     bool // true iff the chains are not identical
	IndexA       int  // -1 if a has no divergent revision (b is a strict extension)
	IndexB       int  // -1 if b has no divergent revision (a is a strict extension)
	HashA        Hash
	HashB        Hash
}

// Diff compares two chains revision-by-revision in insertion order and
// reports the first point of disagreement, a natural extension of the
// rollback machinery in §4.C for a caller reconciling two copies of the
// same chain after a rollback race.
func Diff(a, b *AquaChain) DiffResult {
	oa, ob := a.Order(), b.Order()
	n := len(oa)
	if len(ob) < n {
		n = len(ob)
	}
	i := 0
	for ; i < n; i++ {
		if !oa[i].Equal(ob[i]) {
			return DiffResult{CommonLength: i, Diverged: true, IndexA: i, IndexB: i, HashA: oa[i], HashB: ob[i]}
		}
	}
	if len(oa) == len(ob) {
		return DiffResult{CommonLength: i, Diverged: false, IndexA: -1, IndexB: -1}
	}
	res := DiffResult{CommonLength: i, Diverged: true, IndexA: -1, IndexB: -1}
	if i < len(oa) {
		res.IndexA = i
		res.HashA = oa[i]
	}
	if i < len(ob) {
		res.IndexB = i
		res.HashB = ob[i]
	}
	return res
}

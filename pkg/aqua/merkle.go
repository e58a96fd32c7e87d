package aqua

// This file implements the Merkle tree shared by the Revision Builder's
// Merkle mode (spec §4.B) and the Witness Coordinator's multi-chain root
// aggregation (spec §4.D). Both use the same odd-leaf-promotion rule: an
// odd node at any level is carried up unchanged rather than duplicated
// (spec §9's open question, resolved in favor of promotion-without-
// duplication for both tree building and proof verification).

// hashPair computes the SHA3-512 hex digest of the concatenation of two
// normalized hex strings, the inner-node hash used throughout the tree.
func hashPair(left, right string) string {
	return SHA3_512Hex([]byte(string(Hash(left).Normalize()) + string(Hash(right).Normalize())))
}

// merkleLevels builds every level of the tree bottom-up, level 0 being the
// input leaves and the last level holding the single root.
func merkleLevels(leaves []string) [][]string {
	if len(leaves) == 0 {
		return nil
	}
	levels := [][]string{leaves}
	cur := leaves
	for len(cur) > 1 {
		next := make([]string, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			if i+1 < len(cur) {
				next = append(next, hashPair(cur[i], cur[i+1]))
			} else {
				next = append(next, cur[i]) // odd leaf promoted unchanged
			}
		}
		levels = append(levels, next)
		cur = next
	}
	return levels
}

// MerkleRoot builds a tree over leaves and returns its root. An empty
// input yields an empty root; a single leaf yields itself as the root
// (spec §4.D's single-chain degenerate case).
func MerkleRoot(leaves []string) string {
	levels := merkleLevels(leaves)
	if levels == nil {
		return ""
	}
	last := levels[len(levels)-1]
	return last[0]
}

// MerkleRootWithProofs builds a tree over leaves and returns the root plus
// one proof (a list of intermediate-node records, leaf to root) per leaf,
// used by the Witness Coordinator to hand each chain the path from its tip
// to the shared root (spec §4.D step 4).
func MerkleRootWithProofs(leaves []string) (root string, proofs [][]MerkleProofNode) {
	levels := merkleLevels(leaves)
	if levels == nil {
		return "", nil
	}
	root = levels[len(levels)-1][0]
	proofs = make([][]MerkleProofNode, len(leaves))
	for leafIdx := range leaves {
		idx := leafIdx
		var path []MerkleProofNode
		for L := 0; L < len(levels)-1; L++ {
			row := levels[L]
			siblingIdx := idx ^ 1
			if siblingIdx < len(row) {
				var left, right string
				if idx%2 == 0 {
					left, right = row[idx], row[siblingIdx]
				} else {
					left, right = row[siblingIdx], row[idx]
				}
				path = append(path, MerkleProofNode{
					LeftLeaf:  left,
					RightLeaf: right,
					Successor: hashPair(left, right),
				})
			} else {
				// odd node promoted unchanged: no sibling this level.
				cur := row[idx]
				path = append(path, MerkleProofNode{
					LeftLeaf:  cur,
					RightLeaf: "",
					Successor: cur,
				})
			}
			idx /= 2
		}
		proofs[leafIdx] = path
	}
	return root, proofs
}

// VerifyMerkleProofNodes replays the node-record proof described in spec
// §4.E.5.c: starting from leaf, each step's successor must match the
// recorded successor and the running value must appear on one side of the
// step; the final successor must equal root.
func VerifyMerkleProofNodes(leaf string, nodes []MerkleProofNode, root string) bool {
	cur := string(Hash(leaf).Normalize())
	rootNorm := string(Hash(root).Normalize())
	for _, node := range nodes {
		left := string(Hash(node.LeftLeaf).Normalize())
		right := string(Hash(node.RightLeaf).Normalize())
		if cur != left && cur != right {
			return false
		}
		var successor string
		switch {
		case left == "":
			successor = right
		case right == "":
			successor = left
		default:
			successor = hashPair(node.LeftLeaf, node.RightLeaf)
		}
		if successor != string(Hash(node.Successor).Normalize()) {
			return false
		}
		cur = successor
	}
	return cur == rootNorm
}

package aqua

import "testing"

func TestMerkleRoot_SingleLeaf(t *testing.T) {
	leaves := []string{SHA3_512Hex([]byte("a"))}
	root := MerkleRoot(leaves)
	if root != leaves[0] {
		t.Errorf("single-leaf root = %s, want %s", root, leaves[0])
	}
}

func TestMerkleRoot_OddLeafPromotedNotDuplicated(t *testing.T) {
	leaves := []string{
		SHA3_512Hex([]byte("a")),
		SHA3_512Hex([]byte("b")),
		SHA3_512Hex([]byte("c")),
	}
	root := MerkleRoot(leaves)
	duplicated := hashPair(hashPair(leaves[0], leaves[1]), hashPair(leaves[2], leaves[2]))
	if root == duplicated {
		t.Errorf("root duplicated the odd leaf instead of promoting it unchanged")
	}
	promoted := hashPair(hashPair(leaves[0], leaves[1]), leaves[2])
	if root != promoted {
		t.Errorf("root = %s, want %s (promotion without duplication)", root, promoted)
	}
}

func TestMerkleRootWithProofs_EachLeafVerifies(t *testing.T) {
	leaves := []string{
		SHA3_512Hex([]byte("a")),
		SHA3_512Hex([]byte("b")),
		SHA3_512Hex([]byte("c")),
		SHA3_512Hex([]byte("d")),
		SHA3_512Hex([]byte("e")),
	}
	root, proofs := MerkleRootWithProofs(leaves)
	if len(proofs) != len(leaves) {
		t.Fatalf("want %d proofs, got %d", len(leaves), len(proofs))
	}
	for i, leaf := range leaves {
		if !VerifyMerkleProofNodes(leaf, proofs[i], root) {
			t.Errorf("leaf %d failed to verify against root", i)
		}
	}
}

func TestVerifyMerkleProofNodes_RejectsForeignLeaf(t *testing.T) {
	leaves := []string{
		SHA3_512Hex([]byte("a")),
		SHA3_512Hex([]byte("b")),
		SHA3_512Hex([]byte("c")),
		SHA3_512Hex([]byte("d")),
	}
	root, proofs := MerkleRootWithProofs(leaves)
	foreign := SHA3_512Hex([]byte("not in the tree"))
	if VerifyMerkleProofNodes(foreign, proofs[0], root) {
		t.Errorf("foreign leaf should not verify")
	}
}

package aqua

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// copyChain returns an independent copy of c with the same revisions and
// verification hashes, made by a round trip through the wire format.
func copyChain(t *testing.T, c *AquaChain) *AquaChain {
	t.Helper()
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Open(data)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestDiff_IdenticalChains(t *testing.T) {
	files := memFileProvider{"a.txt": []byte("one")}
	chain := New()
	b := &Builder{Chain: chain, Files: files, Now: time.Now}
	if _, err := b.AppendFile(context.Background(), "a.txt", FileOptions{}); err != nil {
		t.Fatal(err)
	}
	d := Diff(chain, chain)
	if d.Diverged {
		t.Errorf("a chain diffed against itself must not diverge: %+v", d)
	}
	if d.CommonLength != chain.Len() {
		t.Errorf("common length = %d, want %d", d.CommonLength, chain.Len())
	}
}

func TestDiff_StrictExtension(t *testing.T) {
	files := memFileProvider{"a.txt": []byte("one"), "b.txt": []byte("two")}
	short := New()
	bShort := &Builder{Chain: short, Files: files, Now: time.Now}
	if _, err := bShort.AppendFile(context.Background(), "a.txt", FileOptions{}); err != nil {
		t.Fatal(err)
	}

	// Each AppendFile draws a fresh nonce, so the shared prefix is copied
	// through the wire format rather than rebuilt.
	long := copyChain(t, short)
	bLong := &Builder{Chain: long, Files: files, Now: time.Now}
	if _, err := bLong.AppendFile(context.Background(), "b.txt", FileOptions{}); err != nil {
		t.Fatal(err)
	}

	d := Diff(short, long)
	if !d.Diverged {
		t.Fatal("a strict extension should still report Diverged=true")
	}
	if d.IndexA != -1 {
		t.Errorf("IndexA = %d, want -1 (short chain has no divergent revision)", d.IndexA)
	}
	if d.IndexB != 1 {
		t.Errorf("IndexB = %d, want 1", d.IndexB)
	}
}

func TestDiff_DivergesAtSecondRevision(t *testing.T) {
	filesA := memFileProvider{"a.txt": []byte("one"), "x.txt": []byte("branch a")}
	filesB := memFileProvider{"a.txt": []byte("one"), "y.txt": []byte("branch b")}

	chainA := New()
	bA := &Builder{Chain: chainA, Files: filesA, Now: time.Now}
	if _, err := bA.AppendFile(context.Background(), "a.txt", FileOptions{}); err != nil {
		t.Fatal(err)
	}

	chainB := copyChain(t, chainA)
	bB := &Builder{Chain: chainB, Files: filesB, Now: time.Now}

	if _, err := bA.AppendFile(context.Background(), "x.txt", FileOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := bB.AppendFile(context.Background(), "y.txt", FileOptions{}); err != nil {
		t.Fatal(err)
	}

	d := Diff(chainA, chainB)
	if !d.Diverged || d.CommonLength != 1 {
		t.Fatalf("want divergence at index 1, got %+v", d)
	}
}

package aqua

import (
	"context"
	"errors"
	"testing"
	"time"
)

// memFileProvider serves fixed content by name, the FileProvider stand-in
// used across this package's tests instead of touching the real
// filesystem.
type memFileProvider map[string][]byte

func (m memFileProvider) Read(ctx context.Context, name string) ([]byte, error) {
	b, ok := m[name]
	if !ok {
		return nil, errors.New("not found: " + name)
	}
	return b, nil
}

// stubSigner returns a fixed Signature regardless of the message, useful
// for exercising the Builder's signature plumbing without a real wallet.
type stubSigner Signature

func (s stubSigner) Sign(ctx context.Context, message []byte) (Signature, error) {
	return Signature(s), nil
}

func TestGenesisFile(t *testing.T) {
	files := memFileProvider{"doc.txt": []byte("hello aqua")}
	chain := New()
	b := &Builder{Chain: chain, Files: files, Now: time.Now}

	vhash, err := b.AppendFile(context.Background(), "doc.txt", FileOptions{EmbedContent: true})
	if err != nil {
		t.Fatal(err)
	}
	if chain.Len() != 1 {
		t.Fatalf("want 1 revision, got %d", chain.Len())
	}
	if !chain.Tip().Equal(vhash) {
		t.Errorf("tip = %s, want %s", chain.Tip(), vhash)
	}
	rev, ok := chain.Revision(vhash)
	if !ok {
		t.Fatal("revision not found under its own hash")
	}
	if rev.PreviousVerificationHash != "" {
		t.Errorf("genesis previous_verification_hash = %q, want empty", rev.PreviousVerificationHash)
	}
	if name, ok := chain.FileIndexName(rev.File.FileHash); !ok || name != "doc.txt" {
		t.Errorf("file_index lookup: name=%q ok=%v", name, ok)
	}
}

func TestAppendFile_DuplicateContentRejected(t *testing.T) {
	files := memFileProvider{"a.txt": []byte("same bytes"), "b.txt": []byte("same bytes")}
	chain := New()
	b := &Builder{Chain: chain, Files: files, Now: time.Now}

	if _, err := b.AppendFile(context.Background(), "a.txt", FileOptions{}); err != nil {
		t.Fatal(err)
	}
	_, err := b.AppendFile(context.Background(), "b.txt", FileOptions{})
	var aerr *Error
	if !errors.As(err, &aerr) || aerr.Kind != KindDuplicateContent {
		t.Fatalf("want DUPLICATE_CONTENT, got %v", err)
	}
	if chain.Len() != 1 {
		t.Errorf("failed append must not mutate the chain, len = %d", chain.Len())
	}
}

func TestAppendSignature(t *testing.T) {
	files := memFileProvider{"doc.txt": []byte("hello aqua")}
	chain := New()
	b := &Builder{Chain: chain, Files: files, Now: time.Now}

	tip, err := b.AppendFile(context.Background(), "doc.txt", FileOptions{})
	if err != nil {
		t.Fatal(err)
	}
	signer := stubSigner{Hex: "aa", PublicKey: "pk", WalletAddress: "0xabc", Scheme: SchemeEthereumEIP191}
	vhash, err := b.AppendSignature(context.Background(), signer)
	if err != nil {
		t.Fatal(err)
	}
	rev, _ := chain.Revision(vhash)
	if !rev.PreviousVerificationHash.Equal(tip) {
		t.Errorf("signature revision does not chain from the file revision")
	}
	if rev.Signature.WalletAddress != "0xabc" {
		t.Errorf("wallet address not carried through")
	}
}

func TestAppendLink_RejectsAquaJSONSuffix(t *testing.T) {
	chain := New()
	b := &Builder{Chain: chain, Files: memFileProvider{}, Now: time.Now}
	_, err := b.AppendLink(nil, map[string][]byte{"other.aqua.json": []byte("x")}, false)
	var aerr *Error
	if !errors.As(err, &aerr) || aerr.Kind != KindInvalidLink {
		t.Fatalf("want INVALID_LINK, got %v", err)
	}
}

func TestAppendLink_RejectsAlreadyIndexedFileHash(t *testing.T) {
	files := memFileProvider{"doc.txt": []byte("hello aqua")}
	chain := New()
	b := &Builder{Chain: chain, Files: files, Now: time.Now}
	if _, err := b.AppendFile(context.Background(), "doc.txt", FileOptions{}); err != nil {
		t.Fatal(err)
	}
	_, err := b.AppendLink(nil, map[string][]byte{"linked.txt": []byte("hello aqua")}, false)
	var aerr *Error
	if !errors.As(err, &aerr) || aerr.Kind != KindInvalidLink {
		t.Fatalf("want INVALID_LINK, got %v", err)
	}
}


package aqua

import (
	"context"
	"testing"
	"time"
)

func TestVerifyChain_MultipleFailuresAllReported(t *testing.T) {
	files := memFileProvider{"a.txt": []byte("one"), "b.txt": []byte("two")}
	chain := New()
	b := &Builder{Chain: chain, Files: files, Now: time.Now}

	if _, err := b.AppendFile(context.Background(), "a.txt", FileOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.AppendFile(context.Background(), "b.txt", FileOptions{}); err != nil {
		t.Fatal(err)
	}

	// Tamper both revisions' declared previous_verification_hash so linkage
	// fails independently at every step, proving the verifier does not stop
	// at the first failure.
	for _, h := range chain.order {
		chain.revisions[h].PreviousVerificationHash = Hash("not-a-real-parent")
	}

	result := VerifyChain(context.Background(), chain, files, nil, DefaultVerifierConfig())
	if result.Pass {
		t.Fatal("chain with two broken links should not pass")
	}
	if len(result.Revisions) != 2 {
		t.Fatalf("want 2 revision results, got %d", len(result.Revisions))
	}
	for i, rr := range result.Revisions {
		if rr.Linkage.Status != StatusFail {
			t.Errorf("revision %d linkage = %v, want FAIL", i, rr.Linkage)
		}
	}
}

func TestVerifyChain_ExternalContentResolvedThroughFileIndex(t *testing.T) {
	files := memFileProvider{"doc.txt": []byte("hello aqua")}
	chain := New()
	b := &Builder{Chain: chain, Files: files, Now: time.Now}
	if _, err := b.AppendFile(context.Background(), "doc.txt", FileOptions{}); err != nil {
		t.Fatal(err)
	}

	result := VerifyChain(context.Background(), chain, files, nil, DefaultVerifierConfig())
	if !result.Pass {
		t.Fatalf("expected pass, got %+v", result.Revisions[0])
	}
	if result.Revisions[0].FileIntegrity.Status != StatusPass {
		t.Errorf("file integrity = %v, want PASS", result.Revisions[0].FileIntegrity)
	}
}

func TestVerifyChain_NoFileProviderFailsExternalContent(t *testing.T) {
	files := memFileProvider{"doc.txt": []byte("hello aqua")}
	chain := New()
	b := &Builder{Chain: chain, Files: files, Now: time.Now}
	if _, err := b.AppendFile(context.Background(), "doc.txt", FileOptions{}); err != nil {
		t.Fatal(err)
	}

	result := VerifyChain(context.Background(), chain, nil, nil, DefaultVerifierConfig())
	if result.Pass {
		t.Fatal("verification without a file provider must not pass a non-embedded file revision")
	}
	if result.Revisions[0].FileIntegrity.Status != StatusFail {
		t.Errorf("file integrity = %v, want FAIL", result.Revisions[0].FileIntegrity)
	}
}

func TestVerifyChain_StrictModeDemotesMissingToFail(t *testing.T) {
	files := memFileProvider{"doc.txt": []byte("hello aqua")}
	chain := New()
	b := &Builder{Chain: chain, Files: files, Now: time.Now}
	if _, err := b.AppendFile(context.Background(), "doc.txt", FileOptions{EmbedContent: true}); err != nil {
		t.Fatal(err)
	}

	lenient := VerifyChain(context.Background(), chain, nil, nil, DefaultVerifierConfig())
	if !lenient.Pass {
		t.Fatal("an unsigned, unwitnessed file revision should pass under the default lenient config")
	}

	strict := DefaultVerifierConfig()
	strict.Strict = true
	result := VerifyChain(context.Background(), chain, nil, nil, strict)
	if result.Pass {
		t.Fatal("strict mode should demote MISSING signature/witness to FAIL")
	}
}

package aqua

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testDIDKeySigner signs with a fixed Ed25519 key, producing a compact JWS
// over the raw revision message and a did:key identifier for the public
// half, matching what verifyDIDKey/decodeDIDKeyEd25519 expect.
type testDIDKeySigner struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func newTestDIDKeySigner(t *testing.T) testDIDKeySigner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return testDIDKeySigner{pub: pub, priv: priv}
}

func (s testDIDKeySigner) did() string {
	multicodec := append([]byte{0xed, 0x01}, s.pub...)
	return "did:key:z" + base58Encode(multicodec)
}

func (s testDIDKeySigner) Sign(ctx context.Context, message []byte) (Signature, error) {
	header, err := json.Marshal(map[string]string{"alg": "EdDSA", "typ": "JWT"})
	if err != nil {
		return Signature{}, err
	}
	headerSeg := base64.RawURLEncoding.EncodeToString(header)
	payloadSeg := base64.RawURLEncoding.EncodeToString(message)
	signingInput := headerSeg + "." + payloadSeg
	sig, err := jwt.SigningMethodEdDSA.Sign(signingInput, s.priv)
	if err != nil {
		return Signature{}, err
	}
	sigSeg := base64.RawURLEncoding.EncodeToString(sig)
	return Signature{
		Hex:       signingInput + "." + sigSeg,
		PublicKey: s.did(),
		Scheme:    SchemeDIDKey,
	}, nil
}

// base58Encode is the inverse of base58Decode, used only by this test to
// build a did:key identifier from a raw multicodec-prefixed public key.
func base58Encode(b []byte) string {
	zero := byte(0)
	zeros := 0
	for zeros < len(b) && b[zeros] == zero {
		zeros++
	}
	input := make([]byte, len(b))
	copy(input, b)
	out := make([]byte, 0, len(b)*2)
	for len(input) > 0 {
		var remainder int
		var quotient []byte
		for _, c := range input {
			acc := remainder*256 + int(c)
			digit := byte(acc / 58)
			remainder = acc % 58
			if len(quotient) > 0 || digit != 0 {
				quotient = append(quotient, digit)
			}
		}
		out = append(out, base58Alphabet[remainder])
		input = quotient
	}
	for i := 0; i < zeros; i++ {
		out = append(out, base58Alphabet[0])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func TestVerifyDIDKey_RoundTrip(t *testing.T) {
	signer := newTestDIDKeySigner(t)
	message := []byte(CurrentSignatureMessage(Hash("0xabc123")))

	sig, err := signer.Sign(context.Background(), message)
	if err != nil {
		t.Fatal(err)
	}
	payload := SignaturePayload{
		Signature: sig.Hex,
		PublicKey: sig.PublicKey,
		Scheme:    sig.Scheme,
	}
	if !verifyDIDKey(message, payload) {
		t.Fatal("expected a genuine did:key signature to verify")
	}
	if verifyDIDKey([]byte("tampered message"), payload) {
		t.Error("verifyDIDKey should reject a mismatched message")
	}
	other := newTestDIDKeySigner(t)
	wrongKeyPayload := payload
	wrongKeyPayload.PublicKey = other.did()
	if verifyDIDKey(message, wrongKeyPayload) {
		t.Error("verifyDIDKey should reject a signature checked against the wrong public key")
	}
}

func TestVerifySignature_DIDKeyChainPasses(t *testing.T) {
	files := memFileProvider{"doc.txt": []byte("hello aqua")}
	chain := New()
	b := &Builder{Chain: chain, Files: files, Now: time.Now}
	if _, err := b.AppendFile(context.Background(), "doc.txt", FileOptions{EmbedContent: true}); err != nil {
		t.Fatal(err)
	}
	signer := newTestDIDKeySigner(t)
	vhash, err := b.AppendSignature(context.Background(), signer)
	if err != nil {
		t.Fatal(err)
	}
	rev, _ := chain.Revision(vhash)
	result := VerifyRevision(context.Background(), vhash, rev, chain.order[len(chain.order)-2], nil, nil, DefaultVerifierConfig())
	if result.Signature.Status != StatusPass {
		t.Errorf("signature sub-result = %v, want PASS", result.Signature)
	}
}

package aqua

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/sha3"
)

// FileProvider reads file bytes by name, the narrow interface the Builder
// uses instead of talking to os directly (spec §6).
type FileProvider interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// OSFileProvider reads files under Root ("" means the working directory),
// the default FileProvider.
type OSFileProvider struct {
	Root string
}

func (p OSFileProvider) Read(ctx context.Context, name string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	path := name
	if p.Root != "" {
		path = filepath.Join(p.Root, name)
	}
	return os.ReadFile(path)
}

// Signature is what a Signer produces for AppendSignature to fold into a
// SignaturePayload.
type Signature struct {
	Hex           string
	PublicKey     string
	WalletAddress string
	Scheme        SignatureScheme
}

// Signer produces an attestation over message. The core never implements
// one — every Signer is supplied by the caller, per spec §6.
type Signer interface {
	Sign(ctx context.Context, message []byte) (Signature, error)
}

// CurrentSignatureMessage returns the exact message an ethereum:eip-191 or
// did:key signer signs over tip under the current (non-legacy) schema.
// The legacy v1.2 message form lives in schema.go.
func CurrentSignatureMessage(tip Hash) string {
	return "I sign this revision: [" + string(tip) + "]"
}

// keccak256 is the hash EIP-191 recovery runs over — distinct from the
// SHA3-512 used throughout the rest of the chain, so it gets its own
// helper rather than reusing hash.go's SHA3_512.
func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

func eip191Digest(message []byte) []byte {
	prefix := "\x19Ethereum Signed Message:\n" + strconv.Itoa(len(message))
	return keccak256(append([]byte(prefix), message...))
}

// recoverEthereumAddress recovers the checksum-agnostic lowercase hex
// address (returned with a 0x prefix) that produced sigHex
// over message, per spec §4.E's ethereum:eip-191 scheme. sigHex is the
// 65-byte r||s||v signature, hex encoded, optionally 0x-prefixed.
func recoverEthereumAddress(message []byte, sigHex string) (string, error) {
	sig, err := decodeHexFlexible(sigHex)
	if err != nil {
		return "", fmt.Errorf("aqua: decode signature: %w", err)
	}
	if len(sig) != 65 {
		return "", fmt.Errorf("aqua: signature must be 65 bytes, got %d", len(sig))
	}
	digest := eip191Digest(message)
	recID := sig[64]
	if recID >= 27 {
		recID -= 27
	}
	compact := make([]byte, 65)
	compact[0] = recID + 27
	copy(compact[1:], sig[:64])
	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return "", fmt.Errorf("aqua: recover public key: %w", err)
	}
	uncompressed := pub.SerializeUncompressed()
	addrHash := keccak256(uncompressed[1:]) // drop the 0x04 prefix byte
	return "0x" + hexEncode(addrHash[12:]), nil
}

// verifyEthereumEIP191 reports whether sig recovers to walletAddress over
// message (case-insensitive per spec §9).
func verifyEthereumEIP191(message []byte, sig SignaturePayload) bool {
	recovered, err := recoverEthereumAddress(message, sig.Signature)
	if err != nil {
		return false
	}
	return strings.EqualFold(recovered, strings.TrimSpace(sig.WalletAddress))
}

// verifyDIDKey verifies a compact JWS in sig.Signature against the Ed25519
// public key embedded in the did:key multibase identifier carried in
// sig.PublicKey, per spec §4.E. The signed revision message is plain text,
// not a JSON claims object, so this verifies the three compact-JWS
// segments directly with jwt.SigningMethodEdDSA rather than going through
// jwt.Parse, which assumes a JSON payload it would otherwise fail to
// unmarshal.
func verifyDIDKey(message []byte, sig SignaturePayload) bool {
	pub, err := decodeDIDKeyEd25519(sig.PublicKey)
	if err != nil {
		return false
	}
	parts := strings.Split(sig.Signature, ".")
	if len(parts) != 3 {
		return false
	}
	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil || header.Alg != "EdDSA" {
		return false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil || !bytes.Equal(payload, message) {
		return false
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	return jwt.SigningMethodEdDSA.Verify(parts[0]+"."+parts[1], signature, pub) == nil
}

// decodeDIDKeyEd25519 extracts the Ed25519 public key from a "did:key:z..."
// identifier. The multibase-base58btc "z" prefix and the two-byte
// multicodec prefix (0xed01 for ed25519-pub) are stripped per the did:key
// spec; base58 decoding is hand-rolled here since it is the single place
// the module needs it and pulling in a base58 dependency for four lines
// would not be grounded on anything else in the stack.
func decodeDIDKeyEd25519(did string) (ed25519.PublicKey, error) {
	const prefix = "did:key:z"
	if !strings.HasPrefix(did, prefix) {
		return nil, fmt.Errorf("aqua: not a did:key identifier: %q", did)
	}
	decoded, err := base58Decode(did[len(prefix):])
	if err != nil {
		return nil, err
	}
	if len(decoded) != 34 || decoded[0] != 0xed || decoded[1] != 0x01 {
		return nil, fmt.Errorf("aqua: unsupported did:key multicodec")
	}
	return ed25519.PublicKey(decoded[2:]), nil
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func base58Decode(s string) ([]byte, error) {
	result := make([]byte, 0, len(s))
	for _, c := range s {
		idx := strings.IndexRune(base58Alphabet, c)
		if idx < 0 {
			return nil, fmt.Errorf("aqua: invalid base58 character %q", c)
		}
		carry := idx
		for i := 0; i < len(result); i++ {
			carry += int(result[i]) * 58
			result[i] = byte(carry & 0xff)
			carry >>= 8
		}
		for carry > 0 {
			result = append(result, byte(carry&0xff))
			carry >>= 8
		}
	}
	for _, c := range s {
		if c != '1' {
			break
		}
		result = append(result, 0)
	}
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, nil
}

// decodeHexFlexible decodes a signature that may or may not carry a 0x
// prefix, the only variability spec §3 allows for the "signature" field.
func decodeHexFlexible(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hexDecode(s)
}

func hexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("aqua: odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexNibble(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("aqua: invalid hex character %q", c)
	}
}

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0xf]
	}
	return string(out)
}

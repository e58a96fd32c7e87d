// Package aqua implements the revision model, hash algebra, chain
// construction and verification engines of the Aqua Protocol core.
package aqua

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"golang.org/x/crypto/sha3"
)

// Hash is a lowercase hex SHA3-512 digest, optionally carrying a "0x"
// prefix. Comparisons must go through Equal, never Go's == operator,
// since the prefix and case are not part of the identity.
type Hash string

// Equal compares two hashes case-insensitively and ignoring an optional
// leading "0x" on either side, per spec §9's open question.
func (h Hash) Equal(other Hash) bool {
	return h.Normalize() == other.Normalize()
}

// Normalize strips a leading "0x"/"0X" and lowercases the remainder.
func (h Hash) Normalize() Hash {
	s := string(h)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return Hash(toLowerASCII(s))
}

// IsEmpty reports whether h is the empty-genesis sentinel.
func (h Hash) IsEmpty() bool {
	return h == ""
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// SHA3_512Hex hashes data with SHA3-512 and returns the lowercase hex
// digest. The empty-string sentinel from spec §4.A ("" -> "") is honored
// so legacy v1.2 payloads that rely on it round-trip correctly.
func SHA3_512Hex(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha3.Sum512(data)
	return hex.EncodeToString(sum[:])
}

// SHA3_512 hashes data with SHA3-512 and returns the raw 64-byte digest.
func SHA3_512(data []byte) [64]byte {
	return sha3.Sum512(data)
}

// stringifyValue deterministically stringifies an attribute value for
// leaf hashing per spec §4.A: strings as-is, numbers as decimal, booleans
// as "true"/"false", nested structures as canonical JSON.
func stringifyValue(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return formatShortestFloat(t), nil
	case nil:
		return "", nil
	default:
		return CanonicalJSON(v)
	}
}

func formatShortestFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Leaves produces the ordered sequence of SHA3-512 leaf hashes described
// in spec §4.A, given an attribute map and its key order (insertion order
// of the map, stable across build and verify — a plain Go map does not
// preserve this, so callers pass it explicitly).
func Leaves(keys []string, values map[string]interface{}) ([]string, error) {
	out := make([]string, len(keys))
	for i, k := range keys {
		vs, err := stringifyValue(values[k])
		if err != nil {
			return nil, fmt.Errorf("aqua: stringify leaf %q: %w", k, err)
		}
		out[i] = SHA3_512Hex([]byte(k + vs))
	}
	return out, nil
}

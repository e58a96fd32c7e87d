package aqua

import "testing"

func TestSHA3_512Hex_EmptyIsSentinel(t *testing.T) {
	if got := SHA3_512Hex(nil); got != "" {
		t.Errorf("SHA3_512Hex(nil) = %q, want empty", got)
	}
}

func TestSHA3_512Hex_Deterministic(t *testing.T) {
	a := SHA3_512Hex([]byte("hello aqua"))
	b := SHA3_512Hex([]byte("hello aqua"))
	if a != b {
		t.Errorf("hash not deterministic: %s != %s", a, b)
	}
	if len(a) != 128 {
		t.Errorf("want 128 hex chars, got %d", len(a))
	}
}

func TestHash_EqualIgnoresPrefixAndCase(t *testing.T) {
	a := Hash("0xABCDEF")
	b := Hash("abcdef")
	if !a.Equal(b) {
		t.Errorf("%q should equal %q", a, b)
	}
	c := Hash("0xabcdee")
	if a.Equal(c) {
		t.Errorf("%q should not equal %q", a, c)
	}
}

func TestLeaves_OrderMatchesKeys(t *testing.T) {
	keys := []string{"b", "a", "c"}
	values := map[string]interface{}{"a": "1", "b": "2", "c": "3"}
	leaves, err := Leaves(keys, values)
	if err != nil {
		t.Fatal(err)
	}
	if len(leaves) != 3 {
		t.Fatalf("want 3 leaves, got %d", len(leaves))
	}
	want := SHA3_512Hex([]byte("b2"))
	if leaves[0] != want {
		t.Errorf("leaves[0] = %s, want %s", leaves[0], want)
	}
}

func TestStringifyValue_Bool(t *testing.T) {
	s, err := stringifyValue(true)
	if err != nil || s != "true" {
		t.Errorf("stringifyValue(true) = %q, %v", s, err)
	}
	s, err = stringifyValue(false)
	if err != nil || s != "false" {
		t.Errorf("stringifyValue(false) = %q, %v", s, err)
	}
}

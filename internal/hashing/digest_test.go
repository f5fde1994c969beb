package hashing

import "testing"

func TestDigest_KnownVector(t *testing.T) {
	// SHA-256 of the empty input.
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Digest(nil); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got := Digest([]byte{}); got != want {
		t.Fatalf("expected identical digest for nil and empty slice, got %s", got)
	}
}

func TestDigest_IsPure(t *testing.T) {
	input := []byte("canonical image bytes")
	first := Digest(input)
	second := Digest(input)
	if first != second {
		t.Fatalf("digest not deterministic: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(first))
	}
	for _, r := range first {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("digest contains non-lowercase-hex rune %q", r)
		}
	}
}

func TestDigest_DistinctInputsDiffer(t *testing.T) {
	if Digest([]byte("a")) == Digest([]byte("b")) {
		t.Fatal("distinct inputs produced identical digests")
	}
}

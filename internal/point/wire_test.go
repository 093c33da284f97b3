package point

import (
	"testing"

	"github.com/activeharmony/harmony/internal/value"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	sp := testSpace(t)
	p, err := New(7, sp, []value.Value{value.OfInt(3), value.OfReal(0.25), value.OfString("fast")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, terms := Encode(p)
	decoded, err := Decode(id, terms)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !p.Equal(decoded) || decoded.ID != p.ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", p, decoded)
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := Decode(1, []WireTerm{{Kind: "bogus", Literal: "x"}})
	if err == nil {
		t.Error("expected Decode to reject an unknown wire kind")
	}
}

func TestFormatUnifiedIncludesIDAndUnified(t *testing.T) {
	sp := testSpace(t)
	p, err := New(3, sp, []value.Value{value.OfInt(1), value.OfReal(0.5), value.OfString("fast")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	perf, err := NewPerformance(2.5)
	if err != nil {
		t.Fatalf("NewPerformance: %v", err)
	}
	line := FormatUnified(p, perf)
	if line == "" {
		t.Fatal("expected a non-empty formatted line")
	}
	if got, want := line[:len("Point #3:")], "Point #3:"; got != want {
		t.Errorf("line prefix = %q, want %q", got, want)
	}
}

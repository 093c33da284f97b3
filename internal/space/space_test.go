package space

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/activeharmony/harmony/internal/rng"
	"github.com/activeharmony/harmony/internal/value"
)

func TestAlignIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		intDim, err := NewInteger("i", rapid.Int64Range(-100, 0).Draw(t, "imin"), rapid.Int64Range(1, 100).Draw(t, "imax"), rapid.Int64Range(1, 5).Draw(t, "istep"))
		if err != nil {
			t.Skip("invalid dimension draw")
		}
		r := rng.New(rapid.Uint64().Draw(t, "seed"))
		v := intDim.Random(r)

		once, err := intDim.Align(v)
		if err != nil {
			t.Fatalf("Align: %v", err)
		}
		twice, err := intDim.Align(once)
		if err != nil {
			t.Fatalf("Align (second pass): %v", err)
		}
		if !once.Equal(twice) {
			t.Fatalf("Align is not idempotent: %v then %v", once, twice)
		}
	})
}

func TestIndexValueAtRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		values := make([]string, n)
		for i := range values {
			values[i] = fmt.Sprintf("v%d", i)
		}
		d, err := NewEnum("e", values)
		if err != nil {
			t.Fatalf("NewEnum: %v", err)
		}
		idx := rapid.IntRange(0, n-1).Draw(t, "idx")
		v, err := d.ValueAt(int64(idx))
		if err != nil {
			t.Fatalf("ValueAt: %v", err)
		}
		got, err := d.Index(v)
		if err != nil {
			t.Fatalf("Index: %v", err)
		}
		if got != int64(idx) {
			t.Fatalf("round trip: ValueAt(%d) then Index gave %d", idx, got)
		}
	})
}

func TestSpaceRejectsDuplicateNames(t *testing.T) {
	a, _ := NewInteger("x", 0, 10, 1)
	b, _ := NewReal("x", 0, 1)
	if _, err := New(a, b); err == nil {
		t.Error("expected duplicate dimension name to be rejected")
	}
}

func TestAlignRejectsWrongArity(t *testing.T) {
	a, _ := NewInteger("x", 0, 10, 1)
	sp, err := New(a)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := sp.Align([]value.Value{value.OfInt(1), value.OfInt(2)}); err == nil {
		t.Error("expected arity mismatch to be rejected")
	}
}

func TestDiagonal(t *testing.T) {
	a, _ := NewInteger("x", 0, 3, 1)
	b, _ := NewInteger("y", 0, 4, 1)
	sp, err := New(a, b)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := sp.Diagonal()
	want := 5.0 // 3-4-5 triangle
	if got != want {
		t.Errorf("Diagonal() = %v, want %v", got, want)
	}
}

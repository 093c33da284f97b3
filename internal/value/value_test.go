package value

import (
	"strconv"
	"testing"
)

func TestEqual(t *testing.T) {
	t.Run("same kind and payload", func(t *testing.T) {
		if !OfInt(7).Equal(OfInt(7)) {
			t.Error("expected equal ints")
		}
		if !OfReal(1.5).Equal(OfReal(1.5)) {
			t.Error("expected equal reals")
		}
		if !OfString("a").Equal(OfString("a")) {
			t.Error("expected equal strings")
		}
	})

	t.Run("mismatched kind", func(t *testing.T) {
		if OfInt(1).Equal(OfReal(1)) {
			t.Error("int and real with same numeric payload must not be equal")
		}
	})
}

func TestLessPanicsOnMismatchedKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic comparing mismatched kinds")
		}
	}()
	OfInt(1).Less(OfReal(2))
}

func TestFormatRoundTripsThroughParseFloat(t *testing.T) {
	vals := []float64{0, 1, -1, 3.5, 1e100, -1e-100}
	for _, f := range vals {
		v := OfReal(f)
		s := v.Format()
		got, err := strconv.ParseFloat(s, 64)
		if err != nil {
			t.Fatalf("Format(%v) produced unparsable literal %q: %v", f, s, err)
		}
		if got != f {
			t.Errorf("round trip mismatch: %v formatted as %q, parsed back as %v", f, s, got)
		}
	}
}

func TestFloatPanicsOnString(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic calling Float on a string value")
		}
	}()
	OfString("x").Float()
}

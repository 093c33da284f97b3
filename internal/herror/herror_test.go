package herror

import (
	"errors"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := New(ConfigInvalid, "bad key")
	if !Is(err, ConfigInvalid) {
		t.Error("Is should match the constructing kind")
	}
	if Is(err, StageFault) {
		t.Error("Is should not match a different kind")
	}
}

func TestIsFalseForPlainErrors(t *testing.T) {
	if Is(errors.New("plain"), ConfigInvalid) {
		t.Error("Is should return false for an error that is not *Error")
	}
	if Is(nil, ConfigInvalid) {
		t.Error("Is should return false for a nil error")
	}
}

func TestFatalOnlyForStrategyAndStageFaults(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{ConfigInvalid, false},
		{SpaceMismatch, false},
		{UnknownID, false},
		{StrategyInternal, true},
		{StageFault, true},
		{Resource, false},
	}
	for _, c := range cases {
		if got := Fatal(New(c.kind, "x")); got != c.want {
			t.Errorf("Fatal(%s) = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := Wrap(Resource, "allocating", cause)
	if !errors.Is(wrapped, cause) {
		t.Error("Wrap should produce an error unwrapping to cause")
	}
}

package config

import (
	"strings"
	"testing"
)

func TestGetFallsBackToRegisteredDefault(t *testing.T) {
	c := New()
	c.Register(Info{Key: "STRATEGY", Default: "pro", Help: "search strategy name"})
	if got := c.Get("STRATEGY"); got != "pro" {
		t.Errorf("Get() = %q, want default %q", got, "pro")
	}
	c.Set("STRATEGY", "exhaustive")
	if got := c.Get("STRATEGY"); got != "exhaustive" {
		t.Errorf("Get() after Set = %q, want %q", got, "exhaustive")
	}
}

func TestBoolRecognizesTokenSets(t *testing.T) {
	cases := map[string]bool{"1": true, "true": true, "YES": true, "On": true, "0": false, "false": false, "no": false, "OFF": false}
	for tok, want := range cases {
		c := New()
		c.Set("FLAG", tok)
		got, ok := c.Bool("FLAG", !want)
		if !ok || got != want {
			t.Errorf("Bool(%q) = (%v, %v), want (%v, true)", tok, got, ok, want)
		}
	}
	c := New()
	c.Set("FLAG", "maybe")
	if _, ok := c.Bool("FLAG", true); ok {
		t.Error("Bool should report ok=false for an unrecognized token")
	}
}

func TestIntAndRealFallbackOnMalformed(t *testing.T) {
	c := New()
	c.Set("N", "not-a-number")
	if n, ok := c.Int("N", 42); ok || n != 42 {
		t.Errorf("Int() = (%d, %v), want (42, false)", n, ok)
	}
	c.Set("F", "also-not-a-number")
	if f, ok := c.Real("F", 1.5); ok || f != 1.5 {
		t.Errorf("Real() = (%v, %v), want (1.5, false)", f, ok)
	}
}

func TestArrayLenAndArrayItem(t *testing.T) {
	c := New()
	c.Set("LAYERS", "logger, cache , metrics")
	if n := c.ArrayLen("LAYERS"); n != 3 {
		t.Fatalf("ArrayLen() = %d, want 3", n)
	}
	item, err := c.ArrayItem("LAYERS", 1)
	if err != nil {
		t.Fatalf("ArrayItem: %v", err)
	}
	if item != "cache" {
		t.Errorf("ArrayItem(1) = %q, want %q", item, "cache")
	}
	if _, err := c.ArrayItem("LAYERS", 9); err == nil {
		t.Error("expected out-of-range ArrayItem to error")
	}
}

func TestLoadReaderAndSerializeRoundTrip(t *testing.T) {
	c := New()
	err := c.LoadReader(strings.NewReader("# comment\nSTRATEGY=pro\n\nLAYERS=logger,cache\n"))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if c.Get("STRATEGY") != "pro" || c.Get("LAYERS") != "logger,cache" {
		t.Fatalf("unexpected parsed values: STRATEGY=%q LAYERS=%q", c.Get("STRATEGY"), c.Get("LAYERS"))
	}
	out := c.Serialize()
	if out != "STRATEGY=pro\nLAYERS=logger,cache\n" {
		t.Errorf("Serialize() = %q, want insertion-ordered KEY=VALUE lines", out)
	}
}

func TestLoadReaderRejectsMissingEquals(t *testing.T) {
	c := New()
	if err := c.LoadReader(strings.NewReader("not-a-kv-line\n")); err == nil {
		t.Error("expected an error for a line without '='")
	}
}

package harmonylog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONOutputCarriesMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})
	log.Info("hello", map[string]any{"n": 3})

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, buf.String())
	}
	if decoded["message"] != "hello" {
		t.Errorf("message = %v, want %q", decoded["message"], "hello")
	}
	if decoded["n"] != float64(3) {
		t.Errorf("n = %v, want 3", decoded["n"])
	}
}

func TestLevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})
	log.Info("should not appear", nil)
	log.Debug("also should not appear", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output below the warn threshold, got %q", buf.String())
	}
	log.Warn("should appear", nil)
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn-level output, got %q", buf.String())
	}
}

func TestWithAttachesFieldsToEveryLine(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})
	child := log.With(map[string]any{"session": "s1"})
	child.Info("joined", nil)

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["session"] != "s1" {
		t.Errorf("session field = %v, want s1", decoded["session"])
	}
}

func TestNopDiscardsEverything(t *testing.T) {
	log := Nop()
	log.Info("this should not panic or write anywhere", map[string]any{"x": 1})
}

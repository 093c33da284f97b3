package stages

import (
	"bytes"
	"strings"
	"testing"

	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/harmonylog"
	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/value"
)

func TestLoggerAnalyzeWritesOneLineAndAccepts(t *testing.T) {
	l := NewLogger().(*Logger)
	if err := l.Alloc(config.New()); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	var buf bytes.Buffer
	l.SetLogger(harmonylog.New(harmonylog.Config{Level: harmonylog.LevelInfo, Format: harmonylog.FormatJSON, Output: &buf}))

	flow := ctrl.AcceptFlow()
	trial := ctrl.NewTrial(&point.Point{ID: 5, Terms: []value.Value{value.OfInt(1)}})
	trial.Perf = point.Performance{Obj: []float64{3.0}}

	if err := l.Analyze(&flow, trial); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if flow.Status != ctrl.Accept {
		t.Errorf("status = %v, want Accept", flow.Status)
	}
	if !strings.Contains(buf.String(), "Point #5") {
		t.Errorf("expected the log line to mention the point id, got %q", buf.String())
	}
}

func TestLoggerSetLoggerIgnoresNil(t *testing.T) {
	l := NewLogger().(*Logger)
	before := l.log
	l.SetLogger(nil)
	if l.log != before {
		t.Error("SetLogger(nil) should leave the existing logger in place")
	}
}

package pipeline

import (
	"errors"
	"testing"

	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/value"
)

// scripted is a test Stage whose forward/reverse dispositions are set
// per call, the way a synthetic Carver stood in for a real one in
// dshills-dungo's carving registry tests.
type scripted struct {
	name           string
	forward        []ctrl.Flow
	reverse        []ctrl.Flow
	forwardCalls   int
	reverseCalls   int
	genErr, anaErr error
}

func (s *scripted) Name() string { return s.name }

func (s *scripted) Generate(flow *ctrl.Flow, trial *ctrl.Trial) error {
	if s.genErr != nil {
		return s.genErr
	}
	*flow = s.forward[s.forwardCalls]
	s.forwardCalls++
	return nil
}

func (s *scripted) Analyze(flow *ctrl.Flow, trial *ctrl.Trial) error {
	if s.anaErr != nil {
		return s.anaErr
	}
	*flow = s.reverse[s.reverseCalls]
	s.reverseCalls++
	return nil
}

func newTrial() *ctrl.Trial {
	return ctrl.NewTrial(&point.Point{ID: 1, Terms: []value.Value{value.OfInt(1)}})
}

func TestForwardAcceptsThroughAllStages(t *testing.T) {
	a := &scripted{name: "a", forward: []ctrl.Flow{ctrl.AcceptFlow()}}
	b := &scripted{name: "b", forward: []ctrl.Flow{ctrl.AcceptFlow()}}
	p := New(a, b)
	trial := newTrial()

	flow, err := p.Forward(trial)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if flow.Status != ctrl.Accept {
		t.Fatalf("status = %v, want Accept", flow.Status)
	}
	if trial.StageCursor != 2 {
		t.Fatalf("StageCursor = %d, want 2", trial.StageCursor)
	}
}

func TestForwardStopsOnReject(t *testing.T) {
	a := &scripted{name: "a", forward: []ctrl.Flow{ctrl.AcceptFlow()}}
	b := &scripted{name: "b", forward: []ctrl.Flow{ctrl.RejectFlow(nil)}}
	c := &scripted{name: "c", forward: []ctrl.Flow{ctrl.AcceptFlow()}}
	p := New(a, b, c)
	trial := newTrial()

	flow, err := p.Forward(trial)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if flow.Status != ctrl.Reject {
		t.Fatalf("status = %v, want Reject", flow.Status)
	}
	if c.forwardCalls != 0 {
		t.Error("stage after the rejecting stage should not have run")
	}
}

func TestForwardParksOnWaitAndResumes(t *testing.T) {
	a := &scripted{name: "a", forward: []ctrl.Flow{{Status: ctrl.Wait}, ctrl.AcceptFlow()}}
	p := New(a)
	trial := newTrial()

	flow, err := p.Forward(trial)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if flow.Status != ctrl.Wait {
		t.Fatalf("status = %v, want Wait", flow.Status)
	}
	if trial.StageCursor != 0 {
		t.Fatalf("StageCursor = %d, want 0 (parked at the waiting stage)", trial.StageCursor)
	}

	parked := p.ResumeForward(0)
	if len(parked) != 1 || parked[0] != trial {
		t.Fatalf("ResumeForward(0) = %v, want [trial]", parked)
	}
	if got := p.ResumeForward(0); len(got) != 0 {
		t.Error("ResumeForward should drain the parked slot")
	}

	flow, err = p.Forward(trial)
	if err != nil {
		t.Fatalf("Forward (resumed): %v", err)
	}
	if flow.Status != ctrl.Accept {
		t.Fatalf("resumed status = %v, want Accept", flow.Status)
	}
}

func TestForwardReturnSkipsToEnd(t *testing.T) {
	a := &scripted{name: "a", forward: []ctrl.Flow{{Status: ctrl.Return}}}
	b := &scripted{name: "b", forward: []ctrl.Flow{ctrl.AcceptFlow()}}
	p := New(a, b)
	trial := newTrial()

	flow, err := p.Forward(trial)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if flow.Status != ctrl.Accept {
		t.Fatalf("status = %v, want Accept", flow.Status)
	}
	if trial.StageCursor != 2 {
		t.Fatalf("StageCursor = %d, want 2 (skipped to the end)", trial.StageCursor)
	}
	if b.forwardCalls != 0 {
		t.Error("stage after RETURN should not have run")
	}
}

func TestReverseWalksBackToFrontAndAccepts(t *testing.T) {
	a := &scripted{name: "a", reverse: []ctrl.Flow{ctrl.AcceptFlow()}}
	b := &scripted{name: "b", reverse: []ctrl.Flow{ctrl.AcceptFlow()}}
	p := New(a, b)
	trial := newTrial()
	trial.StageCursor = 2

	flow, err := p.Reverse(trial)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if flow.Status != ctrl.Accept {
		t.Fatalf("status = %v, want Accept", flow.Status)
	}
	if trial.StageCursor != 0 {
		t.Fatalf("StageCursor = %d, want 0", trial.StageCursor)
	}
}

func TestReverseReturnDiscards(t *testing.T) {
	a := &scripted{name: "a", reverse: []ctrl.Flow{ctrl.AcceptFlow()}}
	b := &scripted{name: "b", reverse: []ctrl.Flow{{Status: ctrl.Return}}}
	p := New(a, b)
	trial := newTrial()
	trial.StageCursor = 2

	flow, err := p.Reverse(trial)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if flow.Status != ctrl.Return {
		t.Fatalf("status = %v, want Return", flow.Status)
	}
	if trial.StageCursor != 0 {
		t.Fatalf("StageCursor = %d, want 0", trial.StageCursor)
	}
	if a.reverseCalls != 0 {
		t.Error("stage before the short-circuiting stage should not have run")
	}
}

func TestStageErrorIsWrappedWithStageName(t *testing.T) {
	a := &scripted{name: "boom", genErr: errors.New("disk full")}
	p := New(a)
	trial := newTrial()

	_, err := p.Forward(trial)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got == "" {
		t.Fatal("expected a non-empty error message")
	}
}

func TestFiniRunsInReverseOrderAndStopsAtFirstFailure(t *testing.T) {
	var order []string
	fa := &finalizer{name: "a", record: &order}
	fb := &finalizer{name: "b", record: &order, err: errors.New("fini failed")}
	fc := &finalizer{name: "c", record: &order}
	p := New(fa, fb, fc)

	if err := p.Fini(); err == nil {
		t.Fatal("expected Fini to surface stage b's error")
	}
	if len(order) != 2 || order[0] != "c" || order[1] != "b" {
		t.Fatalf("fini order = %v, want [c b] (stops at b, never reaches a)", order)
	}
}

type finalizer struct {
	name   string
	record *[]string
	err    error
}

func (f *finalizer) Name() string { return f.name }
func (f *finalizer) Fini() error {
	*f.record = append(*f.record, f.name)
	return f.err
}

package system

import (
	"slices"
	"testing"
	"time"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r *recorder) Phase() Phase             { return r.phase }
func (r *recorder) Update(dt time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhaseStably(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recorder{"cleanup", PhaseCleanup, &log})
	r.Register(&recorder{"render", PhaseRender, &log})
	r.Register(&recorder{"script-a", PhaseUpdate, &log})
	r.Register(&recorder{"input", PhaseInput, &log})
	r.Register(&recorder{"script-b", PhaseUpdate, &log})

	r.Tick(time.Millisecond)
	want := []string{"input", "script-a", "script-b", "render", "cleanup"}
	if !slices.Equal(log, want) {
		t.Errorf("expected %v, got %v", want, log)
	}
}

func TestRunnerTickPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recorder{"render", PhaseRender, &log})
	r.Register(&recorder{"update", PhaseUpdate, &log})

	r.TickPhase(PhaseUpdate, 0)
	if !slices.Equal(log, []string{"update"}) {
		t.Errorf("expected only update, got %v", log)
	}
}

func TestRunnerUnregister(t *testing.T) {
	var log []string
	r := NewRunner()
	a := &recorder{"a", PhaseUpdate, &log}
	b := &recorder{"b", PhaseUpdate, &log}
	r.Register(a)
	r.Register(b)

	if !r.Unregister(a) || r.Unregister(a) {
		t.Fatal("unexpected Unregister result")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 system, got %d", r.Len())
	}
	r.Tick(0)
	if !slices.Equal(log, []string{"b"}) {
		t.Errorf("expected [b], got %v", log)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseLateUpdate.String() != "late-update" || Phase(42).String() != "unknown" {
		t.Error("unexpected phase names")
	}
}

package driver

import (
	"testing"
	"time"
)

func TestTimingsRecorderDisabledIsNoopAndNeverPanics(t *testing.T) {
	r := newTimingsRecorder(false)
	start := time.Now()

	r.phase(phaseParse, start)
	r.phase(phasePreScan, start)
	r.rule("some-rule", start)

	if got := r.finish(start); got != nil {
		t.Fatalf("expected nil FileTimings when disabled, got %+v", got)
	}
}

func TestTimingsRecorderEnabledAccumulatesPerPhaseAndPerRule(t *testing.T) {
	r := newTimingsRecorder(true)
	start := time.Now()

	r.phase(phaseParse, start)
	r.phase(phasePreScan, start)
	r.phase(phaseTokenize, start)
	r.phase(phaseReconcile, start)
	r.phase(phaseFixApply, start)
	r.rule("rule-a", start)
	r.rule("rule-a", start)

	got := r.finish(start)
	if got == nil {
		t.Fatal("expected non-nil FileTimings when enabled")
	}
	if got.RuleTotals["rule-a"] <= 0 {
		t.Fatalf("expected accumulated rule-a duration, got %v", got.RuleTotals["rule-a"])
	}
	if got.Total < 0 {
		t.Fatalf("expected non-negative total, got %v", got.Total)
	}
}

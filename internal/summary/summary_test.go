package summary

import (
	"reflect"
	"testing"
)

func TestSummary_Counts(t *testing.T) {
	s := New(ModeSynthesize, "run-1")
	s.Add(ItemOutcome{ID: "doc1", Outcome: OutcomeMerged})
	s.Add(ItemOutcome{ID: "doc2", Outcome: OutcomeSecondaryOnly})
	s.Add(ItemOutcome{ID: "doc3", Outcome: OutcomeSynthesisUnavailable})
	s.Add(ItemOutcome{ID: "doc4", Outcome: OutcomePersistFailed})

	if s.Succeeded() != 2 || s.Failed() != 2 {
		t.Errorf("succeeded/failed = %d/%d", s.Succeeded(), s.Failed())
	}
	if got := s.Counts()[OutcomeMerged]; got != 1 {
		t.Errorf("merged count = %d", got)
	}
	want := []Outcome{OutcomeMerged, OutcomePersistFailed, OutcomeSecondaryOnly, OutcomeSynthesisUnavailable}
	if got := s.SortedOutcomes(); !reflect.DeepEqual(got, want) {
		t.Errorf("SortedOutcomes = %v, want %v", got, want)
	}
}

func TestSummary_Duration(t *testing.T) {
	s := New(ModeCompare, "run-2")
	if s.Duration() != 0 {
		t.Error("unfinished run should report zero duration")
	}
	s.Finish()
	if s.Duration() < 0 {
		t.Errorf("negative duration %s", s.Duration())
	}
	if s.Items == nil {
		t.Error("items should be non-nil so empty runs encode as []")
	}
}

func TestOutcome_Succeeded(t *testing.T) {
	for _, o := range []Outcome{OutcomeOK, OutcomeMerged, OutcomePrimaryOnly, OutcomeSecondaryOnly} {
		if !o.Succeeded() {
			t.Errorf("%s should count as success", o)
		}
	}
	for _, o := range []Outcome{OutcomeBlocked, OutcomeFailed, OutcomeNoInput, OutcomeSynthesisUnavailable, OutcomePersistFailed, OutcomeSkipped} {
		if o.Succeeded() {
			t.Errorf("%s should not count as success", o)
		}
	}
}

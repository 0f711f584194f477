// Package summary describes the outcome of one pipeline run.
package summary

import (
	"sort"
	"time"
)

// Mode is the pipeline operation a run performed.
type Mode string

const (
	ModeTranscribe Mode = "transcribe"
	ModeCompare    Mode = "compare"
	ModeSynthesize Mode = "synthesize"
)

// Outcome is the per-identifier result of a run.
type Outcome string

const (
	OutcomeOK                   Outcome = "ok"
	OutcomeMerged               Outcome = "merged"
	OutcomePrimaryOnly          Outcome = "primary_only"
	OutcomeSecondaryOnly        Outcome = "secondary_only"
	OutcomeBlocked              Outcome = "blocked"
	OutcomeFailed               Outcome = "failed"
	OutcomeNoInput              Outcome = "no_input"
	OutcomeSynthesisUnavailable Outcome = "synthesis_unavailable"
	OutcomePersistFailed        Outcome = "persist_failed"
	OutcomeSkipped              Outcome = "skipped"
)

// Succeeded reports whether the outcome produced an artifact.
func (o Outcome) Succeeded() bool {
	switch o {
	case OutcomeOK, OutcomeMerged, OutcomePrimaryOnly, OutcomeSecondaryOnly:
		return true
	}
	return false
}

// ItemOutcome records what happened to one identifier.
type ItemOutcome struct {
	ID        string   `json:"id" yaml:"id"`
	Engine    string   `json:"engine,omitempty" yaml:"engine,omitempty"`
	Outcome   Outcome  `json:"outcome" yaml:"outcome"`
	Artifacts []string `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Changes   int      `json:"changes,omitempty" yaml:"changes,omitempty"`
	Attempts  int      `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary aggregates a run's item outcomes.
type Summary struct {
	Mode       Mode          `json:"mode" yaml:"mode"`
	RunID      string        `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time     `json:"finished_at" yaml:"finished_at"`
	Items      []ItemOutcome `json:"items" yaml:"items"`
}

// New starts a summary for a run.
func New(mode Mode, runID string) *Summary {
	return &Summary{
		Mode:      mode,
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Items:     make([]ItemOutcome, 0),
	}
}

// Add appends an item outcome.
func (s *Summary) Add(item ItemOutcome) {
	s.Items = append(s.Items, item)
}

// Finish stamps the completion time.
func (s *Summary) Finish() {
	s.FinishedAt = time.Now().UTC()
}

// Duration is the wall time of the run, or zero if it has not finished.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Counts returns the number of items per outcome.
func (s *Summary) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, it := range s.Items {
		counts[it.Outcome]++
	}
	return counts
}

// Succeeded returns the number of items that produced an artifact.
func (s *Summary) Succeeded() int {
	n := 0
	for _, it := range s.Items {
		if it.Outcome.Succeeded() {
			n++
		}
	}
	return n
}

// Failed returns the number of items that did not.
func (s *Summary) Failed() int {
	return len(s.Items) - s.Succeeded()
}

// SortedOutcomes returns the outcomes present in the summary in name order.
func (s *Summary) SortedOutcomes() []Outcome {
	counts := s.Counts()
	out := make([]Outcome, 0, len(counts))
	for o := range counts {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

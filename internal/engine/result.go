package engine

import (
	"time"

	"github.com/jmylchreest/ocrmerge/internal/llm"
)

// Status classifies the outcome of an extraction.
type Status int

const (
	// StatusFailed means every attempt failed transiently.
	StatusFailed Status = iota
	// StatusSuccess means the engine produced text.
	StatusSuccess
	// StatusBlocked means the engine refused the input on policy grounds.
	StatusBlocked
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusBlocked:
		return "blocked"
	default:
		return "failed"
	}
}

// Result is the outcome of one Extract call. Text is set iff Status is
// StatusSuccess.
type Result struct {
	ID     string
	Text   string
	Status Status

	// Diagnostics. None of these change the contract above.
	Attempts    int
	BlockReason string
	Err         error // last transient error when Status is StatusFailed
	Model       string
	Usage       llm.Usage
	Duration    time.Duration
}

// OK reports whether the extraction succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Package synth reconciles the two engines' transcriptions of one source
// into a single corrected text.
package synth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmylchreest/ocrmerge/internal/engine"
	"github.com/jmylchreest/ocrmerge/internal/logger"
)

var (
	// ErrNoInput is returned when neither engine produced a transcription.
	ErrNoInput = errors.New("no candidate text to synthesize")
	// ErrSynthesisUnavailable is returned when both candidates exist but the
	// merge call was blocked or failed. No candidate is substituted.
	ErrSynthesisUnavailable = errors.New("synthesis unavailable")
)

// Provenance records where a reconciled text came from.
type Provenance int

const (
	Merged Provenance = iota
	PrimaryOnly
	SecondaryOnly
)

func (p Provenance) String() string {
	switch p {
	case Merged:
		return "merged"
	case PrimaryOnly:
		return "primary_only"
	case SecondaryOnly:
		return "secondary_only"
	default:
		return fmt.Sprintf("provenance(%d)", int(p))
	}
}

// Candidates holds both engines' transcriptions for one identifier. A nil
// side means that engine has no output for it.
type Candidates struct {
	ID        string
	Primary   *string
	Secondary *string
}

// Result is a reconciled transcription.
type Result struct {
	ID         string
	Text       string
	Provenance Provenance
}

// Generator runs a text-only prompt. *engine.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, id string, prompt string) engine.Result
}

// Synthesizer merges candidates using a generator.
type Synthesizer struct {
	gen            Generator
	primaryLabel   string
	secondaryLabel string
}

// New creates a Synthesizer. The labels name the engines whose output is
// being merged and appear in the prompt.
func New(gen Generator, primaryLabel, secondaryLabel string) *Synthesizer {
	return &Synthesizer{
		gen:            gen,
		primaryLabel:   primaryLabel,
		secondaryLabel: secondaryLabel,
	}
}

// Synthesize applies the first matching rule: no input is an error, a
// single candidate is returned verbatim without calling the generator, and
// two candidates are merged by the generator.
func (s *Synthesizer) Synthesize(ctx context.Context, c Candidates) (Result, error) {
	log := logger.With("id", c.ID)

	switch {
	case c.Primary == nil && c.Secondary == nil:
		log.Error("no candidate text available")
		return Result{}, fmt.Errorf("%s: %w", c.ID, ErrNoInput)
	case c.Primary == nil:
		log.Info("primary output missing, using secondary as-is", "engine", s.secondaryLabel)
		return Result{ID: c.ID, Text: *c.Secondary, Provenance: SecondaryOnly}, nil
	case c.Secondary == nil:
		log.Info("secondary output missing, using primary as-is", "engine", s.primaryLabel)
		return Result{ID: c.ID, Text: *c.Primary, Provenance: PrimaryOnly}, nil
	}

	prompt := BuildPrompt(s.primaryLabel, *c.Primary, s.secondaryLabel, *c.Secondary)
	res := s.gen.Generate(ctx, c.ID, prompt)
	switch res.Status {
	case engine.StatusSuccess:
		return Result{ID: c.ID, Text: res.Text, Provenance: Merged}, nil
	case engine.StatusBlocked:
		log.Error("merge request blocked", "reason", res.BlockReason)
		return Result{}, fmt.Errorf("%s: %w: blocked: %s", c.ID, ErrSynthesisUnavailable, res.BlockReason)
	default:
		log.Error("merge request failed", "attempts", res.Attempts, "error", res.Err)
		return Result{}, fmt.Errorf("%s: %w: %s after %d attempts: %v",
			c.ID, ErrSynthesisUnavailable, res.Status, res.Attempts, res.Err)
	}
}

package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmylchreest/ocrmerge/internal/corpus"
	"github.com/jmylchreest/ocrmerge/internal/summary"
	"github.com/jmylchreest/ocrmerge/internal/synth"
)

var errEmptyResult = errors.New("reconciled text is empty")

// Synthesize reconciles every identifier either engine produced and writes
// the result to FinalDir. Identifiers with only one transcription are
// passed through without an engine call.
func (r *Runner) Synthesize(ctx context.Context) (*summary.Summary, error) {
	if r.opts.Primary == nil || r.opts.Secondary == nil || r.opts.Synthesizer == nil || r.opts.Sink == nil {
		return nil, errors.New("synthesize: stores, synthesizer and sink are required")
	}

	sum, log, release, err := r.begin(summary.ModeSynthesize)
	if err != nil {
		return nil, err
	}
	defer release()
	defer r.finish(sum, log)

	primary, secondary, err := listBoth(r.opts.Primary, r.opts.Secondary)
	if err != nil {
		return sum, err
	}

	ids := corpus.UnionIdentifiers(primary, secondary)
	if len(ids) == 0 {
		log.Warn("no transcriptions to synthesize")
		return sum, nil
	}
	log.Info("synthesizing transcriptions", "count", len(ids), "dir", r.opts.FinalDir)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		r.record(sum, r.synthesizeOne(ctx, log.With("id", id), id))
	}
	return sum, nil
}

func (r *Runner) synthesizeOne(ctx context.Context, log *slog.Logger, id string) summary.ItemOutcome {
	item := summary.ItemOutcome{ID: id}

	cands := synth.Candidates{
		ID:        id,
		Primary:   readCandidate(log, r.opts.Primary, id),
		Secondary: readCandidate(log, r.opts.Secondary, id),
	}

	res, err := r.opts.Synthesizer.Synthesize(ctx, cands)
	if err != nil {
		item.Error = err.Error()
		switch {
		case errors.Is(err, synth.ErrNoInput):
			item.Outcome = summary.OutcomeNoInput
		case errors.Is(err, synth.ErrSynthesisUnavailable):
			item.Outcome = summary.OutcomeSynthesisUnavailable
		default:
			item.Outcome = summary.OutcomeFailed
		}
		log.Error("could not produce a final version", "outcome", item.Outcome, "error", err)
		return item
	}

	item.Outcome = provenanceOutcome(res.Provenance)
	if res.Text == "" {
		log.Error("could not produce a final version", "error", errEmptyResult)
		item.Outcome = summary.OutcomeFailed
		item.Error = errEmptyResult.Error()
		return item
	}

	paths, err := r.opts.Sink.WriteText(r.opts.FinalDir, id, res.Text)
	item.Artifacts = paths
	if err != nil {
		log.Error("failed to save final version", "error", err)
		item.Outcome = summary.OutcomePersistFailed
		item.Error = err.Error()
		return item
	}

	log.Info("final version saved", "provenance", res.Provenance.String())
	return item
}

// readCandidate returns nil when the store has no usable text for id. Read
// errors other than a missing file are logged and treated the same way.
func readCandidate(log *slog.Logger, store corpus.Store, id string) *string {
	text, err := store.Read(id)
	if err != nil {
		if errors.Is(err, corpus.ErrNotFound) {
			log.Debug("no transcription", "engine", store.Label())
		} else {
			log.Warn("could not read transcription, treating as absent", "engine", store.Label(), "error", err)
		}
		return nil
	}
	return &text
}

func provenanceOutcome(p synth.Provenance) summary.Outcome {
	switch p {
	case synth.PrimaryOnly:
		return summary.OutcomePrimaryOnly
	case synth.SecondaryOnly:
		return summary.OutcomeSecondaryOnly
	default:
		return summary.OutcomeMerged
	}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/ocrmerge/internal/corpus"
	"github.com/jmylchreest/ocrmerge/internal/summary"
)

// Compare writes a diff report for every identifier both engines produced.
// Identifiers missing from either store are ignored.
func (r *Runner) Compare(ctx context.Context) (*summary.Summary, error) {
	if r.opts.Primary == nil || r.opts.Secondary == nil || r.opts.Reporter == nil || r.opts.Sink == nil {
		return nil, errors.New("compare: stores, reporter and sink are required")
	}

	sum, log, release, err := r.begin(summary.ModeCompare)
	if err != nil {
		return nil, err
	}
	defer release()
	defer r.finish(sum, log)

	primary, secondary, err := listBoth(r.opts.Primary, r.opts.Secondary)
	if err != nil {
		return sum, err
	}

	ids := corpus.CommonIdentifiers(primary, secondary)
	if len(ids) == 0 {
		log.Warn("no common transcriptions to compare",
			"primary", r.opts.Primary.Label(), "secondary", r.opts.Secondary.Label())
		return sum, ErrNothingToCompare
	}
	log.Info("comparing transcriptions", "count", len(ids))

	labelA, labelB := r.opts.Primary.Label(), r.opts.Secondary.Label()
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		r.record(sum, r.compareOne(log.With("id", id), id, labelA, labelB))
	}
	return sum, nil
}

func (r *Runner) compareOne(log *slog.Logger, id, labelA, labelB string) summary.ItemOutcome {
	item := summary.ItemOutcome{ID: id}

	textA, errA := r.opts.Primary.Read(id)
	textB, errB := r.opts.Secondary.Read(id)
	if err := errors.Join(errA, errB); err != nil {
		log.Error("failed to read transcriptions", "error", err)
		item.Outcome = summary.OutcomeFailed
		item.Error = err.Error()
		return item
	}

	report, err := r.opts.Reporter.Diff(id, textA, textB, labelA, labelB)
	if err != nil {
		log.Error("failed to render diff", "error", err)
		item.Outcome = summary.OutcomeFailed
		item.Error = err.Error()
		return item
	}
	item.Changes = report.Changes()

	path, err := r.opts.Sink.WriteReport(r.opts.ReportDir, report)
	if err != nil {
		log.Error("failed to write report", "error", err)
		item.Outcome = summary.OutcomePersistFailed
		item.Error = err.Error()
		return item
	}

	log.Debug("report written", "path", path, "changes", item.Changes)
	item.Outcome = summary.OutcomeOK
	item.Artifacts = []string{path}
	return item
}

// listBoth lists both stores. A missing store is a run-level error.
func listBoth(a, b corpus.Store) (corpus.Set, corpus.Set, error) {
	setA, err := a.List()
	if err != nil {
		return nil, nil, fmt.Errorf("%s outputs: %w", a.Label(), err)
	}
	setB, err := b.List()
	if err != nil {
		return nil, nil, fmt.Errorf("%s outputs: %w", b.Label(), err)
	}
	return setA, setB, nil
}

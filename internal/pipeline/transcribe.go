package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/ocrmerge/internal/corpus"
	"github.com/jmylchreest/ocrmerge/internal/engine"
	"github.com/jmylchreest/ocrmerge/internal/summary"
)

// Transcribe runs every configured engine over every image in the input
// folder, engine by engine, and writes each transcription to
// <OutputRoot>/<engine label>.
func (r *Runner) Transcribe(ctx context.Context) (*summary.Summary, error) {
	if r.opts.Images == nil || len(r.opts.Transcribers) == 0 || r.opts.Sink == nil {
		return nil, errors.New("transcribe: image source, engines and sink are required")
	}

	sum, log, release, err := r.begin(summary.ModeTranscribe)
	if err != nil {
		return nil, err
	}
	defer release()
	defer r.finish(sum, log)

	refs, err := r.opts.Images.List()
	if errors.Is(err, fs.ErrNotExist) {
		// Leave an empty folder behind so the user knows where images go.
		if mkErr := os.MkdirAll(r.opts.Images.Dir(), 0o755); mkErr == nil {
			log.Info("created input folder", "dir", r.opts.Images.Dir())
		}
		return sum, fmt.Errorf("%w: %s", ErrNoImages, r.opts.Images.Dir())
	}
	if err != nil {
		return sum, err
	}
	if len(refs) == 0 {
		return sum, fmt.Errorf("%w: %s", ErrNoImages, r.opts.Images.Dir())
	}

	dupes := duplicateRefs(refs)
	for name, kept := range dupes {
		log.Warn("skipping image with a duplicate identifier", "image", name, "kept", kept)
	}

	for _, t := range r.opts.Transcribers {
		dir := filepath.Join(r.opts.OutputRoot, t.Label())
		log.Info("transcribing images", "engine", t.Label(), "count", len(refs), "dir", dir)

		for _, ref := range refs {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			if kept, dup := dupes[ref.Name]; dup {
				r.record(sum, summary.ItemOutcome{
					ID:      ref.ID,
					Engine:  t.Label(),
					Outcome: summary.OutcomeSkipped,
					Error:   fmt.Sprintf("%s: %s has the same identifier", ErrDuplicateID, kept),
				})
				continue
			}
			ilog := log.With("id", ref.ID, "engine", t.Label())
			r.record(sum, r.transcribeOne(ctx, ilog, t, dir, ref))
		}
	}
	return sum, nil
}

func (r *Runner) transcribeOne(ctx context.Context, log *slog.Logger, t Transcriber, dir string, ref corpus.ImageRef) summary.ItemOutcome {
	item := summary.ItemOutcome{ID: ref.ID, Engine: t.Label()}

	img, err := r.opts.Images.Load(ref)
	if err != nil {
		item.Error = err.Error()
		if errors.Is(err, corpus.ErrImageTooLarge) {
			log.Warn("skipping oversize image", "size", humanize.Bytes(uint64(ref.Size)))
			item.Outcome = summary.OutcomeSkipped
		} else {
			log.Error("failed to load image", "error", err)
			item.Outcome = summary.OutcomeFailed
		}
		return item
	}

	res := t.Transcribe(ctx, ref.ID, img)
	item.Attempts = res.Attempts
	switch res.Status {
	case engine.StatusBlocked:
		log.Error("transcription blocked", "reason", res.BlockReason)
		item.Outcome = summary.OutcomeBlocked
		item.Error = res.BlockReason
		return item
	case engine.StatusFailed:
		log.Error("transcription failed", "attempts", res.Attempts, "error", res.Err)
		item.Outcome = summary.OutcomeFailed
		item.Error = errString(res.Err)
		return item
	}

	paths, err := r.opts.Sink.WriteText(dir, ref.ID, res.Text)
	item.Artifacts = paths
	if err != nil {
		log.Error("failed to save transcription", "error", err)
		item.Outcome = summary.OutcomePersistFailed
		item.Error = err.Error()
		return item
	}

	log.Info("transcription saved", "image", ref.Name, "chars", len(res.Text))
	item.Outcome = summary.OutcomeOK
	return item
}

// duplicateRefs maps the name of every image whose identifier was already
// taken by an earlier image to the name of the image that keeps it. refs
// must be sorted by identifier.
func duplicateRefs(refs []corpus.ImageRef) map[string]string {
	dupes := make(map[string]string)
	for i := 1; i < len(refs); i++ {
		if refs[i].ID != refs[i-1].ID {
			continue
		}
		kept := refs[i-1].Name
		if k, ok := dupes[kept]; ok {
			kept = k
		}
		dupes[refs[i].Name] = kept
	}
	return dupes
}

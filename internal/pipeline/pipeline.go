// Package pipeline runs the transcription, comparison and synthesis stages
// over a folder of sources, one identifier at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/jmylchreest/ocrmerge/internal/corpus"
	"github.com/jmylchreest/ocrmerge/internal/diffreport"
	"github.com/jmylchreest/ocrmerge/internal/engine"
	"github.com/jmylchreest/ocrmerge/internal/llm"
	"github.com/jmylchreest/ocrmerge/internal/logger"
	"github.com/jmylchreest/ocrmerge/internal/summary"
	"github.com/jmylchreest/ocrmerge/internal/synth"
)

var (
	// ErrNothingToCompare is returned by Compare when the two stores share no
	// identifiers.
	ErrNothingToCompare = errors.New("no common identifiers to compare")
	// ErrNoImages is returned by Transcribe when the input folder holds no
	// supported images.
	ErrNoImages = errors.New("no supported images in input folder")
	// ErrLocked is returned when another run holds the output lock.
	ErrLocked = errors.New("output directory is locked by another run")
	// ErrDuplicateID marks an image skipped because another image in the
	// input folder has the same identifier.
	ErrDuplicateID = errors.New("duplicate identifier")
)

// LockFileName is created in the output root while a run is in progress.
const LockFileName = ".ocrmerge.lock"

// Transcriber extracts text from an image. *engine.Client satisfies it.
type Transcriber interface {
	Label() string
	Transcribe(ctx context.Context, id string, image llm.Image) engine.Result
}

// Reporter renders a comparison. *diffreport.Reporter satisfies it.
type Reporter interface {
	Diff(id, textA, textB, labelA, labelB string) (diffreport.Report, error)
}

// Synthesizer reconciles candidates. *synth.Synthesizer satisfies it.
type Synthesizer interface {
	Synthesize(ctx context.Context, c synth.Candidates) (synth.Result, error)
}

// Sink persists artifacts. *output.Persister satisfies it.
type Sink interface {
	WriteText(dir, id, text string) ([]string, error)
	WriteReport(dir string, report diffreport.Report) (string, error)
}

// Options wires a Runner. Only the collaborators needed by the modes that
// will be run have to be set.
type Options struct {
	// Primary and Secondary expose each engine's completed transcriptions.
	Primary   corpus.Store
	Secondary corpus.Store

	// Images and Transcribers drive Transcribe. Transcriptions are written
	// to <OutputRoot>/<label>.
	Images       *corpus.ImageSource
	Transcribers []Transcriber

	Reporter    Reporter
	Synthesizer Synthesizer
	Sink        Sink

	OutputRoot string
	FinalDir   string
	ReportDir  string

	// Lock takes an exclusive lock on OutputRoot for the duration of a run.
	Lock bool

	// Progress, if set, is called after each item completes.
	Progress func(summary.ItemOutcome)
}

// Runner executes pipeline modes.
type Runner struct {
	opts  Options
	newID func() string
}

// New creates a Runner.
func New(opts Options) *Runner {
	return &Runner{
		opts:  opts,
		newID: uuid.NewString,
	}
}

// begin starts a run: it allocates the run ID, takes the lock and returns
// the summary, a run-scoped logger and the release function.
func (r *Runner) begin(mode summary.Mode) (*summary.Summary, *slog.Logger, func(), error) {
	sum := summary.New(mode, r.newID())
	log := logger.With("run_id", sum.RunID, "mode", string(mode))

	release := func() {}
	if r.opts.Lock && r.opts.OutputRoot != "" {
		unlock, err := acquireLock(r.opts.OutputRoot)
		if err != nil {
			return nil, nil, nil, err
		}
		release = unlock
	}

	log.Info("run started")
	return sum, log, release, nil
}

func (r *Runner) finish(sum *summary.Summary, log *slog.Logger) {
	sum.Finish()
	log.Info("run finished",
		"items", len(sum.Items),
		"succeeded", sum.Succeeded(),
		"failed", sum.Failed(),
		"duration", sum.Duration())
}

func (r *Runner) record(sum *summary.Summary, item summary.ItemOutcome) {
	sum.Add(item)
	if r.opts.Progress != nil {
		r.opts.Progress(item)
	}
}

func acquireLock(root string) (func(), error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	path := filepath.Join(root, LockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release lock", "path", path, "error", err)
		}
	}, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

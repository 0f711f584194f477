package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/viper"

	"github.com/jmylchreest/ocrmerge/internal/config"
	"github.com/jmylchreest/ocrmerge/internal/corpus"
	"github.com/jmylchreest/ocrmerge/internal/engine"
	"github.com/jmylchreest/ocrmerge/internal/llm"
	"github.com/jmylchreest/ocrmerge/internal/logger"
	"github.com/jmylchreest/ocrmerge/internal/output"
	"github.com/jmylchreest/ocrmerge/internal/pipeline"
	"github.com/jmylchreest/ocrmerge/internal/summary"
)

// setup initialises logging, loads the configuration and checks that the
// given engines have credentials.
func setup(roles ...config.Role) (*config.Config, error) {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireCredentials(roles...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// callLogger reports every provider call at debug level.
var callLogger = llm.ObserverFunc(func(ctx context.Context, e llm.CallEvent) {
	args := []any{
		"id", e.ID,
		"provider", e.Provider,
		"model", e.Model,
		"attempt", e.Attempt,
		"image", e.HasImage,
		"duration", e.Duration,
	}
	if e.Response != nil {
		args = append(args,
			"input_tokens", e.Response.Usage.InputTokens,
			"output_tokens", e.Response.Usage.OutputTokens)
	}
	if e.Error != nil {
		args = append(args, "error", e.Error)
	}
	logger.DebugContext(ctx, "provider call", args...)
})

// newClient builds the engine client for role.
func newClient(cfg *config.Config, role config.Role) (*engine.Client, error) {
	ec := cfg.Engine(role)
	provider, err := llm.NewProvider(ec.Provider, cfg.ProviderConfig(role))
	if err != nil {
		return nil, fmt.Errorf("%s engine: %w", role, err)
	}
	return engine.New(provider, cfg.RetryPolicy(),
		engine.WithLabel(ec.Label),
		engine.WithObserver(callLogger),
	), nil
}

func newStores(cfg *config.Config) (*corpus.DirStore, *corpus.DirStore) {
	primary := corpus.NewDirStore(filepath.Join(cfg.OutputDir, cfg.Primary.Label), cfg.Primary.Label)
	secondary := corpus.NewDirStore(filepath.Join(cfg.OutputDir, cfg.Secondary.Label), cfg.Secondary.Label)
	return primary, secondary
}

func progress(item summary.ItemOutcome) {
	name := item.ID
	if item.Engine != "" {
		name = item.Engine + "/" + item.ID
	}
	if item.Error != "" {
		logInfo("  - %s: %s (%s)", name, item.Outcome, item.Error)
		return
	}
	logInfo("  - %s: %s", name, item.Outcome)
}

func baseOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Sink:       output.NewPersister(output.WithDOCX(cfg.DOCX)),
		OutputRoot: cfg.OutputDir,
		FinalDir:   cfg.FinalDir,
		ReportDir:  cfg.ReportDir,
		Lock:       true,
		Progress:   progress,
	}
}

// finish prints the summary table and writes any requested summary files.
func finish(cfg *config.Config, sum *summary.Summary) error {
	if sum == nil {
		return nil
	}
	if !viper.GetBool("quiet") {
		printSummary(os.Stderr, sum)
	}

	if cfg.SummaryFormat != "" {
		if err := writeSummaryFile(cfg, sum); err != nil {
			return err
		}
	}
	if cfg.SummaryXLSX != "" {
		if err := output.WriteSummaryWorkbook(cfg.SummaryXLSX, sum); err != nil {
			return err
		}
		logInfo("Summary workbook written to %s", cfg.SummaryXLSX)
	}
	return nil
}

func writeSummaryFile(cfg *config.Config, sum *summary.Summary) error {
	format, err := output.ParseFormat(cfg.SummaryFormat)
	if err != nil {
		return err
	}

	dest := os.Stdout
	if cfg.SummaryFile != "" {
		f, err := os.Create(cfg.SummaryFile)
		if err != nil {
			return fmt.Errorf("failed to create summary file: %w", err)
		}
		defer f.Close()
		dest = f
	}

	w, err := output.NewWriter(dest, format)
	if err != nil {
		return err
	}
	if err := w.WriteSummary(sum); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return w.Close()
}

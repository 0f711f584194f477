package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/ocrmerge/internal/corpus"
	"github.com/jmylchreest/ocrmerge/internal/diffreport"
	"github.com/jmylchreest/ocrmerge/internal/pipeline"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Write side-by-side diff reports of the two engines' transcriptions",
	Long: `Compare the transcriptions both engines produced for the same source and
write one self-contained HTML report per source to
<report-dir>/compare_<name>.html. Sources only one engine transcribed are
skipped.`,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	flags := compareCmd.Flags()
	flags.Int("wrap-column", 80, "wrap long lines in reports at this column (0 disables wrapping)")

	_ = viper.BindPFlag("wrap_column", flags.Lookup("wrap-column"))
}

func runCompare(cmd *cobra.Command, args []string) error {
	// Comparison is local; no engine credentials are needed.
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts := baseOptions(cfg)
	opts.Primary, opts.Secondary = newStores(cfg)
	opts.Reporter = diffreport.New(diffreport.WithWrapColumn(cfg.WrapColumn))

	logInfo("Comparing %s against %s", cfg.Primary.Label, cfg.Secondary.Label)

	sum, err := pipeline.New(opts).Compare(ctx)
	if errors.Is(err, pipeline.ErrNothingToCompare) {
		logInfo("No transcriptions in common between %s and %s; nothing to compare.",
			cfg.Primary.Label, cfg.Secondary.Label)
		return nil
	}
	if errors.Is(err, corpus.ErrStoreMissing) {
		logInfo("Run the transcribe command first to produce engine output.")
	}
	if err != nil {
		return err
	}
	return finish(cfg, sum)
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/ocrmerge/internal/config"
	"github.com/jmylchreest/ocrmerge/internal/pipeline"
	"github.com/jmylchreest/ocrmerge/internal/synth"
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Merge the two engines' transcriptions into one corrected text",
	Long: `Reconcile every source either engine transcribed. When both transcriptions
exist the synthesis engine merges them; when only one exists it is used
as-is. Results are written to <final-dir>/<name>.txt and .docx.

If the merge request is blocked or keeps failing, no final text is written
for that source.`,
	Aliases: []string{"synthesise", "merge"},
	RunE:    runSynthesize,
}

func init() {
	rootCmd.AddCommand(synthesizeCmd)
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	cfg, err := setup(config.RoleSynthesis)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(cfg, config.RoleSynthesis)
	if err != nil {
		return err
	}

	opts := baseOptions(cfg)
	opts.Primary, opts.Secondary = newStores(cfg)
	opts.Synthesizer = synth.New(client, cfg.Primary.Label, cfg.Secondary.Label)

	logInfo("Synthesizing %s and %s with %s into %s",
		cfg.Primary.Label, cfg.Secondary.Label, cfg.Synthesis.Label, cfg.FinalDir)

	sum, err := pipeline.New(opts).Synthesize(ctx)
	if err != nil {
		return err
	}
	return finish(cfg, sum)
}

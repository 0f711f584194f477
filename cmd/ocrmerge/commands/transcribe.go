package commands

import (
	"errors"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/ocrmerge/internal/config"
	"github.com/jmylchreest/ocrmerge/internal/corpus"
	"github.com/jmylchreest/ocrmerge/internal/pipeline"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Run both OCR engines over the input folder",
	Long: `Transcribe every supported image (png, jpg, jpeg, webp, bmp, gif) in the
input folder with the primary and then the secondary engine. Each engine's
text is written to <output-dir>/<engine label>/<name>.txt and .docx.

Blocked requests are not retried; other failures are retried up to
--retry-count times, --retry-delay apart.`,
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	flags := transcribeCmd.Flags()
	flags.String("max-image-size", "20MB", "skip images larger than this (e.g. 20MB, 0=unlimited)")
	flags.StringSlice("languages", nil, "tesseract languages (e.g. eng,chi_tra)")

	_ = viper.BindPFlag("max_image_size", flags.Lookup("max-image-size"))
	_ = viper.BindPFlag("languages", flags.Lookup("languages"))
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := setup(config.RolePrimary, config.RoleSecondary)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts := baseOptions(cfg)
	opts.Images = corpus.NewImageSource(cfg.InputDir, cfg.MaxImageBytes)
	for _, role := range []config.Role{config.RolePrimary, config.RoleSecondary} {
		client, err := newClient(cfg, role)
		if err != nil {
			return err
		}
		opts.Transcribers = append(opts.Transcribers, client)
	}

	limit := "unlimited"
	if cfg.MaxImageBytes > 0 {
		limit = humanize.Bytes(cfg.MaxImageBytes)
	}
	logInfo("Transcribing %s with %s and %s (max image size %s)",
		cfg.InputDir, cfg.Primary.Label, cfg.Secondary.Label, limit)

	sum, err := pipeline.New(opts).Transcribe(ctx)
	if errors.Is(err, pipeline.ErrNoImages) {
		logInfo("Put the images to transcribe in %s and run again.", cfg.InputDir)
		return nil
	}
	if err != nil {
		return err
	}
	return finish(cfg, sum)
}

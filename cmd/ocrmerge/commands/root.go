// Package commands implements the CLI commands for ocrmerge.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/ocrmerge/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "ocrmerge",
	Short: "Transcribe images with two OCR engines and reconcile the results",
	Long: `ocrmerge runs two OCR engines of different strength over a folder of
images, compares their transcriptions and merges them into a single
corrected text per image.

Examples:
  # Transcribe everything in ./input with both engines
  ocrmerge transcribe

  # Side-by-side HTML diff of the two engines' outputs
  ocrmerge compare

  # Merge both transcriptions into output/final_corrected
  ocrmerge synthesize --summary-format yaml

  # Use Anthropic for the merge step only
  ocrmerge synthesize --synthesis-provider anthropic`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()

	// Global flags
	pf.String("config", "", "config file (default $HOME/.ocrmerge.yaml or ./.ocrmerge.yaml)")
	pf.String("env-file", ".env", "dotenv file to load API keys from")
	pf.Bool("debug", false, "enable debug logging")
	pf.BoolP("quiet", "q", false, "suppress progress output")
	pf.Bool("log-json", false, "emit logs as JSON")
	pf.Bool("docx", true, "also write a .docx copy of every text artifact")

	// Engines
	pf.StringP("provider", "p", "", "default provider for all engines: gemini, anthropic, openai, openrouter, ollama, tesseract (default: first provider with an API key in the environment, else gemini)")
	for _, role := range []config.Role{config.RolePrimary, config.RoleSecondary, config.RoleSynthesis} {
		r := string(role)
		pf.String(r+"-provider", "", "provider for the "+r+" engine")
		pf.String(r+"-model", "", "model for the "+r+" engine")
		pf.String(r+"-label", "", "label (and output folder name) for the "+r+" engine")
		pf.String(r+"-base-url", "", "custom API base URL for the "+r+" engine")
	}

	pf.String("openrouter-referer", "", "HTTP-Referer sent to OpenRouter for attribution")
	pf.String("openrouter-title", "", "X-Title sent to OpenRouter (default \"ocrmerge\")")

	// Layout
	pf.String("input-dir", "", "folder of source images (default \"input\")")
	pf.String("output-dir", "", "root folder for per-engine transcriptions (default \"output\")")
	pf.String("final-dir", "", "folder for reconciled transcriptions (default \"output/final_corrected\")")
	pf.String("report-dir", "", "folder for comparison reports (default \"comparison_reports\")")

	// Engine policy
	pf.Int("retry-count", 0, "attempts per engine call (default 3)")
	pf.Duration("retry-delay", 0, "delay between attempts (default 10s)")
	pf.Duration("timeout", 0, "per-request timeout (default 5m)")

	// Run summary
	pf.String("summary-format", "", "write a run summary: json, jsonl, yaml")
	pf.String("summary-file", "", "summary destination (default: stdout)")
	pf.String("summary-xlsx", "", "also write the run summary as an XLSX workbook")

	bind := map[string]string{
		"config":             "config",
		"env-file":           "env_file",
		"debug":              "debug",
		"quiet":              "quiet",
		"log-json":           "log_json",
		"docx":               "docx",
		"provider":           "provider",
		"openrouter-referer": "openrouter.referer",
		"openrouter-title":   "openrouter.title",
		"input-dir":          "input_dir",
		"output-dir":         "output_dir",
		"final-dir":          "final_dir",
		"report-dir":         "report_dir",
		"retry-count":        "retry_count",
		"retry-delay":        "retry_delay",
		"timeout":            "timeout",
		"summary-format":     "summary_format",
		"summary-file":       "summary_file",
		"summary-xlsx":       "summary_xlsx",
	}
	for _, role := range []string{"primary", "secondary", "synthesis"} {
		for _, field := range []string{"provider", "model", "label", "base-url"} {
			bind[role+"-"+field] = role + "." + strings.ReplaceAll(field, "-", "_")
		}
	}
	for flag, key := range bind {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	loadDotEnv(viper.GetString("env_file"))

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".ocrmerge")
		viper.SetConfigType("yaml")
	}

	// Environment variables: OCRMERGE_PRIMARY_MODEL, OCRMERGE_RETRY_DELAY, ...
	viper.SetEnvPrefix("OCRMERGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// loadDotEnv loads API keys from a dotenv file. Variables already set in the
// environment win.
func loadDotEnv(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logError("could not load %s: %v", path, err)
	}
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

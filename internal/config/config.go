// Package config resolves and validates ocrmerge settings from flags,
// environment and the config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/ocrmerge/internal/engine"
	"github.com/jmylchreest/ocrmerge/internal/llm"
)

// ErrMissingAPIKey is returned when an engine's provider needs credentials
// and none (or only the placeholder) were supplied.
var ErrMissingAPIKey = errors.New("missing API key")

// Role identifies one of the three engines a run can use.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
	RoleSynthesis Role = "synthesis"
)

// Default directory layout.
const (
	DefaultProvider  = "gemini"
	DefaultAppTitle  = "ocrmerge"
	DefaultInputDir  = "input"
	DefaultOutputDir = "output"
	DefaultFinalDir  = "output/final_corrected"
	DefaultReportDir = "comparison_reports"
)

// Default models used for the faster engine when the provider is not gemini.
var secondaryModels = map[string]string{
	"gemini":     "gemini-1.5-flash",
	"anthropic":  "claude-3-5-haiku-20241022",
	"openai":     "gpt-4o-mini",
	"openrouter": "google/gemini-flash-1.5",
	"ollama":     "moondream",
	"tesseract":  "tesseract",
}

// EngineConfig selects the provider and model of one engine.
type EngineConfig struct {
	Provider string `mapstructure:"provider" validate:"required,provider"`
	Model    string `mapstructure:"model" validate:"required"`
	// Label names the engine in logs, reports and its output folder.
	Label   string `mapstructure:"label" validate:"required,excludesall=/\\"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

// Config is the resolved configuration for a run.
type Config struct {
	Primary   EngineConfig
	Secondary EngineConfig
	Synthesis EngineConfig

	InputDir  string `validate:"required"`
	OutputDir string `validate:"required"`
	FinalDir  string `validate:"required"`
	ReportDir string `validate:"required"`

	RetryCount  int           `validate:"min=1"`
	RetryDelay  time.Duration `validate:"min=0"`
	Timeout     time.Duration `validate:"min=0"`
	MaxTokens   int           `validate:"min=1"`
	Temperature float64       `validate:"min=0,max=2"`

	// MaxImageBytes of 0 means no limit.
	MaxImageBytes uint64
	Languages     []string

	WrapColumn int `validate:"min=0"`
	DOCX       bool

	SummaryFormat string `validate:"omitempty,oneof=json jsonl yaml"`
	SummaryFile   string
	SummaryXLSX   string

	// OpenRouter attribution headers (HTTP-Referer and X-Title).
	OpenRouterReferer string `validate:"omitempty,url"`
	OpenRouterTitle   string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	eng := engine.DefaultConfig()

	v.SetDefault("input_dir", DefaultInputDir)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("final_dir", DefaultFinalDir)
	v.SetDefault("report_dir", DefaultReportDir)
	v.SetDefault("retry_count", eng.RetryCount)
	v.SetDefault("retry_delay", eng.RetryDelay)
	v.SetDefault("timeout", 5*time.Minute)
	v.SetDefault("max_tokens", eng.MaxTokens)
	v.SetDefault("temperature", eng.Temperature)
	v.SetDefault("max_image_size", "20MB")
	v.SetDefault("languages", []string{"eng"})
	v.SetDefault("wrap_column", 80)
	v.SetDefault("docx", true)
	v.SetDefault("openrouter.title", DefaultAppTitle)
}

// Load builds a Config from v, fills in derived values and validates it.
func Load(v *viper.Viper) (*Config, error) {
	maxImage, err := parseSize(v.GetString("max_image_size"))
	if err != nil {
		return nil, err
	}

	global := strings.TrimSpace(v.GetString("provider"))
	if global == "" {
		global = detectProvider()
	}
	cfg := &Config{
		Primary:       loadEngine(v, RolePrimary, global),
		Secondary:     loadEngine(v, RoleSecondary, global),
		Synthesis:     loadEngine(v, RoleSynthesis, global),
		InputDir:      v.GetString("input_dir"),
		OutputDir:     v.GetString("output_dir"),
		FinalDir:      v.GetString("final_dir"),
		ReportDir:     v.GetString("report_dir"),
		RetryCount:    v.GetInt("retry_count"),
		RetryDelay:    v.GetDuration("retry_delay"),
		Timeout:       v.GetDuration("timeout"),
		MaxTokens:     v.GetInt("max_tokens"),
		Temperature:   v.GetFloat64("temperature"),
		MaxImageBytes: maxImage,
		Languages:     v.GetStringSlice("languages"),
		WrapColumn:    v.GetInt("wrap_column"),
		DOCX:          v.GetBool("docx"),
		SummaryFormat: strings.ToLower(v.GetString("summary_format")),
		SummaryFile:   v.GetString("summary_file"),
		SummaryXLSX:   v.GetString("summary_xlsx"),

		OpenRouterReferer: strings.TrimSpace(v.GetString("openrouter.referer")),
		OpenRouterTitle:   strings.TrimSpace(v.GetString("openrouter.title")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEngine(v *viper.Viper, role Role, global string) EngineConfig {
	prefix := string(role) + "."
	ec := EngineConfig{
		Provider: strings.ToLower(strings.TrimSpace(v.GetString(prefix + "provider"))),
		Model:    strings.TrimSpace(v.GetString(prefix + "model")),
		Label:    strings.TrimSpace(v.GetString(prefix + "label")),
		APIKey:   strings.TrimSpace(v.GetString(prefix + "api_key")),
		BaseURL:  strings.TrimSpace(v.GetString(prefix + "base_url")),
	}
	if ec.Provider == "" {
		ec.Provider = strings.ToLower(strings.TrimSpace(global))
	}
	if ec.Model == "" {
		ec.Model = DefaultModel(ec.Provider, role)
	}
	if ec.Label == "" {
		ec.Label = LabelFor(ec.Model)
	}
	if ec.APIKey == llm.PlaceholderAPIKey {
		ec.APIKey = ""
	}
	if ec.APIKey == "" {
		ec.APIKey = llm.APIKeyFromEnv(ec.Provider)
	}
	return ec
}

// detectProvider picks the first provider with credentials in the
// environment, falling back to DefaultProvider when none are set.
func detectProvider() string {
	if name, key := llm.DetectProvider(); key != "" {
		return name
	}
	return DefaultProvider
}

// DefaultModel returns the model used for role when none is configured.
func DefaultModel(provider string, role Role) string {
	if role == RoleSecondary {
		if m, ok := secondaryModels[provider]; ok {
			return m
		}
	}
	return llm.GetDefaultModel(provider)
}

// LabelFor turns a model name into a folder-safe engine label.
func LabelFor(model string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(model)
}

func parseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid max image size %q: %w", s, err)
	}
	return n, nil
}

// Engine returns the settings for role.
func (c *Config) Engine(role Role) EngineConfig {
	switch role {
	case RoleSecondary:
		return c.Secondary
	case RoleSynthesis:
		return c.Synthesis
	default:
		return c.Primary
	}
}

// RetryPolicy returns the retry and generation settings shared by all
// engines.
func (c *Config) RetryPolicy() engine.Config {
	return engine.Config{
		RetryCount:  c.RetryCount,
		RetryDelay:  c.RetryDelay,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}
}

// ProviderConfig returns the provider settings for role.
func (c *Config) ProviderConfig(role Role) llm.ProviderConfig {
	ec := c.Engine(role)
	pc := llm.DefaultProviderConfig()
	pc.APIKey = ec.APIKey
	pc.BaseURL = ec.BaseURL
	pc.Model = ec.Model
	if c.Timeout > 0 {
		pc.Timeout = c.Timeout
	}
	pc.Languages = c.Languages
	if ec.Provider == "openrouter" {
		pc.HTTPReferer = c.OpenRouterReferer
		pc.AppTitle = c.OpenRouterTitle
	}
	return pc
}

// RequireCredentials checks that every listed engine has an API key when
// its provider needs one.
func (c *Config) RequireCredentials(roles ...Role) error {
	var errs []error
	for _, role := range roles {
		ec := c.Engine(role)
		if llm.RequiresAPIKey(ec.Provider) && ec.APIKey == "" {
			errs = append(errs, fmt.Errorf("%w for %s engine (%s): set %s or %s_API_KEY",
				ErrMissingAPIKey, role, ec.Provider, llm.EnvKey(ec.Provider), envPrefix(role)))
		}
	}
	return errors.Join(errs...)
}

func envPrefix(role Role) string {
	return "OCRMERGE_" + strings.ToUpper(string(role))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		return llm.IsRegistered(fl.Field().String())
	})
	return v
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatFieldError(fe))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Synthesis.Provider == "tesseract" {
		return errors.New("invalid configuration: tesseract cannot be used as the synthesis engine")
	}
	if c.Primary.Label == c.Secondary.Label {
		return fmt.Errorf("invalid configuration: primary and secondary engines share the label %q; set distinct models or labels", c.Primary.Label)
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "provider":
		return fmt.Sprintf("%s: unknown provider %q (available: %s)", field, fe.Value(), strings.Join(llm.AvailableProviders(), ", "))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	case "excludesall":
		return field + " must not contain path separators"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

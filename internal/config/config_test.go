package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func clearKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	clearKeys(t)
	cfg, err := Load(newViper())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Primary.Provider != "gemini" || cfg.Primary.Model != "gemini-2.5-pro" {
		t.Errorf("primary = %+v", cfg.Primary)
	}
	if cfg.Secondary.Model != "gemini-1.5-flash" || cfg.Secondary.Label != "gemini-1.5-flash" {
		t.Errorf("secondary = %+v", cfg.Secondary)
	}
	if cfg.Synthesis.Model != "gemini-2.5-pro" {
		t.Errorf("synthesis = %+v", cfg.Synthesis)
	}
	if cfg.InputDir != "input" || cfg.OutputDir != "output" || cfg.FinalDir != "output/final_corrected" || cfg.ReportDir != "comparison_reports" {
		t.Errorf("unexpected dirs %+v", cfg)
	}
	if cfg.RetryCount != 3 || cfg.RetryDelay != 10*time.Second {
		t.Errorf("retry policy = %d / %s", cfg.RetryCount, cfg.RetryDelay)
	}
	if cfg.MaxImageBytes != 20_000_000 {
		t.Errorf("MaxImageBytes = %d", cfg.MaxImageBytes)
	}
	if !cfg.DOCX || cfg.WrapColumn != 80 {
		t.Errorf("DOCX/WrapColumn = %v/%d", cfg.DOCX, cfg.WrapColumn)
	}

	p := cfg.RetryPolicy()
	if p.RetryCount != 3 || p.RetryDelay != 10*time.Second {
		t.Errorf("RetryPolicy = %+v", p)
	}
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	clearKeys(t)
	t.Setenv("GEMINI_API_KEY", "  secret  ")

	cfg, err := Load(newViper())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Primary.APIKey != "secret" {
		t.Errorf("APIKey = %q", cfg.Primary.APIKey)
	}
	if err := cfg.RequireCredentials(RolePrimary, RoleSecondary, RoleSynthesis); err != nil {
		t.Errorf("RequireCredentials() error = %v", err)
	}
	if pc := cfg.ProviderConfig(RoleSecondary); pc.APIKey != "secret" || pc.Model != "gemini-1.5-flash" {
		t.Errorf("ProviderConfig = %+v", pc)
	}
}

func TestRequireCredentials_Placeholder(t *testing.T) {
	clearKeys(t)
	t.Setenv("GEMINI_API_KEY", "YOUR_API_KEY_HERE")

	cfg, err := Load(newViper())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	err = cfg.RequireCredentials(RoleSynthesis)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("error should name the env var, got %v", err)
	}
}

func TestRequireCredentials_PerEngineKeyAndKeylessProvider(t *testing.T) {
	clearKeys(t)
	v := newViper()
	v.Set("primary.provider", "ollama")
	v.Set("secondary.provider", "ollama")
	v.Set("synthesis.api_key", "YOUR_API_KEY_HERE")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.RequireCredentials(RolePrimary, RoleSecondary); err != nil {
		t.Errorf("ollama needs no key, got %v", err)
	}
	if err := cfg.RequireCredentials(RoleSynthesis); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected placeholder to count as missing, got %v", err)
	}
}

func TestLoad_UnknownProvider(t *testing.T) {
	clearKeys(t)
	v := newViper()
	v.Set("provider", "bogus")

	_, err := Load(v)
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestLoad_RejectsTesseractSynthesis(t *testing.T) {
	clearKeys(t)
	v := newViper()
	v.Set("synthesis.provider", "tesseract")

	_, err := Load(v)
	if err == nil || !strings.Contains(err.Error(), "synthesis") {
		t.Fatalf("expected synthesis provider error, got %v", err)
	}
}

func TestLoad_InvalidRetryCount(t *testing.T) {
	clearKeys(t)
	v := newViper()
	v.Set("retry_count", 0)

	_, err := Load(v)
	if err == nil || !strings.Contains(err.Error(), "RetryCount") {
		t.Fatalf("expected RetryCount error, got %v", err)
	}
}

func TestLoad_DuplicateLabels(t *testing.T) {
	clearKeys(t)
	v := newViper()
	v.Set("primary.model", "same-model")
	v.Set("secondary.model", "same-model")

	if _, err := Load(v); err == nil {
		t.Fatal("expected error for colliding engine labels")
	}

	v.Set("secondary.label", "fast")
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Secondary.Label != "fast" {
		t.Errorf("label = %q", cfg.Secondary.Label)
	}
}

func TestLoad_LabelSanitized(t *testing.T) {
	clearKeys(t)
	v := newViper()
	v.Set("provider", "openrouter")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Primary.Label != "google_gemini-2.5-pro" {
		t.Errorf("label = %q", cfg.Primary.Label)
	}
	if cfg.Primary.Model != "google/gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.Primary.Model)
	}
}

func TestLoad_InvalidSummaryFormat(t *testing.T) {
	clearKeys(t)
	v := newViper()
	v.Set("summary_format", "csv")

	_, err := Load(v)
	if err == nil || !strings.Contains(err.Error(), "SummaryFormat") {
		t.Fatalf("expected SummaryFormat error, got %v", err)
	}
}

func TestLoad_MaxImageSize(t *testing.T) {
	clearKeys(t)
	v := newViper()
	v.Set("max_image_size", "0")
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxImageBytes != 0 {
		t.Errorf("MaxImageBytes = %d", cfg.MaxImageBytes)
	}

	v.Set("max_image_size", "lots")
	if _, err := Load(v); err == nil {
		t.Fatal("expected error for unparseable size")
	}
}

func TestLoad_ProviderDetectedFromEnv(t *testing.T) {
	clearKeys(t)
	t.Setenv("ANTHROPIC_API_KEY", "a-key")

	cfg, err := Load(newViper())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Primary.Provider != "anthropic" || cfg.Synthesis.Provider != "anthropic" {
		t.Errorf("expected anthropic from environment, got %s/%s", cfg.Primary.Provider, cfg.Synthesis.Provider)
	}
	if cfg.Primary.APIKey != "a-key" {
		t.Errorf("expected detected key, got %q", cfg.Primary.APIKey)
	}

	v := newViper()
	v.Set("provider", "openai")
	cfg, err = Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Primary.Provider != "openai" {
		t.Errorf("explicit provider should win over detection, got %s", cfg.Primary.Provider)
	}
}

func TestProviderConfig_OpenRouterAttribution(t *testing.T) {
	clearKeys(t)
	v := newViper()
	v.Set("synthesis.provider", "openrouter")
	v.Set("synthesis.api_key", "or-key")
	v.Set("openrouter.referer", "https://example.org/ocr")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	pc := cfg.ProviderConfig(RoleSynthesis)
	if pc.HTTPReferer != "https://example.org/ocr" || pc.AppTitle != DefaultAppTitle {
		t.Errorf("unexpected attribution %q / %q", pc.HTTPReferer, pc.AppTitle)
	}
	if pc := cfg.ProviderConfig(RolePrimary); pc.HTTPReferer != "" || pc.AppTitle != "" {
		t.Errorf("attribution leaked to %s engine: %+v", cfg.Primary.Provider, pc)
	}
}

//go:build tesseract

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// TesseractProvider runs the local Tesseract engine through gosseract.
// It only transcribes images; text-only requests are rejected.
type TesseractProvider struct {
	languages []string
}

// NewTesseractProvider creates a Tesseract-backed provider.
func NewTesseractProvider(cfg ProviderConfig) (*TesseractProvider, error) {
	return &TesseractProvider{languages: append([]string(nil), cfg.Languages...)}, nil
}

// Execute recognises the first image attached to the request.
func (p *TesseractProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	var img *Image
	for _, m := range req.Messages {
		if len(m.Images) > 0 {
			img = &m.Images[0]
			break
		}
	}
	if img == nil {
		return nil, errors.New("tesseract: request carries no image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := gosseract.NewClient()
	defer c.Close()

	if err := c.SetImageFromBytes(img.Data); err != nil {
		return nil, fmt.Errorf("tesseract: set image: %w", err)
	}
	if len(p.languages) > 0 {
		if err := c.SetLanguage(p.languages...); err != nil {
			return nil, fmt.Errorf("tesseract: set languages: %w", err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract: recognize: %w", err)
	}

	return &Response{
		Content:      strings.TrimSpace(text),
		FinishReason: "stop",
		Model:        p.Model(),
		Duration:     time.Since(start),
	}, nil
}

// Name returns the provider identifier.
func (p *TesseractProvider) Name() string {
	return "tesseract"
}

// Model returns the language set in use, which is the closest thing
// Tesseract has to a model name.
func (p *TesseractProvider) Model() string {
	if len(p.languages) == 0 {
		return "tesseract"
	}
	return "tesseract-" + strings.Join(p.languages, "+")
}

var _ Provider = (*TesseractProvider)(nil)

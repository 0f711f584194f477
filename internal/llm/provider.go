// Package llm provides a unified interface over the text-generation backends
// used as OCR engines and as the reconciliation model.
package llm

import (
	"context"
	"errors"
	"time"
)

// ErrBlocked marks a request the backend refused on content-policy grounds.
// Providers either return it wrapped or set Response.BlockReason.
var ErrBlocked = errors.New("request blocked by provider")

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Image is an encoded image attached to a user message.
type Image struct {
	Data     []byte
	MIMEType string // e.g. image/png
}

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
	// Images are sent alongside Content. Only honoured on user messages.
	Images []Image
}

// Request represents a generation request.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// HasImages reports whether any message carries an image.
func (r Request) HasImages() bool {
	for _, m := range r.Messages {
		if len(m.Images) > 0 {
			return true
		}
	}
	return false
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response represents the result of a generation call.
type Response struct {
	Content      string
	FinishReason string
	// BlockReason is non-empty when the backend refused the request.
	// Content is meaningless in that case.
	BlockReason string
	Usage       Usage
	Model       string // Actual model used (may differ from requested)
	Duration    time.Duration
}

// Blocked reports whether the backend refused the request.
func (r *Response) Blocked() bool {
	return r != nil && r.BlockReason != ""
}

// Provider is the core interface that all backends must implement.
type Provider interface {
	// Execute sends a request and returns the response.
	Execute(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier (e.g., "gemini", "anthropic").
	Name() string

	// Model returns the configured model name.
	Model() string
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // For custom endpoints or OpenRouter
	Model   string
	Timeout time.Duration
	// Languages are recognition hints for local OCR engines (e.g. "eng", "chi_tra").
	Languages []string
	// HTTPReferer and AppTitle for OpenRouter attribution
	HTTPReferer string
	AppTitle    string
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout: 120 * time.Second,
	}
}

// Package engine wraps a text-generation provider with the retry policy and
// failure classification shared by image transcription and text
// reconciliation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/ocrmerge/internal/llm"
	"github.com/jmylchreest/ocrmerge/internal/logger"
)

// ErrEmptyResponse is returned (wrapped in Result.Err) when the provider
// answered without text or a block reason.
var ErrEmptyResponse = errors.New("empty response from provider")

// Config holds the retry policy and generation settings.
type Config struct {
	// RetryCount is the total number of attempts, not the number of retries.
	RetryCount int
	// RetryDelay is slept between transiently failed attempts.
	RetryDelay  time.Duration
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the policy of 3 attempts 10 seconds apart.
func DefaultConfig() Config {
	return Config{
		RetryCount:  3,
		RetryDelay:  10 * time.Second,
		MaxTokens:   8192,
		Temperature: 0,
	}
}

// Sleeper blocks for the given duration between attempts.
type Sleeper func(time.Duration)

// Client performs one logical extraction with bounded retry.
type Client struct {
	provider llm.Provider
	cfg      Config
	sleep    Sleeper
	observer llm.Observer
	label    string
}

// Option configures a Client.
type Option func(*Client)

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithObserver reports every provider call to obs.
func WithObserver(obs llm.Observer) Option {
	return func(c *Client) {
		c.observer = obs
	}
}

// WithLabel sets the engine label used in logs. Defaults to the provider model.
func WithLabel(label string) Option {
	return func(c *Client) {
		c.label = label
	}
}

// New creates a Client around provider.
func New(provider llm.Provider, cfg Config, opts ...Option) *Client {
	if cfg.RetryCount < 1 {
		cfg.RetryCount = 1
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	c := &Client{
		provider: provider,
		cfg:      cfg,
		sleep:    time.Sleep,
		label:    provider.Model(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Label returns the engine label.
func (c *Client) Label() string {
	return c.label
}

// Config returns the client's policy.
func (c *Client) Config() Config {
	return c.cfg
}

// Transcribe extracts the text of an image.
func (c *Client) Transcribe(ctx context.Context, id string, image llm.Image) Result {
	return c.Extract(ctx, id, llm.Request{
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: TranscribePrompt(),
			Images:  []llm.Image{image},
		}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
}

// Generate runs a text-only prompt.
func (c *Client) Generate(ctx context.Context, id string, prompt string) Result {
	return c.Extract(ctx, id, llm.Request{
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: prompt,
		}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
}

// Extract sends req until it succeeds, is blocked, or attempts run out.
// A block is terminal and never retried; every other failure is transient.
func (c *Client) Extract(ctx context.Context, id string, req llm.Request) Result {
	log := logger.With("id", id, "engine", c.label)
	result := Result{ID: id, Status: StatusFailed}
	start := time.Now()

	for attempt := 1; attempt <= c.cfg.RetryCount; attempt++ {
		result.Attempts = attempt
		log.Debug("engine attempt", "attempt", attempt, "max_attempts", c.cfg.RetryCount)

		callStart := time.Now()
		resp, err := c.provider.Execute(ctx, req)
		c.notify(ctx, id, attempt, req, resp, err, callStart)

		if resp != nil {
			result.Model = resp.Model
			result.Usage.InputTokens += resp.Usage.InputTokens
			result.Usage.OutputTokens += resp.Usage.OutputTokens
		}

		if reason, blocked := blockReason(resp, err); blocked {
			log.Warn("engine request blocked, not retrying", "attempt", attempt, "reason", reason)
			result.Status = StatusBlocked
			result.BlockReason = reason
			result.Err = nil
			result.Duration = time.Since(start)
			return result
		}

		switch {
		case err != nil:
		case resp == nil:
			err = ErrEmptyResponse
		case strings.TrimSpace(resp.Content) == "":
			err = fmt.Errorf("%w (finish_reason=%q)", ErrEmptyResponse, resp.FinishReason)
		}
		if err == nil {
			log.Debug("engine success", "attempt", attempt, "chars", len(resp.Content))
			result.Status = StatusSuccess
			result.Text = resp.Content
			result.Err = nil
			result.Duration = time.Since(start)
			return result
		}

		result.Err = err
		log.Warn("engine attempt failed", "attempt", attempt, "error", err)

		if attempt >= c.cfg.RetryCount {
			log.Error("engine max attempts reached", "attempts", c.cfg.RetryCount)
			break
		}
		if ctx.Err() != nil {
			log.Warn("engine context done, abandoning retries", "error", ctx.Err())
			break
		}
		log.Info("engine retrying", "delay", c.cfg.RetryDelay)
		c.sleep(c.cfg.RetryDelay)
	}

	result.Duration = time.Since(start)
	return result
}

func (c *Client) notify(ctx context.Context, id string, attempt int, req llm.Request, resp *llm.Response, err error, started time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.OnCall(ctx, llm.CallEvent{
		ID:        id,
		Provider:  c.provider.Name(),
		Model:     c.provider.Model(),
		Attempt:   attempt,
		HasImage:  req.HasImages(),
		Response:  resp,
		Error:     err,
		StartedAt: started,
		Duration:  time.Since(started),
	})
}

// blockReason reports whether a call outcome is a content-policy refusal.
func blockReason(resp *llm.Response, err error) (string, bool) {
	if err != nil {
		if errors.Is(err, llm.ErrBlocked) {
			return err.Error(), true
		}
		return "", false
	}
	if resp.Blocked() {
		return resp.BlockReason, true
	}
	return "", false
}

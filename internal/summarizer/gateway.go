package summarizer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"NewsCollector/internal/config"
	"NewsCollector/internal/domain"
	"NewsCollector/internal/infrastructure/llm"
	"NewsCollector/internal/logging"
	"NewsCollector/internal/ports"
)

const (
	msgRateLimited = "Error: Rate limit exceeded, please try again later"
	msgOverloaded  = "Error: Gemini API is currently overloaded, please try again later"
	msgInterrupted = "Error: Retry interrupted"
	msgNoContent   = "No response generated"
	msgFailedFmt   = "Error generating content: "
)

// Generator performs one call to the generative service.
type Generator interface {
	Generate(ctx context.Context, prompt string) llm.Response
}

// Policy bounds concurrency and retries towards the generative service.
type Policy struct {
	MaxConcurrent     int
	AcquireTimeout    time.Duration
	MaxRetries        int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
}

// DefaultPolicy allows 5 in-flight calls, waits 30s for a permit and retries overload
// 5 times starting at 1s with a 1.5 multiplier.
func DefaultPolicy() Policy {
	return Policy{
		MaxConcurrent:     5,
		AcquireTimeout:    30 * time.Second,
		MaxRetries:        5,
		InitialBackoff:    time.Second,
		BackoffMultiplier: 1.5,
	}
}

// PolicyFromConfig fills a Policy from configuration, keeping defaults for unset fields.
func PolicyFromConfig(cfg config.GeminiConfig) Policy {
	p := DefaultPolicy()
	if cfg.MaxConcurrent > 0 {
		p.MaxConcurrent = cfg.MaxConcurrent
	}
	if cfg.AcquireTimeout > 0 {
		p.AcquireTimeout = cfg.AcquireTimeout
	}
	if cfg.MaxRetries > 0 {
		p.MaxRetries = cfg.MaxRetries
	}
	if cfg.InitialBackoff > 0 {
		p.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.BackoffMultiplier > 1 {
		p.BackoffMultiplier = cfg.BackoffMultiplier
	}
	return p
}

// Gateway mediates every call to the generative service. All callers share one permit pool.
type Gateway struct {
	generator Generator
	extractor ports.ContentExtractor
	permits   *semaphore.Weighted
	policy    Policy
	sleep     func(context.Context, time.Duration) error
	logger    *slog.Logger
}

var _ ports.Summarizer = (*Gateway)(nil)

// Option customizes a Gateway.
type Option func(*Gateway)

// WithSleep replaces the backoff sleep.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(g *Gateway) {
		g.sleep = sleep
	}
}

// WithExtractor sets the article body extractor used to build prompts.
func WithExtractor(extractor ports.ContentExtractor) Option {
	return func(g *Gateway) {
		g.extractor = extractor
	}
}

// NewGateway builds a gateway around generator.
func NewGateway(generator Generator, policy Policy, log *slog.Logger, opts ...Option) *Gateway {
	if policy.MaxConcurrent <= 0 {
		policy.MaxConcurrent = DefaultPolicy().MaxConcurrent
	}
	g := &Gateway{
		generator: generator,
		permits:   semaphore.NewWeighted(int64(policy.MaxConcurrent)),
		policy:    policy,
		sleep:     sleepContext,
		logger:    logging.OrDiscard(log),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Summarize extracts the article body (falling back to its URL) and asks the service for
// a summary. Failures come back as a non-OK result, never as an error.
func (g *Gateway) Summarize(ctx context.Context, articleURL, title string) domain.SummaryResult {
	body := g.articleBody(ctx, articleURL)
	result := g.Generate(ctx, BuildPrompt(title, body, articleURL))

	if result.Status == domain.SummaryOK && strings.TrimSpace(result.Text) == NoBodyReply {
		return domain.SummaryResult{Status: domain.SummaryNoContent, Text: NoBodyReply, Attempts: result.Attempts}
	}
	return result
}

// Generate runs one prompt under a permit, retrying while the service reports overload.
func (g *Gateway) Generate(ctx context.Context, prompt string) domain.SummaryResult {
	release, result, ok := g.acquire(ctx)
	if !ok {
		return result
	}
	defer release()

	return g.generateWithRetry(ctx, prompt)
}

// acquire waits up to AcquireTimeout for a permit. On success the caller must call release.
func (g *Gateway) acquire(ctx context.Context) (release func(), result domain.SummaryResult, ok bool) {
	waitCtx := ctx
	if g.policy.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, g.policy.AcquireTimeout)
		defer cancel()
	}

	g.logger.Debug("waiting for permit")
	if err := g.permits.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, domain.SummaryResult{Status: domain.SummaryInterrupted, Text: msgInterrupted}, false
		}
		g.logger.Warn("no permit available", "wait", g.policy.AcquireTimeout)
		return nil, domain.SummaryResult{Status: domain.SummaryRateLimited, Text: msgRateLimited}, false
	}
	g.logger.Debug("permit acquired")

	return func() {
		g.permits.Release(1)
		g.logger.Debug("permit released")
	}, domain.SummaryResult{}, true
}

func (g *Gateway) generateWithRetry(ctx context.Context, prompt string) domain.SummaryResult {
	delay := g.policy.InitialBackoff

	for attempt := 1; ; attempt++ {
		resp := g.generator.Generate(ctx, prompt)

		switch resp.Outcome {
		case llm.OutcomeSuccess:
			if !resp.HasContent || strings.TrimSpace(resp.Text) == "" {
				return domain.SummaryResult{Status: domain.SummaryNoContent, Text: msgNoContent, Attempts: attempt}
			}
			return domain.SummaryResult{Status: domain.SummaryOK, Text: strings.TrimSpace(resp.Text), Attempts: attempt}

		case llm.OutcomeRetryable:
			if attempt > g.policy.MaxRetries {
				g.logger.Error("service still overloaded", "retries", g.policy.MaxRetries)
				return domain.SummaryResult{Status: domain.SummaryOverloaded, Text: msgOverloaded, Attempts: attempt}
			}
			g.logger.Warn("service overloaded, retrying",
				"delay_ms", delay.Milliseconds(),
				"attempt", attempt,
				"max_retries", g.policy.MaxRetries)
			if err := g.sleep(ctx, delay); err != nil {
				g.logger.Error("retry interrupted", "error", err)
				return domain.SummaryResult{Status: domain.SummaryInterrupted, Text: msgInterrupted, Attempts: attempt}
			}
			delay = time.Duration(float64(delay) * g.policy.BackoffMultiplier)

		default:
			if errors.Is(resp.Err, context.Canceled) {
				return domain.SummaryResult{Status: domain.SummaryInterrupted, Text: msgInterrupted, Attempts: attempt}
			}
			g.logger.Error("service call failed", "status", resp.StatusCode, "error", resp.Err)
			return domain.SummaryResult{Status: domain.SummaryFailed, Text: msgFailedFmt + errorText(resp.Err), Attempts: attempt}
		}
	}
}

func (g *Gateway) articleBody(ctx context.Context, articleURL string) string {
	if g.extractor == nil || articleURL == "" {
		return ""
	}
	body, err := g.extractor.Extract(ctx, articleURL)
	if err != nil {
		g.logger.Warn("article body extraction failed, prompting with url", "url", articleURL, "error", err)
		return ""
	}
	return body
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

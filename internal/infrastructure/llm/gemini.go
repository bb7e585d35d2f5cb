package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsCollector/internal/config"
)

const maxErrorBody = 4096

// Outcome classifies a single call to the generative service.
type Outcome int

const (
	// OutcomeSuccess means the service answered 2xx; Text may still be empty.
	OutcomeSuccess Outcome = iota
	// OutcomeRetryable means the service reported overload and the call may be repeated.
	OutcomeRetryable
	// OutcomeFatal covers every failure that retrying will not fix.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// Response is the tagged result of one generateContent call.
type Response struct {
	Outcome    Outcome
	Text       string
	HasContent bool
	StatusCode int
	Err        error
}

// GeminiClient posts prompts to the Gemini generateContent endpoint.
type GeminiClient struct {
	url             string
	apiKey          string
	overloadMarkers []string
	httpClient      *http.Client
}

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	markers := cfg.OverloadMarkers
	if len(markers) == 0 {
		markers = config.DefaultOverloadMarkers
	}
	return &GeminiClient{
		url:             cfg.URL(),
		apiKey:          cfg.APIKey,
		overloadMarkers: markers,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generationConfig struct {
	ThinkingConfig thinkingConfig `json:"thinkingConfig"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
}

// Generate sends one prompt and classifies the answer. It performs no retries.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) Response {
	if c == nil {
		return Response{Outcome: OutcomeFatal, Err: fmt.Errorf("gemini client is nil")}
	}
	if c.apiKey == "" || c.url == "" {
		return Response{Outcome: OutcomeFatal, Err: fmt.Errorf("gemini client misconfigured")}
	}

	body, err := json.Marshal(newRequest(prompt))
	if err != nil {
		return Response{Outcome: OutcomeFatal, Err: fmt.Errorf("marshal gemini payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Response{Outcome: OutcomeFatal, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{Outcome: OutcomeFatal, Err: fmt.Errorf("send prompt: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		outcome := OutcomeFatal
		if IsOverloaded(string(payload), c.overloadMarkers) {
			outcome = OutcomeRetryable
		}
		return Response{
			Outcome:    outcome,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(payload))),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{Outcome: OutcomeFatal, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	text, ok := ExtractText(raw)
	return Response{Outcome: OutcomeSuccess, StatusCode: resp.StatusCode, Text: text, HasContent: ok}
}

// IsOverloaded reports whether an error body carries one of the overload markers.
// Gemini signals load shedding only through this free-text message.
func IsOverloaded(body string, markers []string) bool {
	for _, marker := range markers {
		if marker != "" && strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// ExtractText returns candidates[0].content.parts[0].text. A missing candidate, part or a
// malformed envelope yields ok=false.
func ExtractText(raw []byte) (string, bool) {
	var envelope generateResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", false
	}
	if len(envelope.Candidates) == 0 {
		return "", false
	}
	first := envelope.Candidates[0].Content
	if first == nil || len(first.Parts) == 0 {
		return "", false
	}
	return first.Parts[0].Text, true
}

func newRequest(prompt string) generateRequest {
	return generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		// a zero budget turns thinking off
		GenerationConfig: generationConfig{ThinkingConfig: thinkingConfig{ThinkingBudget: 0}},
	}
}

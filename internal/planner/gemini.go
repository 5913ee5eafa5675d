package planner

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"gofer/internal/config"
	"gofer/internal/logging"
)

// GeminiPlanner plans via the Google Gemini API using native function calling.
type GeminiPlanner struct {
	client     *genai.Client
	model      string
	genConfig  *genai.GenerateContentConfig
	maxRetries int
	retryDelay time.Duration
}

// NewGeminiPlanner creates a Gemini-backed planner from the configuration.
func NewGeminiPlanner(ctx context.Context, cfg *config.Config) (*GeminiPlanner, error) {
	if cfg.API.GeminiKey == "" {
		return nil, config.ErrMissingAuth
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.API.GeminiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiPlanner{
		client: client,
		model:  cfg.Model.Name,
		genConfig: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(cfg.Model.Temperature),
			MaxOutputTokens: cfg.Model.MaxOutputTokens,
		},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}, nil
}

func (p *GeminiPlanner) Name() string {
	return "gemini/" + p.model
}

// NextStep sends the turn context and interprets the response as a Step or a
// final message.
func (p *GeminiPlanner) NextStep(ctx context.Context, req Request) (*Result, error) {
	genConfig := *p.genConfig
	genConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	if len(req.Tools) > 0 {
		genConfig.Tools = []*genai.Tool{{FunctionDeclarations: req.Tools}}
	}

	contents := []*genai.Content{
		genai.NewContentFromText(buildUserPrompt(req), genai.RoleUser),
	}

	resp, err := p.generate(ctx, contents, &genConfig)
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &MalformedOutputError{Reason: "response has no candidates"}
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			// Native function call wins over any accompanying text.
			args := part.FunctionCall.Args
			if args == nil {
				args = make(map[string]any)
			}
			return &Result{
				Step:    &Step{Tool: part.FunctionCall.Name, Args: args, Rationale: text},
				Message: text,
			}, nil
		}
		if !part.Thought && part.Text != "" {
			text += part.Text
		}
	}

	// No native call; some responses carry the call as JSON text.
	return ParseResult(text)
}

func (p *GeminiPlanner) generate(ctx context.Context, contents []*genai.Content, genConfig *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(p.retryDelay, attempt-1, maxRetryDelay)
			logging.Info("retrying Gemini request", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, genConfig)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
		}
		logging.Warn("Gemini request failed, will retry", "attempt", attempt, "error", err)
	}
	return nil, fmt.Errorf("%w: max retries (%d) exceeded: %s", ErrUnavailable, p.maxRetries, lastErr)
}

// Close releases client resources. The genai client has no explicit close.
func (p *GeminiPlanner) Close() error {
	return nil
}

package planner

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"google.golang.org/genai"

	"gofer/internal/config"
	"gofer/internal/logging"
)

// OllamaPlanner plans via a local or remote Ollama server.
type OllamaPlanner struct {
	client      *api.Client
	model       string
	temperature float32
	maxTokens   int32
	maxRetries  int
	retryDelay  time.Duration
}

// authTransport adds a bearer token for remote Ollama servers behind auth.
type authTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.apiKey)
	return t.base.RoundTrip(clone)
}

// NewOllamaPlanner creates an Ollama-backed planner from the configuration.
func NewOllamaPlanner(cfg *config.Config) (*OllamaPlanner, error) {
	if cfg.Model.Name == "" {
		return nil, fmt.Errorf("model name is required")
	}

	rawBase := cfg.API.OllamaBaseURL
	if rawBase == "" {
		rawBase = "http://localhost:11434"
	}
	baseURL, err := url.Parse(rawBase)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL: %w", err)
	}

	if baseURL.Scheme == "http" {
		host := baseURL.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			logging.Warn("Ollama connection uses unencrypted HTTP to remote host", "host", host)
		}
	}

	timeout := cfg.API.HTTPTimeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	if cfg.API.OllamaKey != "" {
		httpClient.Transport = &authTransport{
			base:   http.DefaultTransport,
			apiKey: cfg.API.OllamaKey,
		}
	}

	maxTokens := cfg.Model.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	return &OllamaPlanner{
		client:      api.NewClient(baseURL, httpClient),
		model:       cfg.Model.Name,
		temperature: cfg.Model.Temperature,
		maxTokens:   maxTokens,
		maxRetries:  defaultMaxRetries,
		retryDelay:  defaultRetryDelay,
	}, nil
}

func (p *OllamaPlanner) Name() string {
	return "ollama/" + p.model
}

// NextStep sends the turn context and interprets the response.
func (p *OllamaPlanner) NextStep(ctx context.Context, req Request) (*Result, error) {
	// The tool catalog goes in the system prompt too: smaller Ollama models
	// often answer in text even when native tools are offered.
	system := systemPrompt + toolCatalog(req.Tools)

	chatReq := &api.ChatRequest{
		Model: p.model,
		Messages: []api.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		Stream: apiPtr(false),
		Options: map[string]any{
			"num_predict": p.maxTokens,
		},
	}
	if p.temperature > 0 {
		chatReq.Options["temperature"] = p.temperature
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertTools(req.Tools)
	}

	resp, err := p.chat(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	if len(resp.Message.ToolCalls) > 0 {
		tc := resp.Message.ToolCalls[0]
		return &Result{
			Step: &Step{
				Tool:      tc.Function.Name,
				Args:      tc.Function.Arguments.ToMap(),
				Rationale: strings.TrimSpace(resp.Message.Content),
			},
			Message: strings.TrimSpace(resp.Message.Content),
		}, nil
	}

	return ParseResult(resp.Message.Content)
}

func (p *OllamaPlanner) chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(p.retryDelay, attempt-1, maxRetryDelay)
			logging.Info("retrying Ollama request", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var final *api.ChatResponse
		err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			if resp.Done || final == nil {
				r := resp
				final = &r
			}
			return nil
		})
		if err == nil && final != nil {
			return final, nil
		}
		if err == nil {
			err = fmt.Errorf("no response received")
		}
		lastErr = err
		if !isRetryableError(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
		}
		logging.Warn("Ollama request failed, will retry", "attempt", attempt, "error", err)
	}
	return nil, fmt.Errorf("%w: max retries (%d) exceeded: %s", ErrUnavailable, p.maxRetries, lastErr)
}

// convertTools converts genai declarations to the Ollama tool format.
func convertTools(decls []*genai.FunctionDeclaration) []api.Tool {
	tools := make([]api.Tool, 0, len(decls))
	for _, decl := range decls {
		params := api.ToolFunctionParameters{
			Type:       "object",
			Properties: api.NewToolPropertiesMap(),
		}
		if decl.Parameters != nil {
			if len(decl.Parameters.Required) > 0 {
				params.Required = decl.Parameters.Required
			}
			for name, propSchema := range decl.Parameters.Properties {
				prop := api.ToolProperty{Description: propSchema.Description}
				if propSchema.Type != "" {
					prop.Type = api.PropertyType{strings.ToLower(string(propSchema.Type))}
				}
				if len(propSchema.Enum) > 0 {
					enumVals := make([]any, len(propSchema.Enum))
					for i, v := range propSchema.Enum {
						enumVals[i] = v
					}
					prop.Enum = enumVals
				}
				params.Properties.Set(name, prop)
			}
		}
		tools = append(tools, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        decl.Name,
				Description: decl.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}

// Close releases client resources. The Ollama client has no explicit close.
func (p *OllamaPlanner) Close() error {
	return nil
}

func apiPtr[T any](v T) *T {
	return &v
}

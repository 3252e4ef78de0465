// Package openai provides an OpenAI-compatible chat completion provider.
//
// Any endpoint that speaks the /chat/completions protocol works, including the
// Gemini OpenAI compatibility layer:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("GEMINI_API_KEY"),
//	    openai.WithBaseURL("https://generativelanguage.googleapis.com/v1beta/openai"),
//	    openai.WithModel("gemini-2.0-flash"),
//	    openai.WithTemperature(0.7),
//	)
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"

	"github.com/entrhq/serpwalk/pkg/llm"
	"github.com/entrhq/serpwalk/pkg/llm/parser"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"

	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 2048
	defaultTimeout   = 2 * time.Minute
)

// ErrEmptyResponse is returned when the API answers without any choice.
var ErrEmptyResponse = errors.New("completion response has no choices")

var _ llm.Provider = (*Provider)(nil)

// Provider implements llm.Provider for OpenAI-compatible APIs.
type Provider struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature *float64
	topP        *float64
	maxTokens   int
	jsonMode    bool
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ProviderOption {
	return func(p *Provider) {
		p.temperature = &t
	}
}

// WithTopP sets nucleus sampling.
func WithTopP(v float64) ProviderOption {
	return func(p *Provider) {
		p.topP = &v
	}
}

// WithMaxTokens caps the length of each completion.
func WithMaxTokens(n int) ProviderOption {
	return func(p *Provider) {
		p.maxTokens = n
	}
}

// WithJSONResponse asks the endpoint for a JSON object reply.
func WithJSONResponse() ProviderOption {
	return func(p *Provider) {
		p.jsonMode = true
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// NewProvider creates a new provider with the given API key.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	p := &Provider{
		model:      defaultModel,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		maxTokens:  defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return p, nil
}

// Complete sends messages to the chat completions endpoint and returns the
// assistant reply. Thinking blocks are moved out of Content into Thinking.
func (p *Provider) Complete(ctx context.Context, messages []*llm.Message) (*llm.Message, error) {
	body, err := p.buildRequest(messages)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &llm.APIError{StatusCode: resp.StatusCode, Body: errorMessage(data)}
	}

	return parseResponse(data)
}

func (p *Provider) buildRequest(messages []*llm.Message) ([]byte, error) {
	reqBody := map[string]interface{}{
		"model":    p.model,
		"messages": convertToOpenAIMessages(messages),
	}
	if p.temperature != nil {
		reqBody["temperature"] = *p.temperature
	}
	if p.topP != nil {
		reqBody["top_p"] = *p.topP
	}
	if p.maxTokens > 0 {
		reqBody["max_tokens"] = p.maxTokens
	}
	if p.jsonMode {
		reqBody["response_format"] = map[string]string{"type": "json_object"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bodyBytes, nil
}

func parseResponse(data []byte) (*llm.Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON in completion response")
	}
	doc := gjson.ParseBytes(data)
	if doc.Get("choices.#").Int() == 0 {
		return nil, ErrEmptyResponse
	}

	choice := doc.Get("choices.0")
	role := choice.Get("message.role").String()
	if role == "" {
		role = string(llm.RoleAssistant)
	}

	thinking, content := parser.SplitThinking(choice.Get("message.content").String())
	if reasoning := choice.Get("message.reasoning_content").String(); reasoning != "" && thinking == "" {
		thinking = reasoning
	}

	return &llm.Message{
		Role:     llm.MessageRole(role),
		Content:  content,
		Thinking: thinking,
	}, nil
}

// errorMessage extracts error.message from an error body, falling back to
// the raw body.
func errorMessage(data []byte) string {
	if msg := gjson.GetBytes(data, "error.message"); msg.Exists() {
		return msg.String()
	}
	// Gemini's compatibility layer sometimes wraps errors in a list
	if msg := gjson.GetBytes(data, "0.error.message"); msg.Exists() {
		return msg.String()
	}
	return strings.TrimSpace(string(data))
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// GetBaseURL returns the base URL being used.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}

// convertToOpenAIMessages converts our Message format to OpenAI's ChatCompletionMessageParamUnion format.
func convertToOpenAIMessages(messages []*llm.Message) []openai.ChatCompletionMessageParamUnion {
	openaiMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			openaiMessages = append(openaiMessages, openai.SystemMessage(msg.Content))
		case llm.RoleAssistant:
			openaiMessages = append(openaiMessages, openai.AssistantMessage(msg.Content))
		default:
			openaiMessages = append(openaiMessages, openai.UserMessage(msg.Content))
		}
	}

	return openaiMessages
}

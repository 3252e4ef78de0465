// Package llm provides abstractions for the chat completion model that plans
// browser actions.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("GEMINI_API_KEY"),
//	    openai.WithBaseURL("https://generativelanguage.googleapis.com/v1beta/openai"),
//	    openai.WithModel("gemini-2.0-flash"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reply, err := provider.Complete(ctx, []*llm.Message{
//	    llm.NewSystemMessage("You control a web browser."),
//	    llm.NewUserMessage("Current page: about:blank"),
//	})
package llm

import (
	"context"
	"fmt"
)

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    MessageRole
	Content string

	// Thinking holds reasoning the model wrapped in thinking tags. It is
	// never sent back to the model.
	Thinking string
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// Provider defines the interface for LLM integrations.
type Provider interface {
	// Complete sends messages to the LLM and returns the full response.
	Complete(ctx context.Context, messages []*Message) (*Message, error)

	// GetModel returns the model name being used.
	GetModel() string
}

// APIError is a non-success HTTP response from the completion endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when sent again.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

package llm

import (
	"context"
	"errors"
)

var (
	ErrCompletionFailed = errors.New("model completion failed")
	ErrTimeout          = errors.New("model request timed out")
	ErrModelError       = errors.New("model endpoint returned an error")
	ErrInvalidResponse  = errors.New("invalid response from model endpoint")
)

// Client is the text-completion capability: free text in, free text out.
// Any backend implementing this shape is interchangeable.
type Client interface {
	// Complete sends a prompt and returns the raw model reply.
	Complete(ctx context.Context, prompt string) (string, error)

	// HealthCheck verifies the client can reach the model endpoint.
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the client.
	Close() error
}

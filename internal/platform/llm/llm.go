// Package llm abstracts the chat-completion provider used by the review
// and prediction agents.
package llm

import "context"

// Client sends a single system+user prompt pair and returns the raw
// completion text.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

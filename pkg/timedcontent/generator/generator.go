// Package generator produces new artifacts from prompts.
//
// A Completer turns a prompt into raw model text. Decode parses that text
// into the caller's artifact type. Both report failures as
// timedcontent.GenerationError so callers can tell them apart from storage
// problems.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tendant/timed-content/pkg/timedcontent"
	"github.com/tendant/timed-content/pkg/timedcontent/prompts"
)

// Completer returns the model's text response to a prompt
type Completer interface {
	Complete(ctx context.Context, prompt prompts.Config) (string, error)
}

// CompleterFunc adapts a function to the Completer interface
type CompleterFunc func(ctx context.Context, prompt prompts.Config) (string, error)

// Complete calls f
func (f CompleterFunc) Complete(ctx context.Context, prompt prompts.Config) (string, error) {
	return f(ctx, prompt)
}

// Static is a Completer that always returns the same text
type Static struct {
	Text string
}

// Complete returns s.Text
func (s Static) Complete(ctx context.Context, prompt prompts.Config) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &timedcontent.GenerationError{Prompt: prompt.Name, Err: err}
	}
	return s.Text, nil
}

// Decode parses a JSON artifact out of model text. A surrounding markdown
// code fence is tolerated.
func Decode[T any](promptName, text string) (T, error) {
	var artifact T

	body := stripFence(text)
	if body == "" {
		return artifact, &timedcontent.GenerationError{Prompt: promptName, Err: errors.New("empty response")}
	}

	if err := json.Unmarshal([]byte(body), &artifact); err != nil {
		var zero T
		return zero, &timedcontent.GenerationError{Prompt: promptName, Err: err}
	}
	return artifact, nil
}

// Generate completes prompt with c and decodes the result
func Generate[T any](ctx context.Context, c Completer, prompt prompts.Config) (T, error) {
	text, err := c.Complete(ctx, prompt)
	if err != nil {
		var zero T
		var genErr *timedcontent.GenerationError
		if errors.As(err, &genErr) || errors.Is(err, timedcontent.ErrConfiguration) {
			return zero, err
		}
		return zero, &timedcontent.GenerationError{Prompt: prompt.Name, Err: err}
	}
	return Decode[T](prompt.Name, text)
}

func stripFence(text string) string {
	body := strings.TrimSpace(text)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```")
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		// Drop the language tag line
		body = body[i+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

package generator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/tendant/timed-content/pkg/timedcontent"
	"github.com/tendant/timed-content/pkg/timedcontent/prompts"
)

// OpenAIConfig configures the OpenAI completer
type OpenAIConfig struct {
	APIKey  string // Falls back to OPENAI_API_KEY
	BaseURL string // Optional, for compatible providers
	Model   string // Overrides the prompt's model when set
}

// OpenAI completes prompts with the chat completions API
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an OpenAI completer. Retries are left to the caller.
func NewOpenAI(config OpenAIConfig) (*OpenAI, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", timedcontent.ErrConfiguration)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  config.Model,
	}, nil
}

// Complete sends the prompt's system context and text as a chat completion
func (o *OpenAI) Complete(ctx context.Context, prompt prompts.Config) (string, error) {
	model := o.model
	if model == "" {
		model = prompt.Model
	}
	if model == "" {
		return "", fmt.Errorf("%w: no model for prompt %q", timedcontent.ErrConfiguration, prompt.Name)
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if prompt.SystemContext != "" {
		messages = append(messages, openai.SystemMessage(prompt.SystemContext))
	}
	messages = append(messages, openai.UserMessage(prompt.Prompt.Text))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	})
	if err != nil {
		return "", &timedcontent.GenerationError{Prompt: prompt.Name, Retryable: isRetryable(err), Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &timedcontent.GenerationError{Prompt: prompt.Name, Err: errors.New("no choices in completion response")}
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", &timedcontent.GenerationError{Prompt: prompt.Name, Err: errors.New("no content in completion response")}
	}
	return content, nil
}

func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || (apiErr.StatusCode >= 500 && apiErr.StatusCode <= 599)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Package brain asks a chat-completion model to turn user text into an
// intent. Any OpenAI-compatible endpoint works, e.g. LM Studio.
package brain

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/starford/jarvis/internal/apperr"
	"github.com/starford/jarvis/internal/intent"
)

// Exchange is one earlier user message and the reply it got.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Interpreter turns user text into an intent request.
type Interpreter interface {
	Interpret(ctx context.Context, text string, history []Exchange) (intent.Request, error)
}

// Config configures the model client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxRetries  int
}

// Client is an Interpreter backed by the chat completions API.
type Client struct {
	api    openai.Client
	model  string
	temp   float64
	prompt string
	logger *slog.Logger
}

var _ Interpreter = (*Client)(nil)

// New creates a client that sends systemPrompt before every conversation.
func New(cfg Config, systemPrompt string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []option.RequestOption{
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	// Local servers ignore the key but the client insists on one.
	key := cfg.APIKey
	if key == "" {
		key = "not-needed"
	}
	opts = append(opts, option.WithAPIKey(key))
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &Client{
		api:    openai.NewClient(opts...),
		model:  cfg.Model,
		temp:   cfg.Temperature,
		prompt: systemPrompt,
		logger: logger,
	}
}

// Messages builds the chat for text: the system prompt, the earlier
// exchanges as user/assistant pairs, then text.
func (c *Client) Messages(text string, history []Exchange) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2+2*len(history))
	msgs = append(msgs, openai.SystemMessage(c.prompt))
	for _, ex := range history {
		msgs = append(msgs, openai.UserMessage(ex.User), openai.AssistantMessage(ex.Assistant))
	}
	return append(msgs, openai.UserMessage(text))
}

// Interpret asks the model for an intent. Transport and API failures are
// UpstreamFailure errors; anything the model says becomes a request, falling
// back to a conversational answer when it is not valid JSON.
func (c *Client) Interpret(ctx context.Context, text string, history []Exchange) (intent.Request, error) {
	if strings.TrimSpace(text) == "" {
		return intent.Request{}, apperr.New(apperr.KindMissingParameter, "missing message")
	}
	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    c.Messages(text, history),
		Temperature: openai.Float(c.temp),
	})
	if err != nil {
		return intent.Request{}, upstream(err)
	}
	if len(resp.Choices) == 0 {
		return intent.Request{}, apperr.New(apperr.KindUpstreamFailure, "interpreter returned no choices")
	}
	content := resp.Choices[0].Message.Content
	c.logger.Debug("brain: completion",
		slog.String("model", c.model),
		slog.Duration("took", time.Since(start)),
		slog.Int("chars", len(content)))
	return intent.Parse(content), nil
}

func upstream(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apperr.Wrap(apperr.KindUpstreamFailure, err, "interpreter request failed with status %d", apiErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindUpstreamFailure, err, "interpreter timed out")
	}
	return apperr.Wrap(apperr.KindUpstreamFailure, err, "interpreter unreachable")
}

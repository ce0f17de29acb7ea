// Package classifier asks a chat model whether a pathway condition is met.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Defaults for the classification call.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 10
	DefaultTemperature = 0.7
	DefaultTimeout     = 10 * time.Second
)

// Positive is the only answer treated as "condition met".
const Positive = "yes"

const systemPrompt = `You're an AI classifier. Your goal is to classify the following condition/instructions based on the last user message. If the condition is met, you only answer with a lowercase 'yes', and if it was not met, you answer with a lowercase 'no' (No Markdown or punctuation).
----------
Conditions/Instructions: %s`

// Classifier implements ports.Classifier on top of an eino chat model.
type Classifier struct {
	model       model.BaseChatModel
	modelName   string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures the Classifier.
type Option func(*Classifier)

// WithModelName overrides the model requested per call.
func WithModelName(name string) Option {
	return func(c *Classifier) {
		c.modelName = name
	}
}

// WithTimeout bounds each classification call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// New wraps a chat model.
func New(m model.BaseChatModel, opts ...Option) *Classifier {
	c := &Classifier{
		model:       m,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		timeout:     DefaultTimeout,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config holds the settings of an OpenAI-compatible classification model.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewOpenAI builds a Classifier backed by the eino OpenAI chat model.
func NewOpenAI(ctx context.Context, cfg Config, opts ...Option) (*Classifier, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	maxTokens := DefaultMaxTokens
	temperature := float32(DefaultTemperature)

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating classifier model: %w", err)
	}

	opts = append([]Option{WithModelName(cfg.Model)}, opts...)
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}
	return New(chatModel, opts...), nil
}

// Messages builds the classification transcript: the instruction, the preceding
// assistant message when there is one, and the user's message.
func Messages(condition, assistantContext, userMessage string) []*schema.Message {
	msgs := []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(systemPrompt, condition)),
	}
	if assistantContext != "" {
		msgs = append(msgs, schema.AssistantMessage(assistantContext, nil))
	}
	return append(msgs, schema.UserMessage(userMessage))
}

// Classify reports whether condition holds for userMessage. Only the exact answer
// "yes" counts; any other answer is false. Errors from the model are returned
// wrapped in domain.ErrClassifier together with false.
func (c *Classifier) Classify(ctx context.Context, condition, assistantContext, userMessage string) (bool, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	opts := []model.Option{
		model.WithMaxTokens(c.maxTokens),
		model.WithTemperature(c.temperature),
	}
	if c.modelName != "" {
		opts = append(opts, model.WithModel(c.modelName))
	}

	start := time.Now()
	out, err := c.model.Generate(ctx, Messages(condition, assistantContext, userMessage), opts...)
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrClassifier, err)
	}
	if out == nil {
		return false, fmt.Errorf("%w: empty response", domain.ErrClassifier)
	}

	c.logger.Debug("Condition classified",
		"answer", out.Content,
		"duration", time.Since(start),
	)
	return out.Content == Positive, nil
}

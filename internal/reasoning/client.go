package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/stagehand/internal/logging"
)

// Default configuration values.
const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 1024
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 3
	defaultBaseBackoff = 1 * time.Second
)

// Rate limiter defaults: 120 requests per minute.
const (
	defaultRateLimit = 120.0 / 60.0
	defaultBurst     = 4
)

// Config controls the model client.
type Config struct {
	// Model is the chat model identifier.
	Model string
	// APIKey authenticates against the endpoint. Required.
	APIKey string
	// BaseURL overrides the API endpoint, for OpenAI-compatible
	// gateways. Empty uses the provider default.
	BaseURL string
	// Temperature is forwarded to the completion call.
	Temperature float64
	// MaxTokens caps the completion length.
	MaxTokens int
	// RequestTimeout bounds a single completion call.
	RequestTimeout time.Duration
	// MaxRetries is the number of retries after a retryable failure.
	MaxRetries int
	// RateLimit is the sustained request rate in requests per second.
	RateLimit float64
	// RateBurst is the limiter burst size.
	RateBurst int
}

// Client is an Adapter backed by an OpenAI-compatible chat model.
type Client struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
	timeout     time.Duration
	maxRetries  int
	limiter     *rate.Limiter
	logger      *logging.Logger
}

// NewClient creates a model-backed adapter. Zero config fields take
// package defaults.
//
// Returns ErrDisabled if no API key is configured; callers should fall
// back to Disabled in that case.
func NewClient(cfg Config, logger *logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrDisabled)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = defaultRateLimit
	}
	burst := cfg.RateBurst
	if burst == 0 {
		burst = defaultBurst
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}

	return &Client{
		llm:         llm,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
		maxRetries:  maxRetries,
		limiter:     rate.NewLimiter(rate.Limit(rateLimit), burst),
		logger:      logger,
	}, nil
}

// Predict implements Adapter. It renders the signature into a JSON
// prompt, calls the model with retries, and validates the reply
// against the declared outputs.
func (c *Client) Predict(ctx context.Context, sig Signature, inputs map[string]any) (map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	system := renderSystem(sig)
	user := renderInputs(sig, inputs)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			c.logger.Debug(ctx, "retrying inference",
				zap.String("signature", sig.Name),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		out, err := c.generate(ctx, sig, system, user)
		if err == nil {
			return out, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// generate performs one completion call and parses the reply.
func (c *Client) generate(ctx context.Context, sig Signature, system, user string) (map[string]any, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := c.llm.GenerateContent(callCtx, messages,
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("model call failed: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return nil, &retryableError{err: errors.New("model returned no choices")}
	}

	text := resp.Choices[0].Content
	c.logger.Trace(ctx, "model reply",
		zap.String("signature", sig.Name),
		zap.Int("chars", len(text)))

	return parseReply(sig, text)
}

// parseReply extracts the JSON object from a model reply and checks it
// against the declared outputs. The result holds exactly the declared
// fields; extra keys are dropped.
func parseReply(sig Signature, text string) (map[string]any, error) {
	raw := extractObject(text)
	if raw == "" {
		return nil, errors.New("no JSON object in model reply")
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("parsing model reply: %w", err)
	}

	out := make(map[string]any, len(sig.Outputs))
	var missing []string
	for _, f := range sig.Outputs {
		v, ok := decoded[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		out[f.Name] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}

	return out, nil
}

var _ Adapter = (*Client)(nil)

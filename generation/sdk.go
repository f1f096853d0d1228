package generation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ Chatter = (*SDKClient)(nil)

// SDKConfig configura o backend baseado no SDK oficial (openai-go).
type SDKConfig struct {
	APIKey      string
	BaseURL     string // ex: https://api.openai.com/v1
	Model       string
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// SDKClient implementa Chatter com openai-go. Os retries internos do SDK ficam
// desligados para manter a regra de uma chamada por estilo.
type SDKClient struct {
	client      openai.Client
	model       string
	temperature float64
	log         *slog.Logger
}

func NewSDKClient(cfg SDKConfig) (*SDKClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("generation: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &SDKClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		log:         cfg.Logger,
	}, nil
}

func (c *SDKClient) Chat(ctx context.Context, systemPrompt, userContent string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userContent),
		},
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == http.StatusTooManyRequests {
				c.log.Warn("generation quota exceeded", "status", apiErr.StatusCode, "body", truncate(apiErr.Error(), logBodyLimit))
				return "", &QuotaError{StatusCode: apiErr.StatusCode, Body: truncate(apiErr.Error(), logBodyLimit)}
			}
			c.log.Warn("generation api error", "status", apiErr.StatusCode, "body", truncate(apiErr.Error(), logBodyLimit))
			return "", &TransientError{Op: "sdk", StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", &TransientError{Op: "sdk", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &TransientError{Op: "decode", Err: errors.New("response has no choices")}
	}
	msg := resp.Choices[0].Message
	// content null (ou ausente) vira "" no SDK; JSON.Content distingue os casos
	if !msg.JSON.Content.Valid() {
		return "", &TransientError{Op: "decode", Err: errors.New("first choice has no content")}
	}
	return msg.Content, nil
}

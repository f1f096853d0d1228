package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultURL         = "https://api.openai.com/v1/chat/completions"
	DefaultModel       = "gpt-4o-mini"
	DefaultTimeout     = 10 * time.Second
	DefaultTemperature = 0.7

	maxResponseBytes = 1 << 20
	logBodyLimit     = 400
)

// Chatter envia um par (prompt de sistema, conteúdo do usuário) e devolve o
// texto do primeiro candidato.
type Chatter interface {
	Chat(ctx context.Context, systemPrompt, userContent string) (string, error)
}

var _ Chatter = (*Client)(nil)

// Config configura o Client HTTP.
type Config struct {
	APIKey string
	URL    string // endpoint completo de chat completions
	Model  string
	// Temperature zero usa DefaultTemperature.
	Temperature float64
	// Timeout vale para conexão e para a chamada inteira.
	Timeout time.Duration
	// HTTPClient substitui o client padrão (o Timeout acima é ignorado nesse caso).
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client é o backend HTTP direto. Não guarda estado entre chamadas.
type Client struct {
	apiKey      string
	url         string
	model       string
	temperature float64
	http        *http.Client
	log         *slog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("generation: api key is required")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
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

	hc := cfg.HTTPClient
	if hc == nil {
		dialer := &net.Dialer{Timeout: cfg.Timeout}
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.DialContext = dialer.DialContext
		hc = &http.Client{Timeout: cfg.Timeout, Transport: tr}
	}

	return &Client{
		apiKey:      cfg.APIKey,
		url:         cfg.URL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		http:        hc,
		log:         cfg.Logger,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat faz uma única chamada, sem retry.
func (c *Client) Chat(ctx context.Context, systemPrompt, userContent string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
	})
	if err != nil {
		return "", &TransientError{Op: "marshal", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", &TransientError{Op: "request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req) //nolint:gosec // URL vem da configuração
	if err != nil {
		return "", &TransientError{Op: "do", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode == http.StatusTooManyRequests {
		c.log.Warn("generation quota exceeded", "status", resp.StatusCode, "body", truncate(string(raw), logBodyLimit))
		return "", &QuotaError{StatusCode: resp.StatusCode, Body: truncate(string(raw), logBodyLimit)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("generation api error", "status", resp.StatusCode, "body", truncate(string(raw), logBodyLimit))
		return "", &TransientError{Op: "status", StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if readErr != nil {
		return "", &TransientError{Op: "read", StatusCode: resp.StatusCode, Err: readErr}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &TransientError{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}
	if len(out.Choices) == 0 {
		return "", &TransientError{Op: "decode", StatusCode: resp.StatusCode, Err: errors.New("response has no choices")}
	}
	content := out.Choices[0].Message.Content
	if content == nil {
		return "", &TransientError{Op: "decode", StatusCode: resp.StatusCode, Err: errors.New("first choice has no content")}
	}
	return *content, nil
}

// truncate corta em até max bytes sem partir um caractere UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Package bootstrap monta os componentes de geração a partir da configuração.
// É compartilhado pelo gateway e pela CLI de transformação.
package bootstrap

import (
	"fmt"
	"log/slog"

	"diary-ai-gateway/config"
	"diary-ai-gateway/generation"
	"diary-ai-gateway/middleware/ratelimit/infra"
	"diary-ai-gateway/styles"
	"diary-ai-gateway/transform"
)

// Catalog devolve o catálogo embutido, acrescido do arquivo YAML se houver.
func Catalog(path string) (*styles.Catalog, error) {
	catalog := styles.Default()
	if path == "" {
		return catalog, nil
	}
	extra, err := styles.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return catalog.With(extra...)
}

// Chatter escolhe o backend (HTTP direto ou openai-go) e aplica o pacer de
// saída. Com a geração desligada devolve nil.
func Chatter(cfg config.Config, logger *slog.Logger) (generation.Chatter, error) {
	if !cfg.AIEnabled {
		return nil, nil
	}

	var (
		ch  generation.Chatter
		err error
	)
	switch cfg.AIBackend {
	case config.AIBackendSDK:
		ch, err = generation.NewSDKClient(generation.SDKConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.OpenAITimeout,
			Logger:  logger,
		})
	case config.AIBackendHTTP:
		ch, err = generation.NewClient(generation.Config{
			APIKey:  cfg.OpenAIKey,
			URL:     cfg.OpenAIURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.OpenAITimeout,
			Logger:  logger,
		})
	default:
		return nil, fmt.Errorf("unsupported AI_BACKEND: %s", cfg.AIBackend)
	}
	if err != nil {
		return nil, err
	}
	return generation.Paced(ch, cfg.OutboundRPS, cfg.OutboundBurst), nil
}

// Orchestrator junta catálogo e chatter. O modo paralelo divide um único
// ChanPool entre todos os pedidos, então AI_PARALLELISM limita o processo.
func Orchestrator(cfg config.Config, catalog *styles.Catalog, ch generation.Chatter, logger *slog.Logger) *transform.Orchestrator {
	opts := transform.Options{
		Enabled:     cfg.AIEnabled,
		Parallelism: cfg.Parallelism,
		Logger:      logger,
	}
	if cfg.Parallelism > 1 {
		opts.Pool = infra.NewChanPool(cfg.Parallelism)
	}
	return transform.New(catalog, ch, opts)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"diary-ai-gateway/bootstrap"
	"diary-ai-gateway/config"
)

// Executa uma transformação e imprime o JSON do resultado (ou null no skip).
//
//	echo "querido diário..." | transform -styles summary,haiku
func main() {
	content := flag.String("content", "", "texto a transformar (padrão: stdin)")
	styleList := flag.String("styles", "summary", "estilos separados por vírgula")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	text := *content
	if text == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("read stdin: %v", err)
		}
		text = string(b)
	}

	catalog, err := bootstrap.Catalog(cfg.StylesFile)
	if err != nil {
		log.Fatalf("styles error: %v", err)
	}
	chatter, err := bootstrap.Chatter(cfg, slog.Default())
	if err != nil {
		log.Fatalf("generation client error: %v", err)
	}
	orch := bootstrap.Orchestrator(cfg, catalog, chatter, slog.Default())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, _ := orch.Transform(ctx, text, splitStyles(*styleList))
	// skip vira "null", como o campo gravado pelo diário
	out, err := res.JSON()
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}
	fmt.Println(out)
}

func splitStyles(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

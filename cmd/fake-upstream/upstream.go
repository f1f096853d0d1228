package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	modeOK    = "ok"
	modeQuota = "quota"
	modeError = "error"
	modeSlow  = "slow"

	// modeHeader troca o modo em um pedido específico.
	modeHeader = "X-Fake-Mode"
)

type upstream struct {
	mode      string
	slowDelay time.Duration
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mode := u.mode
	if v := strings.ToLower(strings.TrimSpace(r.Header.Get(modeHeader))); v != "" {
		mode = v
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]string{"message": "invalid body"}})
		return
	}
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]string{"message": "missing bearer token"}})
		return
	}
	slog.Info("chat request", "mode", mode, "model", req.Model, "messages", len(req.Messages))

	switch mode {
	case modeQuota:
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": map[string]string{"message": "You exceeded your current quota", "type": "insufficient_quota", "code": "insufficient_quota"},
		})
		return
	case modeError:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": map[string]string{"message": "upstream failure"}})
		return
	case modeSlow:
		select {
		case <-time.After(u.slowDelay):
		case <-r.Context().Done():
			return
		}
	}

	writeJSON(w, http.StatusOK, completion(req.Model, reply(req)))
}

// reply ecoa o conteúdo do usuário em duas linhas, o que deixa visível o
// pós-processamento do haiku.
func reply(req chatRequest) string {
	var system, user string
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = m.Content
		case "user":
			user = m.Content
		}
	}
	user = strings.TrimSpace(strings.TrimPrefix(user, "content:\n"))
	if len(system) > 40 {
		system = system[:40]
	}
	return "[" + system + "]\n" + user
}

func completion(model, text string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-fake",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": text},
		}},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

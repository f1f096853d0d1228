package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"diary-ai-gateway/generation"
	"diary-ai-gateway/middleware/ratelimit/infra"
	"diary-ai-gateway/middleware/requestid"
	"diary-ai-gateway/transform"
)

const (
	maxBodyBytes = 1 << 20
	pingContent  = "connectivity check"
)

type handlers struct {
	orch    *transform.Orchestrator
	chatter generation.Chatter
	stats   infra.StatsReader
	log     *slog.Logger
}

type transformRequest struct {
	Content string   `json:"content"`
	Styles  []string `json:"styles"`
}

type transformResponse struct {
	Result  transform.Result `json:"result"`
	Skipped bool             `json:"skipped,omitempty"`
}

type styleInfo struct {
	Key         string `json:"key"`
	OutputField string `json:"output_field"`
}

func (h *handlers) transform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content_required")
		return
	}

	res, ok := h.orch.Transform(r.Context(), req.Content, req.Styles)
	if !ok {
		h.log.Debug("transform skipped", "request_id", requestid.FromContext(r.Context()), "styles", req.Styles)
		writeJSON(w, http.StatusOK, transformResponse{Skipped: true})
		return
	}
	writeJSON(w, http.StatusOK, transformResponse{Result: res})
}

func (h *handlers) ping(w http.ResponseWriter, r *http.Request) {
	res, ok := h.orch.Transform(r.Context(), pingContent, []string{"summary"})
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "AI_DISABLED_OR_ERROR"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	hl := generation.Health{Status: generation.StatusDown, Reason: "disabled"}
	if h.chatter != nil && h.orch.Enabled() {
		hl = generation.Probe(r.Context(), h.chatter)
	}

	status := http.StatusOK
	if !hl.Up() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, hl)
}

func (h *handlers) styles(w http.ResponseWriter, r *http.Request) {
	list := h.orch.Catalog().Styles()
	out := make([]styleInfo, 0, len(list))
	for _, s := range list {
		out = append(out, styleInfo{Key: s.Key, OutputField: s.OutputField})
	}
	writeJSON(w, http.StatusOK, map[string]any{"styles": out})
}

func (h *handlers) rateStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		writeError(w, http.StatusNotFound, "stats_disabled")
		return
	}
	snap, err := h.stats.Read(r.Context())
	if err != nil {
		h.log.Warn("rate limit stats unavailable", "request_id", requestid.FromContext(r.Context()), "error", err)
		writeError(w, http.StatusServiceUnavailable, "stats_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

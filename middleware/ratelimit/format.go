// utilitários pequenos para headers e para o corpo JSON das rejeições.

package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func formatInt(v int) string { return strconv.Itoa(v) }

type errorBody struct {
	Error string `json:"error"`
}

// writeError escreve exatamente {"error":"<code>"}, sem quebra de linha no fim.
func writeError(w http.ResponseWriter, status int, code string) {
	body, _ := json.Marshal(errorBody{Error: code})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

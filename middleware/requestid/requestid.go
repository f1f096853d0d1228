// Package requestid propaga o identificador do pedido (X-Request-Id).
package requestid

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const Header = "X-Request-Id"

// Middleware reaproveita o X-Request-Id recebido ou gera um novo, guarda no
// contexto e devolve no header da resposta.
func Middleware(next http.Handler) http.Handler {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(Header, id)
		}
		next.ServeHTTP(w, r)
	})
	return middleware.RequestID(echo)
}

// FromContext devolve o id guardado por Middleware ("" se não houver).
func FromContext(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

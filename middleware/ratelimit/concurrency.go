package ratelimit

import (
	"net/http"
	"time"

	"diary-ai-gateway/middleware/ratelimit/application"
	"diary-ai-gateway/middleware/ratelimit/domain"
	"diary-ai-gateway/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration
	// Pool substitui o semáforo interno (ex: compartilhar com outro componente).
	Pool domain.SlotPool
}

// ConcurrencyMiddleware limita os pedidos em voo. Sem vaga dentro do prazo,
// responde 503 {"error":"overloaded"}.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	pool := opts.Pool
	if pool == nil {
		if opts.Max <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		pool = infra.NewChanPool(opts.Max)
	}

	svc := application.ConcurrencyService{
		Pool:           pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				if application.IsNoSlot(err) {
					writeError(w, http.StatusServiceUnavailable, "overloaded")
				}
				// cliente desistiu: não há para quem responder
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}

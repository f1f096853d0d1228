package application

import (
	"context"
	"time"

	"diary-ai-gateway/middleware/ratelimit/domain"
)

// DefaultLimit é o máximo de requisições por segundo por chave.
const DefaultLimit = 10

// Service concentra a regra de aplicação do rate limit: janela fixa de 1s,
// alinhada ao segundo do relógio.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store      domain.WindowStore
	Limit      int
	Clock      domain.Clock
	RetryAfter time.Duration
}

// Decide conta o pedido na janela do segundo atual e decide.
//
// Se o store falhar, o pedido é admitido e o erro é devolvido junto para quem
// chamou registrar (fail-open).
func (s Service) Decide(ctx context.Context, key domain.Key) (domain.Decision, error) {
	if s.Store == nil {
		return domain.Decision{Allowed: true}, nil
	}
	if s.Limit <= 0 {
		s.Limit = DefaultLimit
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}
	if s.Clock == nil {
		s.Clock = time.Now
	}

	nowSec := s.Clock().Unix()
	count, err := s.Store.Hit(ctx, key, nowSec)
	if err != nil {
		return domain.Decision{Allowed: true, Limit: s.Limit}, err
	}
	if count > int64(s.Limit) {
		return domain.Decision{Allowed: false, Count: count, Limit: s.Limit, RetryAfter: s.RetryAfter}, nil
	}
	return domain.Decision{Allowed: true, Count: count, Limit: s.Limit}, nil
}

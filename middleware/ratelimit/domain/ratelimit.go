package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

// Key identifica o cliente (ex: IP, API key).
type Key string

// Clock devolve a hora atual. Injetável para testes determinísticos.
type Clock func() time.Time

// WindowStore guarda um contador por chave para a janela do segundo corrente.
//
// Hit incrementa o contador da chave dentro da janela `second` (epoch em
// segundos) e devolve o valor após o incremento. Se a janela guardada for de
// outro segundo, ela é zerada antes do incremento. A sequência
// ler-zerar-incrementar é atômica por chave.
type WindowStore interface {
	Hit(ctx context.Context, key Key, second int64) (int64, error)
}

type Decision struct {
	Allowed bool
	// Count é o valor do contador após este pedido.
	Count int64
	Limit int
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

package domain

import (
	"context"
	"errors"
)

// ErrNoSlot indica que nenhuma vaga foi obtida dentro do prazo.
var ErrNoSlot = errors.New("no slot available")

// SlotPool representa um recurso com capacidade finita (requisições em voo,
// chamadas de geração simultâneas).
//
// A semântica é: Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar.
// Ao adquirir, retorna uma função de release que deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}

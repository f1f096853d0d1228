package infra

import (
	"context"
	"sync"
	"time"

	"diary-ai-gateway/middleware/ratelimit/domain"
)

var _ domain.WindowStore = (*MemoryWindowStore)(nil)

// MemoryWindowStore guarda uma janela por chave em um sync.Map. Cada janela tem
// o próprio mutex, então clientes diferentes não disputam o mesmo lock.
//
// Ciclo de vida: criado no start do processo e vive até o shutdown. Janelas
// paradas há mais de idleTTL são removidas por Cleanup/StartJanitor, o que
// mantém o mapa limitado ao conjunto de clientes ativos.
type MemoryWindowStore struct {
	windows      sync.Map // domain.Key -> *window
	idleTTL      time.Duration
	cleanupEvery time.Duration
	clock        domain.Clock
}

type window struct {
	mu      sync.Mutex
	second  int64
	count   int64
	evicted bool
}

type WindowOption func(*MemoryWindowStore)

func WithIdleTTL(d time.Duration) WindowOption {
	return func(s *MemoryWindowStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) WindowOption {
	return func(s *MemoryWindowStore) { s.cleanupEvery = d }
}

// WithClock troca o relógio usado pela limpeza (testes).
func WithClock(c domain.Clock) WindowOption {
	return func(s *MemoryWindowStore) { s.clock = c }
}

func NewMemoryWindowStore(opts ...WindowOption) *MemoryWindowStore {
	s := &MemoryWindowStore{
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryWindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Hit implementa domain.WindowStore.
func (s *MemoryWindowStore) Hit(_ context.Context, key domain.Key, second int64) (int64, error) {
	for {
		w := s.load(key, second)

		w.mu.Lock()
		if w.evicted {
			// a limpeza tirou esta janela do mapa entre o load e o lock
			w.mu.Unlock()
			continue
		}
		// só avança: um pedido atrasado (segundo já passado) conta na janela atual
		if second > w.second {
			w.second = second
			w.count = 0
		}
		w.count++
		n := w.count
		w.mu.Unlock()
		return n, nil
	}
}

func (s *MemoryWindowStore) load(key domain.Key, second int64) *window {
	if v, ok := s.windows.Load(key); ok {
		return v.(*window)
	}
	v, _ := s.windows.LoadOrStore(key, &window{second: second})
	return v.(*window)
}

// Len devolve quantas chaves estão em memória.
func (s *MemoryWindowStore) Len() int {
	n := 0
	s.windows.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Cleanup remove janelas cujo último segundo é mais antigo que idleTTL.
func (s *MemoryWindowStore) Cleanup() int {
	cutoff := s.clock().Add(-s.idleTTL).Unix()
	removed := 0

	s.windows.Range(func(k, v any) bool {
		w := v.(*window)
		w.mu.Lock()
		if w.second < cutoff {
			w.evicted = true
			s.windows.CompareAndDelete(k, w)
			removed++
		}
		w.mu.Unlock()
		return true
	})
	return removed
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *MemoryWindowStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context no janitor.
type DoneContext interface {
	Done() <-chan struct{}
}

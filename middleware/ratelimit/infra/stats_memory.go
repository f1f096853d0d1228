package infra

import (
	"context"
	"sync"

	"diary-ai-gateway/middleware/ratelimit/domain"
)

var (
	_ domain.StatsStore = (*MemoryStatsStore)(nil)
	_ StatsReader       = (*MemoryStatsStore)(nil)
)

// StatsReader expõe os contadores acumulados (rota /api/ratelimit/stats).
type StatsReader interface {
	Read(ctx context.Context) (Snapshot, error)
}

type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

func (c *Counters) add(allowed bool) {
	if allowed {
		c.Allowed++
		return
	}
	c.Denied++
}

// Snapshot é uma cópia consistente dos contadores.
type Snapshot struct {
	Total   Counters            `json:"total"`
	ByRoute map[string]Counters `json:"by_route"`
	ByKey   map[string]Counters `json:"by_key,omitempty"`
	// PeakCount é o maior contador de janela já visto em um pedido.
	PeakCount int64 `json:"peak_count"`
}

// MemoryStatsStore é uma implementação simples em memória, exposta em
// /api/ratelimit/stats.
//
// Não faz expiração; com trackKeys ligado cresce com o número de clientes.
type MemoryStatsStore struct {
	mu        sync.Mutex
	total     Counters
	byRoute   map[string]Counters
	byKey     map[string]Counters
	peakCount int64

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute: make(map[string]Counters),
		byKey:   make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Allowed)

	c := s.byRoute[route]
	c.add(ev.Allowed)
	s.byRoute[route] = c

	if s.trackKeys {
		k := s.byKey[string(ev.Key)]
		k.add(ev.Allowed)
		s.byKey[string(ev.Key)] = k
	}
	if ev.Count > s.peakCount {
		s.peakCount = ev.Count
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{
		Total:     s.total,
		ByRoute:   make(map[string]Counters, len(s.byRoute)),
		PeakCount: s.peakCount,
	}
	for k, v := range s.byRoute {
		out.ByRoute[k] = v
	}
	if s.trackKeys {
		out.ByKey = make(map[string]Counters, len(s.byKey))
		for k, v := range s.byKey {
			out.ByKey[k] = v
		}
	}
	return out
}

func (s *MemoryStatsStore) Read(context.Context) (Snapshot, error) {
	return s.Snapshot(), nil
}

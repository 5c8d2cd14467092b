package infra

import (
	"context"
	"sync"

	"admission-gate/middleware/admission/domain"
)

type Counters struct {
	Allowed int64
	Denied  int64
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e para o simulador local.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu        sync.Mutex
	total     Counters
	byStage   map[string]Counters
	byOutcome map[string]int64
	byKey     map[domain.UserID]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byStage:   make(map[string]Counters),
		byOutcome: make(map[string]int64),
		byKey:     make(map[domain.UserID]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byOutcome[ev.Stage+":"+ev.Outcome]++

	stage := s.byStage[ev.Stage]
	key := s.byKey[ev.Key]
	if ev.Allowed {
		s.total.Allowed++
		stage.Allowed++
		key.Allowed++
	} else {
		s.total.Denied++
		stage.Denied++
		key.Denied++
	}
	s.byStage[ev.Stage] = stage
	if s.trackKeys {
		s.byKey[ev.Key] = key
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByStage() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byStage))
	for k, v := range s.byStage {
		out[k] = v
	}
	return out
}

// Outcome retorna quantas vezes o estágio produziu o resultado dado.
func (s *MemoryStatsStore) Outcome(stage, outcome string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byOutcome[stage+":"+outcome]
}

func (s *MemoryStatsStore) ByKey() map[domain.UserID]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.UserID]Counters, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}

package infra

import (
	"sync"
	"time"

	"admission-gate/middleware/admission/domain"
)

// PromptStore registra o último convite de assinatura por usuário e aplica o cooldown.
type PromptStore struct {
	mu   sync.Mutex
	last map[domain.UserID]time.Time

	cooldown   time.Duration
	highWater  int
	staleAfter time.Duration
	nextSweep  time.Time
}

func NewPromptStore(cfg domain.Config) *PromptStore {
	def := domain.DefaultConfig()
	if cfg.PromptCooldown < 0 {
		cfg.PromptCooldown = def.PromptCooldown
	}
	if cfg.HighWaterMark <= 0 {
		cfg.HighWaterMark = def.HighWaterMark
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	// um registro ainda dentro do cooldown não pode ser considerado velho.
	if cfg.StaleAfter < cfg.PromptCooldown {
		cfg.StaleAfter = cfg.PromptCooldown
	}
	return &PromptStore{
		last:       make(map[domain.UserID]time.Time),
		cooldown:   cfg.PromptCooldown,
		highWater:  cfg.HighWaterMark,
		staleAfter: cfg.StaleAfter,
	}
}

// Reserve implementa domain.PromptLedger.
func (s *PromptStore) Reserve(user domain.UserID, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictStale(now)

	if last, ok := s.last[user]; ok && now.Sub(last) < s.cooldown {
		return false
	}
	s.last[user] = now
	return true
}

// LastPromptAt retorna o horário do último convite (zero se nunca houve).
func (s *PromptStore) LastPromptAt(user domain.UserID) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[user]
}

func (s *PromptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}

func (s *PromptStore) evictStale(now time.Time) {
	if len(s.last) <= s.highWater || now.Before(s.nextSweep) {
		return
	}
	s.nextSweep = now.Add(s.staleAfter / 2)

	cutoff := now.Add(-s.staleAfter)
	for k, at := range s.last {
		if at.Before(cutoff) {
			delete(s.last, k)
		}
	}
}

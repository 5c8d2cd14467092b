package infra

import (
	"sync"
	"time"

	"admission-gate/middleware/admission/domain"
)

// WindowStore é o controlador de taxa em memória: janela deslizante (log de
// timestamps) por usuário com escalonamento para bloqueio temporário.
//
// Um único mutex protege o mapa inteiro e é segurado apenas durante a
// transição de estado de Admit; nenhum I/O acontece aqui.
type WindowStore struct {
	mu      sync.Mutex
	entries map[domain.UserID]*rateEntry

	window time.Duration
	limit  int
	block  time.Duration

	highWater  int
	staleAfter time.Duration
	nextSweep  time.Time
}

type rateEntry struct {
	// window fica vazia enquanto blockedUntil estiver ativo.
	window       []time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

func NewWindowStore(cfg domain.Config) *WindowStore {
	def := domain.DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.AdmitLimit <= 0 {
		cfg.AdmitLimit = def.AdmitLimit
	}
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = def.BlockDuration
	}
	if cfg.HighWaterMark <= 0 {
		cfg.HighWaterMark = def.HighWaterMark
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	return &WindowStore{
		entries:    make(map[domain.UserID]*rateEntry),
		window:     cfg.Window,
		limit:      cfg.AdmitLimit,
		block:      cfg.BlockDuration,
		highWater:  cfg.HighWaterMark,
		staleAfter: cfg.StaleAfter,
	}
}

func (s *WindowStore) Limit() int { return s.limit }
func (s *WindowStore) Window() time.Duration { return s.window }
func (s *WindowStore) BlockDuration() time.Duration { return s.block }

// Admit implementa domain.RateController.
func (s *WindowStore) Admit(user domain.UserID, now time.Time) domain.Admission {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictStale(now)

	ent, ok := s.entries[user]
	if !ok {
		ent = &rateEntry{}
		s.entries[user] = ent
	}
	ent.lastSeen = now

	// bloqueio é intervalo semiaberto: em now == blockedUntil já está liberado.
	if now.Before(ent.blockedUntil) {
		return domain.Admission{Verdict: domain.RejectedBlocked, Wait: ent.blockedUntil.Sub(now)}
	}
	ent.blockedUntil = time.Time{}

	cutoff := now.Add(-s.window)
	i := 0
	for i < len(ent.window) && ent.window[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		ent.window = append(ent.window[:0], ent.window[i:]...)
	}

	at := now
	if n := len(ent.window); n > 0 && at.Before(ent.window[n-1]) {
		at = ent.window[n-1]
	}
	ent.window = append(ent.window, at)

	if len(ent.window) >= s.limit {
		ent.blockedUntil = now.Add(s.block)
		ent.window = ent.window[:0]
		return domain.Admission{Verdict: domain.RejectedNewlyBlocked, Wait: s.block}
	}
	return domain.Admission{Verdict: domain.Accepted}
}

// Len retorna quantos usuários estão sendo rastreados.
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictStale remove usuários inativos quando o mapa passa do high-water mark.
// Usuários com bloqueio ainda ativo nunca são removidos. Deve ser chamado com mu travado.
func (s *WindowStore) evictStale(now time.Time) {
	if len(s.entries) <= s.highWater || now.Before(s.nextSweep) {
		return
	}
	s.nextSweep = now.Add(s.staleAfter / 2)

	cutoff := now.Add(-s.staleAfter)
	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) && !now.Before(ent.blockedUntil) {
			delete(s.entries, k)
		}
	}
}

package domain

import (
	"context"
	"time"
)

// Estágios do pipeline registrados em StatsEvent.Stage.
const (
	StageRate         = "rate"
	StageSubscription = "subscription"
)

// StatsEvent representa uma decisão de um estágio do gate.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key sem controle pode
// explodir o número de séries/chaves em uma base como Redis/Prometheus).
type StatsEvent struct {
	Key     UserID
	Allowed bool

	Stage   string
	Outcome string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do gate.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// O pipeline trata erro como best-effort (nunca derruba o evento).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

package domain

// Camada de domínio do controle de admissão.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http nem de transporte.

import (
	"strconv"
	"time"
)

// UserID identifica o autor de um evento. O valor zero significa "sem identidade".
type UserID int64

func (u UserID) String() string { return strconv.FormatInt(int64(u), 10) }

// Verdict é o resultado do controle de taxa para um evento.
type Verdict int

const (
	Accepted Verdict = iota
	// RejectedBlocked: o usuário já está bloqueado; Wait é o tempo restante.
	RejectedBlocked
	// RejectedNewlyBlocked: este evento estourou o limite e iniciou um bloqueio.
	RejectedNewlyBlocked
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case RejectedBlocked:
		return "rejected_blocked"
	case RejectedNewlyBlocked:
		return "rejected_newly_blocked"
	default:
		return "unknown"
	}
}

type Admission struct {
	Verdict Verdict
	// Wait é quanto falta para o bloqueio acabar. Zero quando Accepted.
	Wait time.Duration
}

func (a Admission) Allowed() bool { return a.Verdict == Accepted }

// RateController decide, de forma atômica por chamada, se um evento do usuário
// é admitido. Implementações não fazem I/O e não falham.
type RateController interface {
	Admit(user UserID, now time.Time) Admission
}

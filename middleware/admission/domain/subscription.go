package domain

import (
	"context"
	"time"
)

// Membership é a resposta explícita de um probe de assinatura.
type Membership int

const (
	MembershipUnknown Membership = iota
	Member
	NonMember
)

func (m Membership) String() string {
	switch m {
	case Member:
		return "member"
	case NonMember:
		return "non_member"
	default:
		return "unknown"
	}
}

// MembershipProbe consulta um serviço externo (ex: lista de membros de um canal).
//
// Um erro representa falha da própria verificação (timeout, resposta inválida)
// e não uma resposta negativa.
type MembershipProbe interface {
	Probe(ctx context.Context, user UserID) (Membership, error)
}

type ProbeFunc func(ctx context.Context, user UserID) (Membership, error)

func (f ProbeFunc) Probe(ctx context.Context, user UserID) (Membership, error) { return f(ctx, user) }

type GateResult int

const (
	Pass GateResult = iota
	PromptSent
	PromptSuppressed
)

func (r GateResult) String() string {
	switch r {
	case Pass:
		return "pass"
	case PromptSent:
		return "prompt_sent"
	case PromptSuppressed:
		return "prompt_suppressed"
	default:
		return "unknown"
	}
}

// PromptLedger guarda quando cada usuário recebeu o último convite.
//
// Reserve é um read-check-write atômico: retorna true (e registra now) somente
// se o cooldown do usuário já passou.
type PromptLedger interface {
	Reserve(user UserID, now time.Time) bool
}

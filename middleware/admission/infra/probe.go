package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admission-gate/middleware/admission/domain"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ChannelProbe verifica se o usuário é membro de um canal via Bot API.
type ChannelProbe struct {
	Client    *BotClient
	ChannelID string
}

// Probe implementa domain.MembershipProbe.
//
// Bad Request (usuário desconhecido para o chat) conta como não-membro;
// qualquer outra falha volta como erro.
func (p ChannelProbe) Probe(ctx context.Context, user domain.UserID) (domain.Membership, error) {
	status, err := p.Client.ChatMemberStatus(ctx, p.ChannelID, user)
	if err != nil {
		if IsBadRequest(err) {
			return domain.NonMember, nil
		}
		return domain.MembershipUnknown, err
	}
	return MembershipFromStatus(status)
}

// MembershipFromStatus traduz o status de chat member.
func MembershipFromStatus(status string) (domain.Membership, error) {
	switch status {
	case "creator", "administrator", "member", "restricted":
		return domain.Member, nil
	case "left", "kicked":
		return domain.NonMember, nil
	default:
		return domain.MembershipUnknown, fmt.Errorf("unexpected chat member status %q", status)
	}
}

// BreakerProbe protege um probe com circuit breaker (sony/gobreaker).
// Com o circuito aberto o erro volta imediatamente, sem chamar o serviço.
type BreakerProbe struct {
	next domain.MembershipProbe
	cb   *gobreaker.CircuitBreaker
}

type BreakerSettings struct {
	Name string
	// ConsecutiveFailures abre o circuito.
	ConsecutiveFailures uint32
	// OpenTimeout é quanto o circuito fica aberto antes de testar (half-open).
	OpenTimeout time.Duration
	Logger      *zap.Logger
}

func NewBreakerProbe(next domain.MembershipProbe, s BreakerSettings) *BreakerProbe {
	if s.Name == "" {
		s.Name = "membership-probe"
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	threshold := s.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("membership probe circuit state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &BreakerProbe{next: next, cb: cb}
}

func (b *BreakerProbe) Probe(ctx context.Context, user domain.UserID) (domain.Membership, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Probe(ctx, user)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.MembershipUnknown, fmt.Errorf("membership probe unavailable: %w", err)
		}
		return domain.MembershipUnknown, err
	}
	return res.(domain.Membership), nil
}

func (b *BreakerProbe) State() gobreaker.State { return b.cb.State() }

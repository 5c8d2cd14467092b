package application

import (
	"context"
	"time"

	"admission-gate/middleware/admission/domain"

	"go.uber.org/zap"
)

// SubscriptionGate exige que o usuário satisfaça uma condição externa
// (ex: ser membro de um canal) e limita os convites com cooldown.
//
// Resposta negativa explícita fecha o gate; falha da verificação abre (fail-open).
type SubscriptionGate struct {
	Ledger domain.PromptLedger
	// Timeout limita o probe. 0 usa apenas o ctx recebido.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Check retorna Pass, PromptSent ou PromptSuppressed. Em PromptSent o convite
// já foi contabilizado; o envio fica a cargo de quem chamou.
func (g SubscriptionGate) Check(ctx context.Context, user domain.UserID, now time.Time, probe domain.MembershipProbe) domain.GateResult {
	if probe == nil {
		return domain.Pass
	}

	pctx := ctx
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	m, err := probe.Probe(pctx, user)
	if err != nil {
		g.logger().Warn("membership probe failed, letting event through",
			zap.Stringer("user", user),
			zap.Error(err),
		)
		return domain.Pass
	}

	switch m {
	case domain.Member:
		return domain.Pass
	case domain.NonMember:
	default:
		g.logger().Warn("membership probe returned no answer, letting event through",
			zap.Stringer("user", user),
			zap.Stringer("membership", m),
		)
		return domain.Pass
	}

	if g.Ledger == nil || g.Ledger.Reserve(user, now) {
		return domain.PromptSent
	}
	return domain.PromptSuppressed
}

func (g SubscriptionGate) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

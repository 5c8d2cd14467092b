package application

import (
	"context"
	"time"

	"admission-gate/middleware/admission/domain"

	"go.uber.org/zap"
)

// Pipeline compõe controle de taxa -> gate de assinatura -> handler.
//
// Campos nil desligam o estágio correspondente. O pipeline nunca devolve erro
// para a origem do evento: no pior caso o evento é descartado com um aviso.
type Pipeline struct {
	Rate  domain.RateController
	Gate  SubscriptionGate
	Probe domain.MembershipProbe

	Notifier  TransientNotifier
	Messenger domain.Messenger
	Stats     domain.StatsStore
	Notices   Notices

	// Exempt marca eventos que pulam o gate de assinatura (mas não o de taxa).
	Exempt func(domain.Event) bool
	Now    func() time.Time
	Logger *zap.Logger
}

// ExemptCheckSubscription libera o callback do botão "verificar assinatura",
// senão um usuário convidado nunca conseguiria confirmar.
func ExemptCheckSubscription(ev domain.Event) bool {
	data, ok := domain.CallbackData(ev)
	return ok && data == CheckSubscriptionData
}

// Process decide o destino de ev e, se admitido, chama next.
func (p *Pipeline) Process(ctx context.Context, ev domain.Event, next domain.Handler) {
	log := p.logger()

	id := domain.Identify(ev)
	if !id.OK() {
		// sem identidade não há o que limitar: decide o handler.
		log.Debug("event without identity passed through", zap.String("kind", domain.Kind(ev)))
		p.handle(ctx, ev, next)
		return
	}

	now := p.now()

	if p.Rate != nil {
		adm := p.Rate.Admit(id.User, now)
		p.record(ctx, domain.StatsEvent{
			Key:     id.User,
			Allowed: adm.Allowed(),
			Stage:   domain.StageRate,
			Outcome: adm.Verdict.String(),
			At:      now,
		})
		if !adm.Allowed() {
			log.Debug("event rejected by rate control",
				zap.Stringer("user", id.User),
				zap.Stringer("verdict", adm.Verdict),
				zap.Duration("wait", adm.Wait),
			)
			if p.Notifier != nil {
				p.Notifier.NotifyTransient(ctx, id.ChatID, p.Notices.RateText(adm), id.ReplyTo)
			}
			return
		}
	}

	if p.Probe != nil && (p.Exempt == nil || !p.Exempt(ev)) {
		res := p.Gate.Check(ctx, id.User, now, p.Probe)
		p.record(ctx, domain.StatsEvent{
			Key:     id.User,
			Allowed: res == domain.Pass,
			Stage:   domain.StageSubscription,
			Outcome: res.String(),
			At:      now,
		})
		switch res {
		case domain.PromptSent:
			p.sendPrompt(ctx, id)
			return
		case domain.PromptSuppressed:
			// TODO: revisar se o usuário deveria ver algo aqui; hoje o evento some em silêncio.
			log.Debug("event held by subscription gate, prompt suppressed", zap.Stringer("user", id.User))
			return
		}
	}

	p.handle(ctx, ev, next)
}

func (p *Pipeline) handle(ctx context.Context, ev domain.Event, next domain.Handler) {
	if next != nil {
		next.Handle(ctx, ev)
	}
}

// sendPrompt envia o convite no chat privado do usuário. Falha é só logada.
func (p *Pipeline) sendPrompt(ctx context.Context, id domain.Identity) {
	if p.Messenger == nil {
		return
	}
	if _, err := p.Messenger.Send(ctx, p.Notices.PromptMessage(int64(id.User))); err != nil {
		p.logger().Warn("subscription prompt not sent", zap.Stringer("user", id.User), zap.Error(err))
	}
}

func (p *Pipeline) record(ctx context.Context, ev domain.StatsEvent) {
	if p.Stats == nil {
		return
	}
	if err := p.Stats.Record(ctx, ev); err != nil {
		p.logger().Debug("stats record failed", zap.String("stage", ev.Stage), zap.Error(err))
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

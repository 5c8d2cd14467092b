package admission

import (
	"context"
	"fmt"
	"time"

	"admission-gate/middleware/admission/application"
	"admission-gate/middleware/admission/domain"
	"admission-gate/middleware/admission/infra"

	"go.uber.org/zap"
)

type Options struct {
	// Config zero usa domain.DefaultConfig().
	Config domain.Config

	// Rate e Prompts são criados a partir de Config quando nil.
	Rate    domain.RateController
	Prompts domain.PromptLedger

	// Probe nil desliga o gate de assinatura.
	Probe     domain.MembershipProbe
	Messenger domain.Messenger
	// Notifier nil usa um application.Notifier sobre Messenger com Config.EphemeralTTL.
	Notifier application.TransientNotifier
	Stats    domain.StatsStore

	// Notices zero usa application.DefaultNotices().
	Notices application.Notices
	// Exempt nil libera apenas o callback de verificação de assinatura.
	Exempt func(domain.Event) bool
	Now    func() time.Time
	Logger *zap.Logger
}

// Gate é a instância de longa duração do pipeline de admissão: criada uma vez
// no início do processo e compartilhada por todos os eventos.
type Gate struct {
	pipeline *application.Pipeline
	owned    *application.Notifier
}

func New(opts Options) (*Gate, error) {
	cfg := opts.Config
	if cfg == (domain.Config{}) {
		cfg = domain.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("admission config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Rate == nil {
		opts.Rate = infra.NewWindowStore(cfg)
	}
	if opts.Prompts == nil {
		opts.Prompts = infra.NewPromptStore(cfg)
	}
	if opts.Notices == (application.Notices{}) {
		opts.Notices = application.DefaultNotices()
	}
	if opts.Exempt == nil {
		opts.Exempt = application.ExemptCheckSubscription
	}

	g := &Gate{}
	if opts.Notifier == nil && opts.Messenger != nil {
		g.owned = application.NewNotifier(opts.Messenger, cfg.EphemeralTTL,
			application.WithNotifierLogger(logger.Named("notifier")),
			application.WithParseMode(opts.Notices.ParseMode),
		)
		opts.Notifier = g.owned
	}

	g.pipeline = &application.Pipeline{
		Rate: opts.Rate,
		Gate: application.SubscriptionGate{
			Ledger:  opts.Prompts,
			Timeout: cfg.ProbeTimeout,
			Logger:  logger.Named("subscription"),
		},
		Probe:     opts.Probe,
		Notifier:  opts.Notifier,
		Messenger: opts.Messenger,
		Stats:     opts.Stats,
		Notices:   opts.Notices,
		Exempt:    opts.Exempt,
		Now:       opts.Now,
		Logger:    logger,
	}
	return g, nil
}

// Middleware envolve next: ele só é chamado para eventos admitidos.
func (g *Gate) Middleware(next domain.Handler) domain.Handler {
	return domain.HandlerFunc(func(ctx context.Context, ev domain.Event) {
		g.pipeline.Process(ctx, ev, next)
	})
}

// Close abandona as remoções de avisos pendentes do notifier criado por New.
func (g *Gate) Close() {
	if g.owned != nil {
		g.owned.Close()
	}
}

// Wait espera as remoções de avisos pendentes (drenagem no shutdown).
func (g *Gate) Wait() {
	if g.owned != nil {
		g.owned.Wait()
	}
}

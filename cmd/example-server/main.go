package main

// Simulador local do gate: lê linhas "userID texto" do stdin e passa cada uma
// pelo pipeline, com um messenger que só loga. Útil para calibrar limites sem bot.
//
//	printf '1 oi\n1 oi\n2 /start\n' | GATE_ADMIT_LIMIT=2 go run ./cmd/example-server

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"admission-gate/middleware/admission"
	"admission-gate/middleware/admission/domain"
	"admission-gate/middleware/admission/infra"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

type config struct {
	Window     time.Duration `env:"GATE_WINDOW"      envDefault:"20s"`
	AdmitLimit int           `env:"GATE_ADMIT_LIMIT" envDefault:"20"`
	// lista de ids "membros"; vazio desliga o gate de assinatura.
	Members []int64 `env:"SIM_MEMBERS" envSeparator:","`
	Gated   bool    `env:"SIM_GATED"   envDefault:"false"`
}

// logMessenger "envia" mensagens escrevendo no log.
type logMessenger struct {
	logger *zap.Logger
	next   atomic.Int64
}

func (m *logMessenger) Send(_ context.Context, msg domain.OutgoingMessage) (domain.MessageRef, error) {
	id := m.next.Add(1)
	m.logger.Info("send", zap.Int64("chat_id", msg.ChatID), zap.Int64("message_id", id), zap.String("text", msg.Text))
	return domain.MessageRef{ChatID: msg.ChatID, MessageID: id}, nil
}

func (m *logMessenger) Delete(_ context.Context, ref domain.MessageRef) error {
	m.logger.Info("delete", zap.Int64("chat_id", ref.ChatID), zap.Int64("message_id", ref.MessageID))
	return nil
}

func main() {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	gateCfg := domain.DefaultConfig()
	gateCfg.AdmitLimit = cfg.AdmitLimit
	gateCfg.Window = cfg.Window

	var probe domain.MembershipProbe
	if cfg.Gated {
		members := make(map[domain.UserID]bool, len(cfg.Members))
		for _, id := range cfg.Members {
			members[domain.UserID(id)] = true
		}
		probe = domain.ProbeFunc(func(_ context.Context, u domain.UserID) (domain.Membership, error) {
			if members[u] {
				return domain.Member, nil
			}
			return domain.NonMember, nil
		})
	}

	stats := infra.NewMemoryStatsStore()
	gate, err := admission.New(admission.Options{
		Config:    gateCfg,
		Probe:     probe,
		Messenger: &logMessenger{logger: logger.Named("messenger")},
		Stats:     stats,
		Logger:    logger.Named("gate"),
	})
	if err != nil {
		logger.Fatal("gate error", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	h := gate.Middleware(domain.HandlerFunc(func(_ context.Context, ev domain.Event) {
		id := domain.Identify(ev)
		logger.Info("admitted", zap.Stringer("user", id.User))
	}))

	sc := bufio.NewScanner(os.Stdin)
	var n int64
	for sc.Scan() && ctx.Err() == nil {
		user, text, ok := parseLine(sc.Text())
		if !ok {
			continue
		}
		n++
		h.Handle(ctx, &domain.Message{MessageID: n, From: &domain.User{ID: user}, Chat: domain.Chat{ID: user}, Text: text})
	}

	// espera os avisos efêmeros serem apagados antes de sair.
	gate.Wait()

	total := stats.Total()
	fmt.Printf("allowed=%d denied=%d\n", total.Allowed, total.Denied)
}

func parseLine(line string) (int64, string, bool) {
	head, text, _ := strings.Cut(strings.TrimSpace(line), " ")
	id, err := strconv.ParseInt(head, 10, 64)
	if err != nil || id == 0 {
		return 0, "", false
	}
	return id, text, true
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"admission-gate/middleware/admission"
	"admission-gate/middleware/admission/application"
	"admission-gate/middleware/admission/domain"
	"admission-gate/middleware/admission/infra"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogDev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("gatebot stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(cfg config, logger *zap.Logger) error {
	bot := infra.NewBotClient(cfg.BotToken,
		infra.WithBaseURL(cfg.BotAPIURL),
		infra.WithOutboundRate(cfg.BotAPIRPS, cfg.BotAPIBurst),
		infra.WithProbeRate(cfg.BotAPIProbeRPS, cfg.BotAPIProbeBurst),
		infra.WithBotLogger(logger.Named("botapi")),
	)

	promStats, err := infra.NewPrometheusStats(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	stats := infra.FanOutStats{promStats}

	if cfg.RateStatsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RateStatsRedisAddr,
			Password: cfg.RateStatsRedisPassword,
			DB:       cfg.RateStatsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			return fmt.Errorf("redis stats ping: %w", err)
		}

		stats = append(stats, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.RateStatsPrefix),
			infra.WithStatsTTL(cfg.RateStatsTTL),
			infra.WithStatsBucket(cfg.RateStatsBucket),
			infra.WithStatsTrackKeys(cfg.RateStatsTrackKeys),
		))
	}

	var probe domain.MembershipProbe
	if cfg.ChannelID != "" {
		probe = infra.NewBreakerProbe(
			infra.ChannelProbe{Client: bot, ChannelID: cfg.ChannelID},
			infra.BreakerSettings{
				ConsecutiveFailures: cfg.ProbeBreakerFailures,
				OpenTimeout:         cfg.ProbeBreakerTimeout,
				Logger:              logger.Named("probe"),
			},
		)
	}

	notices := application.DefaultNotices()
	notices.ChannelURL = application.ChannelURL(cfg.ChannelUsername)

	gate, err := admission.New(admission.Options{
		Config:    cfg.Gate(),
		Probe:     probe,
		Messenger: bot,
		Stats:     stats,
		Notices:   notices,
		Logger:    logger.Named("gate"),
	})
	if err != nil {
		return err
	}
	defer gate.Close()

	h := gate.Middleware(newBusinessHandler(bot, probe, logger.Named("handler")))

	mux := http.NewServeMux()
	mux.Handle(cfg.WebhookPath, admission.WebhookHandler(h, admission.WebhookOptions{
		SecretToken: cfg.WebhookSecret,
		Logger:      logger.Named("webhook"),
	}))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.WebhookURL != "" {
		hookCtx, hookCancel := context.WithTimeout(ctx, 10*time.Second)
		err := bot.SetWebhook(hookCtx, cfg.WebhookURL, cfg.WebhookSecret)
		hookCancel()
		if err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		logger.Info("webhook registered", zap.String("url", cfg.WebhookURL))
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gatebot listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("webhook_path", cfg.WebhookPath),
		zap.Bool("subscription_gate", probe != nil),
		zap.Bool("redis_stats", cfg.RateStatsEnabled),
	)
	logger.Info("gate limits",
		zap.Duration("window", cfg.Limits.Window),
		zap.Int("admit_limit", cfg.Limits.AdmitLimit),
		zap.Duration("block", cfg.Limits.BlockDuration),
		zap.Duration("prompt_cooldown", cfg.Limits.PromptCooldown),
		zap.Duration("ephemeral_ttl", cfg.Limits.EphemeralTTL),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type gateConfig struct {
	Window         time.Duration `env:"GATE_WINDOW"          envDefault:"20s"`
	AdmitLimit     int           `env:"GATE_ADMIT_LIMIT"     envDefault:"20"`
	BlockDuration  time.Duration `env:"GATE_BLOCK_DURATION"  envDefault:"60s"`
	PromptCooldown time.Duration `env:"GATE_PROMPT_COOLDOWN" envDefault:"30s"`
	EphemeralTTL   time.Duration `env:"GATE_EPHEMERAL_TTL"   envDefault:"5s"`
	HighWaterMark  int           `env:"GATE_HIGH_WATER_MARK" envDefault:"10000"`
	StaleAfter     time.Duration `env:"GATE_STALE_AFTER"     envDefault:"60s"`
	ProbeTimeout   time.Duration `env:"GATE_PROBE_TIMEOUT"   envDefault:"3s"`
}

type config struct {
	ListenAddr    string `env:"LISTEN_ADDR"    envDefault:":8080"`
	WebhookPath   string `env:"WEBHOOK_PATH"   envDefault:"/webhook"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	LogDev        bool   `env:"GATE_LOG_DEV"   envDefault:"false"`

	// WEBHOOK_URL preenchido registra o webhook (setWebhook) na subida.
	WebhookURL string `env:"WEBHOOK_URL"`

	BotToken         string  `env:"BOT_TOKEN,required,notEmpty"`
	BotAPIURL        string  `env:"BOT_API_URL"         envDefault:"https://api.telegram.org"`
	BotAPIRPS        float64 `env:"BOT_API_RPS"         envDefault:"30"`
	BotAPIBurst      int     `env:"BOT_API_BURST"       envDefault:"30"`
	BotAPIProbeRPS   float64 `env:"BOT_API_PROBE_RPS"   envDefault:"30"`
	BotAPIProbeBurst int     `env:"BOT_API_PROBE_BURST" envDefault:"30"`

	// sem CHANNEL_ID o gate de assinatura fica desligado.
	ChannelID            string        `env:"CHANNEL_ID"`
	ChannelUsername      string        `env:"CHANNEL_USERNAME"`
	ProbeBreakerFailures uint32        `env:"PROBE_BREAKER_FAILURES" envDefault:"5"`
	ProbeBreakerTimeout  time.Duration `env:"PROBE_BREAKER_TIMEOUT"  envDefault:"30s"`

	RateStatsEnabled       bool          `env:"RATE_STATS_ENABLED"     envDefault:"false"`
	RateStatsRedisAddr     string        `env:"RATE_STATS_REDIS_ADDR"`
	RateStatsRedisPassword string        `env:"RATE_STATS_REDIS_PASSWORD"`
	RateStatsRedisDB       int           `env:"RATE_STATS_REDIS_DB"    envDefault:"0"`
	RateStatsPrefix        string        `env:"RATE_STATS_PREFIX"      envDefault:"admission:stats"`
	RateStatsTTL           time.Duration `env:"RATE_STATS_TTL"         envDefault:"24h"`
	RateStatsBucket        string        `env:"RATE_STATS_BUCKET"      envDefault:"minute"`
	RateStatsTrackKeys     bool          `env:"RATE_STATS_TRACK_KEYS"  envDefault:"false"`

	Limits gateConfig
}

func (c config) Gate() domain.Config { return domain.Config(c.Limits) }

func readConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, err
	}
	if cfg.RateStatsEnabled && strings.TrimSpace(cfg.RateStatsRedisAddr) == "" {
		return config{}, errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	if cfg.WebhookURL != "" && !strings.HasPrefix(cfg.WebhookURL, "https://") {
		return config{}, errors.New("WEBHOOK_URL must be https")
	}
	if !strings.HasPrefix(cfg.WebhookPath, "/") {
		return config{}, errors.New("WEBHOOK_PATH must start with /")
	}
	if err := cfg.Gate().Validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

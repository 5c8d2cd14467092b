package domain

import (
	"errors"
	"time"
)

// Config reúne os limites do gate. É imutável depois de construída.
type Config struct {
	// Window é o tamanho da janela deslizante.
	Window time.Duration
	// AdmitLimit é o número de eventos na janela que dispara o bloqueio
	// (o N-ésimo evento já é rejeitado).
	AdmitLimit    int
	BlockDuration time.Duration
	// PromptCooldown é o intervalo mínimo entre dois convites de assinatura
	// para o mesmo usuário.
	PromptCooldown time.Duration
	// EphemeralTTL é quanto tempo uma notificação fica visível antes de ser apagada.
	EphemeralTTL time.Duration

	// HighWaterMark e StaleAfter controlam a limpeza oportunista do estado por usuário.
	HighWaterMark int
	StaleAfter    time.Duration

	// ProbeTimeout limita a consulta de assinatura; estourar conta como falha (fail-open).
	ProbeTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Window:         20 * time.Second,
		AdmitLimit:     20,
		BlockDuration:  60 * time.Second,
		PromptCooldown: 30 * time.Second,
		EphemeralTTL:   5 * time.Second,
		HighWaterMark:  10000,
		StaleAfter:     60 * time.Second,
		ProbeTimeout:   3 * time.Second,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Window <= 0 {
		errs = append(errs, errors.New("window must be > 0"))
	}
	if c.AdmitLimit <= 0 {
		errs = append(errs, errors.New("admit limit must be > 0"))
	}
	if c.BlockDuration <= 0 {
		errs = append(errs, errors.New("block duration must be > 0"))
	}
	if c.PromptCooldown < 0 {
		errs = append(errs, errors.New("prompt cooldown must be >= 0"))
	}
	if c.EphemeralTTL <= 0 {
		errs = append(errs, errors.New("ephemeral ttl must be > 0"))
	}
	if c.HighWaterMark <= 0 {
		errs = append(errs, errors.New("high water mark must be > 0"))
	}
	if c.StaleAfter <= 0 {
		errs = append(errs, errors.New("stale threshold must be > 0"))
	}
	if c.ProbeTimeout < 0 {
		errs = append(errs, errors.New("probe timeout must be >= 0"))
	}
	return errors.Join(errs...)
}

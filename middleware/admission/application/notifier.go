package application

import (
	"context"
	"sync"
	"time"

	"admission-gate/middleware/admission/domain"

	"go.uber.org/zap"
)

// TransientNotifier envia um aviso que some sozinho depois de um tempo.
type TransientNotifier interface {
	NotifyTransient(ctx context.Context, chatID int64, text string, replyTo int64)
}

// Notifier é o TransientNotifier padrão: envia de forma síncrona e agenda a
// remoção numa goroutine própria, sem segurar nenhum lock do gate.
//
// Falhas de envio e de remoção são logadas e descartadas, nunca repetidas.
// O envio não entra em fila: se não sair dentro de sendTimeout o aviso é perdido.
type Notifier struct {
	messenger     domain.Messenger
	ttl           time.Duration
	sendTimeout   time.Duration
	deleteTimeout time.Duration
	parseMode     string
	logger        *zap.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

type NotifierOption func(*Notifier)

func WithNotifierLogger(l *zap.Logger) NotifierOption {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithSendTimeout limita quanto o envio do aviso pode esperar. 0 desliga o limite.
func WithSendTimeout(d time.Duration) NotifierOption {
	return func(n *Notifier) { n.sendTimeout = d }
}

// WithDeleteTimeout limita cada chamada de remoção.
func WithDeleteTimeout(d time.Duration) NotifierOption {
	return func(n *Notifier) { n.deleteTimeout = d }
}

func WithParseMode(mode string) NotifierOption {
	return func(n *Notifier) { n.parseMode = mode }
}

func NewNotifier(m domain.Messenger, ttl time.Duration, opts ...NotifierOption) *Notifier {
	if ttl <= 0 {
		ttl = domain.DefaultConfig().EphemeralTTL
	}
	n := &Notifier{
		messenger:     m,
		ttl:           ttl,
		sendTimeout:   time.Second,
		deleteTimeout: 10 * time.Second,
		logger:        zap.NewNop(),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) NotifyTransient(ctx context.Context, chatID int64, text string, replyTo int64) {
	if n == nil || n.messenger == nil {
		return
	}

	sctx := ctx
	if n.sendTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, n.sendTimeout)
		defer cancel()
	}

	ref, err := n.messenger.Send(sctx, domain.OutgoingMessage{
		ChatID:    chatID,
		Text:      text,
		ReplyTo:   replyTo,
		ParseMode: n.parseMode,
	})
	if err != nil {
		n.logger.Warn("transient notice not sent", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	// Add sob o mesmo lock de Close: depois de Close nada novo entra no wg.
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		// fechando: a mensagem fica, sem consequência.
		return
	}
	n.wg.Add(1)
	go n.deleteAfterTTL(ref)
}

func (n *Notifier) deleteAfterTTL(ref domain.MessageRef) {
	defer n.wg.Done()

	t := time.NewTimer(n.ttl)
	defer t.Stop()

	select {
	case <-n.done:
		return
	case <-t.C:
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.deleteTimeout)
	defer cancel()
	if err := n.messenger.Delete(ctx, ref); err != nil {
		n.logger.Warn("transient notice not deleted",
			zap.Int64("chat_id", ref.ChatID),
			zap.Int64("message_id", ref.MessageID),
			zap.Error(err),
		)
	}
}

// Close abandona as remoções pendentes. Chamadas seguintes de NotifyTransient
// ainda enviam, mas não agendam remoção.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.done)
	}
}

// Wait bloqueia até todas as remoções agendadas terminarem (ou serem abandonadas).
// Com eventos ainda chegando, chame Close antes: sem isso novas remoções podem
// ser agendadas depois do retorno.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

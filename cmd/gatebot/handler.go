package main

import (
	"context"
	"strings"

	"admission-gate/middleware/admission/application"
	"admission-gate/middleware/admission/domain"
	"admission-gate/middleware/admission/infra"

	"go.uber.org/zap"
)

const welcomeText = "<b>🎓 Welcome!</b>\n\nUse the menu to continue."

// businessHandler é o mínimo de lógica de negócio para o bot funcionar de ponta
// a ponta: /start e a confirmação de assinatura. O resto só é logado.
type businessHandler struct {
	bot    *infra.BotClient
	probe  domain.MembershipProbe
	logger *zap.Logger
}

func newBusinessHandler(bot *infra.BotClient, probe domain.MembershipProbe, logger *zap.Logger) domain.Handler {
	return &businessHandler{bot: bot, probe: probe, logger: logger}
}

func (h *businessHandler) Handle(ctx context.Context, ev domain.Event) {
	up, ok := ev.(*domain.Update)
	if !ok {
		return
	}

	switch {
	case up.CallbackQuery != nil && up.CallbackQuery.Data == application.CheckSubscriptionData:
		h.checkSubscription(ctx, up.CallbackQuery)
	case up.Message != nil && strings.HasPrefix(up.Message.Text, "/start"):
		h.send(ctx, up.Message.Chat.ID, welcomeText)
	default:
		h.logger.Debug("update admitted", zap.Int64("update_id", up.UpdateID), zap.String("kind", domain.Kind(up)))
	}
}

func (h *businessHandler) checkSubscription(ctx context.Context, cb *domain.CallbackQuery) {
	id := domain.Identify(cb)
	if !id.OK() {
		return
	}

	subscribed := h.probe == nil
	if h.probe != nil {
		m, err := h.probe.Probe(ctx, id.User)
		subscribed = err == nil && m == domain.Member
	}

	if !subscribed {
		h.answer(ctx, cb.ID, "❗ Subscription not found")
		return
	}
	h.answer(ctx, cb.ID, "✔ Subscription confirmed!")
	h.send(ctx, id.ChatID, welcomeText)
}

func (h *businessHandler) answer(ctx context.Context, callbackID, text string) {
	if err := h.bot.AnswerCallback(ctx, callbackID, text); err != nil {
		h.logger.Warn("answer callback failed", zap.Error(err))
	}
}

func (h *businessHandler) send(ctx context.Context, chatID int64, text string) {
	_, err := h.bot.Send(ctx, domain.OutgoingMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		h.logger.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

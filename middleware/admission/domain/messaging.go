package domain

import "context"

// MessageRef aponta para uma mensagem enviada, o suficiente para apagá-la.
type MessageRef struct {
	ChatID    int64
	MessageID int64
}

type Button struct {
	Text         string
	URL          string
	CallbackData string
}

type OutgoingMessage struct {
	ChatID int64
	Text   string
	// ReplyTo é o id da mensagem respondida (0 = nenhuma).
	ReplyTo   int64
	ParseMode string
	// Buttons é um teclado inline, uma linha por slice.
	Buttons [][]Button
}

// Messenger é o transporte de saída (ex: Bot API).
type Messenger interface {
	Send(ctx context.Context, msg OutgoingMessage) (MessageRef, error)
	Delete(ctx context.Context, ref MessageRef) error
}

package domain

import "context"

// Handler é o ponto de entrada da lógica de negócio, chamado apenas para
// eventos admitidos.
type Handler interface {
	Handle(ctx context.Context, ev Event)
}

type HandlerFunc func(ctx context.Context, ev Event)

func (f HandlerFunc) Handle(ctx context.Context, ev Event) { f(ctx, ev) }

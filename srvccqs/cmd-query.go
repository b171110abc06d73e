package srvccqs

import "context"

// P - params
type CmdHandler[P any] interface {
	Handle(ctx context.Context, p P) error
}

// Q - query, R - result
type QueryHandler[Q any, R any] interface {
	Handle(ctx context.Context, q Q) (R, error)
}

// CmdFunc adapts a plain function to CmdHandler.
type CmdFunc[P any] func(ctx context.Context, p P) error

func (f CmdFunc[P]) Handle(ctx context.Context, p P) error {
	return f(ctx, p)
}

// QueryFunc adapts a plain function to QueryHandler.
type QueryFunc[Q any, R any] func(ctx context.Context, q Q) (R, error)

func (f QueryFunc[Q, R]) Handle(ctx context.Context, q Q) (R, error) {
	return f(ctx, q)
}

package hook

import "context"

// SeriesFunc is a tap on a Series hook.
type SeriesFunc[T any] func(ctx context.Context, arg T) error

// Series is an ordered multi-tap hook whose taps share one argument.
type Series[T any] struct {
	reg registry[SeriesFunc[T]]
}

// NewSeries creates an empty series hook.
func NewSeries[T any](name string) *Series[T] {
	return &Series[T]{reg: registry[SeriesFunc[T]]{name: name}}
}

// Name returns the hook name.
func (h *Series[T]) Name() string { return h.reg.name }

// Tap appends fn to the hook.
func (h *Series[T]) Tap(token Token, fn SeriesFunc[T]) {
	h.reg.add(token, fn)
}

// TapLazy appends a tap whose body is produced by init the first time the
// hook fires.
func (h *Series[T]) TapLazy(token Token, init func(context.Context) (SeriesFunc[T], error)) {
	load := Lazy(init)
	h.reg.add(token, func(ctx context.Context, arg T) error {
		fn, err := load(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, arg)
	})
}

// Taps returns the tokens of all registered taps in dispatch order.
func (h *Series[T]) Taps() []Token { return h.reg.tokens() }

// Call invokes every tap with arg, sequentially, in registration order.
// It stops at the first error.
func (h *Series[T]) Call(ctx context.Context, arg T) error {
	for i, t := range h.reg.snapshot() {
		fn := t.fn
		err := invoke(ctx, h.reg.name, KindSeries, t.token, i, func(ctx context.Context) error {
			return fn(ctx, arg)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

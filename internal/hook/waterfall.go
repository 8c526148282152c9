package hook

import "context"

// WaterfallFunc is a tap on a Waterfall hook. It receives the accumulated
// value and returns the next one.
type WaterfallFunc[T, A any] func(ctx context.Context, acc T, args A) (T, error)

// Waterfall is an ordered multi-tap hook that threads a value through its
// taps. A is the fixed argument every tap receives alongside the value.
type Waterfall[T, A any] struct {
	reg registry[WaterfallFunc[T, A]]
}

// NewWaterfall creates an empty waterfall hook.
func NewWaterfall[T, A any](name string) *Waterfall[T, A] {
	return &Waterfall[T, A]{reg: registry[WaterfallFunc[T, A]]{name: name}}
}

// Name returns the hook name.
func (h *Waterfall[T, A]) Name() string { return h.reg.name }

// Tap appends fn to the hook.
func (h *Waterfall[T, A]) Tap(token Token, fn WaterfallFunc[T, A]) {
	h.reg.add(token, fn)
}

// TapLazy appends a tap whose body is produced by init the first time the
// hook fires.
func (h *Waterfall[T, A]) TapLazy(token Token, init func(context.Context) (WaterfallFunc[T, A], error)) {
	load := Lazy(init)
	h.reg.add(token, func(ctx context.Context, acc T, args A) (T, error) {
		fn, err := load(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		return fn(ctx, acc, args)
	})
}

// Taps returns the tokens of all registered taps in dispatch order.
func (h *Waterfall[T, A]) Taps() []Token { return h.reg.tokens() }

// Call left-folds seed through every tap in registration order. With no taps
// it returns seed unchanged. On error it returns the zero value of T.
func (h *Waterfall[T, A]) Call(ctx context.Context, seed T, args A) (T, error) {
	acc := seed
	for i, t := range h.reg.snapshot() {
		fn := t.fn
		err := invoke(ctx, h.reg.name, KindWaterfall, t.token, i, func(ctx context.Context) error {
			next, err := fn(ctx, acc, args)
			if err != nil {
				return err
			}
			acc = next
			return nil
		})
		if err != nil {
			var zero T
			return zero, err
		}
	}
	return acc, nil
}

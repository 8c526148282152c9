package hook

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Iron-Ham/weft/internal/errors"
	"github.com/Iron-Ham/weft/internal/logging"
)

const tracerName = "github.com/Iron-Ham/weft/internal/hook"

// Kind identifies a dispatch mode.
type Kind string

// Dispatch modes.
const (
	KindSeries    Kind = "series"
	KindWaterfall Kind = "waterfall"
)

// Token identifies the plugin that registered a tap.
type Token struct {
	Plugin  string
	Version string
}

// String renders the token as "plugin@version", or just the plugin name when
// no version is set.
func (t Token) String() string {
	if t.Version == "" {
		return t.Plugin
	}
	return t.Plugin + "@" + t.Version
}

type tap[F any] struct {
	token Token
	fn    F
}

// registry is the ordered tap list shared by both hook kinds.
type registry[F any] struct {
	name string
	mu   sync.Mutex
	taps []tap[F]
}

func (r *registry[F]) add(token Token, fn F) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.taps = append(r.taps, tap[F]{token: token, fn: fn})
}

// snapshot copies the tap list so dispatch runs without holding the lock.
// Taps registered while a dispatch is in flight fire on the next dispatch.
func (r *registry[F]) snapshot() []tap[F] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]tap[F], len(r.taps))
	copy(out, r.taps)
	return out
}

func (r *registry[F]) tokens() []Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Token, len(r.taps))
	for i, t := range r.taps {
		out[i] = t.token
	}
	return out
}

// invoke runs a single tap inside a span and converts failures, including
// panics, into a TapError. The tap sees a context logger tagged with its
// plugin.
func invoke(ctx context.Context, name string, kind Kind, token Token, index int, fn func(context.Context) error) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "hook."+name,
		trace.WithAttributes(
			attribute.String("weft.hook.kind", string(kind)),
			attribute.String("weft.plugin", token.Plugin),
			attribute.String("weft.plugin.version", token.Version),
			attribute.Int("weft.hook.tap_index", index),
		),
	)
	defer span.End()

	logger := logging.FromContext(ctx).WithPlugin(token.String())
	ctx = logging.WithContext(ctx, logger)
	logger.Debug("invoking tap", "hook", name, "kind", string(kind), "index", index)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Debug("tap failed", "hook", name, "error", err.Error())
			err = errors.NewTapError(name, token, err)
		}
	}()

	return fn(ctx)
}

// Lazy returns a function that calls init once, on first use, and returns
// the memoized result on every later call. A failed init is memoized too.
func Lazy[F any](init func(context.Context) (F, error)) func(context.Context) (F, error) {
	var (
		once sync.Once
		fn   F
		err  error
	)
	return func(ctx context.Context) (F, error) {
		once.Do(func() {
			fn, err = init(ctx)
		})
		return fn, err
	}
}

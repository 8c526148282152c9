package hook

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	weferrors "github.com/Iron-Ham/weft/internal/errors"
	"github.com/Iron-Ham/weft/internal/logging"
)

var (
	tokenA = Token{Plugin: "a", Version: "1.0.0"}
	tokenB = Token{Plugin: "b"}
	tokenC = Token{Plugin: "c"}
)

func TestToken_String(t *testing.T) {
	if got := tokenA.String(); got != "a@1.0.0" {
		t.Errorf("String() = %q, want %q", got, "a@1.0.0")
	}
	if got := tokenB.String(); got != "b" {
		t.Errorf("String() = %q, want %q", got, "b")
	}
}

func TestSeries_CallsInRegistrationOrder(t *testing.T) {
	h := NewSeries[*[]string]("configure")
	for _, tok := range []Token{tokenA, tokenB, tokenC} {
		tok := tok
		h.Tap(tok, func(_ context.Context, seen *[]string) error {
			*seen = append(*seen, tok.Plugin)
			return nil
		})
	}

	var seen []string
	if err := h.Call(context.Background(), &seen); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if strings.Join(seen, ",") != "a,b,c" {
		t.Errorf("taps ran as %v, want [a b c]", seen)
	}
}

func TestSeries_ZeroTapsIsNoop(t *testing.T) {
	h := NewSeries[int]("empty")
	if err := h.Call(context.Background(), 1); err != nil {
		t.Errorf("Call() error = %v, want nil", err)
	}
	if len(h.Taps()) != 0 {
		t.Errorf("Taps() = %v, want empty", h.Taps())
	}
}

func TestSeries_NoDedup(t *testing.T) {
	h := NewSeries[*int]("count")
	fn := func(_ context.Context, n *int) error {
		*n++
		return nil
	}
	h.Tap(tokenA, fn)
	h.Tap(tokenA, fn)

	n := 0
	if err := h.Call(context.Background(), &n); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if n != 2 {
		t.Errorf("tap invoked %d times, want 2", n)
	}
}

func TestSeries_FailFast(t *testing.T) {
	h := NewSeries[*[]string]("configure")
	boom := errors.New("boom")

	h.Tap(tokenA, func(_ context.Context, seen *[]string) error {
		*seen = append(*seen, "a")
		return nil
	})
	h.Tap(tokenB, func(_ context.Context, seen *[]string) error {
		return boom
	})
	h.Tap(tokenC, func(_ context.Context, seen *[]string) error {
		*seen = append(*seen, "c")
		return nil
	})

	var seen []string
	err := h.Call(context.Background(), &seen)
	if !errors.Is(err, boom) {
		t.Fatalf("Call() error = %v, want %v", err, boom)
	}

	var tapErr *weferrors.TapError
	if !errors.As(err, &tapErr) {
		t.Fatalf("error should be a TapError, got %T", err)
	}
	if tapErr.Hook != "configure" || tapErr.Plugin != "b" {
		t.Errorf("TapError = {Hook:%q Plugin:%q}, want {configure b}", tapErr.Hook, tapErr.Plugin)
	}
	if len(seen) != 1 {
		t.Errorf("taps after the failure should not run, seen = %v", seen)
	}
}

func TestSeries_PanicBecomesError(t *testing.T) {
	h := NewSeries[int]("configure")
	h.Tap(tokenA, func(context.Context, int) error {
		panic("bad plugin")
	})

	err := h.Call(context.Background(), 0)
	if err == nil {
		t.Fatal("Call() should return an error when a tap panics")
	}
	if !strings.Contains(err.Error(), "panic: bad plugin") {
		t.Errorf("error = %q, want it to mention the panic", err.Error())
	}
	if !errors.Is(err, weferrors.ErrHookFailed) {
		t.Error("panic should surface as a hook failure")
	}
}

func TestWaterfall_LeftFold(t *testing.T) {
	h := NewWaterfall[string, string]("steps")
	h.Tap(tokenA, func(_ context.Context, acc, sep string) (string, error) {
		return acc + sep + "a", nil
	})
	h.Tap(tokenB, func(_ context.Context, acc, sep string) (string, error) {
		return acc + sep + "b", nil
	})
	h.Tap(tokenC, func(_ context.Context, acc, sep string) (string, error) {
		return "(" + acc + ")", nil
	})

	got, err := h.Call(context.Background(), "s", "/")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != "(s/a/b)" {
		t.Errorf("Call() = %q, want %q", got, "(s/a/b)")
	}
}

func TestWaterfall_ZeroTapsReturnsSeed(t *testing.T) {
	h := NewWaterfall[[]int, struct{}]("variants")
	seed := []int{1, 2}

	got, err := h.Call(context.Background(), seed, struct{}{})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(got) != 2 || &got[0] != &seed[0] {
		t.Errorf("Call() = %v, want the seed unchanged", got)
	}
}

func TestWaterfall_FailFastDiscardsPartialResult(t *testing.T) {
	h := NewWaterfall[[]string, struct{}]("pre")
	boom := errors.New("boom")
	called := false

	h.Tap(tokenA, func(_ context.Context, acc []string, _ struct{}) ([]string, error) {
		return append(acc, "a"), nil
	})
	h.Tap(tokenB, func(_ context.Context, acc []string, _ struct{}) ([]string, error) {
		return append(acc, "b"), boom
	})
	h.Tap(tokenC, func(_ context.Context, acc []string, _ struct{}) ([]string, error) {
		called = true
		return acc, nil
	})

	got, err := h.Call(context.Background(), nil, struct{}{})
	if !errors.Is(err, boom) {
		t.Fatalf("Call() error = %v, want %v", err, boom)
	}
	if got != nil {
		t.Errorf("Call() result = %v, want nil on error", got)
	}
	if called {
		t.Error("taps after the failure should not run")
	}
}

func TestWaterfall_Taps(t *testing.T) {
	h := NewWaterfall[int, struct{}]("context")
	noop := func(_ context.Context, n int, _ struct{}) (int, error) { return n, nil }
	h.Tap(tokenB, noop)
	h.Tap(tokenA, noop)

	taps := h.Taps()
	if len(taps) != 2 || taps[0] != tokenB || taps[1] != tokenA {
		t.Errorf("Taps() = %v, want [b a@1.0.0]", taps)
	}
	if h.Name() != "context" {
		t.Errorf("Name() = %q, want %q", h.Name(), "context")
	}
}

func TestTapLazy_InitializesOnceOnFirstDispatch(t *testing.T) {
	h := NewWaterfall[int, struct{}]("steps")
	inits := 0

	h.TapLazy(tokenA, func(context.Context) (WaterfallFunc[int, struct{}], error) {
		inits++
		return func(_ context.Context, n int, _ struct{}) (int, error) {
			return n + 1, nil
		}, nil
	})

	if inits != 0 {
		t.Fatal("lazy tap should not initialize at registration")
	}

	for i := 0; i < 3; i++ {
		got, err := h.Call(context.Background(), 10, struct{}{})
		if err != nil {
			t.Fatalf("Call() error = %v", err)
		}
		if got != 11 {
			t.Errorf("Call() = %d, want 11", got)
		}
	}

	if inits != 1 {
		t.Errorf("init ran %d times, want 1", inits)
	}
}

func TestTapLazy_InitErrorIsMemoized(t *testing.T) {
	h := NewSeries[int]("build")
	loadErr := errors.New("cannot load")
	inits := 0

	h.TapLazy(tokenA, func(context.Context) (SeriesFunc[int], error) {
		inits++
		return nil, loadErr
	})

	for i := 0; i < 2; i++ {
		if err := h.Call(context.Background(), 0); !errors.Is(err, loadErr) {
			t.Errorf("Call() error = %v, want %v", err, loadErr)
		}
	}
	if inits != 1 {
		t.Errorf("init ran %d times, want 1", inits)
	}
}

func TestLazy_ConcurrentCallers(t *testing.T) {
	var mu sync.Mutex
	inits := 0
	load := Lazy(func(context.Context) (int, error) {
		mu.Lock()
		inits++
		mu.Unlock()
		return 42, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, _ := load(context.Background()); v != 42 {
				t.Errorf("load() = %d, want 42", v)
			}
		}()
	}
	wg.Wait()

	if inits != 1 {
		t.Errorf("init ran %d times, want 1", inits)
	}
}

func TestSeries_TapDuringDispatchFiresNextTime(t *testing.T) {
	h := NewSeries[*int]("build")
	h.Tap(tokenA, func(_ context.Context, n *int) error {
		*n++
		if *n == 1 {
			h.Tap(tokenB, func(_ context.Context, n *int) error {
				*n += 10
				return nil
			})
		}
		return nil
	})

	n := 0
	if err := h.Call(context.Background(), &n); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if n != 1 {
		t.Errorf("after first dispatch n = %d, want 1", n)
	}
	if err := h.Call(context.Background(), &n); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if n != 12 {
		t.Errorf("after second dispatch n = %d, want 12", n)
	}
}

func TestInvoke_TagsLoggerWithPlugin(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithContext(context.Background(), logging.NewWithWriter(&buf, "debug"))

	h := NewSeries[string]("configure")
	h.Tap(tokenA, func(ctx context.Context, _ string) error {
		logging.FromContext(ctx).Info("configured")
		return nil
	})
	if err := h.Call(ctx, "storefront"); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2:\n%s", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, `"plugin":"a@1.0.0"`) {
			t.Errorf("log line missing plugin attribute: %s", line)
		}
	}
	if !strings.Contains(lines[0], "invoking tap") || !strings.Contains(lines[1], "configured") {
		t.Errorf("unexpected log lines:\n%s", buf.String())
	}
}

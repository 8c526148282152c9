package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/Iron-Ham/weft/internal/errors"
	"github.com/Iron-Ham/weft/internal/event"
	"github.com/Iron-Ham/weft/internal/step"
)

func noop(label string, ran *[]string) step.Step {
	return step.New(label, func(context.Context, step.Runner) error {
		*ran = append(*ran, label)
		return nil
	})
}

func TestSkipFilter(t *testing.T) {
	f := NewSkipFilter([]string{"lint", "web-*", "", "pkg-[ab]", "app[", "@scope/*"})

	tests := []struct {
		id   string
		want bool
	}{
		{"lint", true},
		{"web-storefront", true},
		{"pkg-a", true},
		{"pkg-c", false},
		{"app[", true},
		{"app", false},
		{"@scope/ui/button", true},
		{"api", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := f.Match(tt.id); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestSkipFilter_InvalidPatternMatchesLiterally(t *testing.T) {
	f := NewSkipFilter([]string{"[unclosed", "lint"})
	if got := f.LiteralOnly(); len(got) != 1 || got[0] != "[unclosed" {
		t.Errorf("LiteralOnly() = %v, want [[unclosed]", got)
	}
	if !f.Match("[unclosed") {
		t.Error("Match(\"[unclosed\") = false, want true")
	}
	if f.Match("unclosed") {
		t.Error("Match(\"unclosed\") = true, want false")
	}
}

func TestRecorder_PreSkipsMatchingIDs(t *testing.T) {
	rec := NewRecorder(nil)
	var ran []string

	err := rec.Run(context.Background(), func(ctx context.Context, r Runner) error {
		return r.Pre(ctx, []step.Step{
			noop("Lint", &ran).WithID("lint"),
			noop("Typecheck", &ran).WithID("typecheck"),
			noop("Unlabeled", &ran),
		}, []string{"lint"})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if fmt.Sprint(ran) != "[Typecheck Unlabeled]" {
		t.Errorf("ran = %v", ran)
	}
	if fmt.Sprint(rec.SkippedSteps()) != "[lint]" {
		t.Errorf("SkippedSteps() = %v", rec.SkippedSteps())
	}
}

func TestRecorder_StepsPanickingSubStepFailsGroup(t *testing.T) {
	rec := NewRecorder(nil)

	err := rec.Run(context.Background(), func(ctx context.Context, r Runner) error {
		return r.Steps(ctx, []step.Step{
			step.Composite("web-app", []step.Step{
				step.New("boom", func(context.Context, step.Runner) error { panic("boom") }),
			}),
		}, StepsOptions{ID: "storefront"})
	})
	if !errors.Is(err, errors.ErrStepFailed) {
		t.Fatalf("Run() error = %v, want ErrStepFailed", err)
	}
	if len(rec.Failures()) != 1 {
		t.Errorf("Failures() = %v, want one", rec.Failures())
	}
}

func TestRecorder_StepsSkipsGroup(t *testing.T) {
	rec := NewRecorder(nil)
	var ran []string

	err := rec.Run(context.Background(), func(ctx context.Context, r Runner) error {
		if err := r.Steps(ctx, []step.Step{noop("Build web app", &ran)}, StepsOptions{ID: "storefront", Skip: []string{"storefront"}}); err != nil {
			return err
		}
		return r.Steps(ctx, []step.Step{noop("Build package", &ran)}, StepsOptions{ID: "ui-kit", Skip: []string{"storefront"}})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if fmt.Sprint(ran) != "[Build package]" {
		t.Errorf("ran = %v", ran)
	}
	if fmt.Sprint(rec.SkippedGroups()) != "[storefront]" {
		t.Errorf("SkippedGroups() = %v", rec.SkippedGroups())
	}
	want := []string{event.TypeGroupSkipped, event.TypeGroupStarted, event.TypeGroupCompleted}
	got := rec.EventTypes(event.TypeGroupSkipped, event.TypeGroupStarted, event.TypeGroupCompleted)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("group events = %v, want %v", got, want)
	}
}

func TestSession_FirstFailureStopsPhase(t *testing.T) {
	rec := NewRecorder(nil)
	var ran []string
	boom := errors.New("boom")

	err := rec.Run(context.Background(), func(ctx context.Context, r Runner) error {
		return r.Post(ctx, []step.Step{
			noop("First", &ran),
			step.New("Broken", func(context.Context, step.Runner) error { return boom }).WithID("broken"),
			noop("Never", &ran),
		}, nil)
	})

	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}
	if !errors.Is(err, errors.ErrStepFailed) {
		t.Errorf("Run() error = %v, want ErrStepFailed", err)
	}
	var stepErr *errors.StepError
	if !errors.As(err, &stepErr) || stepErr.StepID != "broken" || stepErr.Group != "post" {
		t.Errorf("StepError = %+v", stepErr)
	}
	if fmt.Sprint(ran) != "[First]" {
		t.Errorf("ran = %v", ran)
	}
	if len(rec.Failures()) != 1 {
		t.Errorf("Failures() = %v", rec.Failures())
	}
}

func TestSession_StepsFailureCompletesGroupWithError(t *testing.T) {
	rec := NewRecorder(nil)
	err := rec.Run(context.Background(), func(ctx context.Context, r Runner) error {
		return r.Steps(ctx, []step.Step{
			step.New("Build", func(context.Context, step.Runner) error { return errors.New("nope") }),
		}, StepsOptions{ID: "api"})
	})
	if err == nil {
		t.Fatal("Run() expected error")
	}

	var completed *event.GroupEvent
	for _, e := range rec.Events() {
		if g, ok := e.(event.GroupEvent); ok && g.EventType() == event.TypeGroupCompleted {
			completed = &g
		}
	}
	if completed == nil || completed.Err == nil {
		t.Errorf("group.completed = %+v, want error", completed)
	}
}

func TestSession_CompositeReportsSubSteps(t *testing.T) {
	rec := NewRecorder(nil)
	var count atomic.Int32
	child := func(label string) step.Step {
		return step.New(label, func(context.Context, step.Runner) error {
			count.Add(1)
			return nil
		})
	}

	err := rec.Run(context.Background(), func(ctx context.Context, r Runner) error {
		return r.Steps(ctx, []step.Step{
			step.Composite("Build web app", []step.Step{child("compile"), child("")}),
		}, StepsOptions{ID: "app"})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if count.Load() != 2 {
		t.Errorf("children ran %d times, want 2", count.Load())
	}

	logs := rec.Logs(step.LevelDebug)
	joined := strings.Join(logs, "\n")
	if !strings.Contains(joined, "starting sub-step: compile") || !strings.Contains(joined, "starting unlabeled sub-step") {
		t.Errorf("debug logs = %v", logs)
	}
}

func TestRecorder_CallsInOrder(t *testing.T) {
	rec := NewRecorder(nil)
	err := rec.Run(context.Background(), func(ctx context.Context, r Runner) error {
		r.Title("shop")
		if err := r.Pre(ctx, nil, nil); err != nil {
			return err
		}
		r.Separator()
		if err := r.Steps(ctx, nil, StepsOptions{ID: "app"}); err != nil {
			return err
		}
		if err := r.Post(ctx, nil, nil); err != nil {
			return err
		}
		r.Epilogue("build completed successfully!")
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "[title pre separator steps post epilogue]"
	if got := fmt.Sprint(rec.Methods()); got != want {
		t.Errorf("Methods() = %s, want %s", got, want)
	}
	if s := rec.Summary(); !s.Succeeded || s.Title != "shop" {
		t.Errorf("Summary() = %+v", s)
	}
}

func TestRecorder_WriteJSON(t *testing.T) {
	rec := NewRecorder(nil)
	_ = rec.Run(context.Background(), func(ctx context.Context, r Runner) error {
		var ran []string
		_ = r.Pre(ctx, []step.Step{noop("Lint", &ran).WithID("lint")}, []string{"lint"})
		_ = r.Post(ctx, []step.Step{noop("Report", &ran)}, nil)
		return nil
	})

	var buf bytes.Buffer
	if err := rec.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	var got Summary
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Steps) != 2 || got.Steps[0].Status != "skipped" || got.Steps[1].Status != "succeeded" {
		t.Errorf("Steps = %+v", got.Steps)
	}
	if got.Succeeded {
		t.Error("a run without an epilogue should not count as succeeded")
	}
}

func TestTerminal_Render(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    []string
		notWant []string
	}{
		{
			name:    "quiet",
			want:    []string{"shop", "✓ Lint", "○ skipped Typecheck", "app", "✓ Build web app", "○ skipped api", "✔ build completed successfully!"},
			notWant: []string{"starting sub-step"},
		},
		{
			name:    "verbose",
			verbose: true,
			want:    []string{"· starting sub-step: compile"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			term := NewTerminal(&buf, TerminalOptions{Verbose: tt.verbose, Color: ColorNever})

			err := term.Run(context.Background(), func(ctx context.Context, r Runner) error {
				r.Title("shop")
				var ran []string
				if err := r.Pre(ctx, []step.Step{
					noop("Lint", &ran).WithID("lint"),
					noop("Typecheck", &ran).WithID("typecheck"),
				}, []string{"typecheck"}); err != nil {
					return err
				}
				r.Separator()
				composite := step.Composite("Build web app", []step.Step{noop("compile", &ran)})
				if err := r.Steps(ctx, []step.Step{composite}, StepsOptions{ID: "app"}); err != nil {
					return err
				}
				if err := r.Steps(ctx, nil, StepsOptions{ID: "api", Skip: []string{"api"}}); err != nil {
					return err
				}
				r.Epilogue("build completed successfully!")
				return nil
			})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
			if strings.Contains(out, "\x1b[") {
				t.Errorf("ColorNever output contains escape codes:\n%q", out)
			}
		})
	}
}

func TestTerminal_RendersFailure(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, TerminalOptions{Color: ColorNever})
	_ = term.Run(context.Background(), func(ctx context.Context, r Runner) error {
		return r.Pre(ctx, []step.Step{
			step.New("Lint", func(context.Context, step.Runner) error { return errors.New("exit status 1") }),
		}, nil)
	})

	out := buf.String()
	if !strings.Contains(out, "✗ Lint") || !strings.Contains(out, "exit status 1") {
		t.Errorf("output = %q", out)
	}
}

func TestRecorder_WrapsTerminal(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(NewTerminal(&buf, TerminalOptions{Color: ColorNever}))

	err := rec.Run(context.Background(), func(ctx context.Context, r Runner) error {
		r.Title("wrapped")
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(buf.String(), "wrapped") {
		t.Errorf("terminal did not render: %q", buf.String())
	}
	if fmt.Sprint(rec.EventTypes()) != "["+event.TypeBuildTitle+"]" {
		t.Errorf("EventTypes() = %v", rec.EventTypes())
	}
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	if useColor(&buf, ColorAuto) {
		t.Error("a buffer is not a terminal")
	}
	if !useColor(&buf, ColorAlways) {
		t.Error("ColorAlways should force colors")
	}
	if useColor(&buf, ColorNever) {
		t.Error("ColorNever should disable colors")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "build", 10, "build"},
		{"disabled", "a long line", 0, "a long line"},
		{"negative", "a long line", -1, "a long line"},
		{"cut", "a long line", 6, "a lon…"},
		{"styled", "\x1b[1mbold text\x1b[0m", 5, "\x1b[1mbold…\x1b[0m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.width)
			if tt.name == "styled" {
				// Only the visible width is asserted for styled input.
				if w := ansi.StringWidth(got); w != tt.width {
					t.Errorf("width = %d, want %d (%q)", w, tt.width, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestTerminal_TruncatesToWidth(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, TerminalOptions{Color: ColorNever, Width: 8})

	err := term.Run(context.Background(), func(ctx context.Context, r Runner) error {
		r.Title("a very long title")
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "a very …" {
		t.Errorf("output = %q", got)
	}
}

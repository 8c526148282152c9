package ui

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/Iron-Ham/weft/internal/event"
	"github.com/Iron-Ham/weft/internal/logging"
	"github.com/Iron-Ham/weft/internal/step"
)

// Call is one recorded Runner method call.
type Call struct {
	Method string   // title, separator, pre, post, steps or epilogue
	Text   string   // Title name or epilogue message
	ID     string   // Group id for steps calls
	Skip   []string // Skip filters passed with the call
	Labels []string // Display labels of the steps passed with the call
}

// Recorder records every runner call and every event of a session. With a
// nil next UI it runs steps itself without rendering; otherwise it wraps
// next and records what passes through.
type Recorder struct {
	next UI

	mu     sync.Mutex
	calls  []Call
	events []event.Event
}

// NewRecorder creates a recorder, optionally wrapping another UI.
func NewRecorder(next UI) *Recorder {
	return &Recorder{next: next}
}

// Run implements UI.
func (r *Recorder) Run(ctx context.Context, fn func(ctx context.Context, runner Runner) error) error {
	if r.next == nil {
		return r.record(ctx, NewSession(event.NewBus(logging.FromContext(ctx))), fn)
	}
	return r.next.Run(ctx, func(ctx context.Context, inner Runner) error {
		return r.record(ctx, inner, fn)
	})
}

func (r *Recorder) record(ctx context.Context, inner Runner, fn func(context.Context, Runner) error) error {
	if bp, ok := inner.(BusProvider); ok {
		id := bp.Bus().SubscribeAll(func(e event.Event) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
		})
		defer bp.Bus().Unsubscribe(id)
	}
	return fn(ctx, &recordingRunner{inner: inner, rec: r})
}

func (r *Recorder) addCall(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

// Calls returns the recorded runner calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Methods returns the method names of the recorded calls in order.
func (r *Recorder) Methods() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

// Events returns the recorded events in publish order.
func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Event, len(r.events))
	copy(out, r.events)
	return out
}

// EventTypes returns the types of the recorded events, optionally limited
// to the given types.
func (r *Recorder) EventTypes(only ...string) []string {
	keep := make(map[string]bool, len(only))
	for _, t := range only {
		keep[t] = true
	}
	var out []string
	for _, e := range r.Events() {
		if len(keep) == 0 || keep[e.EventType()] {
			out = append(out, e.EventType())
		}
	}
	return out
}

// SkippedGroups returns the ids of skipped project groups.
func (r *Recorder) SkippedGroups() []string {
	var out []string
	for _, e := range r.Events() {
		if g, ok := e.(event.GroupEvent); ok && g.EventType() == event.TypeGroupSkipped {
			out = append(out, g.ID)
		}
	}
	return out
}

// SkippedSteps returns the ids of skipped pre and post steps.
func (r *Recorder) SkippedSteps() []string {
	var out []string
	for _, e := range r.Events() {
		if s, ok := e.(event.StepSkippedEvent); ok {
			out = append(out, s.ID)
		}
	}
	return out
}

// Started returns the labels of top-level steps that started, in order.
func (r *Recorder) Started() []string {
	var out []string
	for _, e := range r.Events() {
		if s, ok := e.(event.StepStartedEvent); ok {
			out = append(out, s.Label)
		}
	}
	return out
}

// Failures returns the errors of failed steps.
func (r *Recorder) Failures() []error {
	var out []error
	for _, e := range r.Events() {
		if s, ok := e.(event.StepFailedEvent); ok {
			out = append(out, s.Err)
		}
	}
	return out
}

// Logs returns the messages steps reported at level.
func (r *Recorder) Logs(level step.Level) []string {
	var out []string
	for _, e := range r.Events() {
		if l, ok := e.(event.StepLogEvent); ok && l.Level == level.String() {
			out = append(out, l.Message)
		}
	}
	return out
}

// StepSummary is the outcome of one top-level step.
type StepSummary struct {
	Phase    string `json:"phase"`
	Group    string `json:"group,omitempty"`
	ID       string `json:"id,omitempty"`
	Label    string `json:"label"`
	Status   string `json:"status"`
	Duration string `json:"duration,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Summary is a machine-readable account of a build run.
type Summary struct {
	Title         string        `json:"title,omitempty"`
	Steps         []StepSummary `json:"steps"`
	SkippedGroups []string      `json:"skipped_groups,omitempty"`
	Epilogue      string        `json:"epilogue,omitempty"`
	Succeeded     bool          `json:"succeeded"`
}

// Summary folds the recorded events into a Summary.
func (r *Recorder) Summary() Summary {
	var s Summary
	s.Steps = []StepSummary{}
	failed := false
	for _, e := range r.Events() {
		switch ev := e.(type) {
		case event.BuildEvent:
			switch ev.EventType() {
			case event.TypeBuildTitle:
				s.Title = ev.Text
			case event.TypeBuildEpilogue:
				s.Epilogue = ev.Text
			}
		case event.GroupEvent:
			if ev.EventType() == event.TypeGroupSkipped {
				s.SkippedGroups = append(s.SkippedGroups, ev.ID)
			}
		case event.StepSkippedEvent:
			s.Steps = append(s.Steps, summarize(ev.StepRef, "skipped", 0, nil))
		case event.StepCompletedEvent:
			s.Steps = append(s.Steps, summarize(ev.StepRef, "succeeded", ev.Duration, nil))
		case event.StepFailedEvent:
			failed = true
			s.Steps = append(s.Steps, summarize(ev.StepRef, "failed", ev.Duration, ev.Err))
		}
	}
	s.Succeeded = !failed && s.Epilogue != ""
	return s
}

func summarize(ref event.StepRef, status string, d time.Duration, err error) StepSummary {
	out := StepSummary{
		Phase:  string(ref.Phase),
		Group:  ref.Group,
		ID:     ref.ID,
		Label:  ref.Label,
		Status: status,
	}
	if d > 0 {
		out.Duration = d.String()
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

// WriteJSON writes the summary as indented JSON.
func (r *Recorder) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Summary())
}

// recordingRunner records calls before delegating them.
type recordingRunner struct {
	inner Runner
	rec   *Recorder
}

func labels(steps []step.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.DisplayLabel()
	}
	return out
}

func (r *recordingRunner) Title(name string) {
	r.rec.addCall(Call{Method: "title", Text: name})
	r.inner.Title(name)
}

func (r *recordingRunner) Separator() {
	r.rec.addCall(Call{Method: "separator"})
	r.inner.Separator()
}

func (r *recordingRunner) Pre(ctx context.Context, steps []step.Step, skip []string) error {
	r.rec.addCall(Call{Method: "pre", Skip: skip, Labels: labels(steps)})
	return r.inner.Pre(ctx, steps, skip)
}

func (r *recordingRunner) Post(ctx context.Context, steps []step.Step, skip []string) error {
	r.rec.addCall(Call{Method: "post", Skip: skip, Labels: labels(steps)})
	return r.inner.Post(ctx, steps, skip)
}

func (r *recordingRunner) Steps(ctx context.Context, steps []step.Step, opts StepsOptions) error {
	r.rec.addCall(Call{Method: "steps", ID: opts.ID, Skip: opts.Skip, Labels: labels(steps)})
	return r.inner.Steps(ctx, steps, opts)
}

func (r *recordingRunner) Epilogue(message string) {
	r.rec.addCall(Call{Method: "epilogue", Text: message})
	r.inner.Epilogue(message)
}

var (
	_ UI     = (*Recorder)(nil)
	_ UI     = (*Terminal)(nil)
	_ Runner = (*recordingRunner)(nil)
)

package ui

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Iron-Ham/weft/internal/errors"
	"github.com/Iron-Ham/weft/internal/event"
	"github.com/Iron-Ham/weft/internal/logging"
	"github.com/Iron-Ham/weft/internal/step"
)

const tracerName = "github.com/Iron-Ham/weft/internal/ui"

// Session is the Runner every UI in this package hands out. It executes
// steps and publishes their progress to its bus.
type Session struct {
	bus *event.Bus
}

// NewSession creates a session publishing to bus.
func NewSession(bus *event.Bus) *Session {
	return &Session{bus: bus}
}

// Bus returns the bus the session publishes to.
func (s *Session) Bus() *event.Bus { return s.bus }

// Title reports the build title.
func (s *Session) Title(name string) {
	s.bus.Publish(event.NewBuildTitleEvent(name))
}

// Separator reports a break between the pre phase and the project groups.
func (s *Session) Separator() {
	s.bus.Publish(event.NewBuildSeparatorEvent())
}

// Epilogue reports the closing message of a successful build.
func (s *Session) Epilogue(message string) {
	s.bus.Publish(event.NewBuildEpilogueEvent(message))
}

// Pre runs the pre phase, skipping steps whose id matches skip.
func (s *Session) Pre(ctx context.Context, steps []step.Step, skip []string) error {
	return s.runLinear(ctx, event.PhasePre, steps, skip)
}

// Post runs the post phase, skipping steps whose id matches skip.
func (s *Session) Post(ctx context.Context, steps []step.Step, skip []string) error {
	return s.runLinear(ctx, event.PhasePost, steps, skip)
}

// Steps runs one project's step group unless its id matches opts.Skip.
func (s *Session) Steps(ctx context.Context, steps []step.Step, opts StepsOptions) error {
	if NewSkipFilter(opts.Skip).Match(opts.ID) {
		logging.FromContext(ctx).Info("skipping project", "project", opts.ID)
		s.bus.Publish(event.NewGroupSkippedEvent(opts.ID, len(steps)))
		return nil
	}

	s.bus.Publish(event.NewGroupStartedEvent(opts.ID, len(steps)))
	for _, st := range steps {
		ref := event.StepRef{Phase: event.PhaseSteps, Group: opts.ID, ID: st.ID, Label: st.DisplayLabel()}
		if err := s.runStep(ctx, ref, st); err != nil {
			s.bus.Publish(event.NewGroupCompletedEvent(opts.ID, len(steps), err))
			return err
		}
	}
	s.bus.Publish(event.NewGroupCompletedEvent(opts.ID, len(steps), nil))
	return nil
}

func (s *Session) runLinear(ctx context.Context, phase event.Phase, steps []step.Step, skip []string) error {
	filter := NewSkipFilter(skip)
	for _, st := range steps {
		ref := event.StepRef{Phase: phase, ID: st.ID, Label: st.DisplayLabel()}
		if filter.Match(st.ID) {
			s.bus.Publish(event.NewStepSkippedEvent(ref))
			continue
		}
		if err := s.runStep(ctx, ref, st); err != nil {
			return err
		}
	}
	return nil
}

// runStep executes one top-level step inside a span. Failures are wrapped in
// a StepError naming the step and its group or phase.
func (s *Session) runStep(ctx context.Context, ref event.StepRef, st step.Step) error {
	group := ref.Group
	if group == "" {
		group = string(ref.Phase)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "step.run",
		trace.WithAttributes(
			attribute.String("weft.step.id", ref.ID),
			attribute.String("weft.step.label", ref.Label),
			attribute.String("weft.step.group", group),
		),
	)
	defer span.End()

	s.bus.Publish(event.NewStepStartedEvent(ref))
	start := time.Now()

	err := step.Execute(ctx, st, &stepReporter{bus: s.bus, ref: ref, logger: logging.FromContext(ctx)})
	elapsed := time.Since(start)
	if err != nil {
		err = errors.NewStepError(st.Label, err).WithStepID(st.ID).WithGroup(group)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.bus.Publish(event.NewStepFailedEvent(ref, elapsed, err))
		return err
	}

	s.bus.Publish(event.NewStepCompletedEvent(ref, elapsed))
	return nil
}

// stepReporter is the step.Runner handed to step bodies. It is shared by
// concurrently running sub-steps; the bus and logger are both safe for that.
type stepReporter struct {
	bus    *event.Bus
	ref    event.StepRef
	logger *logging.Logger
}

func (r *stepReporter) Log(level step.Level, msg string) {
	args := []any{"step", r.ref.Label, "phase", string(r.ref.Phase)}
	if r.ref.Group != "" {
		args = append(args, "group", r.ref.Group)
	}
	switch level {
	case step.LevelDebug:
		r.logger.Debug(msg, args...)
	case step.LevelInfo:
		r.logger.Info(msg, args...)
	case step.LevelWarn:
		r.logger.Warn(msg, args...)
	default:
		r.logger.Error(msg, args...)
	}
	r.bus.Publish(event.NewStepLogEvent(r.ref, level.String(), msg))
}

var (
	_ Runner      = (*Session)(nil)
	_ BusProvider = (*Session)(nil)
	_ step.Runner = (*stepReporter)(nil)
)

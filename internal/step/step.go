package step

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/weft/internal/errors"
)

// Level is the severity of a line a step reports.
type Level int

// Report levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Runner is the reporting handle a step receives while it runs.
// Implementations must be safe for concurrent use.
type Runner interface {
	Log(level Level, msg string)
}

// RunFunc is the body of a step.
type RunFunc func(ctx context.Context, r Runner) error

// Step is a unit of build work.
type Step struct {
	// ID identifies the step for skip filters. Optional.
	ID string
	// Label is the display label. Optional.
	Label string
	// Run is the step body. Composite steps set it to run their children.
	Run RunFunc
	// Children holds nested steps of a composite step.
	Children []Step
}

// New creates a step with a label and body.
func New(label string, run RunFunc) Step {
	return Step{Label: label, Run: run}
}

// WithID returns a copy of s with its id set.
func (s Step) WithID(id string) Step {
	s.ID = id
	return s
}

// IsComposite reports whether s wraps nested steps.
func (s Step) IsComposite() bool {
	return len(s.Children) > 0
}

// DisplayLabel returns the label, or "unlabeled step" when there is none.
func (s Step) DisplayLabel() string {
	if s.Label == "" {
		return "unlabeled step"
	}
	return s.Label
}

// Composite wraps children into one step. Running it runs every child
// concurrently and waits for all of them, returning the first failure as
// soon as it happens.
func Composite(label string, children []Step) Step {
	kids := make([]Step, len(children))
	copy(kids, children)
	return Step{
		Label:    label,
		Children: kids,
		Run: func(ctx context.Context, r Runner) error {
			return runChildren(ctx, kids, r)
		},
	}
}

// Execute runs s. A step with neither a body nor children is a no-op.
func Execute(ctx context.Context, s Step, r Runner) error {
	switch {
	case s.Run != nil:
		return runBody(ctx, s, r)
	case len(s.Children) > 0:
		return runChildren(ctx, s.Children, r)
	default:
		return nil
	}
}

// runBody calls the step body and reports a panic as a failure of the step.
func runBody(ctx context.Context, s Step, r Runner) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return s.Run(ctx, r)
}

func runChildren(ctx context.Context, children []Step, r Runner) error {
	return Join(ctx, len(children), 0, func(ctx context.Context, i int) error {
		child := children[i]
		if child.Label != "" {
			r.Log(LevelDebug, "starting sub-step: "+child.Label)
		} else {
			r.Log(LevelDebug, "starting unlabeled sub-step")
		}

		err := Execute(ctx, child, r)
		if err == nil {
			return nil
		}
		var stepErr *errors.StepError
		if errors.As(err, &stepErr) {
			return err
		}
		return errors.NewStepError(child.DisplayLabel(), err).WithStepID(child.ID)
	})
}

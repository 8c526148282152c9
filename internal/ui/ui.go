package ui

import (
	"context"

	"github.com/Iron-Ham/weft/internal/event"
	"github.com/Iron-Ham/weft/internal/step"
)

// UI acquires a reporting session for the duration of fn.
type UI interface {
	Run(ctx context.Context, fn func(ctx context.Context, r Runner) error) error
}

// StepsOptions control one project step group.
type StepsOptions struct {
	// ID is the project id the group is reported under.
	ID string
	// Skip lists filters; the group is skipped when ID matches one.
	Skip []string
}

// Runner is a reporting session. Phase methods run their steps sequentially
// and return the first failure.
type Runner interface {
	Title(name string)
	Separator()
	Pre(ctx context.Context, steps []step.Step, skip []string) error
	Post(ctx context.Context, steps []step.Step, skip []string) error
	Steps(ctx context.Context, steps []step.Step, opts StepsOptions) error
	Epilogue(message string)
}

// BusProvider is implemented by runners that publish to an event bus.
type BusProvider interface {
	Bus() *event.Bus
}

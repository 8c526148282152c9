package build

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/weft/internal/errors"
	"github.com/Iron-Ham/weft/internal/logging"
	"github.com/Iron-Ham/weft/internal/step"
	"github.com/Iron-Ham/weft/internal/tasks"
	"github.com/Iron-Ham/weft/internal/workspace"
)

// resolveVariants turns a project's populated hooks into its top-level
// steps: one composite for a single variant, one per variant otherwise.
func resolveVariants(ctx context.Context, project workspace.Project, hooks *tasks.BuildHooks, opts tasks.BuildOptions) ([]step.Step, error) {
	variants, err := hooks.Variants.Call(ctx, []tasks.Variant{}, struct{}{})
	if err != nil {
		return nil, errors.NewProjectError(project.Name, "variants", err)
	}
	if len(variants) == 0 {
		variants = []tasks.Variant{{}}
	}

	lists, err := step.Map(ctx, len(variants), 0, func(ctx context.Context, i int) ([]step.Step, error) {
		return resolvePass(ctx, project, hooks, variants[i], opts)
	})
	if err != nil {
		return nil, err
	}

	if len(variants) == 1 {
		return []step.Step{step.Composite(Label(project.Kind, nil), lists[0])}, nil
	}
	out := make([]step.Step, len(variants))
	for i, v := range variants {
		out[i] = step.Composite(Label(project.Kind, &v), lists[i])
	}
	return out, nil
}

// resolvePass runs one variant pass: configure, context, then steps. The
// Configuration and Context it builds belong to this pass alone.
func resolvePass(ctx context.Context, project workspace.Project, hooks *tasks.BuildHooks, v tasks.Variant, opts tasks.BuildOptions) ([]step.Step, error) {
	ctx = logging.WithContext(ctx, logging.FromContext(ctx).WithVariant(v.String()))
	wrap := func(stage string, err error) error {
		return errors.NewProjectError(project.Name, stage, err).WithVariant(v.String())
	}

	config := tasks.NewConfiguration()
	if err := hooks.Configure.Call(ctx, tasks.ConfigureArgs{Config: config, Variant: v}); err != nil {
		return nil, wrap("configure", err)
	}

	shared, err := hooks.Context.Call(ctx, tasks.Context{}, struct{}{})
	if err != nil {
		return nil, wrap("context", err)
	}

	steps, err := hooks.Steps.Call(ctx, []step.Step{}, tasks.StepDetails{
		Variant: v,
		Config:  config,
		Context: shared,
		Options: opts,
	})
	if err != nil {
		return nil, wrap("steps", err)
	}

	logging.FromContext(ctx).Debug("variant resolved", "steps", len(steps), "capabilities", config.Capabilities())
	return steps, nil
}

// Label returns the composite label for a project kind. A nil variant gives
// the generic label used when a project resolves a single variant.
func Label(kind workspace.Kind, v *tasks.Variant) string {
	if v == nil {
		return "Build " + kind.Noun()
	}
	return fmt.Sprintf("Build %s %s variant", v.String(), kind.Noun())
}

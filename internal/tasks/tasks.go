package tasks

import (
	"context"
	"sort"

	"github.com/Iron-Ham/weft/internal/hook"
	"github.com/Iron-Ham/weft/internal/step"
	"github.com/Iron-Ham/weft/internal/variant"
	"github.com/Iron-Ham/weft/internal/workspace"
)

// SchemaVersion is the version of the hook schema defined in this package.
// It changes whenever a hook is added, removed or changes signature.
const SchemaVersion = 1

// Hook names. They appear in tap errors, logs and span names.
const (
	HookBuild     = "build"
	HookConfigure = "configure"
	HookPre       = "pre"
	HookPost      = "post"
	HookProject   = "project"
	HookWebApp    = "webApp"
	HookService   = "service"
	HookPackage   = "package"
	HookVariants  = "variants"
	HookContext   = "context"
	HookSteps     = "steps"
)

// Variant is a build variant.
type Variant = variant.Variant

// BuildOptions are the already-parsed options of one build invocation.
type BuildOptions struct {
	SourceMaps bool
	// Skip lists project ids whose step groups are not executed.
	Skip []string
	// SkipPre and SkipPost list step ids filtered from the pre and post
	// phases.
	SkipPre  []string
	SkipPost []string
}

// Context is the read-only shared context of one variant pass. Taps on the
// context waterfall return extended copies with With.
type Context struct {
	values map[string]any
}

// With returns a copy of c with key set to value.
func (c Context) With(key string, value any) Context {
	out := make(map[string]any, len(c.values)+1)
	for k, v := range c.values {
		out[k] = v
	}
	out[key] = value
	return Context{values: out}
}

// Value returns the value stored under key.
func (c Context) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the stored keys in sorted order.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored values.
func (c Context) Len() int { return len(c.values) }

// PhaseDetails is the fixed argument of the pre and post waterfalls.
type PhaseDetails struct {
	Configuration *WorkspaceConfiguration
	Options       BuildOptions
}

// BuildWorkspaceHooks are the workspace-level build hooks.
type BuildWorkspaceHooks struct {
	Configure *hook.Series[*WorkspaceConfiguration]
	Pre       *hook.Waterfall[[]step.Step, PhaseDetails]
	Post      *hook.Waterfall[[]step.Step, PhaseDetails]
}

// NewBuildWorkspaceHooks creates a fresh set of workspace build hooks.
func NewBuildWorkspaceHooks() *BuildWorkspaceHooks {
	return &BuildWorkspaceHooks{
		Configure: hook.NewSeries[*WorkspaceConfiguration](HookConfigure),
		Pre:       hook.NewWaterfall[[]step.Step, PhaseDetails](HookPre),
		Post:      hook.NewWaterfall[[]step.Step, PhaseDetails](HookPost),
	}
}

// BuildWorkspaceTask is the argument of the workspace build hook.
type BuildWorkspaceTask struct {
	Hooks     *BuildWorkspaceHooks
	Options   BuildOptions
	Workspace *workspace.Workspace
}

// ConfigureArgs is the argument of a project's configure series.
type ConfigureArgs struct {
	Config  *Configuration
	Variant Variant
}

// StepDetails is the fixed argument of a project's steps waterfall.
type StepDetails struct {
	Variant Variant
	Config  *Configuration
	Context Context
	Options BuildOptions
}

// BuildHooks are the per-project hooks driving variant resolution.
type BuildHooks struct {
	Variants  *hook.Waterfall[[]Variant, struct{}]
	Configure *hook.Series[ConfigureArgs]
	Context   *hook.Waterfall[Context, struct{}]
	Steps     *hook.Waterfall[[]step.Step, StepDetails]
}

// NewBuildHooks creates a fresh set of project build hooks.
func NewBuildHooks() *BuildHooks {
	return &BuildHooks{
		Variants:  hook.NewWaterfall[[]Variant, struct{}](HookVariants),
		Configure: hook.NewSeries[ConfigureArgs](HookConfigure),
		Context:   hook.NewWaterfall[Context, struct{}](HookContext),
		Steps:     hook.NewWaterfall[[]step.Step, StepDetails](HookSteps),
	}
}

// ProjectTarget is the argument of the two-tier project hooks.
type ProjectTarget struct {
	Project workspace.Project
	Hooks   *BuildHooks
}

// BuildProjectHooks fan a project out to plugins: Project fires for every
// project, then the hook matching its kind.
type BuildProjectHooks struct {
	Project *hook.Series[*ProjectTarget]
	WebApp  *hook.Series[*ProjectTarget]
	Service *hook.Series[*ProjectTarget]
	Package *hook.Series[*ProjectTarget]
}

// NewBuildProjectHooks creates a fresh set of two-tier project hooks.
func NewBuildProjectHooks() *BuildProjectHooks {
	return &BuildProjectHooks{
		Project: hook.NewSeries[*ProjectTarget](HookProject),
		WebApp:  hook.NewSeries[*ProjectTarget](HookWebApp),
		Service: hook.NewSeries[*ProjectTarget](HookService),
		Package: hook.NewSeries[*ProjectTarget](HookPackage),
	}
}

// Dispatch fires Project and then the kind-specific hook with the same
// target.
func (h *BuildProjectHooks) Dispatch(ctx context.Context, target *ProjectTarget) error {
	if err := h.Project.Call(ctx, target); err != nil {
		return err
	}
	switch target.Project.Kind {
	case workspace.KindWebApp:
		return h.WebApp.Call(ctx, target)
	case workspace.KindService:
		return h.Service.Call(ctx, target)
	case workspace.KindPackage:
		return h.Package.Call(ctx, target)
	}
	return nil
}

// BuildProjectTask is the argument of a project's build hook.
type BuildProjectTask struct {
	Hooks     *BuildProjectHooks
	Options   BuildOptions
	Project   workspace.Project
	Workspace *workspace.Workspace
}

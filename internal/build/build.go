package build

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Iron-Ham/weft/internal/errors"
	"github.com/Iron-Ham/weft/internal/logging"
	"github.com/Iron-Ham/weft/internal/step"
	"github.com/Iron-Ham/weft/internal/tasks"
	"github.com/Iron-Ham/weft/internal/ui"
	"github.com/Iron-Ham/weft/internal/workspace"
)

const tracerName = "github.com/Iron-Ham/weft/internal/build"

// SuccessMessage is the epilogue of a successful build.
const SuccessMessage = "build completed successfully!"

// Context holds the collaborators of one build invocation.
type Context struct {
	Workspace *workspace.Workspace
	Delegate  tasks.Delegate
	UI        ui.UI
	// Logger is optional; the context logger is used when nil.
	Logger *logging.Logger
	// Concurrency bounds how many projects resolve at once. Zero means no
	// bound.
	Concurrency int
}

// ProjectSteps is the resolved step list of one project.
type ProjectSteps struct {
	Project workspace.Project
	Steps   []step.Step
}

// Plan is everything a build executes, in execution order.
type Plan struct {
	Pre      []step.Step
	WebApps  []ProjectSteps
	Packages []ProjectSteps
	Services []ProjectSteps
	Post     []step.Step
}

// Groups returns the project groups in execution order.
func (p *Plan) Groups() []ProjectSteps {
	out := make([]ProjectSteps, 0, len(p.WebApps)+len(p.Packages)+len(p.Services))
	out = append(out, p.WebApps...)
	out = append(out, p.Packages...)
	out = append(out, p.Services...)
	return out
}

// Run resolves and executes a build. It returns the first tap or step
// error; no step runs when resolution fails.
func Run(ctx context.Context, bc Context, opts tasks.BuildOptions) (err error) {
	if bc.Workspace == nil || bc.Delegate == nil || bc.UI == nil {
		return fmt.Errorf("build: workspace, delegate and ui are required")
	}

	buildID := uuid.NewString()
	logger := bc.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	logger = logger.WithBuild(buildID)
	ctx = logging.WithContext(ctx, logger)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "build.run",
		trace.WithAttributes(
			attribute.String("weft.build.id", buildID),
			attribute.String("weft.workspace", bc.Workspace.Name),
			attribute.Int("weft.schema_version", tasks.SchemaVersion),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("build failed", "error", err.Error())
		}
		span.End()
	}()

	logger.Info("build started", "workspace", bc.Workspace.Name, "projects", len(bc.Workspace.Projects()))

	plan, err := Resolve(ctx, bc, opts)
	if err != nil {
		return err
	}

	err = bc.UI.Run(ctx, func(ctx context.Context, r ui.Runner) error {
		return Execute(ctx, r, plan, opts)
	})
	if err != nil {
		return err
	}

	logger.Info("build completed")
	return nil
}

// Execute hands a resolved plan to a runner in the fixed phase order.
func Execute(ctx context.Context, r ui.Runner, plan *Plan, opts tasks.BuildOptions) error {
	r.Title("build")
	warnLiteralSkips(ctx, opts)

	if err := r.Pre(logging.WithContext(ctx, logging.FromContext(ctx).WithPhase("pre")), plan.Pre, opts.SkipPre); err != nil {
		return err
	}

	r.Separator()

	for _, g := range plan.Groups() {
		gctx := logging.WithContext(ctx, logging.FromContext(ctx).WithProject(g.Project.Name))
		if err := r.Steps(gctx, g.Steps, ui.StepsOptions{ID: g.Project.ID(), Skip: opts.Skip}); err != nil {
			return err
		}
	}

	if err := r.Post(logging.WithContext(ctx, logging.FromContext(ctx).WithPhase("post")), plan.Post, opts.SkipPost); err != nil {
		return err
	}

	r.Epilogue(SuccessMessage)
	return nil
}

// Resolve lets the plugins build the plan without running any step.
func Resolve(ctx context.Context, bc Context, opts tasks.BuildOptions) (*Plan, error) {
	ws := bc.Workspace
	logger := logging.FromContext(ctx)

	wsTasks, err := tasks.CreateWorkspaceTasks(ctx, ws, bc.Delegate)
	if err != nil {
		return nil, err
	}
	wsHooks := tasks.NewBuildWorkspaceHooks()
	if err := wsTasks.Build.Call(ctx, &tasks.BuildWorkspaceTask{Hooks: wsHooks, Options: opts, Workspace: ws}); err != nil {
		return nil, err
	}

	projects := ws.Projects()
	resolved, err := step.Map(ctx, len(projects), bc.Concurrency, func(ctx context.Context, i int) (ProjectSteps, error) {
		return resolveProject(ctx, projects[i], ws, bc.Delegate, opts)
	})
	if err != nil {
		return nil, err
	}

	wsConfig := tasks.NewWorkspaceConfiguration()
	if err := wsHooks.Configure.Call(ctx, wsConfig); err != nil {
		return nil, err
	}
	details := tasks.PhaseDetails{Configuration: wsConfig, Options: opts}
	pre, err := wsHooks.Pre.Call(ctx, []step.Step{}, details)
	if err != nil {
		return nil, err
	}
	post, err := wsHooks.Post.Call(ctx, []step.Step{}, details)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Pre: pre, Post: post}
	for _, ps := range resolved {
		switch ps.Project.Kind {
		case workspace.KindWebApp:
			plan.WebApps = append(plan.WebApps, ps)
		case workspace.KindPackage:
			plan.Packages = append(plan.Packages, ps)
		case workspace.KindService:
			plan.Services = append(plan.Services, ps)
		}
	}

	logger.Debug("build resolved",
		"pre", len(plan.Pre),
		"post", len(plan.Post),
		"web_apps", len(plan.WebApps),
		"packages", len(plan.Packages),
		"services", len(plan.Services),
	)
	return plan, nil
}

// resolveProject applies a project's plugins and resolves its steps. Errors
// are wrapped in a ProjectError naming the stage that failed.
func resolveProject(ctx context.Context, project workspace.Project, ws *workspace.Workspace, delegate tasks.Delegate, opts tasks.BuildOptions) (ProjectSteps, error) {
	ctx = logging.WithContext(ctx, logging.FromContext(ctx).WithProject(project.Name))
	ctx, span := otel.Tracer(tracerName).Start(ctx, "build.project",
		trace.WithAttributes(
			attribute.String("weft.project", project.Name),
			attribute.String("weft.project.kind", project.Kind.String()),
		),
	)
	defer span.End()

	fail := func(stage string, err error) (ProjectSteps, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var projectErr *errors.ProjectError
		if errors.As(err, &projectErr) {
			return ProjectSteps{}, err
		}
		return ProjectSteps{}, errors.NewProjectError(project.Name, stage, err)
	}

	projectTasks, err := tasks.CreateProjectTasks(ctx, project, ws, delegate)
	if err != nil {
		return fail("plugin loading", err)
	}

	projectHooks := tasks.NewBuildProjectHooks()
	task := &tasks.BuildProjectTask{Hooks: projectHooks, Options: opts, Project: project, Workspace: ws}
	if err := projectTasks.Build.Call(ctx, task); err != nil {
		return fail("build hook", err)
	}

	target := &tasks.ProjectTarget{Project: project, Hooks: tasks.NewBuildHooks()}
	if err := projectHooks.Dispatch(ctx, target); err != nil {
		return fail("project hooks", err)
	}

	steps, err := resolveVariants(ctx, project, target.Hooks, opts)
	if err != nil {
		return fail("variant resolution", err)
	}
	return ProjectSteps{Project: project, Steps: steps}, nil
}

// warnLiteralSkips compiles every skip list before any step runs and reports
// entries that can only match an id literally.
func warnLiteralSkips(ctx context.Context, opts tasks.BuildOptions) {
	logger := logging.FromContext(ctx)
	lists := []struct {
		name     string
		patterns []string
	}{
		{"skip", opts.Skip},
		{"skip-pre", opts.SkipPre},
		{"skip-post", opts.SkipPost},
	}
	for _, l := range lists {
		for _, p := range ui.NewSkipFilter(l.patterns).LiteralOnly() {
			logger.Warn("skip pattern is not a valid glob, matching it literally", "option", l.name, "pattern", p)
		}
	}
}

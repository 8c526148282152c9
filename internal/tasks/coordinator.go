package tasks

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/weft/internal/hook"
	"github.com/Iron-Ham/weft/internal/logging"
	"github.com/Iron-Ham/weft/internal/workspace"
)

// WorkspaceTasks are the task hooks of the workspace as a whole.
type WorkspaceTasks struct {
	Build *hook.Series[*BuildWorkspaceTask]
}

// NewWorkspaceTasks creates fresh workspace task hooks.
func NewWorkspaceTasks() *WorkspaceTasks {
	return &WorkspaceTasks{Build: hook.NewSeries[*BuildWorkspaceTask](HookBuild)}
}

// ProjectTasks are the task hooks of one project.
type ProjectTasks struct {
	Build *hook.Series[*BuildProjectTask]
}

// NewProjectTasks creates fresh project task hooks.
func NewProjectTasks() *ProjectTasks {
	return &ProjectTasks{Build: hook.NewSeries[*BuildProjectTask](HookBuild)}
}

// WorkspacePlugin taps workspace task hooks.
type WorkspacePlugin interface {
	Token() hook.Token
	ApplyWorkspace(tasks *WorkspaceTasks)
}

// ProjectPlugin taps project task hooks.
type ProjectPlugin interface {
	Token() hook.Token
	ApplyProject(tasks *ProjectTasks)
}

// Delegate resolves the ordered plugins that apply to the workspace or to a
// single project.
type Delegate interface {
	WorkspacePlugins(ctx context.Context, ws *workspace.Workspace) ([]WorkspacePlugin, error)
	ProjectPlugins(ctx context.Context, project workspace.Project, ws *workspace.Workspace) ([]ProjectPlugin, error)
}

// CreateWorkspaceTasks creates fresh workspace task hooks and applies the
// delegate's workspace plugins to them, in order.
func CreateWorkspaceTasks(ctx context.Context, ws *workspace.Workspace, delegate Delegate) (*WorkspaceTasks, error) {
	plugins, err := delegate.WorkspacePlugins(ctx, ws)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace plugins: %w", err)
	}

	logger := logging.FromContext(ctx)
	tasks := NewWorkspaceTasks()
	for _, p := range plugins {
		logger.Debug("applying workspace plugin", "plugin", p.Token().String())
		p.ApplyWorkspace(tasks)
	}
	return tasks, nil
}

// CreateProjectTasks creates fresh task hooks for project and applies the
// delegate's project plugins to them, in order.
func CreateProjectTasks(ctx context.Context, project workspace.Project, ws *workspace.Workspace, delegate Delegate) (*ProjectTasks, error) {
	plugins, err := delegate.ProjectPlugins(ctx, project, ws)
	if err != nil {
		return nil, fmt.Errorf("failed to load plugins for %s: %w", project.Name, err)
	}

	logger := logging.FromContext(ctx)
	tasks := NewProjectTasks()
	for _, p := range plugins {
		logger.Debug("applying project plugin", "plugin", p.Token().String(), "project", project.Name)
		p.ApplyProject(tasks)
	}
	return tasks, nil
}

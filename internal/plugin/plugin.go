// Package plugin builds task plugins from plain functions and resolves the
// plugins a workspace manifest names.
package plugin

import (
	"github.com/Iron-Ham/weft/internal/hook"
	"github.com/Iron-Ham/weft/internal/tasks"
)

// Workspace is a workspace plugin backed by a function.
type Workspace struct {
	token hook.Token
	apply func(*tasks.WorkspaceTasks)
}

// NewWorkspace creates a workspace plugin that runs apply against the
// workspace task hooks.
func NewWorkspace(token hook.Token, apply func(*tasks.WorkspaceTasks)) *Workspace {
	return &Workspace{token: token, apply: apply}
}

// Token returns the plugin's registration token.
func (p *Workspace) Token() hook.Token { return p.token }

// ApplyWorkspace taps the workspace task hooks.
func (p *Workspace) ApplyWorkspace(t *tasks.WorkspaceTasks) {
	if p.apply != nil {
		p.apply(t)
	}
}

// Project is a project plugin backed by a function.
type Project struct {
	token hook.Token
	apply func(*tasks.ProjectTasks)
}

// NewProject creates a project plugin that runs apply against a project's
// task hooks.
func NewProject(token hook.Token, apply func(*tasks.ProjectTasks)) *Project {
	return &Project{token: token, apply: apply}
}

// Token returns the plugin's registration token.
func (p *Project) Token() hook.Token { return p.token }

// ApplyProject taps a project's task hooks.
func (p *Project) ApplyProject(t *tasks.ProjectTasks) {
	if p.apply != nil {
		p.apply(t)
	}
}

// ComposeWorkspace bundles plugins under one name. The bundle applies its
// members in the order given.
func ComposeWorkspace(name string, plugins ...tasks.WorkspacePlugin) *Workspace {
	members := append([]tasks.WorkspacePlugin(nil), plugins...)
	return NewWorkspace(hook.Token{Plugin: name}, func(t *tasks.WorkspaceTasks) {
		for _, p := range members {
			p.ApplyWorkspace(t)
		}
	})
}

// ComposeProject bundles plugins under one name. The bundle applies its
// members in the order given.
func ComposeProject(name string, plugins ...tasks.ProjectPlugin) *Project {
	members := append([]tasks.ProjectPlugin(nil), plugins...)
	return NewProject(hook.Token{Plugin: name}, func(t *tasks.ProjectTasks) {
		for _, p := range members {
			p.ApplyProject(t)
		}
	})
}

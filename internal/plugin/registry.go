package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Iron-Ham/weft/internal/errors"
	"github.com/Iron-Ham/weft/internal/tasks"
	"github.com/Iron-Ham/weft/internal/workspace"
)

// entry holds the plugins registered under one name. Either half may be nil.
type entry struct {
	workspace tasks.WorkspacePlugin
	project   tasks.ProjectPlugin
}

// Registry maps manifest plugin names to plugins.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds the plugins known under name. Either ws or p may be nil, not
// both.
func (r *Registry) Register(name string, ws tasks.WorkspacePlugin, p tasks.ProjectPlugin) error {
	if name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if ws == nil && p == nil {
		return fmt.Errorf("plugin %q has neither a workspace nor a project half", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %s", errors.ErrDuplicatePlugin, name)
	}
	r.entries[name] = entry{workspace: ws, project: p}
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// registering built-in plugins at startup.
func (r *Registry) MustRegister(name string, ws tasks.WorkspacePlugin, p tasks.ProjectPlugin) {
	if err := r.Register(name, ws, p); err != nil {
		panic(err)
	}
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return entry{}, fmt.Errorf("%w: %q", errors.ErrUnknownPlugin, name)
	}
	return e, nil
}

// Delegate returns a task delegate resolving manifest plugin names through
// r. Workspace plugins come from the workspace's list. Project plugins come
// from the project's own list, or the workspace's list when the project
// names none. A name whose plugin has no half for the requested level is
// skipped at that level; a name with no registration is an error.
func (r *Registry) Delegate() *Delegate {
	return &Delegate{registry: r}
}

// Delegate resolves plugins from a Registry.
type Delegate struct {
	registry *Registry
}

// WorkspacePlugins implements tasks.Delegate.
func (d *Delegate) WorkspacePlugins(_ context.Context, ws *workspace.Workspace) ([]tasks.WorkspacePlugin, error) {
	var out []tasks.WorkspacePlugin
	for _, name := range ws.Plugins {
		e, err := d.registry.lookup(name)
		if err != nil {
			return nil, err
		}
		if e.workspace != nil {
			out = append(out, e.workspace)
		}
	}
	return out, nil
}

// ProjectPlugins implements tasks.Delegate.
func (d *Delegate) ProjectPlugins(_ context.Context, project workspace.Project, ws *workspace.Workspace) ([]tasks.ProjectPlugin, error) {
	names := project.Plugins
	if len(names) == 0 {
		names = ws.Plugins
	}
	var out []tasks.ProjectPlugin
	for _, name := range names {
		e, err := d.registry.lookup(name)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", project.Name, err)
		}
		if e.project != nil {
			out = append(out, e.project)
		}
	}
	return out, nil
}

// Static is a delegate returning the same plugins for every target.
type Static struct {
	Workspace []tasks.WorkspacePlugin
	Project   []tasks.ProjectPlugin
}

// WorkspacePlugins implements tasks.Delegate.
func (s Static) WorkspacePlugins(context.Context, *workspace.Workspace) ([]tasks.WorkspacePlugin, error) {
	return s.Workspace, nil
}

// ProjectPlugins implements tasks.Delegate.
func (s Static) ProjectPlugins(context.Context, workspace.Project, *workspace.Workspace) ([]tasks.ProjectPlugin, error) {
	return s.Project, nil
}

var (
	_ tasks.Delegate = (*Delegate)(nil)
	_ tasks.Delegate = Static{}
)

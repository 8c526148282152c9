// Package workspace models the buildable projects of a workspace and loads
// them from a manifest file.
//
// A workspace holds ordered lists of web apps, services and packages. The
// model is read-only for the duration of a build; the build engine never
// mutates it.
package workspace

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/weft/internal/errors"
	"github.com/Iron-Ham/weft/internal/variant"
)

// Kind is a project's type tag.
type Kind int

// Project kinds.
const (
	KindWebApp Kind = iota
	KindService
	KindPackage
)

// String returns the manifest tag of the kind.
func (k Kind) String() string {
	switch k {
	case KindWebApp:
		return "web-app"
	case KindService:
		return "service"
	case KindPackage:
		return "package"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Noun returns the human-readable name used in step labels.
func (k Kind) Noun() string {
	switch k {
	case KindWebApp:
		return "web app"
	case KindService:
		return "service"
	case KindPackage:
		return "package"
	default:
		return "project"
	}
}

// ParseKind parses a manifest tag. It accepts "web-app", "webapp" and
// "web_app" for web apps.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "web-app", "webapp", "web_app":
		return KindWebApp, nil
	case "service":
		return KindService, nil
	case "package":
		return KindPackage, nil
	default:
		return 0, fmt.Errorf("%w: %q", errors.ErrUnknownProjectKind, s)
	}
}

// Command is a shell command declared in the manifest. The command plugin
// turns commands into build steps.
type Command struct {
	ID    string
	Label string
	Run   string
}

// Project is a buildable unit.
type Project struct {
	Name string
	Kind Kind
	// Root is the absolute directory the project lives in.
	Root string
	// Plugins names the project plugins to apply. Empty means the
	// workspace-level list.
	Plugins  []string
	Env      map[string]string
	Variants []variant.Variant
	Commands []Command
}

// ID returns the identity used for reporting and skip matching.
func (p Project) ID() string { return p.Name }

// Workspace is the full set of buildable projects.
type Workspace struct {
	Name string
	// Root is the absolute directory holding the manifest.
	Root string
	// Path is the manifest file the workspace was loaded from, if any.
	Path     string
	Plugins  []string
	Pre      []Command
	Post     []Command
	WebApps  []Project
	Services []Project
	Packages []Project
}

// New creates an empty workspace.
func New(name, root string) *Workspace {
	return &Workspace{Name: name, Root: root}
}

// Add appends a project to the list matching its kind.
func (w *Workspace) Add(p Project) *Workspace {
	switch p.Kind {
	case KindWebApp:
		w.WebApps = append(w.WebApps, p)
	case KindService:
		w.Services = append(w.Services, p)
	case KindPackage:
		w.Packages = append(w.Packages, p)
	}
	return w
}

// Projects returns every project in build order: web apps, then packages,
// then services.
func (w *Workspace) Projects() []Project {
	out := make([]Project, 0, len(w.WebApps)+len(w.Packages)+len(w.Services))
	out = append(out, w.WebApps...)
	out = append(out, w.Packages...)
	out = append(out, w.Services...)
	return out
}

// Find returns the project with the given name.
func (w *Workspace) Find(name string) (Project, bool) {
	for _, p := range w.Projects() {
		if p.Name == name {
			return p, true
		}
	}
	return Project{}, false
}

// Validate checks names are present and unique across all kinds.
func (w *Workspace) Validate() error {
	seen := make(map[string]bool)
	for _, p := range w.Projects() {
		if strings.TrimSpace(p.Name) == "" {
			return errors.NewManifestError(w.Path, fmt.Sprintf("%s without a name", p.Kind.Noun()), errors.ErrInvalidManifest)
		}
		if seen[p.Name] {
			return errors.NewManifestError(w.Path, p.Name, errors.ErrDuplicateProject)
		}
		seen[p.Name] = true
	}
	ids := make(map[string]bool)
	for _, c := range append(append([]Command{}, w.Pre...), w.Post...) {
		if strings.TrimSpace(c.Run) == "" {
			return errors.NewManifestError(w.Path, fmt.Sprintf("workspace command %q has nothing to run", c.Label), errors.ErrInvalidManifest)
		}
		if c.ID != "" && ids[c.ID] {
			return errors.NewManifestError(w.Path, fmt.Sprintf("duplicate command id %q", c.ID), errors.ErrInvalidManifest)
		}
		ids[c.ID] = true
	}
	return nil
}

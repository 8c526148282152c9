package tasks

import (
	"fmt"
	"sync"

	"github.com/Iron-Ham/weft/internal/errors"
)

// Key identifies a capability of type H. Keys compare by identity, so two
// keys created with the same name never collide.
type Key[H any] struct {
	id *keyID
}

type keyID struct {
	name string
}

// NewKey creates a capability key. Plugins usually declare keys as package
// variables and export them for plugins that extend them.
func NewKey[H any](name string) Key[H] {
	return Key[H]{id: &keyID{name: name}}
}

// Name returns the key's diagnostic name.
func (k Key[H]) Name() string {
	if k.id == nil {
		return ""
	}
	return k.id.name
}

// capabilities is a concurrency-safe map from key identity to value.
type capabilities struct {
	mu     sync.RWMutex
	values map[*keyID]any
	order  []string
}

func (c *capabilities) set(id *keyID, v any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[*keyID]any)
	}
	if _, ok := c.values[id]; ok {
		return false
	}
	c.values[id] = v
	c.order = append(c.order, id.name)
	return true
}

func (c *capabilities) get(id *keyID) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[id]
	return v, ok
}

func (c *capabilities) names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Registry is implemented by the configuration records plugins attach
// capabilities to.
type Registry interface {
	registry() *capabilities
}

// Configuration is the capability registry for one (project, variant) pass.
// A fresh Configuration is allocated per pass and discarded once that pass
// has produced its steps.
type Configuration struct {
	caps capabilities
}

// NewConfiguration creates an empty configuration record.
func NewConfiguration() *Configuration { return &Configuration{} }

func (c *Configuration) registry() *capabilities { return &c.caps }

// Capabilities returns the names of provided capabilities in the order they
// were provided.
func (c *Configuration) Capabilities() []string { return c.caps.names() }

// WorkspaceConfiguration is the capability registry filled by the workspace
// configure hook.
type WorkspaceConfiguration struct {
	caps capabilities
}

// NewWorkspaceConfiguration creates an empty workspace configuration record.
func NewWorkspaceConfiguration() *WorkspaceConfiguration { return &WorkspaceConfiguration{} }

func (c *WorkspaceConfiguration) registry() *capabilities { return &c.caps }

// Capabilities returns the names of provided capabilities in the order they
// were provided.
func (c *WorkspaceConfiguration) Capabilities() []string { return c.caps.names() }

// Provide attaches h under key. Providing the same key twice is an error;
// plugins that want to extend an existing capability Lookup it instead.
func Provide[H any](r Registry, key Key[H], h H) error {
	if key.id == nil {
		return fmt.Errorf("provide: zero capability key")
	}
	if !r.registry().set(key.id, h) {
		return fmt.Errorf("%w: %s", errors.ErrCapabilityExists, key.id.name)
	}
	return nil
}

// Lookup returns the capability provided under key.
func Lookup[H any](r Registry, key Key[H]) (H, bool) {
	var zero H
	if key.id == nil {
		return zero, false
	}
	v, ok := r.registry().get(key.id)
	if !ok {
		return zero, false
	}
	h, ok := v.(H)
	return h, ok
}

// Ensure returns the capability under key, providing the result of create
// first if no plugin has yet. It lets independent plugins share a hook
// without depending on application order.
func Ensure[H any](r Registry, key Key[H], create func() H) H {
	if h, ok := Lookup(r, key); ok {
		return h
	}
	h := create()
	if err := Provide(r, key, h); err != nil {
		// Lost a race with a concurrent provider; use theirs.
		existing, _ := Lookup(r, key)
		return existing
	}
	return h
}

package workspace

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/weft/internal/errors"
	"github.com/Iron-Ham/weft/internal/variant"
)

type yamlCommand struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Run   string `yaml:"run"`
}

type yamlProject struct {
	Name     string            `yaml:"name"`
	Root     string            `yaml:"root"`
	Plugins  []string          `yaml:"plugins"`
	Env      map[string]string `yaml:"env"`
	Variants []yaml.Node       `yaml:"variants"`
	Commands []yamlCommand     `yaml:"commands"`
}

type yamlManifest struct {
	Name     string        `yaml:"name"`
	Plugins  []string      `yaml:"plugins"`
	Pre      []yamlCommand `yaml:"pre"`
	Post     []yamlCommand `yaml:"post"`
	WebApps  []yamlProject `yaml:"web_apps"`
	Services []yamlProject `yaml:"services"`
	Packages []yamlProject `yaml:"packages"`
}

func decodeYAML(data []byte, path string) (*Workspace, error) {
	var m yamlManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.NewManifestError(path, "failed to parse YAML", err)
	}

	base := filepath.Dir(path)
	ws := New(defaultName(m.Name, path), base)
	ws.Path = path
	ws.Plugins = m.Plugins
	ws.Pre = yamlCommands(m.Pre)
	ws.Post = yamlCommands(m.Post)

	groups := []struct {
		kind     Kind
		projects []yamlProject
	}{
		{KindWebApp, m.WebApps},
		{KindService, m.Services},
		{KindPackage, m.Packages},
	}
	for _, g := range groups {
		for _, yp := range g.projects {
			p, err := yp.toProject(g.kind, base)
			if err != nil {
				return nil, errors.NewManifestError(path, fmt.Sprintf("%s %q", g.kind.Noun(), yp.Name), err)
			}
			ws.Add(p)
		}
	}
	return ws, nil
}

func (yp yamlProject) toProject(kind Kind, base string) (Project, error) {
	p := Project{
		Name:     yp.Name,
		Kind:     kind,
		Root:     resolveRoot(base, yp.Root),
		Plugins:  yp.Plugins,
		Env:      yp.Env,
		Commands: yamlCommands(yp.Commands),
	}
	for i := range yp.Variants {
		v, err := yamlVariant(&yp.Variants[i])
		if err != nil {
			return Project{}, err
		}
		p.Variants = append(p.Variants, v)
	}
	return p, nil
}

// yamlVariant decodes a mapping node keeping the source order of its keys.
func yamlVariant(node *yaml.Node) (variant.Variant, error) {
	if node.Kind != yaml.MappingNode {
		return variant.Variant{}, fmt.Errorf("variant at line %d is not a mapping", node.Line)
	}
	var v variant.Variant
	for i := 0; i+1 < len(node.Content); i += 2 {
		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return variant.Variant{}, fmt.Errorf("variant axis %q: %w", node.Content[i].Value, err)
		}
		v = v.With(node.Content[i].Value, value)
	}
	return v, nil
}

func yamlCommands(in []yamlCommand) []Command {
	if len(in) == 0 {
		return nil
	}
	out := make([]Command, len(in))
	for i, c := range in {
		out[i] = Command(c)
	}
	return out
}

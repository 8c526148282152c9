package workspace

import (
	"fmt"
	"math/big"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/Iron-Ham/weft/internal/errors"
	"github.com/Iron-Ham/weft/internal/variant"
)

type hclCommand struct {
	Label string `hcl:"label,label"`
	ID    string `hcl:"id,optional"`
	Run   string `hcl:"run"`
}

type hclVariant struct {
	Remain hcl.Body `hcl:",remain"`
}

type hclProject struct {
	Name     string            `hcl:"name,label"`
	Root     string            `hcl:"root,optional"`
	Plugins  []string          `hcl:"plugins,optional"`
	Env      map[string]string `hcl:"env,optional"`
	Variants []*hclVariant     `hcl:"variant,block"`
	Commands []*hclCommand     `hcl:"command,block"`
}

type hclPhase struct {
	Commands []*hclCommand `hcl:"command,block"`
}

type hclManifest struct {
	Name     string        `hcl:"name,optional"`
	Plugins  []string      `hcl:"plugins,optional"`
	Pre      []*hclPhase   `hcl:"pre,block"`
	Post     []*hclPhase   `hcl:"post,block"`
	WebApps  []*hclProject `hcl:"web_app,block"`
	Services []*hclProject `hcl:"service,block"`
	Packages []*hclProject `hcl:"package,block"`
}

func decodeHCL(data []byte, path string) (*Workspace, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, errors.NewManifestError(path, "failed to parse HCL", diags)
	}

	var m hclManifest
	if diags := gohcl.DecodeBody(file.Body, nil, &m); diags.HasErrors() {
		return nil, errors.NewManifestError(path, "failed to decode HCL", diags)
	}

	base := filepath.Dir(path)
	ws := New(defaultName(m.Name, path), base)
	ws.Path = path
	ws.Plugins = m.Plugins
	for _, phase := range m.Pre {
		ws.Pre = append(ws.Pre, hclCommands(phase.Commands)...)
	}
	for _, phase := range m.Post {
		ws.Post = append(ws.Post, hclCommands(phase.Commands)...)
	}

	groups := []struct {
		kind     Kind
		projects []*hclProject
	}{
		{KindWebApp, m.WebApps},
		{KindService, m.Services},
		{KindPackage, m.Packages},
	}
	for _, g := range groups {
		for _, hp := range g.projects {
			p := Project{
				Name:     hp.Name,
				Kind:     g.kind,
				Root:     resolveRoot(base, hp.Root),
				Plugins:  hp.Plugins,
				Env:      hp.Env,
				Commands: hclCommands(hp.Commands),
			}
			for _, hv := range hp.Variants {
				v, err := hclVariantValue(hv)
				if err != nil {
					return nil, errors.NewManifestError(path, fmt.Sprintf("%s %q", g.kind.Noun(), hp.Name), err)
				}
				p.Variants = append(p.Variants, v)
			}
			ws.Add(p)
		}
	}
	return ws, nil
}

// hclVariantValue evaluates a variant block's attributes in source order.
// HCL hands attributes back as a map, so order is recovered from byte offsets.
func hclVariantValue(hv *hclVariant) (variant.Variant, error) {
	attrs, diags := hv.Remain.JustAttributes()
	if diags.HasErrors() {
		return variant.Variant{}, diags
	}

	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, a := range attrs {
		ordered = append(ordered, a)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	var v variant.Variant
	for _, a := range ordered {
		val, diags := a.Expr.Value(nil)
		if diags.HasErrors() {
			return variant.Variant{}, diags
		}
		goVal, err := ctyToGo(val)
		if err != nil {
			return variant.Variant{}, fmt.Errorf("variant axis %q: %w", a.Name, err)
		}
		v = v.With(a.Name, goVal)
	}
	return v, nil
}

func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	ty := val.Type()
	switch {
	case ty.Equals(cty.Bool):
		return val.True(), nil
	case ty.Equals(cty.String):
		return val.AsString(), nil
	case ty.Equals(cty.Number):
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported type %s", ty.FriendlyName())
	}
}

func hclCommands(in []*hclCommand) []Command {
	if len(in) == 0 {
		return nil
	}
	out := make([]Command, len(in))
	for i, c := range in {
		out[i] = Command{ID: c.ID, Label: c.Label, Run: c.Run}
	}
	return out
}

// Package command provides the built-in "command" plugin, which turns the
// shell commands declared in a workspace manifest into build steps.
//
// At project level the plugin declares the manifest's variants, provides the
// EnvKey capability during configure and adds one step per project command.
// Other plugins can tap the env waterfall they find under EnvKey to extend
// the environment of every command step. At workspace level it adds the
// manifest's pre and post commands as phase steps, keyed by their ids so
// --skip-pre and --skip-post can address them.
//
// Commands run through "sh -c" in the project root. Each line written to
// stdout is reported at info level and each line written to stderr at warn
// level.
package command

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"unicode"

	"github.com/Iron-Ham/weft/internal/hook"
	"github.com/Iron-Ham/weft/internal/logging"
	"github.com/Iron-Ham/weft/internal/plugin"
	"github.com/Iron-Ham/weft/internal/step"
	"github.com/Iron-Ham/weft/internal/tasks"
	"github.com/Iron-Ham/weft/internal/workspace"
)

// Name is the manifest name of the plugin.
const Name = "command"

// Token identifies the plugin's taps.
var Token = hook.Token{Plugin: Name, Version: "1"}

// EnvHook computes the environment of a variant's command steps.
type EnvHook = hook.Waterfall[map[string]string, tasks.Variant]

// EnvKey is the capability under which the env waterfall is provided.
var EnvKey = tasks.NewKey[*EnvHook]("command.env")

// Environment variables set for every command.
const (
	EnvVariantPrefix = "WEFT_VARIANT_"
	EnvSourceMaps    = "WEFT_SOURCE_MAPS"
	EnvProject       = "WEFT_PROJECT"
)

// Plugin runs manifest commands.
type Plugin struct {
	shell   string
	environ func() []string
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithShell sets the shell used to run commands. Defaults to "sh".
func WithShell(shell string) Option {
	return func(p *Plugin) { p.shell = shell }
}

// WithEnviron sets the base environment commands inherit. Defaults to
// os.Environ.
func WithEnviron(environ func() []string) Option {
	return func(p *Plugin) { p.environ = environ }
}

// New creates the command plugin.
func New(opts ...Option) *Plugin {
	p := &Plugin{shell: "sh", environ: os.Environ}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register adds both halves of the plugin to r under Name.
func (p *Plugin) Register(r *plugin.Registry) error {
	return r.Register(Name, p.Workspace(), p.Project())
}

// Project returns the project half of the plugin.
func (p *Plugin) Project() *plugin.Project {
	return plugin.NewProject(Token, func(t *tasks.ProjectTasks) {
		t.Build.Tap(Token, func(_ context.Context, task *tasks.BuildProjectTask) error {
			options := task.Options
			task.Hooks.Project.Tap(Token, func(_ context.Context, target *tasks.ProjectTarget) error {
				p.tapProject(target, options)
				return nil
			})
			return nil
		})
	})
}

// Workspace returns the workspace half of the plugin.
func (p *Plugin) Workspace() *plugin.Workspace {
	return plugin.NewWorkspace(Token, func(t *tasks.WorkspaceTasks) {
		t.Build.Tap(Token, func(_ context.Context, task *tasks.BuildWorkspaceTask) error {
			ws := task.Workspace
			task.Hooks.Pre.Tap(Token, func(_ context.Context, steps []step.Step, _ tasks.PhaseDetails) ([]step.Step, error) {
				return append(steps, p.phaseSteps(ws, ws.Pre)...), nil
			})
			task.Hooks.Post.Tap(Token, func(_ context.Context, steps []step.Step, _ tasks.PhaseDetails) ([]step.Step, error) {
				return append(steps, p.phaseSteps(ws, ws.Post)...), nil
			})
			return nil
		})
	})
}

func (p *Plugin) tapProject(target *tasks.ProjectTarget, options tasks.BuildOptions) {
	project := target.Project
	hooks := target.Hooks

	if len(project.Variants) > 0 {
		hooks.Variants.Tap(Token, func(_ context.Context, variants []tasks.Variant, _ struct{}) ([]tasks.Variant, error) {
			return append(variants, project.Variants...), nil
		})
	}

	hooks.Configure.Tap(Token, func(_ context.Context, args tasks.ConfigureArgs) error {
		env := tasks.Ensure(args.Config, EnvKey, func() *EnvHook {
			return hook.NewWaterfall[map[string]string, tasks.Variant]("command.env")
		})
		env.Tap(Token, func(_ context.Context, acc map[string]string, v tasks.Variant) (map[string]string, error) {
			return baseEnv(acc, project, v, options), nil
		})
		return nil
	})

	if len(project.Commands) == 0 {
		return
	}

	hooks.Steps.Tap(Token, func(ctx context.Context, steps []step.Step, details tasks.StepDetails) ([]step.Step, error) {
		envHook, ok := tasks.Lookup(details.Config, EnvKey)
		if !ok {
			return nil, fmt.Errorf("configuration has no %s capability", EnvKey.Name())
		}
		env, err := envHook.Call(ctx, map[string]string{}, details.Variant)
		if err != nil {
			return nil, err
		}
		environ := flatten(env)
		for _, c := range project.Commands {
			steps = append(steps, p.commandStep(c, project.Root, environ))
		}
		return steps, nil
	})
}

func (p *Plugin) phaseSteps(ws *workspace.Workspace, commands []workspace.Command) []step.Step {
	out := make([]step.Step, 0, len(commands))
	for _, c := range commands {
		out = append(out, p.commandStep(c, ws.Root, nil))
	}
	return out
}

func (p *Plugin) commandStep(c workspace.Command, dir string, env []string) step.Step {
	label := c.Label
	if label == "" {
		label = c.Run
	}
	script := c.Run
	return step.New(label, func(ctx context.Context, r step.Runner) error {
		return p.run(ctx, r, dir, env, script)
	}).WithID(c.ID)
}

func (p *Plugin) run(ctx context.Context, r step.Runner, dir string, env []string, script string) error {
	logging.FromContext(ctx).Debug("running command", "dir", dir, "command", script)

	cmd := exec.CommandContext(ctx, p.shell, "-c", script)
	cmd.Dir = dir
	cmd.Env = append(p.environ(), env...)

	stdout := newLineWriter(r, step.LevelInfo)
	stderr := newLineWriter(r, step.LevelWarn)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()
	if err != nil {
		return fmt.Errorf("command %q failed: %w", script, err)
	}
	return nil
}

// baseEnv adds the project env, the variant axes and the build options to
// acc. It returns a new map.
func baseEnv(acc map[string]string, project workspace.Project, v tasks.Variant, options tasks.BuildOptions) map[string]string {
	out := make(map[string]string, len(acc)+len(project.Env)+v.Len()+2)
	for k, val := range acc {
		out[k] = val
	}
	for k, val := range project.Env {
		out[k] = val
	}
	for _, axis := range v.Axes() {
		out[VariantEnvName(axis.Key)] = formatValue(axis.Value)
	}
	out[EnvSourceMaps] = fmt.Sprint(options.SourceMaps)
	out[EnvProject] = project.Name
	return out
}

// VariantEnvName returns the environment variable a variant axis is exported
// as: the axis key upper-cased, with every character that is not a letter or
// digit replaced by an underscore.
func VariantEnvName(key string) string {
	var b strings.Builder
	b.WriteString(EnvVariantPrefix)
	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// flatten renders env as sorted KEY=VALUE pairs.
func flatten(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

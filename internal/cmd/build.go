package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/weft/internal/build"
	"github.com/Iron-Ham/weft/internal/config"
	"github.com/Iron-Ham/weft/internal/logging"
	"github.com/Iron-Ham/weft/internal/plugin"
	"github.com/Iron-Ham/weft/internal/plugins/command"
	"github.com/Iron-Ham/weft/internal/tasks"
	"github.com/Iron-Ham/weft/internal/tracing"
	"github.com/Iron-Ham/weft/internal/ui"
	"github.com/Iron-Ham/weft/internal/watch"
	"github.com/Iron-Ham/weft/internal/workspace"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build every project in the workspace",
		Long: `Build resolves the steps of every project through the workspace's
plugins and runs them: pre steps, then web apps, packages and services, then
post steps.

--skip, --skip-pre and --skip-post accept ids or glob patterns and may be
repeated. With --watch, weft rebuilds whenever a file below the workspace
or a project root changes.`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}

	flags := cmd.Flags()
	flags.Bool("source-maps", false, "generate source maps")
	flags.StringSlice("skip", nil, "project ids or patterns to skip")
	flags.StringSlice("skip-pre", nil, "pre step ids or patterns to skip")
	flags.StringSlice("skip-post", nil, "post step ids or patterns to skip")
	flags.Int("concurrency", 0, "maximum projects resolved at once (0 = unbounded)")
	flags.StringP("manifest", "m", "", "workspace manifest (default: discovered from the working directory)")
	flags.BoolP("verbose", "v", false, "show debug output from steps")
	flags.String("color", "", "color output: auto, always or never")
	flags.BoolP("watch", "w", false, "rebuild when files change")
	flags.String("summary", "", "write a JSON summary of the build to this file")

	bindFlags(flags, map[string]string{
		"build.source_maps":  "source-maps",
		"build.skip":         "skip",
		"build.skip_pre":     "skip-pre",
		"build.skip_post":    "skip-post",
		"build.concurrency":  "concurrency",
		"workspace.manifest": "manifest",
		"ui.verbose":         "verbose",
		"ui.color":           "color",
	})

	return cmd
}

// bindFlags binds config keys to the named flags so flag values take
// precedence over the config file and environment.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := flags.Lookup(name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	manifest, err := resolveManifest(cfg.Workspace.Manifest)
	if err != nil {
		return err
	}
	ws, err := loadWorkspace(manifest, cfg)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging, ws.Root)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	ctx := logging.WithContext(cmd.Context(), logger)

	shutdown, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		logger.Warn("tracing disabled", "error", err.Error())
	}
	defer func() { _ = shutdown(context.Background()) }()

	registry, err := newRegistry()
	if err != nil {
		return err
	}

	opts := tasks.BuildOptions{
		SourceMaps: cfg.Build.SourceMaps,
		Skip:       cfg.Build.Skip,
		SkipPre:    cfg.Build.SkipPre,
		SkipPost:   cfg.Build.SkipPost,
	}
	summary, _ := cmd.Flags().GetString("summary")
	out := cmd.OutOrStdout()

	err = runOnce(ctx, out, ws, registry, cfg, opts, summary)

	watching, _ := cmd.Flags().GetBool("watch")
	if !watching {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(ws.Root, watch.Options{
		Debounce: cfg.Watch.Debounce(),
		Ignore:   watchIgnores(cfg, ws.Root, summary),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if err := w.AddWorkspace(ws); err != nil {
		w.Stop()
		return err
	}

	_, _ = fmt.Fprintln(out, "watching for changes (ctrl-c to stop)")
	return watch.Run(ctx, w, func(ctx context.Context, change watch.Change) error {
		_, _ = fmt.Fprintf(out, "\n%d file(s) changed, rebuilding\n", len(change.Paths))
		// The manifest itself may have changed.
		next, err := loadWorkspace(manifest, cfg)
		if err != nil {
			return err
		}
		return runOnce(ctx, out, next, registry, cfg, opts, summary)
	})
}

// watchIgnores extends the configured ignore patterns with the files a build
// writes itself, so a rebuild never triggers the next one. Outputs outside
// root need no pattern.
func watchIgnores(cfg *config.Config, root, summary string) []string {
	ignore := append([]string(nil), cfg.Watch.Ignore...)

	if cfg.Logging.Enabled && cfg.Logging.Dir != "" {
		dir := cfg.Logging.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		if rel, ok := relativeTo(root, dir); ok {
			ignore = append(ignore, glob.QuoteMeta(rel)+"/**")
		} else if rel == "." {
			ignore = append(ignore, glob.QuoteMeta(logging.LogFileName))
		}
	}

	if summary != "" {
		if abs, err := filepath.Abs(summary); err == nil {
			if rel, ok := relativeTo(root, abs); ok {
				ignore = append(ignore, glob.QuoteMeta(rel))
			}
		}
	}
	return ignore
}

// relativeTo returns path relative to root in slash form. ok is false when
// path is root itself or lies outside it.
func relativeTo(root, path string) (string, bool) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(abs, path)
	if err != nil {
		return "", false
	}
	if rel == "." {
		return rel, false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// runOnce performs a single build invocation rendered to out.
func runOnce(ctx context.Context, out io.Writer, ws *workspace.Workspace, registry *plugin.Registry, cfg *config.Config, opts tasks.BuildOptions, summary string) error {
	var view ui.UI = ui.NewTerminal(out, ui.TerminalOptions{
		Verbose:        cfg.UI.Verbose,
		Color:          ui.ColorMode(cfg.UI.Color),
		SeparatorWidth: cfg.UI.SeparatorWidth,
	})
	var rec *ui.Recorder
	if summary != "" {
		rec = ui.NewRecorder(view)
		view = rec
	}

	err := build.Run(ctx, build.Context{
		Workspace:   ws,
		Delegate:    registry.Delegate(),
		UI:          view,
		Concurrency: cfg.Build.Concurrency,
	}, opts)

	if rec != nil {
		if werr := writeSummary(summary, rec); werr != nil {
			logging.FromContext(ctx).Warn("failed to write summary", "path", summary, "error", werr.Error())
		}
	}
	return err
}

func writeSummary(path string, rec *ui.Recorder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rec.WriteJSON(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// resolveManifest returns the explicit manifest path or discovers one from
// the working directory.
func resolveManifest(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return workspace.Discover(wd)
}

// loadWorkspace loads the manifest and applies config overrides. A manifest
// naming no plugins gets the command plugin.
func loadWorkspace(manifest string, cfg *config.Config) (*workspace.Workspace, error) {
	ws, err := workspace.Load(manifest)
	if err != nil {
		return nil, err
	}
	if len(cfg.Workspace.Plugins) > 0 {
		ws.Plugins = cfg.Workspace.Plugins
	}
	if len(ws.Plugins) == 0 {
		ws.Plugins = []string{command.Name}
	}
	return ws, nil
}

// newLogger creates the structured logger. A relative log directory is
// resolved against the workspace root.
func newLogger(cfg config.LoggingConfig, root string) (*logging.Logger, error) {
	if !cfg.Enabled {
		return logging.NopLogger(), nil
	}
	dir := cfg.Dir
	if dir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return logging.NewLogger(dir, cfg.Level)
}

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gobwas/glob"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/weft/internal/build"
	"github.com/Iron-Ham/weft/internal/config"
	"github.com/Iron-Ham/weft/internal/errors"
	"github.com/Iron-Ham/weft/internal/testutil"
)

// executeCommand runs a fresh command tree with args and returns captured output
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

const manifest = `name: shop
pre:
  - id: prepare
    run: touch prepared.txt
web_apps:
  - name: storefront
    variants:
      - environment: production
    commands:
      - label: Bundle
        run: echo "bundling $WEFT_VARIANT_ENVIRONMENT"
`

func TestRootCommand(t *testing.T) {
	root := NewRootCmd()
	if root.Use != "weft" {
		t.Errorf("root.Use = %q, want %q", root.Use, "weft")
	}

	want := map[string]bool{"build": false, "config": false, "plugins": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestBuildCommand(t *testing.T) {
	dir := testutil.SetupWorkspace(t, map[string]string{"weft.yaml": manifest})
	summary := filepath.Join(t.TempDir(), "summary.json")

	out, err := executeCommand(t, "build",
		"--manifest", filepath.Join(dir, "weft.yaml"),
		"--color", "never",
		"--summary", summary,
	)
	if err != nil {
		t.Fatalf("build error = %v\n%s", err, out)
	}
	if !strings.Contains(out, build.SuccessMessage) {
		t.Errorf("output missing success message:\n%s", out)
	}
	if !testutil.FileExists(t, dir, "prepared.txt") {
		t.Error("pre command did not run")
	}
	if !testutil.FileExists(t, dir, filepath.Join(".weft", "logs", "build.log")) {
		t.Error("structured log was not written below the workspace root")
	}

	var s map[string]any
	if err := json.Unmarshal([]byte(testutil.ReadFile(t, filepath.Dir(summary), "summary.json")), &s); err != nil {
		t.Fatalf("summary is not JSON: %v", err)
	}
}

func TestBuildCommand_SkipPre(t *testing.T) {
	dir := testutil.SetupWorkspace(t, map[string]string{"weft.yaml": manifest})

	out, err := executeCommand(t, "build",
		"--manifest", filepath.Join(dir, "weft.yaml"),
		"--color", "never",
		"--skip-pre", "prep*",
	)
	if err != nil {
		t.Fatalf("build error = %v\n%s", err, out)
	}
	if testutil.FileExists(t, dir, "prepared.txt") {
		t.Error("skipped pre command ran")
	}
}

func TestBuildCommand_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		manifest string
		want     int
	}{
		{
			name:     "missing manifest",
			manifest: "missing.yaml",
			want:     errors.ExitWorkspace,
		},
		{
			name:     "unknown plugin",
			files:    map[string]string{"weft.yaml": "plugins: [nope]\npackages:\n  - name: a\n"},
			manifest: "weft.yaml",
			want:     errors.ExitWorkspace,
		},
		{
			name:     "failing command",
			files:    map[string]string{"weft.yaml": "services:\n  - name: api\n    commands:\n      - run: exit 4\n"},
			manifest: "weft.yaml",
			want:     errors.ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.SetupWorkspace(t, tt.files)
			_, err := executeCommand(t, "build", "--manifest", filepath.Join(dir, tt.manifest), "--color", "never")
			if err == nil {
				t.Fatal("build expected error")
			}
			if got := errors.ExitCode(err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", err, got, tt.want)
			}
		})
	}
}

func TestBuildCommand_InvalidConfig(t *testing.T) {
	dir := testutil.SetupWorkspace(t, map[string]string{"weft.yaml": manifest})
	_, err := executeCommand(t, "build", "--manifest", filepath.Join(dir, "weft.yaml"), "--color", "purple")
	if err == nil || !strings.Contains(err.Error(), "ui.color") {
		t.Errorf("build error = %v, want ui.color validation error", err)
	}
}

func TestConfigShow(t *testing.T) {
	out, err := executeCommand(t, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"(none - using defaults)", "color: auto", "debounce_ms: 300"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigInit(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"config", "init"})
	if err := root.Execute(); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !testutil.FileExists(t, home, filepath.Join("weft", "config.yaml")) {
		t.Fatal("config file not created")
	}

	root = NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"config", "init"})
	if err := root.Execute(); err == nil {
		t.Error("second config init should fail")
	}
}

func TestPluginsCommand(t *testing.T) {
	out, err := executeCommand(t, "plugins")
	if err != nil {
		t.Fatalf("plugins error = %v", err)
	}
	if strings.TrimSpace(out) != "command" {
		t.Errorf("output = %q, want %q", out, "command")
	}
}

func TestWatchIgnores(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*config.Config)
		summary string
		want    []string
	}{
		{"default log dir", nil, "", []string{".weft/logs/**"}},
		{"custom log dir", func(c *config.Config) { c.Logging.Dir = "build-logs" }, "", []string{"build-logs/**"}},
		{"log dir outside root", func(c *config.Config) { c.Logging.Dir = "/var/log/weft" }, "", nil},
		{"log dir is root", func(c *config.Config) { c.Logging.Dir = "." }, "", []string{"build.log"}},
		{"logging disabled", func(c *config.Config) { c.Logging.Enabled = false }, "", nil},
		{"summary inside root", func(c *config.Config) { c.Logging.Enabled = false }, "/ws/out/summary.json", []string{"out/summary.json"}},
		{"summary outside root", func(c *config.Config) { c.Logging.Enabled = false }, "/tmp/summary.json", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.modify != nil {
				tt.modify(cfg)
			}

			got := watchIgnores(cfg, "/ws", tt.summary)
			want := append(append([]string(nil), cfg.Watch.Ignore...), tt.want...)
			if fmt.Sprint(got) != fmt.Sprint(want) {
				t.Errorf("watchIgnores() = %v, want %v", got, want)
			}
		})
	}
}

func TestWatchIgnores_MatchBuildOutputs(t *testing.T) {
	cfg := config.Default()
	cfg.Watch.Ignore = nil
	cfg.Logging.Dir = "logs[ci]"

	patterns := watchIgnores(cfg, "/ws", "/ws/summary.json")
	for _, path := range []string{"logs[ci]/build.log", "summary.json"} {
		matched := false
		for _, p := range patterns {
			g, err := glob.Compile(p, '/')
			if err != nil {
				t.Fatalf("glob.Compile(%q) error = %v", p, err)
			}
			if g.Match(path) {
				matched = true
			}
		}
		if !matched {
			t.Errorf("%q not covered by %v", path, patterns)
		}
	}
}

package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/weft/internal/errors"
)

// ManifestNames lists the file names Discover looks for, in priority order.
var ManifestNames = []string{"weft.yaml", "weft.yml", "weft.hcl"}

// Discover walks up from dir to the filesystem root and returns the first
// manifest it finds.
func Discover(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range ManifestNames {
			candidate := filepath.Join(abs, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("%w in %s or any parent directory", errors.ErrManifestNotFound, dir)
		}
		abs = parent
	}
}

// Load reads and validates the manifest at path. The decoder is chosen by
// file extension: .yaml and .yml are YAML, .hcl is HCL.
func Load(path string) (*Workspace, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var ws *Workspace
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".yaml", ".yml":
		ws, err = decodeYAML(data, abs)
	case ".hcl":
		ws, err = decodeHCL(data, abs)
	default:
		return nil, errors.NewManifestError(abs, "unsupported manifest extension", errors.ErrInvalidManifest)
	}
	if err != nil {
		return nil, err
	}

	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return ws, nil
}

// resolveRoot makes a project root absolute relative to the manifest
// directory. An empty root means the manifest directory itself.
func resolveRoot(base, root string) string {
	if root == "" {
		return base
	}
	if filepath.IsAbs(root) {
		return filepath.Clean(root)
	}
	return filepath.Join(base, root)
}

// defaultName falls back to the manifest directory name.
func defaultName(name, manifestPath string) string {
	if name != "" {
		return name
	}
	return filepath.Base(filepath.Dir(manifestPath))
}

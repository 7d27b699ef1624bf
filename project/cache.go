package project

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pawlang/paw/scriptrt"
	"github.com/pawlang/paw/sourcemap"
)

// runtimeGoMod declares the module path and the dependencies needed to
// build plugins that import the runtime support package.
const runtimeGoMod = `module github.com/pawlang/paw

go 1.25

require (
	github.com/google/uuid v1.6.0
	github.com/shopspring/decimal v1.4.0
	gopkg.in/yaml.v3 v3.0.1
)
`

// EnsureRuntimeCache writes the runtime support source tree to
// ~/.cache/paw/runtime/<hash>/ if it doesn't already exist. The plugin
// build points a replace directive at this directory. Returns the
// absolute path to the cache dir.
func EnsureRuntimeCache() (string, error) {
	hash := runtimeCacheHash()
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}

	cacheDir := filepath.Join(home, ".cache", "paw", "runtime", hash)
	sentinel := filepath.Join(cacheDir, ".complete")
	if _, err := os.Stat(sentinel); err == nil {
		return cacheDir, nil
	}

	if err := writeEmbedFS(scriptrt.Sources, filepath.Join(cacheDir, "scriptrt")); err != nil {
		return "", fmt.Errorf("writing scriptrt sources: %w", err)
	}

	// scriptrt loads failure maps through sourcemap, so both go in.
	if err := writeEmbedFS(sourcemap.Sources, filepath.Join(cacheDir, "sourcemap")); err != nil {
		return "", fmt.Errorf("writing sourcemap sources: %w", err)
	}

	if err := os.WriteFile(filepath.Join(cacheDir, "go.mod"), []byte(runtimeGoMod), 0644); err != nil {
		return "", fmt.Errorf("writing go.mod: %w", err)
	}

	if err := os.WriteFile(sentinel, []byte("ok"), 0644); err != nil {
		return "", fmt.Errorf("writing sentinel: %w", err)
	}

	return cacheDir, nil
}

// writeEmbedFS writes all files from an embed.FS to the given directory,
// preserving subdirectory structure.
func writeEmbedFS(fsys embed.FS, destDir string) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		dest := filepath.Join(destDir, path)
		if d.IsDir() {
			return os.MkdirAll(dest, 0755)
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading embedded %s: %w", path, err)
		}
		return os.WriteFile(dest, data, 0644)
	})
}

// runtimeCacheHash returns a short hash of all embedded sources for cache keying.
func runtimeCacheHash() string {
	h := sha256.New()
	hashFS(h, scriptrt.Sources)
	hashFS(h, sourcemap.Sources)
	h.Write([]byte(runtimeGoMod))
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// hashFS walks an embed.FS and writes all file contents to the hash.
func hashFS(h interface{ Write([]byte) (int, error) }, fsys embed.FS) {
	fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		h.Write(data)
		return nil
	})
}

package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when neither an explicit path nor TASKBUS_CONFIG is set.
const DefaultPath = "config/taskbus.yaml"

// Load reads a YAML document over the defaults, then normalises and validates
// the result. It returns ctx's error without touching the filesystem once ctx
// is done.
func Load(ctx context.Context, path string) (Settings, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return Settings{}, fmt.Errorf("load config: %w", err)
		}
	}
	path = resolvePath(path)

	file, err := os.Open(filepath.Clean(path)) // #nosec G304 -- configuration paths are controlled by operators.
	if err != nil {
		return Settings{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	return decode(file)
}

// LoadOrDefault behaves like Load but falls back to the defaults when the file
// does not exist.
func LoadOrDefault(ctx context.Context, path string) (Settings, error) {
	cfg, err := Load(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default().Normalise(), nil
	}
	return cfg, err
}

// Parse decodes a YAML document over the defaults.
func Parse(data []byte) (Settings, error) {
	return decode(bytes.NewReader(data))
}

func decode(r io.Reader) (Settings, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Settings{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg = cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

func resolvePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("TASKBUS_CONFIG"))
	}
	if path == "" {
		path = DefaultPath
	}
	return path
}

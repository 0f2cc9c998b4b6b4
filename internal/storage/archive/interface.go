// Package archive stores generated artifacts such as backtest reports on the
// local filesystem or in an S3-compatible bucket.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/newthinker/ats/internal/core"
)

// Storage is a flat key space of slash-separated paths.
type Storage interface {
	// Write stores data at p, replacing any previous object.
	Write(ctx context.Context, p string, data []byte) error

	// Read retrieves the object at p.
	Read(ctx context.Context, p string) ([]byte, error)

	// List returns paths under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether an object is stored at p.
	Exists(ctx context.Context, p string) (bool, error)
}

// Backends accepted by Config.Kind.
const (
	KindLocalFS = "localfs"
	KindS3      = "s3"
)

// Config selects and configures a backend.
type Config struct {
	Kind string   `mapstructure:"kind"`
	Path string   `mapstructure:"path"`
	S3   S3Config `mapstructure:"s3"`
}

// New opens the configured backend.
func New(cfg Config) (Storage, error) {
	switch cfg.Kind {
	case "", KindLocalFS:
		dir := cfg.Path
		if dir == "" {
			dir = "reports"
		}
		return NewLocalFS(dir)
	case KindS3:
		return NewS3(cfg.S3)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive kind %q", cfg.Kind))
	}
}

// cleanPath normalizes p and rejects paths that leave the archive root.
func cleanPath(p string) (string, error) {
	c := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if c == "." || c == "/" || strings.HasPrefix(c, "/") || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("archive: invalid path %q", p)
	}
	return c, nil
}

// Package serving holds the in-memory model used for predictions and swaps it
// atomically when a new version is activated.
package serving

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/jobcheck/internal/artifacts"
	"github.com/JaimeStill/jobcheck/pkg/classify"
	"github.com/JaimeStill/jobcheck/pkg/features"
)

// ErrModelUnavailable indicates that no active model could be loaded.
var ErrModelUnavailable = errors.New("model unavailable")

// MapHTTPStatus maps serving errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrModelUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Snapshot is an immutable classifier and extractor pair from one version.
// Readers hold a snapshot for the duration of a request.
type Snapshot struct {
	Version    string
	Classifier classify.Classifier
	Extractor  *features.Extractor
	Metadata   artifacts.Metadata
	LoadedAt   time.Time
}

// Loader resolves the active model set.
type Loader interface {
	Load(ctx context.Context, ref string) (*artifacts.Artifact, error)
}

// Cache serves the active snapshot. Reads are lock-free. Reloads are
// serialised and replace the snapshot with a single pointer store only after
// the new version has loaded completely.
type Cache struct {
	loader  Loader
	logger  *slog.Logger
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
	reload  sync.Mutex
}

// New creates an empty cache. The first Get loads the active version.
func New(loader Loader, logger *slog.Logger) *Cache {
	return &Cache{
		loader: loader,
		logger: logger.With("system", "serving"),
	}
}

// Get returns the current snapshot, loading the active version on first use.
// Concurrent first callers share a single load.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	if snap := c.current.Load(); snap != nil {
		return snap, nil
	}

	v, err, _ := c.group.Do("load", func() (any, error) {
		if snap := c.current.Load(); snap != nil {
			return snap, nil
		}

		snap, err := c.load(ctx)
		if err != nil {
			return nil, err
		}

		c.current.CompareAndSwap(nil, snap)
		return c.current.Load(), nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Snapshot), nil
}

// Reload loads the active version and swaps it in. On failure the previous
// snapshot stays in place and the error is returned.
func (c *Cache) Reload(ctx context.Context) (*Snapshot, error) {
	c.reload.Lock()
	defer c.reload.Unlock()

	snap, err := c.load(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "model reload failed", "error", err)
		return nil, err
	}

	prev := c.current.Swap(snap)

	attrs := []any{"version", snap.Version, "model", snap.Metadata.ModelName}
	if prev != nil {
		attrs = append(attrs, "previous", prev.Version)
	}
	c.logger.InfoContext(ctx, "model reloaded", attrs...)

	return snap, nil
}

// Current returns the loaded snapshot without triggering a load.
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

// Ready reports whether a snapshot is loaded.
func (c *Cache) Ready() bool {
	return c.current.Load() != nil
}

func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	a, err := c.loader.Load(ctx, artifacts.Active)
	if err != nil {
		if errors.Is(err, artifacts.ErrNoActiveVersion) {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		return nil, fmt.Errorf("load active model: %w", err)
	}

	return &Snapshot{
		Version:    a.Version,
		Classifier: a.Classifier,
		Extractor:  a.Extractor,
		Metadata:   a.Metadata,
		LoadedAt:   time.Now().UTC(),
	}, nil
}

package retrain_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/JaimeStill/jobcheck/internal/artifacts"
	"github.com/JaimeStill/jobcheck/internal/registry"
	"github.com/JaimeStill/jobcheck/internal/retrain"
	"github.com/JaimeStill/jobcheck/internal/serving"
	"github.com/JaimeStill/jobcheck/internal/training"
	"github.com/JaimeStill/jobcheck/pkg/auth"
	"github.com/JaimeStill/jobcheck/pkg/classify"
	"github.com/JaimeStill/jobcheck/pkg/routes"
	"github.com/JaimeStill/jobcheck/pkg/storage"
	"github.com/JaimeStill/jobcheck/pkg/textnorm"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pipeline() *training.Pipeline {
	opts := training.DefaultOptions()
	opts.Trainers = []classify.Trainer{
		classify.LogisticRegression{C: 1, LearningRate: 0.5, Iterations: 100},
	}
	return training.New(textnorm.New(textnorm.EnglishStopWords()), opts, discard())
}

var dataset = retrain.Dataset{
	Synthetic: training.SyntheticOptions{Size: 200, Seed: 42, FakeRatio: 0.2},
}

// ledger is an in-memory Registrar.
type ledger struct {
	mu       sync.Mutex
	versions []registry.RegisterCommand
	active   string
}

func (l *ledger) Register(_ context.Context, cmd registry.RegisterCommand) (*registry.ModelVersion, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.versions = append(l.versions, cmd)
	if cmd.Active {
		l.active = cmd.Version
	}
	return &registry.ModelVersion{Version: cmd.Version, IsActive: cmd.Active}, nil
}

func (l *ledger) SetActive(_ context.Context, version string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = version
	return nil
}

// brokenReloader fails every reload without touching the cache.
type brokenReloader struct {
	*serving.Cache
}

func (brokenReloader) Reload(context.Context) (*serving.Snapshot, error) {
	return nil, artifacts.ErrArtifactCorrupt
}

// gatedStore blocks Persist until release is closed.
type gatedStore struct {
	*artifacts.Store
	entered chan struct{}
	release chan struct{}
}

func (g gatedStore) Persist(ctx context.Context, out *training.Outcome, trainedBy string) (*artifacts.Metadata, error) {
	close(g.entered)
	<-g.release
	return g.Store.Persist(ctx, out, trainedBy)
}

type fixture struct {
	store *artifacts.Store
	cache *serving.Cache
	reg   *ledger
	sys   retrain.System
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := artifacts.New(storage.NewFilesystem(t.TempDir(), discard()), discard())
	cache := serving.New(store, discard())
	reg := &ledger{}
	return &fixture{
		store: store,
		cache: cache,
		reg:   reg,
		sys:   retrain.New(pipeline(), dataset, store, cache, reg, discard()),
	}
}

func TestRetrain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	md, err := f.sys.Retrain(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("retrain failed: %v", err)
	}

	if snap := f.cache.Current(); snap == nil || snap.Version != md.Version {
		t.Errorf("cache not reloaded: %+v", snap)
	}
	if md.TrainedBy != "admin@example.com" || md.DatasetSize != 200 {
		t.Errorf("metadata: got %+v", md)
	}
	if f.reg.active != md.Version || len(f.reg.versions) != 1 {
		t.Errorf("registry: got %+v", f.reg)
	}

	active, err := f.sys.Active(ctx)
	if err != nil {
		t.Fatalf("active failed: %v", err)
	}
	if active.Version != md.Version || !active.Loaded || active.ActivatedAt.IsZero() {
		t.Errorf("active: got %+v", active)
	}
}

func TestRetrainReloadFailureRestoresMarker(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.sys.Retrain(ctx, "")
	if err != nil {
		t.Fatalf("first retrain failed: %v", err)
	}

	broken := retrain.New(pipeline(), dataset, f.store, brokenReloader{f.cache}, f.reg, discard())
	if _, err := broken.Retrain(ctx, ""); !errors.Is(err, artifacts.ErrArtifactCorrupt) {
		t.Fatalf("got %v, want ErrArtifactCorrupt", err)
	}

	marker, err := f.store.ActiveVersion(ctx)
	if err != nil || marker.Version != first.Version {
		t.Errorf("active marker: got %+v, %v, want %s", marker, err, first.Version)
	}
	if f.cache.Current().Version != first.Version {
		t.Errorf("serving version changed to %s", f.cache.Current().Version)
	}
	if f.reg.active != first.Version {
		t.Errorf("registry moved to %s", f.reg.active)
	}
}

func TestRetrainReloadFailureWithoutPrevious(t *testing.T) {
	ctx := context.Background()
	store := artifacts.New(storage.NewFilesystem(t.TempDir(), discard()), discard())
	cache := serving.New(store, discard())

	sys := retrain.New(pipeline(), dataset, store, brokenReloader{cache}, nil, discard())
	if _, err := sys.Retrain(ctx, ""); err == nil {
		t.Fatal("expected reload failure")
	}

	if _, err := store.ActiveVersion(ctx); !errors.Is(err, artifacts.ErrNoActiveVersion) {
		t.Errorf("marker should be cleared, got %v", err)
	}
}

func TestRetrainInProgress(t *testing.T) {
	ctx := context.Background()
	store := artifacts.New(storage.NewFilesystem(t.TempDir(), discard()), discard())
	cache := serving.New(store, discard())
	gated := gatedStore{Store: store, entered: make(chan struct{}), release: make(chan struct{})}

	sys := retrain.New(pipeline(), dataset, gated, cache, nil, discard())

	done := make(chan error, 1)
	go func() {
		_, err := sys.Retrain(ctx, "")
		done <- err
	}()

	<-gated.entered
	if _, err := sys.Retrain(ctx, ""); !errors.Is(err, retrain.ErrRetrainInProgress) {
		t.Errorf("concurrent retrain: got %v, want ErrRetrainInProgress", err)
	}
	if _, err := sys.Activate(ctx, "v1_20250101_000000", ""); !errors.Is(err, retrain.ErrRetrainInProgress) {
		t.Errorf("concurrent activate: got %v, want ErrRetrainInProgress", err)
	}

	close(gated.release)
	if err := <-done; err != nil {
		t.Errorf("first retrain failed: %v", err)
	}
}

func TestRetrainAbortedLeavesNoVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	path := filepath.Join(t.TempDir(), "single.csv")
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	doc := textnorm.Document{Title: "Engineer", Description: "build distributed systems"}
	rows := []training.Row{{Document: doc, Label: 0}, {Document: doc, Label: 0}, {Document: doc, Label: 0}}
	if err := training.WriteCSV(file, rows); err != nil {
		t.Fatal(err)
	}
	file.Close()

	sys := retrain.New(pipeline(), retrain.Dataset{Path: path}, f.store, f.cache, f.reg, discard())
	_, err = sys.Retrain(ctx, "")
	if !errors.Is(err, training.ErrTrainingAborted) {
		t.Fatalf("got %v, want ErrTrainingAborted", err)
	}
	if got := retrain.MapHTTPStatus(err); got != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want 422", got)
	}

	versions, err := f.store.List(ctx)
	if err != nil || len(versions) != 0 {
		t.Errorf("versions: got %v, %v", versions, err)
	}
}

func TestActivateRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.sys.Retrain(ctx, "")
	if err != nil {
		t.Fatalf("retrain failed: %v", err)
	}
	if _, err := f.sys.Retrain(ctx, ""); err != nil {
		t.Fatalf("retrain failed: %v", err)
	}

	if _, err := f.sys.Activate(ctx, first.Version, "admin"); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if f.cache.Current().Version != first.Version || f.reg.active != first.Version {
		t.Errorf("rollback not served: cache %s, registry %s", f.cache.Current().Version, f.reg.active)
	}

	if _, err := f.sys.Activate(ctx, "v99_20250101_000000", ""); !errors.Is(err, artifacts.ErrIncompleteVersion) {
		t.Errorf("missing version: got %v", err)
	}
}

func TestHandler(t *testing.T) {
	f := newFixture(t)

	mux := http.NewServeMux()
	routes.Register(mux, f.sys.Handler("admin").Routes())

	do := func(method, path string, id *auth.Identity) int {
		req := httptest.NewRequest(method, path, nil)
		if id != nil {
			req = req.WithContext(auth.WithIdentity(req.Context(), id))
		}
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w.Code
	}

	admin := &auth.Identity{Subject: "a", Email: "a@example.com", Roles: []string{"admin"}}
	user := &auth.Identity{Subject: "u", Roles: []string{"user"}}

	tests := []struct {
		name   string
		method string
		path   string
		id     *auth.Identity
		want   int
	}{
		{"active before training", http.MethodGet, "/models/active", nil, http.StatusNotFound},
		{"retrain anonymous", http.MethodPost, "/models/retrain", nil, http.StatusUnauthorized},
		{"retrain user", http.MethodPost, "/models/retrain", user, http.StatusForbidden},
		{"retrain admin", http.MethodPost, "/models/retrain", admin, http.StatusCreated},
		{"active", http.MethodGet, "/models/active", nil, http.StatusOK},
		{"list", http.MethodGet, "/models", nil, http.StatusOK},
		{"missing version", http.MethodGet, "/models/v9_20250101_000000", nil, http.StatusNotFound},
		{"invalid version", http.MethodGet, "/models/latest", nil, http.StatusBadRequest},
		{"activate user", http.MethodPost, "/models/v1_20250101_000000/activate", user, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := do(tt.method, tt.path, tt.id); got != tt.want {
				t.Errorf("status: got %d, want %d", got, tt.want)
			}
		})
	}

	if f.reg.versions[0].TrainedBy != "a@example.com" {
		t.Errorf("trained by: got %q", f.reg.versions[0].TrainedBy)
	}
}

package artifacts_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/JaimeStill/jobcheck/internal/artifacts"
	"github.com/JaimeStill/jobcheck/internal/training"
	"github.com/JaimeStill/jobcheck/pkg/classify"
	"github.com/JaimeStill/jobcheck/pkg/evaluate"
	"github.com/JaimeStill/jobcheck/pkg/features"
	"github.com/JaimeStill/jobcheck/pkg/storage"
)

var versionID = regexp.MustCompile(`^v\d+_\d{8}_\d{6}$`)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func outcome(t *testing.T) *training.Outcome {
	t.Helper()

	corpus := []string{
		"earn money fast home", "earn money weekly home", "send fee earn money",
		"software engineer remote team", "software engineer office team", "data engineer remote team",
	}
	y := []int{1, 1, 1, 0, 0, 0}

	ext, X, err := features.Fit(corpus, features.DefaultOptions())
	if err != nil {
		t.Fatalf("fit extractor: %v", err)
	}

	trainer := classify.LogisticRegression{C: 1, LearningRate: 0.5, Iterations: 200}
	c, err := trainer.Fit(context.Background(), X, y, ext.Size())
	if err != nil {
		t.Fatalf("fit classifier: %v", err)
	}

	return &training.Outcome{
		Extractor:  ext,
		Classifier: c,
		Metadata: training.Metadata{
			ModelName:   c.Name(),
			Metrics:     evaluate.Metrics{Accuracy: 1, Precision: 1, Recall: 1, F1: 1},
			DatasetSize: len(corpus),
			Features:    ext.Describe(),
			AllResults:  []evaluate.Result{{Name: c.Name(), Metrics: evaluate.Metrics{F1: 1}}},
		},
	}
}

// failing rejects uploads whose key ends with suffix.
type failing struct {
	storage.System
	suffix string
}

func (f failing) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if strings.HasSuffix(key, f.suffix) {
		return errors.New("disk full")
	}
	return f.System.Upload(ctx, key, r, contentType)
}

func TestPersistAndLoad(t *testing.T) {
	ctx := context.Background()
	store := artifacts.New(storage.NewFilesystem(t.TempDir(), discard()), discard())
	out := outcome(t)

	md, err := store.Persist(ctx, out, "admin@example.com")
	if err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	if !versionID.MatchString(md.Version) || !strings.HasPrefix(md.Version, "v1_") {
		t.Errorf("version: got %q", md.Version)
	}
	if md.ClassifierSHA256 == "" || md.ExtractorSHA256 == "" {
		t.Error("metadata is missing checksums")
	}

	a, err := store.Load(ctx, md.Version)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if a.Metadata.TrainedBy != "admin@example.com" || a.Metadata.F1 != 1 {
		t.Errorf("metadata: got %+v", a.Metadata)
	}

	text := "earn money from home"
	want := out.Classifier.Predict(out.Extractor.TransformOne(text))
	if got := a.Classifier.Predict(a.Extractor.TransformOne(text)); got != want {
		t.Errorf("loaded model predicts %d, want %d", got, want)
	}
}

func TestVersionSequence(t *testing.T) {
	ctx := context.Background()
	fs := storage.NewFilesystem(t.TempDir(), discard())
	out := outcome(t)

	first := artifacts.New(fs, discard())
	for _, want := range []string{"v1_", "v2_"} {
		md, err := first.Persist(ctx, out, "")
		if err != nil {
			t.Fatalf("persist failed: %v", err)
		}
		if !strings.HasPrefix(md.Version, want) {
			t.Errorf("version: got %q, want prefix %q", md.Version, want)
		}
	}

	second := artifacts.New(fs, discard())
	md, err := second.Persist(ctx, out, "")
	if err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if !strings.HasPrefix(md.Version, "v3_") {
		t.Errorf("new store should continue the sequence, got %q", md.Version)
	}

	list, err := second.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 3 || !strings.HasPrefix(list[0].Version, "v3_") || !strings.HasPrefix(list[2].Version, "v1_") {
		t.Errorf("list not newest first: %v", list)
	}
}

func TestActivate(t *testing.T) {
	ctx := context.Background()
	store := artifacts.New(storage.NewFilesystem(t.TempDir(), discard()), discard())

	if _, err := store.Load(ctx, artifacts.Active); !errors.Is(err, artifacts.ErrNoActiveVersion) {
		t.Fatalf("load before activation: got %v, want ErrNoActiveVersion", err)
	}

	md, err := store.Persist(ctx, outcome(t), "")
	if err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	marker, err := store.Activate(ctx, md.Version)
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if marker.Version != md.Version || marker.ActivatedAt.IsZero() {
		t.Errorf("marker: got %+v", marker)
	}

	a, err := store.Load(ctx, artifacts.Active)
	if err != nil {
		t.Fatalf("load active failed: %v", err)
	}
	if a.Version != md.Version {
		t.Errorf("active version: got %q, want %q", a.Version, md.Version)
	}

	if err := store.RestoreActive(ctx, nil); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if _, err := store.ActiveVersion(ctx); !errors.Is(err, artifacts.ErrNoActiveVersion) {
		t.Errorf("after clearing: got %v, want ErrNoActiveVersion", err)
	}

	if err := store.RestoreActive(ctx, marker); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if got, _ := store.ActiveVersion(ctx); got == nil || got.Version != md.Version {
		t.Errorf("restored marker: got %+v", got)
	}
}

func TestPersistFailureLeavesVersionIncomplete(t *testing.T) {
	ctx := context.Background()
	fs := storage.NewFilesystem(t.TempDir(), discard())
	store := artifacts.New(failing{System: fs, suffix: artifacts.MetadataFile}, discard())

	_, err := store.Persist(ctx, outcome(t), "")
	if !errors.Is(err, artifacts.ErrPersistFailed) {
		t.Fatalf("got %v, want ErrPersistFailed", err)
	}

	keys, err := fs.List(ctx, artifacts.Prefix)
	if err != nil || len(keys) == 0 {
		t.Fatalf("expected partial files, got %v, %v", keys, err)
	}
	version := strings.Split(strings.TrimPrefix(keys[0], artifacts.Prefix), "/")[0]

	if _, err := store.Activate(ctx, version); !errors.Is(err, artifacts.ErrIncompleteVersion) {
		t.Errorf("activate: got %v, want ErrIncompleteVersion", err)
	}
	if _, err := store.ActiveVersion(ctx); !errors.Is(err, artifacts.ErrNoActiveVersion) {
		t.Errorf("incomplete version must not become active: %v", err)
	}

	list, err := store.List(ctx)
	if err != nil || len(list) != 0 {
		t.Errorf("list should skip incomplete versions: %v, %v", list, err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	fs := storage.NewFilesystem(t.TempDir(), discard())
	store := artifacts.New(fs, discard())

	md, err := store.Persist(ctx, outcome(t), "")
	if err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	key := artifacts.Prefix + md.Version + "/" + artifacts.ClassifierFile
	if err := fs.Upload(ctx, key, strings.NewReader("tampered"), ""); err != nil {
		t.Fatalf("tamper failed: %v", err)
	}

	if _, err := store.Load(ctx, md.Version); !errors.Is(err, artifacts.ErrArtifactCorrupt) {
		t.Errorf("load: got %v, want ErrArtifactCorrupt", err)
	}
	if _, err := store.Activate(ctx, md.Version); !errors.Is(err, artifacts.ErrArtifactCorrupt) {
		t.Errorf("activate: got %v, want ErrArtifactCorrupt", err)
	}
}

func TestLoadInvalidVersion(t *testing.T) {
	store := artifacts.New(storage.NewFilesystem(t.TempDir(), discard()), discard())

	if _, err := store.Load(context.Background(), "../etc"); !errors.Is(err, artifacts.ErrInvalidVersion) {
		t.Errorf("got %v, want ErrInvalidVersion", err)
	}
}

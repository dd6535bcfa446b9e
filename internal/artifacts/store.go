// Package artifacts persists trained model sets to blob storage and resolves
// the active set.
//
// Each version lives under models/<version>/ as classifier.bin, extractor.bin
// and metadata.json. Metadata is written last and records the SHA-256 of both
// binaries, so a version without metadata, or whose binaries do not match it,
// is never loaded. The active version is named by the models/ACTIVE marker.
package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/jobcheck/internal/training"
	"github.com/JaimeStill/jobcheck/pkg/classify"
	"github.com/JaimeStill/jobcheck/pkg/features"
	"github.com/JaimeStill/jobcheck/pkg/storage"
)

// Storage layout.
const (
	Prefix         = "models/"
	ActiveKey      = Prefix + "ACTIVE"
	ClassifierFile = "classifier.bin"
	ExtractorFile  = "extractor.bin"
	MetadataFile   = "metadata.json"

	// Active is the Load reference that resolves through the marker.
	Active = "active"
)

var versionPattern = regexp.MustCompile(`^v(\d+)_\d{8}_\d{6}$`)

// Metadata is the metadata.json document of a persisted version.
type Metadata struct {
	training.Metadata
	ClassifierSHA256 string `json:"classifier_sha256"`
	ExtractorSHA256  string `json:"extractor_sha256"`
	TrainedBy        string `json:"trained_by,omitempty"`
}

// Marker is the content of the ACTIVE marker.
type Marker struct {
	Version     string    `json:"version"`
	ActivatedAt time.Time `json:"activated_at"`
}

// Artifact is a fully loaded and verified model set.
type Artifact struct {
	Version    string
	Classifier classify.Classifier
	Extractor  *features.Extractor
	Metadata   Metadata
}

// Store reads and writes versioned model sets.
type Store struct {
	storage storage.System
	logger  *slog.Logger

	mu      sync.Mutex
	lastSeq int
}

// New creates a store backed by the given blob storage.
func New(store storage.System, logger *slog.Logger) *Store {
	return &Store{
		storage: store,
		logger:  logger.With("system", "artifacts"),
	}
}

// Persist writes a trained outcome as a new version and returns its
// metadata. Versions are never overwritten. Any failed write returns
// ErrPersistFailed and leaves the version incomplete.
func (s *Store) Persist(ctx context.Context, out *training.Outcome, trainedBy string) (*Metadata, error) {
	classifierBin, err := encodeClassifier(out.Classifier)
	if err != nil {
		return nil, fmt.Errorf("%w: encode classifier: %w", ErrPersistFailed, err)
	}
	extractorBin, err := encodeExtractor(out.Extractor)
	if err != nil {
		return nil, fmt.Errorf("%w: encode extractor: %w", ErrPersistFailed, err)
	}

	version, err := s.nextVersion(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	md := &Metadata{
		Metadata:         out.Metadata,
		ClassifierSHA256: checksum(classifierBin),
		ExtractorSHA256:  checksum(extractorBin),
		TrainedBy:        trainedBy,
	}
	md.Version = version

	mdBin, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode metadata: %w", ErrPersistFailed, err)
	}

	writes := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{ClassifierFile, classifierBin, "application/zstd"},
		{ExtractorFile, extractorBin, "application/zstd"},
		{MetadataFile, mdBin, "application/json"},
	}

	for _, w := range writes {
		key := versionKey(version, w.name)
		if err := s.storage.Upload(ctx, key, bytes.NewReader(w.data), w.contentType); err != nil {
			s.logger.ErrorContext(ctx, "artifact write failed", "version", version, "file", w.name, "error", err)
			return nil, fmt.Errorf("%w: %s: %w", ErrPersistFailed, key, err)
		}
	}

	s.logger.InfoContext(ctx, "model version persisted",
		"version", version,
		"model", md.ModelName,
		"f1_score", md.F1,
	)

	return md, nil
}

// Activate verifies that version is complete and loadable, then points the
// ACTIVE marker at it.
func (s *Store) Activate(ctx context.Context, version string) (*Marker, error) {
	if _, err := s.Load(ctx, version); err != nil {
		return nil, err
	}

	marker := &Marker{Version: version, ActivatedAt: time.Now().UTC()}
	if err := s.writeMarker(ctx, marker); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "model version activated", "version", version)
	return marker, nil
}

// RestoreActive rewrites the ACTIVE marker to a previously read value. A nil
// marker removes the marker so that no version is active.
func (s *Store) RestoreActive(ctx context.Context, marker *Marker) error {
	if marker == nil {
		err := s.storage.Delete(ctx, ActiveKey)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("clear active marker: %w", err)
		}
		return nil
	}
	return s.writeMarker(ctx, marker)
}

// ActiveVersion reads the ACTIVE marker.
func (s *Store) ActiveVersion(ctx context.Context) (*Marker, error) {
	data, err := storage.ReadAll(ctx, s.storage, ActiveKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoActiveVersion
		}
		return nil, fmt.Errorf("read active marker: %w", err)
	}

	var marker Marker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, fmt.Errorf("%w: active marker: %w", ErrArtifactCorrupt, err)
	}
	if !versionPattern.MatchString(marker.Version) {
		return nil, fmt.Errorf("%w: active marker names %q", ErrArtifactCorrupt, marker.Version)
	}

	return &marker, nil
}

// Load reads and verifies a version. The reference Active resolves through
// the ACTIVE marker.
func (s *Store) Load(ctx context.Context, ref string) (*Artifact, error) {
	version := ref
	if ref == Active {
		marker, err := s.ActiveVersion(ctx)
		if err != nil {
			return nil, err
		}
		version = marker.Version
	}

	md, err := s.Metadata(ctx, version)
	if err != nil {
		return nil, err
	}

	classifierBin, err := s.readFile(ctx, version, ClassifierFile)
	if err != nil {
		return nil, err
	}
	if err := verify(ClassifierFile, classifierBin, md.ClassifierSHA256); err != nil {
		return nil, err
	}

	extractorBin, err := s.readFile(ctx, version, ExtractorFile)
	if err != nil {
		return nil, err
	}
	if err := verify(ExtractorFile, extractorBin, md.ExtractorSHA256); err != nil {
		return nil, err
	}

	classifier, err := decodeClassifier(classifierBin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifactCorrupt, ClassifierFile, err)
	}
	extractor, err := decodeExtractor(extractorBin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifactCorrupt, ExtractorFile, err)
	}

	if classifier.Name() != md.ModelName {
		return nil, fmt.Errorf("%w: classifier is %q, metadata records %q", ErrArtifactCorrupt, classifier.Name(), md.ModelName)
	}

	return &Artifact{
		Version:    version,
		Classifier: classifier,
		Extractor:  extractor,
		Metadata:   *md,
	}, nil
}

// Metadata reads the metadata document of version. A version without one is
// incomplete.
func (s *Store) Metadata(ctx context.Context, version string) (*Metadata, error) {
	if !versionPattern.MatchString(version) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}

	data, err := s.readFile(ctx, version, MetadataFile)
	if err != nil {
		return nil, err
	}

	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifactCorrupt, MetadataFile, err)
	}
	if md.Version != version {
		return nil, fmt.Errorf("%w: metadata of %s names %q", ErrArtifactCorrupt, version, md.Version)
	}

	return &md, nil
}

// List returns the metadata of every complete version, newest first.
// Versions with unreadable metadata are skipped.
func (s *Store) List(ctx context.Context) ([]Metadata, error) {
	versions, err := s.versions(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Metadata, 0, len(versions))
	for _, v := range versions {
		if !v.complete {
			continue
		}
		md, err := s.Metadata(ctx, v.id)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping unreadable version", "version", v.id, "error", err)
			continue
		}
		result = append(result, *md)
	}

	return result, nil
}

type versionEntry struct {
	id       string
	seq      int
	complete bool
}

// versions scans storage for version directories, ordered newest first.
func (s *Store) versions(ctx context.Context) ([]versionEntry, error) {
	keys, err := s.storage.List(ctx, Prefix)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	index := map[string]*versionEntry{}
	for _, key := range keys {
		dir, file, ok := strings.Cut(strings.TrimPrefix(key, Prefix), "/")
		if !ok {
			continue
		}
		m := versionPattern.FindStringSubmatch(dir)
		if m == nil {
			continue
		}

		entry, ok := index[dir]
		if !ok {
			seq, _ := strconv.Atoi(m[1])
			entry = &versionEntry{id: dir, seq: seq}
			index[dir] = entry
		}
		if file == MetadataFile {
			entry.complete = true
		}
	}

	entries := make([]versionEntry, 0, len(index))
	for _, e := range index {
		entries = append(entries, *e)
	}
	slices.SortFunc(entries, func(a, b versionEntry) int {
		if a.seq != b.seq {
			return b.seq - a.seq
		}
		return strings.Compare(b.id, a.id)
	})

	return entries, nil
}

// nextVersion allocates a version id one past the highest sequence seen in
// storage or issued by this store.
func (s *Store) nextVersion(ctx context.Context, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.versions(ctx)
	if err != nil {
		return "", err
	}

	seq := s.lastSeq
	if len(entries) > 0 {
		seq = max(seq, entries[0].seq)
	}
	seq++
	s.lastSeq = seq

	return fmt.Sprintf("v%d_%s", seq, now.Format("20060102_150405")), nil
}

func (s *Store) writeMarker(ctx context.Context, marker *Marker) error {
	data, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("encode active marker: %w", err)
	}
	if err := s.storage.Upload(ctx, ActiveKey, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("write active marker: %w", err)
	}
	return nil
}

func (s *Store) readFile(ctx context.Context, version, name string) ([]byte, error) {
	data, err := storage.ReadAll(ctx, s.storage, versionKey(version, name))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s missing %s", ErrIncompleteVersion, version, name)
		}
		return nil, fmt.Errorf("read %s/%s: %w", version, name, err)
	}
	return data, nil
}

func versionKey(version, name string) string {
	return Prefix + version + "/" + name
}

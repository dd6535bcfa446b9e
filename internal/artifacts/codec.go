package artifacts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/JaimeStill/jobcheck/pkg/classify"
	"github.com/JaimeStill/jobcheck/pkg/features"
)

// compress runs encode against a zstd stream and returns the framed bytes.
func compress(encode func(io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if err := encode(zw); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress[T any](data []byte, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return zero, err
	}
	defer zr.Close()
	return decode(zr)
}

func encodeClassifier(c classify.Classifier) ([]byte, error) {
	return compress(func(w io.Writer) error {
		return classify.Encode(w, c)
	})
}

func encodeExtractor(e *features.Extractor) ([]byte, error) {
	return compress(e.Encode)
}

func decodeClassifier(data []byte) (classify.Classifier, error) {
	return decompress(data, classify.Decode)
}

func decodeExtractor(data []byte) (*features.Extractor, error) {
	return decompress(data, features.Decode)
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func verify(name string, data []byte, want string) error {
	if got := checksum(data); got != want {
		return fmt.Errorf("%w: %s checksum %s, metadata records %s", ErrArtifactCorrupt, name, got, want)
	}
	return nil
}

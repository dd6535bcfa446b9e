package classify

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
)

// Serialised model kinds.
const (
	KindLogistic = "logistic_regression"
	KindForest   = "random_forest"
	KindBoosted  = "gradient_boosting"
	KindSVM      = "linear_svm"
)

// ErrUnknownKind indicates an encoded classifier of an unsupported family.
var ErrUnknownKind = errors.New("unknown classifier kind")

type envelope struct {
	Kind    string
	Payload []byte
}

// Kind returns the serialised kind of a fitted classifier.
func Kind(c Classifier) (string, error) {
	switch c.(type) {
	case *LogisticModel:
		return KindLogistic, nil
	case *ForestModel:
		return KindForest, nil
	case *BoostedModel:
		return KindBoosted, nil
	case *SVMModel:
		return KindSVM, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownKind, c)
	}
}

// Encode writes c as a kind-tagged gob envelope.
func Encode(w io.Writer, c Classifier) error {
	kind, err := Kind(c)
	if err != nil {
		return err
	}

	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(c); err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	return gob.NewEncoder(w).Encode(envelope{Kind: kind, Payload: payload.Bytes()})
}

// Decode reads a classifier written by Encode.
func Decode(r io.Reader) (Classifier, error) {
	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var c Classifier
	switch env.Kind {
	case KindLogistic:
		c = &LogisticModel{}
	case KindForest:
		c = &ForestModel{}
	case KindBoosted:
		c = &BoostedModel{}
	case KindSVM:
		c = &SVMModel{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}

	if err := gob.NewDecoder(bytes.NewReader(env.Payload)).Decode(c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
	}

	return c, nil
}

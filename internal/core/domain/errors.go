package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBackend means no usable language-model backend is configured.
	// It aborts the whole pipeline; no stage can proceed without one.
	ErrNoBackend = errors.New("no language model backend configured")
	// ErrBackendCall marks a failed embedding or chat call. Intermediate
	// stages recover from it locally; only a failed final generation
	// surfaces it to the caller.
	ErrBackendCall = errors.New("backend call failed")
	// ErrDimensionMismatch reports cosine similarity over vectors of
	// different dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrDocumentNotFound is returned by document stores for unknown paths.
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

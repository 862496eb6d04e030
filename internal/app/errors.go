package app

import (
	"errors"

	"autorag/internal/ai"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotConfigured      = errors.New("workspace is not configured")
	ErrNoDocumentSelected = errors.New("no document selected")
	ErrProcessor          = errors.New("document processing failed")
	ErrGeneration         = errors.New("answer generation failed")
	ErrInvalidShareLink   = errors.New("invalid or disabled share link")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrWrongCredentials   = errors.New("wrong email or password")
	ErrCannotRemoveOwner  = errors.New("workspace owner cannot be removed")
	ErrEmbeddingDimension = errors.New("embedding dimension mismatch")
	ErrIndexPersist       = errors.New("document index persist failed")
)

// IsRetryable reports whether err came from a transient failure of an
// external service, such as a timeout or a 5xx reply.
func IsRetryable(err error) bool {
	return errors.Is(err, ai.ErrUnavailable)
}

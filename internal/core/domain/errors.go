package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch marks a transient archive failure that exhausted its retries.
	ErrFetch = errors.New("fetch failure")
	// ErrNotFound marks a 404 from the archive; retrying cannot help.
	ErrNotFound = errors.New("not found")
	// ErrMalformedResponse marks an archive response whose shape could not be parsed.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrValidation marks downloaded content rejected by the validator; terminal.
	ErrValidation = errors.New("validation failure")
	// ErrSectionNotFound marks a filing in which no relevant section is identifiable.
	ErrSectionNotFound = errors.New("section not found")
	// ErrExtractionSchema marks AI output that stayed malformed through the retry ceiling.
	ErrExtractionSchema = errors.New("extraction schema failure")
	// ErrPermanent marks work past its retry ceiling; terminal.
	ErrPermanent = errors.New("permanent failure")
	// ErrTemporary marks failures worth retrying on a later run.
	ErrTemporary = errors.New("temporary failure")
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

// Retryable reports whether a processing-stage error should leave the filing
// claimable by a later run rather than terminally failed.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if IsKind(err, ErrSectionNotFound) || IsKind(err, ErrExtractionSchema) || IsKind(err, ErrPermanent) {
		return false
	}
	return true
}

package pdf

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPages is returned by Compose when none of the input images could
	// be placed on a page.
	ErrNoPages = errors.New("no renderable pages")

	// ErrIntegrity matches every *IntegrityError.
	ErrIntegrity = errors.New("document failed integrity check")
)

// IntegrityCheck names the verification step that failed.
type IntegrityCheck string

const (
	CheckHeader    IntegrityCheck = "header"
	CheckTrailer   IntegrityCheck = "trailer"
	CheckStructure IntegrityCheck = "structure"
)

// IntegrityError reports a document that is not a well-formed PDF.
type IntegrityError struct {
	Check IntegrityCheck
	Path  string
	Err   error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integrity %s check failed for %s: %v", e.Check, e.Path, e.Err)
	}
	return fmt.Sprintf("integrity %s check failed for %s", e.Check, e.Path)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrIntegrity) match any IntegrityError.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

package pack

import (
	"errors"
	"fmt"

	"github.com/asaidimu/go-packs/core/keys"
)

// Sentinel errors for the failure kinds the pipelines distinguish. All of
// them abort the run; compile aborts before its batch is written, so the
// store is left untouched.
var (
	// ErrNotFound is returned by Store.Get for an absent key.
	ErrNotFound = errors.New("key not found")

	// ErrDuplicateKey reports two source files resolving to the same
	// composite key within one compile run.
	ErrDuplicateKey = errors.New("duplicate composite key")

	// ErrMissingDocumentType reports an extraction attempted without the
	// mandatory document type option.
	ErrMissingDocumentType = errors.New("document type is required")

	// ErrUnknownDocumentType reports a document type absent from the
	// document-type table when no explicit collection was given.
	ErrUnknownDocumentType = errors.New("unknown document type")

	// ErrFolderCycle reports a cyclic folder parent chain. Cycles fail
	// fast rather than being silently broken.
	ErrFolderCycle = errors.New("folder parent chain contains a cycle")
)

// ParseError reports a malformed source file. It carries the offending path.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResolutionError reports an embedded reference that could not be resolved
// in the store during extraction. A missing embedded part would corrupt
// round-trip fidelity, so this is fatal.
type ResolutionError struct {
	Key keys.Key
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve embedded document %s: %v", e.Key, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Package pack implements the two pipelines that move document trees in and
// out of an ordered key-value pack store: the compiler, which flattens a
// directory of per-document source files into composite-keyed records, and
// the extractor, which reassembles those records back into files. Both are
// built on the document package's hierarchy walker and the keys codec.
package pack

import (
	"context"

	"github.com/asaidimu/go-packs/core/document"
	"github.com/asaidimu/go-packs/core/keys"
)

// Put is one staged write of a batch.
type Put struct {
	Key   keys.Key
	Value []byte
}

// Store is the ordered key-value store boundary both pipelines run against.
// Values are opaque JSON-encoded document maps. Implementations must provide
// lexicographic key order for Iterate, FirstKey and LastKey, and an atomic
// all-or-nothing WriteBatch. A store is opened at the start of a run and
// closed at the end; it is not held open across runs.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key keys.Key) ([]byte, error)
	// Iterate calls fn for every key/value pair in ascending key order.
	// An error from fn stops the iteration and is returned.
	Iterate(ctx context.Context, fn func(key keys.Key, value []byte) error) error
	// FirstKey and LastKey return the lexicographically first and last
	// keys via single-item forward/reverse iteration. The boolean is
	// false when the store is empty.
	FirstKey(ctx context.Context) (keys.Key, bool, error)
	LastKey(ctx context.Context) (keys.Key, bool, error)
	// WriteBatch applies all puts and deletes in one atomic batch.
	WriteBatch(ctx context.Context, puts []Put, deletes []keys.Key) error
	// CompactRange compacts the span bounded inclusively by first and last.
	CompactRange(ctx context.Context, first, last keys.Key) error
	// Close releases the store.
	Close() error
}

// EntryTransform can mutate a document before it is written, or discard it
// entirely by returning keep == false. Discarding is not an error: the
// compiler skips the file without reserving its key, the extractor skips
// writing the output file.
type EntryTransform func(ctx context.Context, doc *document.Document) (keep bool, err error)

// NameTransform derives an output filename (relative, extension included)
// for an extracted document. folderPath is the document's resolved folder
// path, or "" when folders are disabled or unresolved. Returning "" declines,
// in which case the built-in naming applies.
type NameTransform func(ctx context.Context, doc *document.Document, folderPath string) (string, error)

// FolderNameTransform derives the display segment for a folder record in the
// folder index. Returning "" declines.
type FolderNameTransform func(ctx context.Context, doc *document.Document) (string, error)

// CompileOptions configures a compile run.
type CompileOptions struct {
	// Recursive descends into subdirectories of the source directory.
	Recursive bool
	// YAML selects the YAML serialization format instead of JSON; it also
	// selects which file extensions are treated as source files.
	YAML bool
	// TransformEntry, when set, runs on every parsed source document.
	TransformEntry EntryTransform
}

// ExtractOptions configures an extract run.
type ExtractOptions struct {
	// DocumentType is the human document-type name of the pack's primary
	// documents. Mandatory.
	DocumentType string
	// Collection overrides the collection segment derived from
	// DocumentType via the document-type table.
	Collection string
	// Folders enables the folder-index pre-pass; extracted files are then
	// placed under their folder's resolved path and folder records are
	// written as _Folder files inside their own directory.
	Folders bool
	// Clean removes the destination directory before writing, making
	// re-extraction idempotent.
	Clean bool
	// YAML selects the YAML serialization format instead of JSON.
	YAML bool
	// TransformEntry, when set, runs on every reassembled document.
	TransformEntry EntryTransform
	// TransformName, when set, derives output filenames.
	TransformName NameTransform
	// TransformFolderName, when set, derives folder display segments.
	TransformFolderName FolderNameTransform
}

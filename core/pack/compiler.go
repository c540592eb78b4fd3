package pack

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/asaidimu/go-packs/core/document"
	"github.com/asaidimu/go-packs/core/keys"
	"go.uber.org/zap"
)

// Compile reads every source file in sourceDir matching the configured
// serialization format, flattens each document tree into a composite-keyed
// record, and commits the whole run as one atomic batch against the store.
// Keys present in the store but absent from the source set are deleted in
// the same batch; the full key range is compacted afterwards. An empty
// source set is valid and destructively clears the store.
//
// Any parse error, transform error, or duplicate key aborts the run before
// the batch is written, leaving the store unchanged.
func (p *Pipeline) Compile(ctx context.Context, sourceDir string, opts CompileOptions) error {
	return p.withRunEvents("compile", CompileStart, CompileSuccess, CompileFailed, sourceDir,
		func(run string) error {
			return p.compile(ctx, run, sourceDir, opts)
		})
}

func (p *Pipeline) compile(ctx context.Context, run, sourceDir string, opts CompileOptions) error {
	format := document.FormatFor(opts.YAML)

	files, err := discoverSourceFiles(sourceDir, format, opts.Recursive)
	if err != nil {
		return fmt.Errorf("failed to discover source files in %s: %w", sourceDir, err)
	}

	// seen maps every key claimed this run to the file that claimed it, so
	// a duplicate key can name both parties.
	seen := make(map[keys.Key]string)
	puts := make([]Put, 0, len(files))

	for _, path := range files {
		startTime := time.Now()

		staged, err := p.compileFile(ctx, path, format, opts, seen)
		if err != nil {
			return err
		}
		if staged == nil {
			p.emitEvent(createEvent(EntryDiscarded, "compile", run, nil, &path, nil, startTime))
			continue
		}

		puts = append(puts, *staged)
		keyString := staged.Key.String()
		p.emitEvent(createEvent(EntryPacked, "compile", run, &keyString, &path, nil, startTime))
	}

	// Stale keys: anything in the store the source set no longer accounts
	// for is deleted in the same batch as the puts.
	var deletes []keys.Key
	err = p.store.Iterate(ctx, func(key keys.Key, _ []byte) error {
		if _, ok := seen[key]; !ok {
			deletes = append(deletes, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to enumerate existing keys: %w", err)
	}

	if err := p.store.WriteBatch(ctx, puts, deletes); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	p.logger.Info("compiled pack",
		zap.String("source", sourceDir),
		zap.Int("entries", len(puts)),
		zap.Int("removed", len(deletes)),
	)

	return p.compactStore(ctx)
}

// compileFile parses one source file, runs the entry transform, walks the
// document claiming every declared key, and returns the staged put for the
// primary document. A nil put with nil error means the entry was discarded.
func (p *Pipeline) compileFile(ctx context.Context, path string, format document.Format, opts CompileOptions, seen map[keys.Key]string) (*Put, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	raw, err := format.Decode(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	// Source files carry their composite key in-band; this is the only
	// place a key is read from data rather than derived structurally.
	rawKey, ok := raw[document.KeyField].(string)
	if !ok || rawKey == "" {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("missing %s field", document.KeyField)}
	}
	rootKey := keys.Key(rawKey)
	collectionPath, _, err := rootKey.Decompose()
	if err != nil || len(collectionPath) != 1 {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("%s %q does not address a primary document", document.KeyField, rawKey)}
	}
	collection := collectionPath[0]

	doc, err := document.Parse(raw, collection)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if opts.TransformEntry != nil {
		keep, err := opts.TransformEntry(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("entry transform failed for %s: %w", path, err)
		}
		if !keep {
			return nil, nil
		}
	}

	// Claim every declared key in the tree, stripping each from the
	// in-memory value as it is claimed. Embedded nodes are not staged as
	// separate records; they remain inline in the primary value.
	claim := document.VisitorFunc[struct{}](func(_ context.Context, node *document.Document, _ string, _ struct{}) (struct{}, error) {
		if node.Key == "" {
			return struct{}{}, nil
		}
		key := node.Key
		node.Key = ""
		if prev, dup := seen[key]; dup {
			return struct{}{}, fmt.Errorf("%w: %s already packed from %s", ErrDuplicateKey, key, prev)
		}
		seen[key] = path
		return struct{}{}, nil
	})
	if err := document.Walk(ctx, doc, collection, struct{}{}, claim); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Encode takes an owned copy; nothing staged aliases the parsed tree.
	value, err := json.Marshal(doc.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", path, err)
	}

	return &Put{Key: rootKey, Value: value}, nil
}

// compactStore collapses the store's full key span. A store left empty by
// the batch performs no compaction.
func (p *Pipeline) compactStore(ctx context.Context) error {
	first, ok, err := p.store.FirstKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to determine first key: %w", err)
	}
	if !ok {
		return nil
	}
	last, ok, err := p.store.LastKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to determine last key: %w", err)
	}
	if !ok {
		return nil
	}
	if err := p.store.CompactRange(ctx, first, last); err != nil {
		return fmt.Errorf("failed to compact store: %w", err)
	}
	return nil
}

// discoverSourceFiles lists source files matching the format's extension in
// deterministic lexical order, optionally recursing into subdirectories.
func discoverSourceFiles(sourceDir string, format document.Format, recursive bool) ([]string, error) {
	var files []string

	if recursive {
		err := filepath.WalkDir(sourceDir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() && format.Matches(entry.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return files, nil
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && format.Matches(entry.Name()) {
			files = append(files, filepath.Join(sourceDir, entry.Name()))
		}
	}
	return files, nil
}

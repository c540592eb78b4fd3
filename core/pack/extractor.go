package pack

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/asaidimu/go-packs/core/document"
	"github.com/asaidimu/go-packs/core/keys"
	"github.com/asaidimu/go-packs/utils"
	"go.uber.org/zap"
)

// extractContext is the per-level state the extractor threads down the
// hierarchy walk: the dotted collection and id prefixes of the node being
// visited, exactly as the original storage composition built them.
type extractContext struct {
	collectionPrefix string
	idPrefix         string
}

// Extract iterates the store in key order, reassembles every primary
// document by resolving its embedded references, and serializes each to a
// file under destDir. Embedded keys are never extraction roots; they are
// reachable only through their owner. DocumentType is mandatory; when
// Folders is enabled a folder-index pre-pass derives output paths from
// folder records.
func (p *Pipeline) Extract(ctx context.Context, destDir string, opts ExtractOptions) error {
	return p.withRunEvents("extract", ExtractStart, ExtractSuccess, ExtractFailed, destDir,
		func(run string) error {
			return p.extract(ctx, run, destDir, opts)
		})
}

func (p *Pipeline) extract(ctx context.Context, run, destDir string, opts ExtractOptions) error {
	// Configuration is validated before any store access.
	if opts.DocumentType == "" {
		return ErrMissingDocumentType
	}
	collection := opts.Collection
	if collection == "" {
		var ok bool
		collection, ok = document.CollectionFor(opts.DocumentType)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownDocumentType, opts.DocumentType)
		}
	}

	format := document.FormatFor(opts.YAML)

	if opts.Clean {
		if err := os.RemoveAll(destDir); err != nil {
			return fmt.Errorf("failed to clean %s: %w", destDir, err)
		}
	}

	var folders folderIndex
	if opts.Folders {
		var err error
		folders, err = p.buildFolderIndex(ctx, opts)
		if err != nil {
			return err
		}
	}

	written := 0
	err := p.store.Iterate(ctx, func(key keys.Key, value []byte) error {
		if !key.IsPrimary() {
			// Embedded record, reachable via its owner.
			return nil
		}

		startTime := time.Now()
		path, wrote, err := p.extractEntry(ctx, key, value, destDir, format, opts, folders)
		if err != nil {
			return err
		}

		keyString := key.String()
		if !wrote {
			p.emitEvent(createEvent(EntryDiscarded, "extract", run, &keyString, nil, nil, startTime))
			return nil
		}
		written++
		p.emitEvent(createEvent(EntryUnpacked, "extract", run, &keyString, &path, nil, startTime))
		return nil
	})
	if err != nil {
		return err
	}

	p.logger.Info("extracted pack",
		zap.String("destination", destDir),
		zap.String("collection", collection),
		zap.Int("entries", written),
	)
	return nil
}

// extractEntry reassembles one primary document and writes it. It returns
// the written path and whether a file was produced (false for discarded
// entries).
func (p *Pipeline) extractEntry(ctx context.Context, key keys.Key, value []byte, destDir string, format document.Format, opts ExtractOptions, folders folderIndex) (string, bool, error) {
	doc, err := p.decodeStored(key, value)
	if err != nil {
		return "", false, err
	}

	// Re-key the whole tree and pull embedded sub-records back in.
	if err := document.Walk(ctx, doc, doc.Collection, extractContext{}, document.VisitorFunc[extractContext](p.resolveNode)); err != nil {
		return "", false, err
	}

	if opts.TransformEntry != nil {
		keep, err := opts.TransformEntry(ctx, doc)
		if err != nil {
			return "", false, fmt.Errorf("entry transform failed for %s: %w", key, err)
		}
		if !keep {
			return "", false, nil
		}
	}

	filename, err := p.entryFilename(ctx, doc, key, format, opts, folders)
	if err != nil {
		return "", false, err
	}

	data, err := format.Encode(doc.Encode())
	if err != nil {
		return "", false, fmt.Errorf("failed to serialize %s: %w", key, err)
	}

	path := filepath.Join(destDir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, true, nil
}

func (p *Pipeline) decodeStored(key keys.Key, value []byte) (*document.Document, error) {
	raw := map[string]any{}
	if err := json.Unmarshal(value, &raw); err != nil {
		return nil, fmt.Errorf("stored value for %s is not valid JSON: %w", key, err)
	}
	doc, err := document.Parse(raw, key.Collection())
	if err != nil {
		return nil, fmt.Errorf("stored value for %s: %w", key, err)
	}
	return doc, nil
}

// resolveNode is the extraction visitor. It assigns the node a fresh
// composite key from the inherited prefixes and resolves every bare embedded
// reference by point lookup before the walker recurses into the children.
// Children already stored inline are kept as they are. A lookup miss is a
// data-integrity error, never silently ignored.
func (p *Pipeline) resolveNode(ctx context.Context, node *document.Document, collection string, inherited extractContext) (extractContext, error) {
	sublevel := keys.Join(inherited.collectionPrefix, collection)
	id := keys.Join(inherited.idPrefix, node.ID)
	node.Key = keys.Compose([]string{sublevel}, []string{id})

	for _, field := range document.EmbeddedFields(collection) {
		nodes := node.Embedded[field.Name]
		for i, child := range nodes {
			if child.Doc != nil {
				continue
			}
			childKey := keys.Compose([]string{sublevel, field.Name}, []string{id, child.Ref})
			value, err := p.store.Get(ctx, childKey)
			if err != nil {
				return extractContext{}, &ResolutionError{Key: childKey, Err: err}
			}
			raw := map[string]any{}
			if err := json.Unmarshal(value, &raw); err != nil {
				return extractContext{}, &ResolutionError{Key: childKey, Err: err}
			}
			childDoc, err := document.Parse(raw, field.Name)
			if err != nil {
				return extractContext{}, &ResolutionError{Key: childKey, Err: err}
			}
			nodes[i] = document.Node{Doc: childDoc}
		}
	}

	return extractContext{collectionPrefix: sublevel, idPrefix: id}, nil
}

// entryFilename derives the relative output path for a reassembled document.
func (p *Pipeline) entryFilename(ctx context.Context, doc *document.Document, key keys.Key, format document.Format, opts ExtractOptions, folders folderIndex) (string, error) {
	folderPath := ""
	if folders != nil {
		folderPath = folders.pathOf(doc.FolderRef())
	}

	if opts.TransformName != nil {
		name, err := opts.TransformName(ctx, doc, folderPath)
		if err != nil {
			return "", fmt.Errorf("name transform failed for %s: %w", key, err)
		}
		if name != "" {
			if folderPath != "" {
				return filepath.Join(folderPath, name), nil
			}
			return name, nil
		}
	}

	// A folder record with a known index entry lives inside its own
	// directory under the reserved name.
	if key.Collection() == document.FolderCollection && folders != nil {
		if entry, ok := folders[doc.ID]; ok {
			return filepath.Join(entry.path, "_Folder"+format.Extension()), nil
		}
	}

	var name string
	if sanitized := utils.SanitizeFilename(doc.Name()); sanitized != "" {
		name = sanitized + "_" + doc.ID + format.Extension()
	} else {
		name = key.String() + format.Extension()
	}
	if folderPath != "" {
		return filepath.Join(folderPath, name), nil
	}
	return name, nil
}

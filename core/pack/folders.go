package pack

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/asaidimu/go-packs/core/document"
	"github.com/asaidimu/go-packs/core/keys"
	"github.com/asaidimu/go-packs/utils"
)

// folderEntry is one folder record in the index: its display segment, its
// declared parent reference, and its resolved path relative to the
// extraction root.
type folderEntry struct {
	name   string
	parent string
	path   string
}

// folderIndex maps folder ids to their resolved entries. It is built once
// per extract run and read-only afterwards; the extractor consults it purely
// for path prefixing.
type folderIndex map[string]*folderEntry

// pathOf returns the resolved path of a folder reference, or "" when the
// reference is empty or unknown.
func (f folderIndex) pathOf(ref string) string {
	if ref == "" {
		return ""
	}
	entry, ok := f[ref]
	if !ok {
		return ""
	}
	return entry.path
}

// buildFolderIndex performs the pre-pass over folder records: collect every
// folder's display name and parent reference, then resolve each folder's
// full path by walking parent links from root to self. A missing parent
// terminates the chain at root level; a cyclic chain fails fast.
func (p *Pipeline) buildFolderIndex(ctx context.Context, opts ExtractOptions) (folderIndex, error) {
	index := folderIndex{}

	err := p.store.Iterate(ctx, func(key keys.Key, value []byte) error {
		collectionPath, _, err := key.Decompose()
		if err != nil || len(collectionPath) == 0 || collectionPath[0] != document.FolderCollection {
			return nil
		}

		raw := map[string]any{}
		if err := json.Unmarshal(value, &raw); err != nil {
			return fmt.Errorf("stored folder %s is not valid JSON: %w", key, err)
		}
		doc, err := document.Parse(raw, document.FolderCollection)
		if err != nil {
			return fmt.Errorf("stored folder %s: %w", key, err)
		}

		name, err := p.folderDisplayName(ctx, doc, key, opts)
		if err != nil {
			return err
		}

		index[doc.ID] = &folderEntry{name: name, parent: doc.FolderRef()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for id, entry := range index {
		path, err := resolveFolderPath(index, id, entry)
		if err != nil {
			return nil, err
		}
		entry.path = path
	}
	return index, nil
}

func (p *Pipeline) folderDisplayName(ctx context.Context, doc *document.Document, key keys.Key, opts ExtractOptions) (string, error) {
	if opts.TransformFolderName != nil {
		name, err := opts.TransformFolderName(ctx, doc)
		if err != nil {
			return "", fmt.Errorf("folder name transform failed for %s: %w", key, err)
		}
		if name != "" {
			return name, nil
		}
	}
	if sanitized := utils.SanitizeFilename(doc.Name()); sanitized != "" {
		return sanitized + "_" + doc.ID, nil
	}
	return key.String(), nil
}

// resolveFolderPath concatenates ancestor display names from root to self.
func resolveFolderPath(index folderIndex, id string, entry *folderEntry) (string, error) {
	segments := []string{entry.name}
	visited := map[string]bool{id: true}

	current := entry
	for current.parent != "" {
		next, ok := index[current.parent]
		if !ok {
			// Unresolvable parent: the chain terminates here and the
			// folder hangs off the extraction root.
			break
		}
		if visited[current.parent] {
			return "", fmt.Errorf("%w: folder %q", ErrFolderCycle, id)
		}
		visited[current.parent] = true
		segments = append([]string{next.name}, segments...)
		current = next
	}
	return filepath.Join(segments...), nil
}

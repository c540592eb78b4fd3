// Package keys implements the composite key format used to address documents
// in a pack store. A key has the shape `!<collection-path>!<id-path>`, where
// each path is a dot-joined list of segments: one collection segment and one
// id segment per nesting level. A key whose collection path holds a single
// segment addresses a primary document; deeper keys address embedded nodes.
package keys

import (
	"fmt"
	"strings"
)

// Separator delimits the two sections of a composite key.
const Separator = "!"

// PathSeparator joins segments inside a section.
const PathSeparator = "."

// Key is a composite pack store key.
type Key string

// Compose builds a Key from a collection path and an id path. Empty segments
// are skipped so callers can pass partially populated prefixes.
func Compose(collectionPath, idPath []string) Key {
	return Key(Separator + joinPath(collectionPath) + Separator + joinPath(idPath))
}

// Decompose splits a Key back into its collection path and id path. It fails
// on keys that do not carry exactly two `!`-delimited sections.
func (k Key) Decompose() (collectionPath, idPath []string, err error) {
	parts := strings.Split(string(k), Separator)
	if len(parts) != 3 || parts[0] != "" {
		return nil, nil, fmt.Errorf("malformed composite key %q", string(k))
	}
	return splitPath(parts[1]), splitPath(parts[2]), nil
}

// IsPrimary reports whether the key addresses a primary document, i.e. its
// collection path has exactly one segment. Malformed keys are not primary.
func (k Key) IsPrimary() bool {
	collectionPath, _, err := k.Decompose()
	return err == nil && len(collectionPath) == 1
}

// Collection returns the leaf collection segment of the key, or "" for a
// malformed key.
func (k Key) Collection() string {
	collectionPath, _, err := k.Decompose()
	if err != nil || len(collectionPath) == 0 {
		return ""
	}
	return collectionPath[len(collectionPath)-1]
}

// ID returns the leaf id segment of the key, or "" for a malformed key.
func (k Key) ID() string {
	_, idPath, err := k.Decompose()
	if err != nil || len(idPath) == 0 {
		return ""
	}
	return idPath[len(idPath)-1]
}

func (k Key) String() string { return string(k) }

// Join extends a dotted path by one segment, skipping empty parts. It is the
// building block for threading collection/id prefixes down a hierarchy.
func Join(prefix, segment string) string {
	switch {
	case prefix == "":
		return segment
	case segment == "":
		return prefix
	default:
		return prefix + PathSeparator + segment
	}
}

func joinPath(segments []string) string {
	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, PathSeparator)
}

func splitPath(section string) []string {
	if section == "" {
		return nil
	}
	return strings.Split(section, PathSeparator)
}

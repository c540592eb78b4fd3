package document

import (
	"fmt"

	"github.com/asaidimu/go-packs/core/keys"
	"github.com/asaidimu/go-packs/utils"
)

// Field names that carry structural meaning in a raw document map.
const (
	KeyField    = "_key"
	IDField     = "_id"
	NameField   = "name"
	FolderField = "folder"
)

// Document is the typed form of one node in a document tree. Raw maps coming
// off disk or out of the store are validated against the Hierarchy schema
// when they cross into this form; the core never threads an open-ended field
// bag. Embedded children live in Embedded keyed by field name; every other
// field, including name and folder, stays in Fields so a round trip preserves
// exactly what was authored.
type Document struct {
	// Key is the node's composite key. Primary documents carry one once
	// persisted; on embedded nodes it is only ever set transiently by the
	// extract pipeline.
	Key keys.Key
	// ID is the node's identifier, positional within its parent for
	// embedded nodes.
	ID string
	// Collection is the collection segment this node belongs to.
	Collection string
	// Embedded holds the schema-declared children. A singular field holds
	// at most one node.
	Embedded map[string][]Node
	// Fields holds every remaining field as authored.
	Fields map[string]any
}

// Node is one entry of an embedded field: either a bare id reference to a
// child stored standalone under its own composite key, or a fully parsed
// inline child. Exactly one of the two is set.
type Node struct {
	Ref string
	Doc *Document
}

// Parse validates a raw map against the Hierarchy schema for the given
// collection and returns its typed form. Schema fields absent from the map
// are treated as empty. A present field with the wrong shape is an error.
func Parse(raw map[string]any, collection string) (*Document, error) {
	id, ok := raw[IDField].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("document in collection %q has no string %s field", collection, IDField)
	}

	doc := &Document{
		ID:         id,
		Collection: collection,
		Fields:     make(map[string]any, len(raw)),
	}

	if rawKey, present := raw[KeyField]; present {
		key, ok := rawKey.(string)
		if !ok {
			return nil, fmt.Errorf("document %q: %s must be a string, got %T", id, KeyField, rawKey)
		}
		doc.Key = keys.Key(key)
	}

	embedded := EmbeddedFields(collection)
	for _, field := range embedded {
		value, present := raw[field.Name]
		if !present || value == nil {
			continue
		}
		nodes, err := parseEmbedded(value, field)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", id, err)
		}
		if doc.Embedded == nil {
			doc.Embedded = make(map[string][]Node, len(embedded))
		}
		doc.Embedded[field.Name] = nodes
	}

	for name, value := range raw {
		if name == IDField || name == KeyField || isEmbeddedField(embedded, name) {
			continue
		}
		if name == NameField || name == FolderField {
			if _, ok := value.(string); !ok && value != nil {
				return nil, fmt.Errorf("document %q: %s must be a string, got %T", id, name, value)
			}
		}
		doc.Fields[name] = value
	}

	return doc, nil
}

func parseEmbedded(value any, field EmbeddedField) ([]Node, error) {
	switch field.Kind {
	case EmbeddedCollection:
		elements, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("embedded field %q must be a sequence, got %T", field.Name, value)
		}
		nodes := make([]Node, 0, len(elements))
		for i, element := range elements {
			node, err := parseNode(element, field.Name)
			if err != nil {
				return nil, fmt.Errorf("embedded field %q element %d: %w", field.Name, i, err)
			}
			nodes = append(nodes, node)
		}
		return nodes, nil
	case EmbeddedSingular:
		node, err := parseNode(value, field.Name)
		if err != nil {
			return nil, fmt.Errorf("embedded field %q: %w", field.Name, err)
		}
		return []Node{node}, nil
	default:
		return nil, fmt.Errorf("embedded field %q has unknown kind %q", field.Name, field.Kind)
	}
}

func parseNode(element any, collection string) (Node, error) {
	switch v := element.(type) {
	case string:
		if v == "" {
			return Node{}, fmt.Errorf("empty id reference")
		}
		return Node{Ref: v}, nil
	case map[string]any:
		child, err := Parse(v, collection)
		if err != nil {
			return Node{}, err
		}
		return Node{Doc: child}, nil
	default:
		return Node{}, fmt.Errorf("expected a document or an id reference, got %T", element)
	}
}

// Encode converts the document back into a raw map: residual fields as
// authored, the id, the composite key when set, and every embedded field
// re-inlined in its declared position. The returned map shares no state with
// the document.
func (d *Document) Encode() map[string]any {
	raw := utils.DeepCopyMap(d.Fields)
	raw[IDField] = d.ID
	if d.Key != "" {
		raw[KeyField] = string(d.Key)
	}
	for _, field := range EmbeddedFields(d.Collection) {
		nodes, present := d.Embedded[field.Name]
		if !present {
			continue
		}
		if field.Kind == EmbeddedSingular {
			if len(nodes) > 0 {
				raw[field.Name] = encodeNode(nodes[0])
			}
			continue
		}
		elements := make([]any, len(nodes))
		for i, node := range nodes {
			elements[i] = encodeNode(node)
		}
		raw[field.Name] = elements
	}
	return raw
}

func encodeNode(node Node) any {
	if node.Doc != nil {
		return node.Doc.Encode()
	}
	return node.Ref
}

// Clone returns an owned deep copy. Pipeline steps that must not observe a
// later in-place edit take their copy here, at the ownership boundary.
func (d *Document) Clone() *Document {
	clone := &Document{
		Key:        d.Key,
		ID:         d.ID,
		Collection: d.Collection,
		Fields:     utils.DeepCopyMap(d.Fields),
	}
	if d.Embedded != nil {
		clone.Embedded = make(map[string][]Node, len(d.Embedded))
		for field, nodes := range d.Embedded {
			copied := make([]Node, len(nodes))
			for i, node := range nodes {
				copied[i] = Node{Ref: node.Ref}
				if node.Doc != nil {
					copied[i].Doc = node.Doc.Clone()
				}
			}
			clone.Embedded[field] = copied
		}
	}
	return clone
}

// Name returns the document's name field, or "" when absent.
func (d *Document) Name() string {
	name, _ := d.Fields[NameField].(string)
	return name
}

// FolderRef returns the document's folder reference, or "" when absent. On a
// folder record this is the parent folder.
func (d *Document) FolderRef() string {
	folder, _ := d.Fields[FolderField].(string)
	return folder
}

func isEmbeddedField(embedded []EmbeddedField, name string) bool {
	for _, field := range embedded {
		if field.Name == name {
			return true
		}
	}
	return false
}

// Package document defines the tree-shaped document model shared by the
// compile and extract pipelines: the compiled-in hierarchy schema, the typed
// Document record validated against that schema at the parse boundary, the
// generic pre-order hierarchy walker, and the textual serialization formats.
package document

// EmbeddedKind tags how an embedded field holds its children.
type EmbeddedKind string

const (
	// EmbeddedCollection marks a field holding an ordered sequence of
	// embedded documents.
	EmbeddedCollection EmbeddedKind = "collection"
	// EmbeddedSingular marks a field holding at most one embedded document.
	EmbeddedSingular EmbeddedKind = "singular"
)

// EmbeddedField describes one embedded field of a collection. The field name
// doubles as the child collection segment in composite keys, which is how
// `actors.items.effects` paths come about.
type EmbeddedField struct {
	Name string
	Kind EmbeddedKind
}

// Hierarchy is the static schema declaring, per collection, which fields hold
// embedded documents. It is the single source of truth for how deep the
// walker recurses and is never inferred from data. Collections absent from
// the table have no embedded fields.
var Hierarchy = map[string][]EmbeddedField{
	"actors":    {{Name: "items", Kind: EmbeddedCollection}, {Name: "effects", Kind: EmbeddedCollection}},
	"cards":     {{Name: "cards", Kind: EmbeddedCollection}},
	"combats":   {{Name: "combatants", Kind: EmbeddedCollection}},
	"items":     {{Name: "effects", Kind: EmbeddedCollection}},
	"journal":   {{Name: "pages", Kind: EmbeddedCollection}},
	"playlists": {{Name: "sounds", Kind: EmbeddedCollection}},
	"regions":   {{Name: "behaviors", Kind: EmbeddedCollection}},
	"scenes":    {{Name: "tokens", Kind: EmbeddedCollection}},
	"tables":    {{Name: "results", Kind: EmbeddedCollection}},
	"tokens":    {{Name: "delta", Kind: EmbeddedSingular}},
}

// FolderCollection is the collection segment under which folder records live.
const FolderCollection = "folders"

// collections maps human document-type names to their on-disk collection
// segment. It seeds the Extractor's default collection option.
var collections = map[string]string{
	"Actor":          "actors",
	"Adventure":      "adventures",
	"Cards":          "cards",
	"ChatMessage":    "messages",
	"Combat":         "combats",
	"FogExploration": "fog",
	"Folder":         "folders",
	"Item":           "items",
	"JournalEntry":   "journal",
	"Macro":          "macros",
	"Playlist":       "playlists",
	"RollTable":      "tables",
	"Scene":          "scenes",
	"Setting":        "settings",
	"User":           "users",
}

// CollectionFor resolves a document-type name to its collection segment.
func CollectionFor(documentType string) (string, bool) {
	collection, ok := collections[documentType]
	return collection, ok
}

// EmbeddedFields returns the declared embedded fields of a collection, or nil
// when the collection has none.
func EmbeddedFields(collection string) []EmbeddedField {
	return Hierarchy[collection]
}

package document

import (
	"testing"

	"github.com/asaidimu/go-packs/core/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actorRaw() map[string]any {
	return map[string]any{
		"_key": "!actors!abc",
		"_id":  "abc",
		"name": "Hero",
		"hp":   float64(42),
		"items": []any{
			map[string]any{
				"_id":  "i1",
				"name": "Sword",
				"effects": []any{
					map[string]any{"_id": "e1", "name": "Sharp"},
				},
			},
			"i2",
		},
	}
}

func TestParse(t *testing.T) {
	doc, err := Parse(actorRaw(), "actors")
	require.NoError(t, err)

	assert.Equal(t, keys.Key("!actors!abc"), doc.Key)
	assert.Equal(t, "abc", doc.ID)
	assert.Equal(t, "actors", doc.Collection)
	assert.Equal(t, "Hero", doc.Name())
	assert.Equal(t, float64(42), doc.Fields["hp"])

	items := doc.Embedded["items"]
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Doc)
	assert.Equal(t, "i1", items[0].Doc.ID)
	assert.Equal(t, "items", items[0].Doc.Collection)
	assert.Equal(t, "i2", items[1].Ref)

	effects := items[0].Doc.Embedded["effects"]
	require.Len(t, effects, 1)
	assert.Equal(t, "e1", effects[0].Doc.ID)
}

func TestParseSingular(t *testing.T) {
	raw := map[string]any{
		"_id":   "t1",
		"delta": map[string]any{"_id": "d1", "name": "Delta"},
	}
	doc, err := Parse(raw, "tokens")
	require.NoError(t, err)

	delta := doc.Embedded["delta"]
	require.Len(t, delta, 1)
	assert.Equal(t, "d1", delta[0].Doc.ID)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{name: "missing id", raw: map[string]any{"name": "x"}},
		{name: "non-string id", raw: map[string]any{"_id": float64(1)}},
		{name: "non-string key", raw: map[string]any{"_id": "a", "_key": float64(1)}},
		{name: "non-string name", raw: map[string]any{"_id": "a", "name": float64(1)}},
		{name: "embedded not a sequence", raw: map[string]any{"_id": "a", "items": "nope"}},
		{name: "embedded element wrong type", raw: map[string]any{"_id": "a", "items": []any{float64(1)}}},
		{name: "embedded element empty ref", raw: map[string]any{"_id": "a", "items": []any{""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw, "actors")
			assert.Error(t, err)
		})
	}
}

func TestParseAbsentSchemaFields(t *testing.T) {
	// Schema fields absent from the document are empty, not an error.
	doc, err := Parse(map[string]any{"_id": "abc"}, "actors")
	require.NoError(t, err)
	assert.Empty(t, doc.Embedded)
}

func TestEncodeRoundTrip(t *testing.T) {
	raw := actorRaw()
	doc, err := Parse(raw, "actors")
	require.NoError(t, err)

	assert.Equal(t, raw, doc.Encode())
}

func TestEncodeOmitsUnsetKey(t *testing.T) {
	doc, err := Parse(actorRaw(), "actors")
	require.NoError(t, err)

	doc.Key = ""
	encoded := doc.Encode()
	_, present := encoded[KeyField]
	assert.False(t, present)
}

func TestEncodeSingular(t *testing.T) {
	raw := map[string]any{
		"_id":   "t1",
		"delta": map[string]any{"_id": "d1"},
	}
	doc, err := Parse(raw, "tokens")
	require.NoError(t, err)
	assert.Equal(t, raw, doc.Encode())
}

func TestCloneIsIndependent(t *testing.T) {
	doc, err := Parse(actorRaw(), "actors")
	require.NoError(t, err)

	clone := doc.Clone()
	clone.Fields["name"] = "Villain"
	clone.Embedded["items"][0].Doc.Fields["name"] = "Axe"

	assert.Equal(t, "Hero", doc.Name())
	assert.Equal(t, "Sword", doc.Embedded["items"][0].Doc.Name())
}

func TestCollectionFor(t *testing.T) {
	collection, ok := CollectionFor("Actor")
	assert.True(t, ok)
	assert.Equal(t, "actors", collection)

	_, ok = CollectionFor("Widget")
	assert.False(t, ok)
}

package pack_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/asaidimu/go-packs/core/document"
	"github.com/asaidimu/go-packs/core/pack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileInlinesEmbedded(t *testing.T) {
	src := t.TempDir()
	writeJSONFile(t, src, "hero.json", heroFile())

	store := newStore(t)
	p := newPipeline(t, store)
	require.NoError(t, p.Compile(context.Background(), src, pack.CompileOptions{}))

	// Exactly one stored key: the embedded item stays inline in the
	// primary value, never under a standalone key.
	assert.Equal(t, []string{"!actors!abc"}, storeKeys(t, store))

	value := storeValue(t, store, "!actors!abc")
	_, hasKey := value[document.KeyField]
	assert.False(t, hasKey, "stored values do not carry key fields")
	items, ok := value["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Sword", item["name"])
}

func TestCompileDuplicateKey(t *testing.T) {
	src := t.TempDir()
	writeJSONFile(t, src, "a.json", heroFile())
	duplicate := heroFile()
	duplicate["name"] = "Impostor"
	writeJSONFile(t, src, "b.json", duplicate)

	store := newStore(t)
	p := newPipeline(t, store)
	err := p.Compile(context.Background(), src, pack.CompileOptions{})

	assert.ErrorIs(t, err, pack.ErrDuplicateKey)
	// Nothing was committed: the run aborts before the batch is written.
	assert.Empty(t, storeKeys(t, store))
}

func TestCompileStaleDeletion(t *testing.T) {
	src := t.TempDir()
	writeJSONFile(t, src, "hero.json", heroFile())
	other := map[string]any{"_key": "!actors!def", "_id": "def", "name": "Sidekick"}
	writeJSONFile(t, src, "sidekick.json", other)

	store := newStore(t)
	p := newPipeline(t, store)
	require.NoError(t, p.Compile(context.Background(), src, pack.CompileOptions{}))
	assert.Equal(t, []string{"!actors!abc", "!actors!def"}, storeKeys(t, store))

	require.NoError(t, os.Remove(filepath.Join(src, "sidekick.json")))
	require.NoError(t, p.Compile(context.Background(), src, pack.CompileOptions{}))
	assert.Equal(t, []string{"!actors!abc"}, storeKeys(t, store))
}

func TestCompileEmptySourceClearsStore(t *testing.T) {
	src := t.TempDir()
	writeJSONFile(t, src, "hero.json", heroFile())

	store := newStore(t)
	p := newPipeline(t, store)
	require.NoError(t, p.Compile(context.Background(), src, pack.CompileOptions{}))
	require.NotEmpty(t, storeKeys(t, store))

	require.NoError(t, p.Compile(context.Background(), t.TempDir(), pack.CompileOptions{}))
	assert.Empty(t, storeKeys(t, store))
}

func TestCompileRecursive(t *testing.T) {
	src := t.TempDir()
	nested := filepath.Join(src, "heroes")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeJSONFile(t, nested, "hero.json", heroFile())

	store := newStore(t)
	p := newPipeline(t, store)

	// Non-recursive discovery ignores the subdirectory.
	require.NoError(t, p.Compile(context.Background(), src, pack.CompileOptions{}))
	assert.Empty(t, storeKeys(t, store))

	require.NoError(t, p.Compile(context.Background(), src, pack.CompileOptions{Recursive: true}))
	assert.Equal(t, []string{"!actors!abc"}, storeKeys(t, store))
}

func TestCompileDiscardHook(t *testing.T) {
	src := t.TempDir()
	writeJSONFile(t, src, "hero.json", heroFile())
	other := map[string]any{"_key": "!actors!def", "_id": "def", "name": "Sidekick"}
	writeJSONFile(t, src, "sidekick.json", other)

	store := newStore(t)
	p := newPipeline(t, store)
	opts := pack.CompileOptions{
		TransformEntry: func(_ context.Context, doc *document.Document) (bool, error) {
			return doc.ID != "def", nil
		},
	}
	require.NoError(t, p.Compile(context.Background(), src, opts))

	// The discarded entry is fully skipped: no key reserved, no error.
	assert.Equal(t, []string{"!actors!abc"}, storeKeys(t, store))
}

func TestCompileParseErrorCarriesPath(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "broken.json"), []byte("{nope"), 0o644))

	store := newStore(t)
	p := newPipeline(t, store)
	err := p.Compile(context.Background(), src, pack.CompileOptions{})

	var parseErr *pack.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Path, "broken.json")
	assert.Empty(t, storeKeys(t, store))
}

func TestCompileRejectsEmbeddedRootKey(t *testing.T) {
	src := t.TempDir()
	writeJSONFile(t, src, "stray.json", map[string]any{
		"_key": "!actors.items!abc.i1",
		"_id":  "i1",
	})

	store := newStore(t)
	p := newPipeline(t, store)
	err := p.Compile(context.Background(), src, pack.CompileOptions{})

	var parseErr *pack.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestCompileClaimsEmbeddedKeys(t *testing.T) {
	// Extraction output carries keys on embedded nodes too; compiling it
	// must strip them from the stored value and detect collisions.
	src := t.TempDir()
	file := heroFile()
	file["items"] = []any{
		map[string]any{"_key": "!actors.items!abc.i1", "_id": "i1", "name": "Sword"},
	}
	writeJSONFile(t, src, "hero.json", file)

	store := newStore(t)
	p := newPipeline(t, store)
	require.NoError(t, p.Compile(context.Background(), src, pack.CompileOptions{}))

	assert.Equal(t, []string{"!actors!abc"}, storeKeys(t, store))
	value := storeValue(t, store, "!actors!abc")
	item := value["items"].([]any)[0].(map[string]any)
	_, hasKey := item[document.KeyField]
	assert.False(t, hasKey)
}

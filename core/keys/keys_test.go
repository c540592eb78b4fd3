package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name           string
		collectionPath []string
		idPath         []string
		expected       Key
	}{
		{
			name:           "primary document",
			collectionPath: []string{"actors"},
			idPath:         []string{"abc"},
			expected:       "!actors!abc",
		},
		{
			name:           "nested embedded document",
			collectionPath: []string{"actors", "items", "effects"},
			idPath:         []string{"abc", "i1", "e1"},
			expected:       "!actors.items.effects!abc.i1.e1",
		},
		{
			name:           "empty segments are skipped",
			collectionPath: []string{"", "actors"},
			idPath:         []string{"abc", ""},
			expected:       "!actors!abc",
		},
		{
			name:           "pre-joined prefixes",
			collectionPath: []string{"actors.items"},
			idPath:         []string{"abc.i1"},
			expected:       "!actors.items!abc.i1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compose(tt.collectionPath, tt.idPath))
		})
	}
}

func TestDecompose(t *testing.T) {
	collectionPath, idPath, err := Key("!actors.items!abc.i1").Decompose()
	assert.NoError(t, err)
	assert.Equal(t, []string{"actors", "items"}, collectionPath)
	assert.Equal(t, []string{"abc", "i1"}, idPath)
}

func TestDecomposeMalformed(t *testing.T) {
	for _, raw := range []string{"", "actors!abc", "!actors", "!a!b!c"} {
		_, _, err := Key(raw).Decompose()
		assert.Error(t, err, "key %q should not decompose", raw)
	}
}

func TestIsPrimary(t *testing.T) {
	assert.True(t, Key("!actors!abc").IsPrimary())
	assert.False(t, Key("!actors.items!abc.i1").IsPrimary())
	assert.False(t, Key("not a key").IsPrimary())
}

func TestLeafAccessors(t *testing.T) {
	key := Key("!actors.items!abc.i1")
	assert.Equal(t, "items", key.Collection())
	assert.Equal(t, "i1", key.ID())

	malformed := Key("oops")
	assert.Equal(t, "", malformed.Collection())
	assert.Equal(t, "", malformed.ID())
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "actors", Join("", "actors"))
	assert.Equal(t, "actors.items", Join("actors", "items"))
	assert.Equal(t, "actors", Join("actors", ""))
}

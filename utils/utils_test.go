package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain name", input: "Hero", expected: "Hero"},
		{name: "keeps spaces and punctuation subset", input: "Bob's Big-Box_1", expected: "Bob's Big-Box_1"},
		{name: "drops path separators", input: "a/b\\c", expected: "abc"},
		{name: "drops exotic runes", input: "He*ro?<>", expected: "Hero"},
		{name: "unicode letters survive", input: "Герой", expected: "Герой"},
		{name: "collapses to empty", input: " / ", expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestDeepCopyMap(t *testing.T) {
	original := map[string]any{
		"name": "Hero",
		"stats": map[string]any{
			"hp": float64(42),
		},
		"tags": []any{"brave", map[string]any{"k": "v"}},
	}

	copied := DeepCopyMap(original)
	assert.Equal(t, original, copied)

	copied["stats"].(map[string]any)["hp"] = float64(1)
	copied["tags"].([]any)[1].(map[string]any)["k"] = "changed"

	assert.Equal(t, float64(42), original["stats"].(map[string]any)["hp"])
	assert.Equal(t, "v", original["tags"].([]any)[1].(map[string]any)["k"])
}

func TestDeepCopyMapNil(t *testing.T) {
	copied := DeepCopyMap(nil)
	assert.NotNil(t, copied)
	assert.Empty(t, copied)
}

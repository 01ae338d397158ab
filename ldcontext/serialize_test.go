package ldcontext

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize(t *testing.T) {
	p := newTestProcessor(t)
	ctx := mustParse(t, p, map[string]any{
		"@version":   1.1,
		"@base":      "http://example.org/doc",
		"@vocab":     "http://example.org/ns/",
		"@language":  "en",
		"@direction": "ltr",
		"name":       "http://schema.org/name",
		"tags": map[string]any{
			"@id":        "http://example.org/tags",
			"@container": []any{"@index", "@set"},
			"@index":     "http://example.org/position",
		},
		"silent":   map[string]any{"@id": "http://example.org/silent", "@language": nil},
		"gone":     nil,
		"children": map[string]any{"@reverse": "http://example.org/parent"},
	})

	out := ctx.Serialize()

	assert.Equal(t, 1.1, out["@version"])
	assert.Equal(t, "http://example.org/doc", out["@base"])
	assert.Equal(t, "http://example.org/ns/", out["@vocab"])
	assert.Equal(t, "en", out["@language"])
	assert.Equal(t, "ltr", out["@direction"])

	// Simple terms collapse to the string shorthand.
	assert.Equal(t, "http://schema.org/name", out["name"])

	tags, ok := out["tags"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "http://example.org/tags", tags["@id"])
	assert.ElementsMatch(t, []any{"@index", "@set"}, tags["@container"])
	assert.Equal(t, "http://example.org/position", tags["@index"])

	silent, ok := out["silent"].(map[string]any)
	require.True(t, ok)
	lang, present := silent["@language"]
	assert.True(t, present)
	assert.Nil(t, lang)

	gone, ok := out["gone"].(map[string]any)
	require.True(t, ok)
	id, present := gone["@id"]
	assert.True(t, present)
	assert.Nil(t, id)

	children, ok := out["children"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "http://example.org/parent", children["@reverse"])
}

func TestSerialize_RoundTrip(t *testing.T) {
	p := newTestProcessor(t)
	original := mustParse(t, p, map[string]any{
		"@vocab": "http://example.org/ns/",
		"schema": "http://schema.org/",
		"name":   "schema:name",
		"link":   map[string]any{"@id": "http://schema.org/url", "@type": "@id"},
		"list":   map[string]any{"@id": "http://example.org/list", "@container": "@list"},
	})

	reparsed := mustParse(t, p, original.Serialize())

	assert.Equal(t, original.Vocab(), reparsed.Vocab())
	assert.Equal(t, original.Terms(), reparsed.Terms())
	for _, term := range original.Terms() {
		want, _ := original.Term(term)
		got, ok := reparsed.Term(term)
		require.True(t, ok, term)
		assert.Equal(t, want.IRIValue(), got.IRIValue(), term)
		assert.Equal(t, want.TypeMapping, got.TypeMapping, term)
		assert.Equal(t, want.Containers, got.Containers, term)
		assert.Equal(t, want.Reverse, got.Reverse, term)
	}
}

func TestContext_MarshalJSON(t *testing.T) {
	p := newTestProcessor(t)
	ctx := mustParse(t, p, map[string]any{"name": "http://schema.org/name"})

	data, err := json.Marshal(ctx)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	inner, ok := doc["@context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "http://schema.org/name", inner["name"])
}

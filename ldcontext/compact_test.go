package ldcontext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semld/errors"
)

func TestCompactIRI_TermAndVocab(t *testing.T) {
	p := newTestProcessor(t)
	ctx := mustParse(t, p, map[string]any{
		"@vocab": "http://vocab.org/",
		"ex":     "http://example.org/",
		"name":   "http://schema.org/name",
	})

	got, err := ctx.CompactIRI("http://schema.org/name", CompactVocab())
	require.NoError(t, err)
	assert.Equal(t, "name", got)

	// Vocabulary-relative suffix when no term matches.
	got, err = ctx.CompactIRI("http://vocab.org/age", CompactVocab())
	require.NoError(t, err)
	assert.Equal(t, "age", got)

	// Compact IRI through the prefix term.
	got, err = ctx.CompactIRI("http://example.org/other", CompactVocab())
	require.NoError(t, err)
	assert.Equal(t, "ex:other", got)

	// Nothing applies: the IRI is returned unchanged under vocab compaction.
	got, err = ctx.CompactIRI("http://elsewhere.org/x", CompactVocab())
	require.NoError(t, err)
	assert.Equal(t, "http://elsewhere.org/x", got)

	got, err = ctx.CompactIRI("", CompactVocab())
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestCompactIRI_VocabSuffixCollision(t *testing.T) {
	p := newTestProcessor(t)
	ctx := mustParse(t, p, map[string]any{
		"@vocab": "http://vocab.org/",
		"age":    "http://schema.org/age",
	})

	// "age" would be the natural suffix but is taken by another mapping.
	got, err := ctx.CompactIRI("http://vocab.org/age", CompactVocab())
	require.NoError(t, err)
	assert.Equal(t, "http://vocab.org/age", got)
}

func TestCompactIRI_ShortestCandidateWins(t *testing.T) {
	p := newTestProcessor(t)
	ctx := mustParse(t, p, map[string]any{
		"long": "http://example.org/ns/",
		"ab":   "http://example.org/ns/",
		"aa":   "http://example.org/ns/",
	})

	got, err := ctx.CompactIRI("http://example.org/ns/x", CompactVocab())
	require.NoError(t, err)
	assert.Equal(t, "aa:x", got)
}

func TestCompactIRI_RoundTrip(t *testing.T) {
	// Expansion of every compaction result must reproduce the input IRI.
	p := newTestProcessor(t, func(o *Options) { o.Base = "http://example.org/doc/base" })
	ctx := mustParse(t, p, map[string]any{
		"@vocab": "http://vocab.org/",
		"schema": "http://schema.org/",
		"name":   "schema:name",
	})

	iris := []string{
		"http://schema.org/name",
		"http://schema.org/url",
		"http://vocab.org/height",
		"http://elsewhere.org/z",
	}
	for _, iri := range iris {
		compacted, err := ctx.CompactIRI(iri, CompactVocab())
		require.NoError(t, err)
		expanded, err := ctx.ExpandIRI(compacted, ExpandVocab())
		require.NoError(t, err)
		assert.Equal(t, iri, expanded, "compacted form %q", compacted)
	}
}

func labelContext(t *testing.T) *Context {
	t.Helper()
	p := newTestProcessor(t)
	return mustParse(t, p, map[string]any{
		"@language": "en",
		"plain":     "http://example.org/label",
		"typed": map[string]any{
			"@id":   "http://example.org/label",
			"@type": "http://example.org/Type",
		},
		"list": map[string]any{
			"@id":        "http://example.org/label",
			"@container": "@list",
		},
		"noLang": map[string]any{
			"@id":       "http://example.org/label",
			"@language": nil,
		},
		"deLabel": map[string]any{
			"@id":       "http://example.org/label",
			"@language": "de",
		},
	})
}

func TestCompactIRI_ValueShapeSelection(t *testing.T) {
	ctx := labelContext(t)
	const iri = "http://example.org/label"

	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{
			name:     "language tagged value",
			value:    map[string]any{"@value": "wert", "@language": "de"},
			expected: "deLabel",
		},
		{
			name:     "default language value",
			value:    map[string]any{"@value": "word", "@language": "en"},
			expected: "plain",
		},
		{
			name:     "untagged value prefers the null-language term",
			value:    map[string]any{"@value": 42.0},
			expected: "noLang",
		},
		{
			name:     "typed value",
			value:    map[string]any{"@value": "x", "@type": "http://example.org/Type"},
			expected: "typed",
		},
		{
			name: "list of tagged values",
			value: map[string]any{"@list": []any{
				map[string]any{"@value": "one", "@language": "en"},
				map[string]any{"@value": "two", "@language": "en"},
			}},
			expected: "list",
		},
		{
			name:     "no value prefers the null-language term",
			value:    nil,
			expected: "noLang",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ctx.CompactIRI(iri, CompactVocab(), CompactValue(tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCompactIRI_NodeReferencePrefersIDTerms(t *testing.T) {
	p := newTestProcessor(t)
	ctx := mustParse(t, p, map[string]any{
		"raw": "http://schema.org/url",
		"link": map[string]any{
			"@id":   "http://schema.org/url",
			"@type": "@id",
		},
	})

	got, err := ctx.CompactIRI("http://schema.org/url",
		CompactVocab(), CompactValue(map[string]any{"@id": "http://example.org/thing"}))
	require.NoError(t, err)
	assert.Equal(t, "link", got)

	// A plain literal value goes to the untyped term.
	got, err = ctx.CompactIRI("http://schema.org/url",
		CompactVocab(), CompactValue(map[string]any{"@value": "text"}))
	require.NoError(t, err)
	assert.Equal(t, "raw", got)
}

func TestCompactIRI_ListContainerSelection(t *testing.T) {
	p := newTestProcessor(t)
	ctx := mustParse(t, p, map[string]any{
		"scalar": "http://example.org/values",
		"many": map[string]any{
			"@id":        "http://example.org/values",
			"@container": "@list",
		},
	})

	got, err := ctx.CompactIRI("http://example.org/values",
		CompactVocab(), CompactValue(map[string]any{"@list": []any{1.0, 2.0}}))
	require.NoError(t, err)
	assert.Equal(t, "many", got)
}

func TestCompactIRI_PrefixConfusion(t *testing.T) {
	p := newTestProcessor(t)
	ctx := mustParse(t, p, map[string]any{
		"ex": "http://example.org/ns#",
	})

	// "ex:surprise" reads as a compact IRI that expands elsewhere.
	_, err := ctx.CompactIRI("ex:surprise")
	assert.True(t, errors.IsCode(err, errors.IRIConfusedWithPrefix))

	// An IRI inside the prefix namespace compacts legitimately.
	got, err := ctx.CompactIRI("http://example.org/ns#x")
	require.NoError(t, err)
	assert.Equal(t, "ex:x", got)
}

func TestCompactIRI_Relative(t *testing.T) {
	p := newTestProcessor(t, func(o *Options) { o.Base = "http://example.org/a/b" })
	ctx := mustParse(t, p, map[string]any{})

	got, err := ctx.CompactIRI("http://example.org/a/c")
	require.NoError(t, err)
	assert.Equal(t, "c", got)

	got, err = ctx.CompactIRI("http://example.org/x/y")
	require.NoError(t, err)
	assert.Equal(t, "../x/y", got)

	// A relative form that reads as a keyword is escaped.
	got, err = ctx.CompactIRI("http://example.org/a/@type")
	require.NoError(t, err)
	assert.Equal(t, "./@type", got)

	// CompactBase overrides the context base.
	got, err = ctx.CompactIRI("http://other.org/p/q", CompactBase("http://other.org/p/r"))
	require.NoError(t, err)
	assert.Equal(t, "q", got)
}

func TestCompactIRI_ReversePosition(t *testing.T) {
	p := newTestProcessor(t)
	ctx := mustParse(t, p, map[string]any{
		"forward":  "http://example.org/parent",
		"children": map[string]any{"@reverse": "http://example.org/parent"},
	})

	got, err := ctx.CompactIRI("http://example.org/parent", CompactVocab(), CompactReverse())
	require.NoError(t, err)
	assert.Equal(t, "children", got)

	got, err = ctx.CompactIRI("http://example.org/parent", CompactVocab())
	require.NoError(t, err)
	assert.Equal(t, "forward", got)
}

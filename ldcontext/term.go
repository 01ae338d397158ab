package ldcontext

import (
	"slices"
)

// Nullable models a tri-state mapping: inherited (unset), explicit null, or
// an explicit value. Term language and direction mappings need all three
// states because {"@language": null} shadows an inherited default, which is
// different from saying nothing.
type Nullable struct {
	defined bool
	value   *string
}

// NullableOf returns a Nullable holding an explicit value.
func NullableOf(value string) Nullable {
	return Nullable{defined: true, value: &value}
}

// ExplicitNull returns a Nullable holding an explicit null.
func ExplicitNull() Nullable {
	return Nullable{defined: true}
}

// Defined reports whether the mapping was set at all (value or null).
func (n Nullable) Defined() bool { return n.defined }

// IsNull reports whether the mapping was set to an explicit null.
func (n Nullable) IsNull() bool { return n.defined && n.value == nil }

// Get returns the value and whether a non-null value is present.
func (n Nullable) Get() (string, bool) {
	if n.value == nil {
		return "", false
	}
	return *n.value, true
}

// Equal reports whether two tri-state mappings are identical.
func (n Nullable) Equal(other Nullable) bool {
	if n.defined != other.defined {
		return false
	}
	if (n.value == nil) != (other.value == nil) {
		return false
	}
	return n.value == nil || *n.value == *other.value
}

// TermDefinition is the immutable record of one term's mapping and flags.
// It is built once and never mutated; redefinition replaces the whole
// record in the context's term map.
type TermDefinition struct {
	// Term is the defined term name.
	Term string

	// IRI is the expanded IRI mapping (absolute IRI, blank node identifier,
	// or keyword). Nil means the term is explicitly decoupled: lookups
	// through it resolve to nothing.
	IRI *string

	// TypeMapping is an absolute IRI, @id, @vocab, @none, or @json; empty
	// when unset.
	TypeMapping string

	// Containers holds the container mapping tokens, sorted.
	Containers []string

	// Language and Direction are tri-state: inherited, explicit null, or a
	// value.
	Language  Nullable
	Direction Nullable

	// Reverse marks a reverse-property term.
	Reverse bool

	// Protected terms reject later non-identical redefinition.
	Protected bool

	// Prefix marks the term usable as a compact-IRI prefix.
	Prefix bool

	// Nest is the @nest target (@nest itself or a term resolving to it);
	// empty when unset. Its resolution is checked lazily on use.
	Nest string

	// Index is the index property for @index containers; empty means @index.
	Index string

	// Context holds the raw, unparsed scoped context when HasContext is
	// true. It is re-activated lazily when the term becomes active.
	Context    any
	HasContext bool

	// ContextBase is the base URL the scoped context must be parsed against.
	ContextBase string

	// Simple records whether the definition came from the shorthand string
	// form. Serialization-only; also gates prefix eligibility.
	Simple bool
}

// IRIValue returns the IRI mapping, or "" when null or unset.
func (td *TermDefinition) IRIValue() string {
	if td == nil || td.IRI == nil {
		return ""
	}
	return *td.IRI
}

// HasContainer reports whether the container mapping includes token.
func (td *TermDefinition) HasContainer(token string) bool {
	return td != nil && slices.Contains(td.Containers, token)
}

// containerKey returns the concatenated sorted container tokens used as the
// inverse-index signature, or @none for an empty mapping.
func (td *TermDefinition) containerKey() string {
	if len(td.Containers) == 0 {
		return kwNone
	}
	key := ""
	for _, c := range td.Containers {
		key += c
	}
	return key
}

// Equal reports whether two definitions are field-identical, ignoring the
// protected flag. This is the protected-term redefinition test.
func (td *TermDefinition) Equal(other *TermDefinition) bool {
	if td == nil || other == nil {
		return td == other
	}
	if td.Term != other.Term ||
		td.IRIValue() != other.IRIValue() ||
		(td.IRI == nil) != (other.IRI == nil) ||
		td.TypeMapping != other.TypeMapping ||
		td.Reverse != other.Reverse ||
		td.Prefix != other.Prefix ||
		td.Nest != other.Nest ||
		td.Index != other.Index ||
		td.HasContext != other.HasContext {
		return false
	}
	if !td.Language.Equal(other.Language) || !td.Direction.Equal(other.Direction) {
		return false
	}
	if !slices.Equal(td.Containers, other.Containers) {
		return false
	}
	if td.HasContext && !rawEqual(td.Context, other.Context) {
		return false
	}
	return true
}

// rawEqual compares raw JSON values structurally.
func rawEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !rawEqual(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !rawEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

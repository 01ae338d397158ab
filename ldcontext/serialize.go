package ldcontext

import "encoding/json"

// Serialize re-emits the active context as a context document: global
// settings first, then term entries in sorted order. Simple terms collapse
// back to the string shorthand; everything else becomes an expanded term
// object. The result round-trips through Parse to an equivalent context.
func (c *Context) Serialize() map[string]any {
	out := make(map[string]any)

	if c.mode == ModeJSONLD11 {
		out[kwVersion] = 1.1
	}
	if c.base != nil {
		out[kwBase] = *c.base
	}
	if c.vocab != nil {
		out[kwVocab] = *c.vocab
	}
	if c.defaultLanguage != nil {
		out[kwLanguage] = *c.defaultLanguage
	}
	if c.defaultDirection != nil {
		out[kwDirection] = *c.defaultDirection
	}

	for _, term := range c.Terms() {
		td := c.terms[term]
		if td.Simple && td.IRI != nil {
			out[term] = *td.IRI
			continue
		}
		out[term] = serializeTerm(td)
	}
	return out
}

func serializeTerm(td *TermDefinition) any {
	entry := make(map[string]any)

	idKey := kwID
	if td.Reverse {
		idKey = kwReverse
	}
	if td.IRI == nil {
		entry[idKey] = nil
	} else {
		entry[idKey] = *td.IRI
	}

	if td.TypeMapping != "" {
		entry[kwType] = td.TypeMapping
	}
	switch len(td.Containers) {
	case 0:
	case 1:
		entry[kwContainer] = td.Containers[0]
	default:
		tokens := make([]any, len(td.Containers))
		for i, t := range td.Containers {
			tokens[i] = t
		}
		entry[kwContainer] = tokens
	}
	if td.Language.Defined() {
		if lang, ok := td.Language.Get(); ok {
			entry[kwLanguage] = lang
		} else {
			entry[kwLanguage] = nil
		}
	}
	if td.Direction.Defined() {
		if dir, ok := td.Direction.Get(); ok {
			entry[kwDirection] = dir
		} else {
			entry[kwDirection] = nil
		}
	}
	if td.HasContext {
		entry[kwContext] = td.Context
	}
	if td.Nest != "" {
		entry[kwNest] = td.Nest
	}
	if td.Index != "" {
		entry[kwIndex] = td.Index
	}
	if td.Protected {
		entry[kwProtected] = true
	}
	if td.Prefix && !td.Simple {
		entry[kwPrefix] = true
	}
	return entry
}

// MarshalJSON implements json.Marshaler, wrapping the serialized context in
// an @context entry so the output is a loadable context document.
func (c *Context) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{kwContext: c.Serialize()})
}

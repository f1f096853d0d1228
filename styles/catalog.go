package styles

import (
	"errors"
	"fmt"
)

const (
	summaryPrompt = "Summarize the following text in at most three sentences. Bullet points are allowed. Do not embellish."
	haikuPrompt   = "Write one haiku (5-7-5) that captures the scene of the following text. A season word is optional. No trailing punctuation."
	quotePrompt   = "Turn the following text into a single short, positive, quote-like sentence of at most 20 words with at most one punctuation mark."
)

// Catalog resolve chaves de estilo. É seguro para uso concorrente porque nunca
// é alterado após a construção.
type Catalog struct {
	byKey map[string]Style
	order []string
}

// NewCatalog valida e registra os estilos na ordem recebida.
func NewCatalog(styles ...Style) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]Style, len(styles))}
	fields := make(map[string]string, len(styles))
	for _, st := range styles {
		key := NormalizeKey(st.Key)
		if key == "" {
			return nil, errors.New("style key is required")
		}
		if st.SystemPrompt == "" {
			return nil, fmt.Errorf("style %q: system prompt is required", key)
		}
		if _, dup := c.byKey[key]; dup {
			return nil, fmt.Errorf("style %q registered twice", key)
		}
		st.Key = key
		if st.OutputField == "" {
			st.OutputField = key
		}
		if owner, dup := fields[st.OutputField]; dup {
			return nil, fmt.Errorf("style %q: output field %q already used by %q", key, st.OutputField, owner)
		}
		fields[st.OutputField] = key
		c.byKey[key] = st
		c.order = append(c.order, key)
	}
	return c, nil
}

// Default devolve o catálogo embutido: summary, haiku e quote.
func Default() *Catalog {
	c, err := NewCatalog(
		Style{Key: "summary", SystemPrompt: summaryPrompt, OutputField: "summary"},
		Style{Key: "haiku", SystemPrompt: haikuPrompt, OutputField: "haiku", Postprocess: JoinLines},
		Style{Key: "quote", SystemPrompt: quotePrompt, OutputField: "quote"},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// With devolve um novo catálogo onde extra substitui estilos de mesma chave e
// acrescenta os demais ao final.
func (c *Catalog) With(extra ...Style) (*Catalog, error) {
	overrides := make(map[string]Style, len(extra))
	var added []Style
	for _, st := range extra {
		key := NormalizeKey(st.Key)
		if _, ok := c.byKey[key]; ok {
			if _, dup := overrides[key]; dup {
				return nil, fmt.Errorf("style %q registered twice", key)
			}
			overrides[key] = st
			continue
		}
		added = append(added, st)
	}

	merged := make([]Style, 0, len(c.order)+len(added))
	for _, key := range c.order {
		if st, ok := overrides[key]; ok {
			merged = append(merged, st)
			continue
		}
		merged = append(merged, c.byKey[key])
	}
	merged = append(merged, added...)
	return NewCatalog(merged...)
}

// Resolve procura o estilo ignorando caixa e espaços nas pontas.
func (c *Catalog) Resolve(key string) (Style, bool) {
	if c == nil {
		return Style{}, false
	}
	st, ok := c.byKey[NormalizeKey(key)]
	return st, ok
}

// Keys devolve as chaves na ordem de registro.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Styles devolve os estilos na ordem de registro.
func (c *Catalog) Styles() []Style {
	out := make([]Style, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.byKey[key])
	}
	return out
}

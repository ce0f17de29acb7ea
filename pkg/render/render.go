// Package render substitutes per-call variables into pathway prompts.
package render

import (
	"strings"

	"github.com/aretw0/pathway/pkg/domain"
)

// DefaultPlaceholders are the variables the proxy extracts from every request.
var DefaultPlaceholders = []string{
	domain.VarCustomerName,
	domain.VarEmail,
	domain.VarCompanyName,
	domain.VarIndustry,
	domain.VarWebsite,
}

// Token returns the literal placeholder for a variable name, e.g. "{{email}}".
func Token(name string) string {
	return "{{" + name + "}}"
}

// Renderer replaces a fixed set of named placeholders.
type Renderer struct {
	names []string
}

// New returns a renderer for the given placeholder names.
// With no names it uses DefaultPlaceholders.
func New(names ...string) *Renderer {
	if len(names) == 0 {
		names = DefaultPlaceholders
	}
	cp := make([]string, len(names))
	copy(cp, names)
	return &Renderer{names: cp}
}

// Names returns the recognised placeholder names.
func (r *Renderer) Names() []string {
	cp := make([]string, len(r.names))
	copy(cp, r.names)
	return cp
}

// Render replaces every recognised placeholder in tmpl with its value in vars.
// Missing variables render as "". Replacement is a single pass, so values that
// contain placeholders are not expanded again. Unknown placeholders are kept verbatim.
func (r *Renderer) Render(tmpl string, vars domain.Variables) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	pairs := make([]string, 0, len(r.names)*2)
	for _, name := range r.names {
		pairs = append(pairs, Token(name), vars[name])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

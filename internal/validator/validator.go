// Package validator reports pathway problems that do not stop the proxy from starting.
package validator

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/render"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// Issue is a warning about a single step.
type Issue struct {
	Step    int
	Field   string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("step %d (%s): %s", i.Step, i.Field, i.Message)
}

// Lint inspects every template of the catalog.
// It flags placeholders the renderer does not know, which would be sent to the
// model verbatim, and gated steps that fall back to the default error prompt.
func Lint(c *domain.Catalog, r *render.Renderer) []Issue {
	known := r.Names()
	var issues []Issue

	check := func(step int, field, tmpl string) {
		for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
			name := m[1]
			if m[0] == render.Token(name) && slices.Contains(known, name) {
				continue
			}
			msg := fmt.Sprintf("unknown placeholder %s is left as is", m[0])
			if slices.Contains(known, name) {
				msg = fmt.Sprintf("placeholder %s must be written %s", m[0], render.Token(name))
			}
			issues = append(issues, Issue{Step: step, Field: field, Message: msg})
		}
	}

	for i, s := range c.Steps() {
		check(i, "next", s.NextPrompt())

		g, ok := s.(domain.GatedStep)
		if !ok {
			continue
		}
		if strings.TrimSpace(g.Error) == "" {
			issues = append(issues, Issue{Step: i, Field: "error", Message: "no error prompt, the default apology is used"})
			continue
		}
		check(i, "error", g.Error)
	}
	return issues
}

package domain

import (
	"fmt"
	"strings"
)

// DefaultErrorPrompt is used when a gated step rejects and defines no error prompt.
const DefaultErrorPrompt = "I'm sorry, I didn't quite get that. Could you please repeat?"

// Step is a single entry of the pathway.
// The two implementations are UngatedStep and GatedStep.
type Step interface {
	// NextPrompt is the template used when the step proceeds.
	NextPrompt() string
	isStep()
}

// UngatedStep always proceeds.
type UngatedStep struct {
	Next string `json:"next" yaml:"next"`
}

func (s UngatedStep) NextPrompt() string { return s.Next }
func (UngatedStep) isStep()              {}

// GatedStep proceeds only when Check is classified as satisfied by the user's message.
type GatedStep struct {
	Next  string `json:"next" yaml:"next"`
	Check string `json:"check" yaml:"check"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (s GatedStep) NextPrompt() string { return s.Next }
func (GatedStep) isStep()              {}

// ErrorPrompt returns the reject-branch template, falling back to DefaultErrorPrompt.
func (s GatedStep) ErrorPrompt() string {
	if s.Error == "" {
		return DefaultErrorPrompt
	}
	return s.Error
}

// Catalog is the immutable, ordered list of pathway steps.
type Catalog struct {
	steps []Step
}

// NewCatalog validates the steps and returns a catalog.
// A catalog must contain at least one step and every step needs a non-empty Next.
func NewCatalog(steps ...Step) (*Catalog, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: pathway has no steps", ErrInvalidCatalog)
	}
	cp := make([]Step, len(steps))
	for i, s := range steps {
		if s == nil {
			return nil, fmt.Errorf("%w: step %d is nil", ErrInvalidCatalog, i)
		}
		if strings.TrimSpace(s.NextPrompt()) == "" {
			return nil, fmt.Errorf("%w: step %d has an empty 'next' prompt", ErrInvalidCatalog, i)
		}
		// A gated step without a check behaves like an ungated one.
		if g, ok := s.(GatedStep); ok && g.Check == "" {
			s = UngatedStep{Next: g.Next}
		}
		cp[i] = s
	}
	return &Catalog{steps: cp}, nil
}

// Len returns the number of steps.
func (c *Catalog) Len() int { return len(c.steps) }

// At returns the step at index i.
func (c *Catalog) At(i int) (Step, error) {
	if i < 0 || i >= len(c.steps) {
		return nil, fmt.Errorf("step index %d out of range [0,%d)", i, len(c.steps))
	}
	return c.steps[i], nil
}

// Steps returns a copy of the steps.
func (c *Catalog) Steps() []Step {
	cp := make([]Step, len(c.steps))
	copy(cp, c.steps)
	return cp
}

// Following returns the index after i, wrapping to 0 after the last step.
func (c *Catalog) Following(i int) int {
	return (i + 1) % len(c.steps)
}

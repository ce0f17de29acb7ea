// Package catalog loads the pathway definition from a JSON or YAML file.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// StepDefinition is the configuration form of a step. A non-empty Check makes it gated.
type StepDefinition struct {
	Next  string `json:"next" yaml:"next" mapstructure:"next"`
	Check string `json:"check,omitempty" yaml:"check,omitempty" mapstructure:"check"`
	Error string `json:"error,omitempty" yaml:"error,omitempty" mapstructure:"error"`
}

// Step converts the definition into its domain variant.
func (d StepDefinition) Step() domain.Step {
	if d.Check == "" {
		return domain.UngatedStep{Next: d.Next}
	}
	return domain.GatedStep{Next: d.Next, Check: d.Check, Error: d.Error}
}

// Definitions converts a catalog back into its configuration form.
func Definitions(c *domain.Catalog) []StepDefinition {
	steps := c.Steps()
	defs := make([]StepDefinition, len(steps))
	for i, s := range steps {
		switch v := s.(type) {
		case domain.GatedStep:
			defs[i] = StepDefinition{Next: v.Next, Check: v.Check, Error: v.Error}
		default:
			defs[i] = StepDefinition{Next: s.NextPrompt()}
		}
	}
	return defs
}

// LoadFile reads a pathway file. Files ending in .yaml or .yml are parsed as YAML,
// everything else as JSON. The document is either a list of steps or an object
// with a "steps" list.
func LoadFile(path string) (*domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read pathway file: %w", domain.ErrInvalidCatalog, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// ParseJSON parses a JSON pathway document.
func ParseJSON(data []byte) (*domain.Catalog, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse pathway JSON: %w", domain.ErrInvalidCatalog, err)
	}
	return fromDocument(doc)
}

// ParseYAML parses a YAML pathway document.
func ParseYAML(data []byte) (*domain.Catalog, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse pathway YAML: %w", domain.ErrInvalidCatalog, err)
	}
	return fromDocument(doc)
}

func fromDocument(doc any) (*domain.Catalog, error) {
	if m, ok := doc.(map[string]any); ok {
		doc = m["steps"]
	}

	raw, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list of steps", domain.ErrInvalidCatalog)
	}

	steps := make([]domain.Step, 0, len(raw))
	for i, item := range raw {
		def, err := decodeStep(item)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %w", domain.ErrInvalidCatalog, i, err)
		}
		steps = append(steps, def.Step())
	}

	return domain.NewCatalog(steps...)
}

func decodeStep(item any) (StepDefinition, error) {
	var def StepDefinition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &def,
		ErrorUnused: true,
	})
	if err != nil {
		return def, err
	}
	if err := decoder.Decode(item); err != nil {
		return def, err
	}
	return def, nil
}

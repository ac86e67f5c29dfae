// Package adversary provides YAML-defined adversary archetypes that campaign
// content can reference when starting encounters.
package adversary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/repairman29/mythseeker/internal/game/combat"
)

// Template defines a reusable adversary archetype loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Health      int    `yaml:"health"`
	ArmorClass  int    `yaml:"armor_class"`
	// InitiativeBonus is added to a d20 roll when the encounter uses rolled
	// adversary initiative instead of a caller-supplied value.
	InitiativeBonus int `yaml:"initiative_bonus"`
	Challenge       int `yaml:"challenge"`
}

// Validate checks that the template satisfies basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, Health >= 1, and
// ArmorClass >= 1; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("adversary template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("adversary template %q: name must not be empty", t.ID)
	}
	if t.Health < 1 {
		return fmt.Errorf("adversary template %q: health must be >= 1", t.ID)
	}
	if t.ArmorClass < 1 {
		return fmt.Errorf("adversary template %q: armor_class must be >= 1", t.ID)
	}
	return nil
}

// Def converts the template to an encounter-ready adversary definition with
// the given rolled initiative.
func (t *Template) Def(initiative int) combat.AdversaryDef {
	return combat.AdversaryDef{
		Name:       t.Name,
		Health:     t.Health,
		ArmorClass: t.ArmorClass,
		Initiative: initiative,
	}
}

// LoadTemplateFromBytes parses a single adversary template from raw YAML bytes.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing adversary template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading adversary dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// Registry indexes adversary templates by ID.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry builds a Registry from templates.
//
// Postcondition: Returns an error on duplicate template IDs.
func NewRegistry(templates []*Template) (*Registry, error) {
	r := &Registry{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, exists := r.templates[t.ID]; exists {
			return nil, fmt.Errorf("duplicate adversary template id %q", t.ID)
		}
		r.templates[t.ID] = t
	}
	return r, nil
}

// Get returns the template with the given ID.
//
// Postcondition: Returns (template, true) if found, or (nil, false) otherwise.
func (r *Registry) Get(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// Count returns the number of registered templates.
func (r *Registry) Count() int { return len(r.templates) }

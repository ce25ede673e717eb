package pack

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/ingest/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Manifest describes one solution pack.
type Manifest struct {
	Module string `yaml:"module"`
	Title  string `yaml:"title,omitempty"`

	// Provides lists the include files the module makes available to steps.
	Provides []string `yaml:"provides,omitempty"`

	// Steps maps a content model to the steps it contributes. The AnyModel
	// entry contributes to every wizard.
	Steps map[string][]domain.Step `yaml:"steps,omitempty"`

	// Objects are required repository objects, such as content models and
	// root collections.
	Objects []domain.DraftObject `yaml:"objects,omitempty"`
}

// AnyModel is the Steps key of contributions offered to every wizard.
const AnyModel = "*"

// Parse decodes and validates a manifest.
func Parse(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty manifest")
		}
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseFile reads a manifest from disk.
func ParseFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Validate checks the manifest is usable.
func (m *Manifest) Validate() error {
	if m.Module == "" {
		return fmt.Errorf("manifest has no module")
	}
	seen := make(map[string]bool)
	for i, obj := range m.Objects {
		if obj.ID == "" {
			return fmt.Errorf("module %s: object %d has no id", m.Module, i)
		}
		if seen[obj.ID] {
			return fmt.Errorf("module %s: object %s declared twice", m.Module, obj.ID)
		}
		seen[obj.ID] = true
	}
	for model, steps := range m.Steps {
		for i, s := range steps {
			if s.Key() == "" {
				return fmt.Errorf("module %s: step %d of model %s needs an id or a renderer", m.Module, i, model)
			}
		}
	}
	return nil
}

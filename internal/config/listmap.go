package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

//go:embed lists.yaml
var defaultListMappingYAML []byte

// ListMapping maps a location name to the marketing list its customers join.
// It is built once at start-up and never mutated afterwards.
type ListMapping struct {
	lists map[string]string
}

type listMappingFile struct {
	Lists map[string]string `yaml:"lists"`
}

// DefaultListMapping returns the mapping shipped with the binary.
func DefaultListMapping() (*ListMapping, error) {
	return ParseListMapping(defaultListMappingYAML)
}

// LoadListMapping reads a mapping file. An empty path selects the default mapping.
func LoadListMapping(path string) (*ListMapping, error) {
	if path == "" {
		return DefaultListMapping()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read list mapping: %w", err)
	}
	return ParseListMapping(b)
}

// ParseListMapping decodes and validates a YAML list mapping document.
func ParseListMapping(b []byte) (*ListMapping, error) {
	var f listMappingFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse list mapping: %w", err)
	}
	return NewListMapping(f.Lists)
}

// NewListMapping validates and copies lists.
func NewListMapping(lists map[string]string) (*ListMapping, error) {
	var errs field.ErrorList

	if len(lists) == 0 {
		errs = append(errs, field.Required(field.NewPath("lists"), "at least one location must be mapped"))
	}

	out := make(map[string]string, len(lists))
	for name, id := range lists {
		p := field.NewPath("lists").Key(name)
		if strings.TrimSpace(name) == "" {
			errs = append(errs, field.Invalid(p, name, "location name must not be empty"))
			continue
		}
		if strings.TrimSpace(id) == "" {
			errs = append(errs, field.Required(p, "list id is required"))
			continue
		}
		out[name] = id
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid list mapping: %w", errs.ToAggregate())
	}

	return &ListMapping{lists: out}, nil
}

// ListID returns the list id for a location name.
func (m *ListMapping) ListID(locationName string) (string, bool) {
	if m == nil {
		return "", false
	}
	id, ok := m.lists[locationName]
	return id, ok
}

// Len returns the number of mapped locations.
func (m *ListMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.lists)
}

package fieldtypes

import (
	"embed"
	"encoding/json"
	"sync"
)

//go:embed fieldTypes.json
var fieldTypesFS embed.FS

// FieldTypeDefinition represents a column type configuration
type FieldTypeDefinition struct {
	Label             string   `json:"label"`
	Icon              string   `json:"icon"`
	Description       string   `json:"description"`
	Align             string   `json:"align,omitempty"`
	IsNumeric         bool     `json:"isNumeric,omitempty"`
	IsSortable        bool     `json:"isSortable,omitempty"`
	ValidationPattern *string  `json:"validationPattern,omitempty"`
	ValidationMessage *string  `json:"validationMessage,omitempty"`
	Operators         []string `json:"operators"`
}

// Registry holds column type definitions
type Registry struct {
	types map[string]FieldTypeDefinition
	mu    sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// GetRegistry returns the singleton field types registry
func GetRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = &Registry{
			types: make(map[string]FieldTypeDefinition),
		}
		defaultRegistry.loadFromEmbedded()
	})
	return defaultRegistry
}

// loadFromEmbedded loads column types from the embedded JSON file
func (r *Registry) loadFromEmbedded() error {
	data, err := fieldTypesFS.ReadFile("fieldTypes.json")
	if err != nil {
		return err
	}

	var types map[string]FieldTypeDefinition
	if err := json.Unmarshal(data, &types); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = types
	return nil
}

// Get returns a column type definition by name
func (r *Registry) Get(typeName string) (FieldTypeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.types[typeName]
	return def, ok
}

// GetValidationPattern returns the regex pattern and message for a type,
// or empty strings when the type has no pattern-level validation.
func (r *Registry) GetValidationPattern(typeName string) (string, string) {
	def, ok := r.Get(typeName)
	if !ok || def.ValidationPattern == nil {
		return "", ""
	}
	message := ""
	if def.ValidationMessage != nil {
		message = *def.ValidationMessage
	}
	return *def.ValidationPattern, message
}

// IsNumeric returns whether a column type stores numbers
func (r *Registry) IsNumeric(typeName string) bool {
	def, ok := r.Get(typeName)
	if !ok {
		return false
	}
	return def.IsNumeric
}

// IsSortable returns whether a column type supports grid ordering
func (r *Registry) IsSortable(typeName string) bool {
	def, ok := r.Get(typeName)
	if !ok {
		return false
	}
	return def.IsSortable
}

// List returns all known column type names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	return names
}

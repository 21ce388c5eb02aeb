package fieldtypes

import (
	"fmt"
	"sync"

	"github.com/projectpulse/gridcore/pkg/models"
)

// CellRenderer defines the render/edit strategy for one column type.
// Renderers are stateless view functions of the stored value; mutable
// edit state lives only in the CellEditor a renderer creates.
type CellRenderer interface {
	// Name returns the column type this renderer handles
	Name() string

	// Format formats a stored value for display. params carries
	// column-level options (currency symbol, phone format, ...).
	Format(value any, params map[string]any) string

	// NewEditor creates an edit buffer seeded from the stored value
	NewEditor(value any) CellEditor
}

// CellEditor is the edit-buffer contract the grid controller pulls the
// committed value from when an edit session stops.
type CellEditor interface {
	// CurrentValue returns the raw buffer contents to be coerced
	CurrentValue() any

	// SetBuffer replaces the buffer with new raw input
	SetBuffer(raw any)

	// OnAttach is called when the editor gains focus
	OnAttach()
}

// BaseRenderer provides the default formatting shared by pass-through
// types. Concrete renderers embed it and override what they need.
type BaseRenderer struct {
	name string
}

// NewBaseRenderer creates a base renderer for the named column type
func NewBaseRenderer(name string) BaseRenderer {
	return BaseRenderer{name: name}
}

func (r BaseRenderer) Name() string { return r.name }

func (r BaseRenderer) Format(value any, params map[string]any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%v", value)
}

func (r BaseRenderer) NewEditor(value any) CellEditor {
	return NewBufferEditor(value)
}

// BufferEditor is the plain edit buffer used by every type except time,
// which needs its own stateful editor.
type BufferEditor struct {
	buffer   any
	attached bool
}

// NewBufferEditor seeds a buffer from the stored value. A nil stored
// value presents an empty buffer, never the string "null".
func NewBufferEditor(value any) *BufferEditor {
	if value == nil {
		return &BufferEditor{buffer: ""}
	}
	return &BufferEditor{buffer: value}
}

func (e *BufferEditor) CurrentValue() any { return e.buffer }

func (e *BufferEditor) SetBuffer(raw any) { e.buffer = raw }

func (e *BufferEditor) OnAttach() { e.attached = true }

// RendererRegistry maps column types to their render/edit strategies.
// An unregistered type falls back to the text strategy rather than
// erroring.
type RendererRegistry struct {
	renderers map[string]CellRenderer
	fallback  CellRenderer
	mu        sync.RWMutex
}

var (
	rendererRegistry     *RendererRegistry
	rendererRegistryOnce sync.Once
)

// GetRendererRegistry returns the singleton renderer registry with all
// builtin strategies registered.
func GetRendererRegistry() *RendererRegistry {
	rendererRegistryOnce.Do(func() {
		rendererRegistry = NewRendererRegistry()
		registerBuiltins(rendererRegistry)
	})
	return rendererRegistry
}

// NewRendererRegistry creates an empty registry with the text fallback
func NewRendererRegistry() *RendererRegistry {
	fallback := &TextRenderer{BaseRenderer: NewBaseRenderer(string(models.ColumnTypeText))}
	return &RendererRegistry{
		renderers: make(map[string]CellRenderer),
		fallback:  fallback,
	}
}

// Register adds a renderer to the registry
func (r *RendererRegistry) Register(renderer CellRenderer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := renderer.Name()
	if _, exists := r.renderers[name]; exists {
		return fmt.Errorf("cell renderer '%s' is already registered", name)
	}

	r.renderers[name] = renderer
	return nil
}

// Get retrieves the renderer for a column type, falling back to text
// for unknown types.
func (r *RendererRegistry) Get(typeName models.ColumnType) CellRenderer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if renderer, ok := r.renderers[string(typeName)]; ok {
		return renderer
	}
	return r.fallback
}

// ForColumn retrieves the renderer for a column definition
func (r *RendererRegistry) ForColumn(col models.Column) CellRenderer {
	return r.Get(col.Type)
}

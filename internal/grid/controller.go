// Package grid orchestrates column definitions, the row cache and the
// cell edit lifecycle. At most one cell is in edit mode at any time;
// starting an edit on a second cell always stops the first session
// before the new one becomes active.
package grid

import (
	"context"
	"sync"

	"github.com/projectpulse/gridcore/internal/store"
	"github.com/projectpulse/gridcore/pkg/coerce"
	apperrors "github.com/projectpulse/gridcore/pkg/errors"
	"github.com/projectpulse/gridcore/pkg/fieldtypes"
	"github.com/projectpulse/gridcore/pkg/models"
)

// session is the transient state of the one cell being edited. It is
// keyed by column id, which stays stable when columns are reordered, so
// a session survives reordering.
type session struct {
	recordID string
	columnID string
	editor   fieldtypes.CellEditor
	previous any
}

// Controller drives the grid's edit-session state machine.
type Controller struct {
	mu        sync.Mutex
	store     *store.RecordStore
	renderers *fieldtypes.RendererRegistry
	columns   []models.Column
	active    *session

	// onRefresh fires after a successful commit so the cell re-renders
	// its formatted value. It runs after the commit call returns, never
	// inside the stop-edit turn itself.
	onRefresh func(recordID, columnID string)

	// onError surfaces inline validation messages next to the field.
	onError func(err error)

	commits sync.WaitGroup
}

// New creates a controller over a record store.
func New(recordStore *store.RecordStore, renderers *fieldtypes.RendererRegistry) *Controller {
	if renderers == nil {
		renderers = fieldtypes.GetRendererRegistry()
	}
	return &Controller{store: recordStore, renderers: renderers}
}

// SetColumns replaces the column definitions. An active session keyed
// by column id is unaffected by reorders or additions.
func (c *Controller) SetColumns(columns []models.Column) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.columns = make([]models.Column, len(columns))
	copy(c.columns, columns)
}

// Columns returns the current column definitions in order.
func (c *Controller) Columns() []models.Column {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Column, len(c.columns))
	copy(out, c.columns)
	return out
}

// OnRefresh registers the post-commit cell refresh hook.
func (c *Controller) OnRefresh(fn func(recordID, columnID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = fn
}

// OnError registers the inline error surface.
func (c *Controller) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

func (c *Controller) columnByID(columnID string) (models.Column, bool) {
	for _, col := range c.columns {
		if col.ID == columnID {
			return col, true
		}
	}
	return models.Column{}, false
}

// StartEdit begins editing a cell, capturing its current value into a
// fresh edit buffer. Any prior session is stopped first; the machine
// always passes through idle between two sessions.
func (c *Controller) StartEdit(ctx context.Context, recordID, columnID string) error {
	c.mu.Lock()
	errCb := c.onError
	var discarded error

	if c.active != nil {
		if err := c.stopLocked(ctx); err != nil {
			// The open session had an invalid buffer; surface the error
			// and discard it so the new session can start.
			discarded = err
			c.active = nil
		}
	}

	err := c.startLocked(recordID, columnID)
	c.mu.Unlock()

	if discarded != nil && errCb != nil {
		errCb(discarded)
	}
	return err
}

func (c *Controller) startLocked(recordID, columnID string) error {
	col, ok := c.columnByID(columnID)
	if !ok {
		return apperrors.NewNotFoundError("column", columnID)
	}
	value, ok := c.store.Value(recordID, columnID)
	if !ok {
		return apperrors.NewNotFoundError("record", recordID)
	}

	editor := c.renderers.ForColumn(col).NewEditor(value)
	c.active = &session{
		recordID: recordID,
		columnID: columnID,
		editor:   editor,
		previous: value,
	}
	editor.OnAttach()
	return nil
}

// SetBuffer feeds raw input into the active session's edit buffer.
func (c *Controller) SetBuffer(raw any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.editor.SetBuffer(raw)
	}
}

// StopEdit ends the active session: blur, Enter and explicit stop all
// land here. The buffer is coerced; invalid input keeps the session
// open for correction and returns the validation error. Valid input is
// applied optimistically and committed asynchronously.
func (c *Controller) StopEdit(ctx context.Context) error {
	c.mu.Lock()
	errCb := c.onError
	err := c.stopLocked(ctx)
	stillOpen := c.active != nil
	c.mu.Unlock()

	// The callback runs outside the lock so it may re-enter the
	// controller, e.g. to highlight the offending cell.
	if err != nil && stillOpen && errCb != nil {
		errCb(err)
	}
	return err
}

func (c *Controller) stopLocked(ctx context.Context) error {
	if c.active == nil {
		return nil
	}
	sess := c.active

	col, ok := c.columnByID(sess.columnID)
	if !ok {
		c.active = nil
		return apperrors.NewNotFoundError("column", sess.columnID)
	}

	raw := sess.editor.CurrentValue()
	result := coerce.Coerce(col, raw, sess.previous)
	if !result.Valid {
		// Session stays open so the user can correct the input. The
		// caller surfaces result.Err once the lock is released.
		return result.Err
	}

	c.active = nil
	c.store.ApplyOptimistic(sess.recordID, sess.columnID, result.Value)

	refresh := c.onRefresh
	c.commits.Add(1)
	go func() {
		defer c.commits.Done()
		err := c.store.CommitCell(ctx, sess.recordID, sess.columnID, result.Value, sess.previous)
		if err == nil && refresh != nil {
			refresh(sess.recordID, sess.columnID)
		}
		// Every commit failure, including one queued behind an earlier
		// commit of the same cell, rolls back inside the store and
		// reaches the UI through its subscriber events.
	}()
	return nil
}

// CancelEdit discards the active session without committing.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = nil
}

// ActiveSession reports the cell currently in edit mode.
func (c *Controller) ActiveSession() (recordID, columnID string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", "", false
	}
	return c.active.recordID, c.active.columnID, true
}

// Flush waits for in-flight commits, for shutdown and tests.
func (c *Controller) Flush() {
	c.commits.Wait()
}

// RenderCell formats a cell's current stored value for display.
func (c *Controller) RenderCell(recordID, columnID string) string {
	c.mu.Lock()
	col, ok := c.columnByID(columnID)
	c.mu.Unlock()
	if !ok {
		return ""
	}
	value, found := c.store.Value(recordID, columnID)
	if !found {
		return ""
	}
	return c.renderers.ForColumn(col).Format(value, col.Params)
}

// Package store holds the client-side row cache for one table. Edits
// are applied optimistically, persisted through the sync client, and
// rolled back from a locally kept snapshot when the commit fails. All
// writes replace whole rows; readers never observe a half-written row.
package store

import (
	"context"
	"sync"

	apperrors "github.com/projectpulse/gridcore/pkg/errors"
	"github.com/projectpulse/gridcore/pkg/models"
	"github.com/projectpulse/gridcore/pkg/utils"
)

// RecordSyncer is the slice of the sync client the store depends on.
type RecordSyncer interface {
	UpsertCell(ctx context.Context, tableID, rowID, columnID string, value any) (*models.Record, error)
	CreateRecord(ctx context.Context, tableID string, values models.RowValues) (*models.Record, error)
	DeleteRecord(ctx context.Context, tableID, rowID string) error
}

// EventType classifies store notifications.
type EventType string

const (
	EventCellUpdated EventType = "cell_updated"
	EventRolledBack  EventType = "rolled_back"
	EventSyncFailed  EventType = "sync_failed"
	EventRowAdded    EventType = "row_added"
	EventRowRemoved  EventType = "row_removed"
	EventReplaced    EventType = "replaced"
)

// Event is delivered to subscribers after every cache mutation.
type Event struct {
	Type     EventType
	RecordID string
	ColumnID string
	Err      error
}

type cellKey struct {
	recordID string
	columnID string
}

// RecordStore is the in-memory ordered row collection for one table.
type RecordStore struct {
	tableID string
	syncer  RecordSyncer

	mu      sync.RWMutex
	rows    []models.Record
	index   map[string]int
	pending map[cellKey]chan struct{}
	subs    []func(Event)
}

// New creates an empty store for a table.
func New(tableID string, syncer RecordSyncer) *RecordStore {
	return &RecordStore{
		tableID: tableID,
		syncer:  syncer,
		index:   make(map[string]int),
		pending: make(map[cellKey]chan struct{}),
	}
}

// Subscribe registers a callback invoked after each mutation. Callbacks
// run outside the store lock.
func (s *RecordStore) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *RecordStore) notify(ev Event) {
	s.mu.RLock()
	subs := make([]func(Event), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Replace swaps in a fresh row set from the backend.
func (s *RecordStore) Replace(rows []models.Record) {
	s.mu.Lock()
	s.rows = make([]models.Record, len(rows))
	s.index = make(map[string]int, len(rows))
	for i, r := range rows {
		s.rows[i] = r.Clone()
		s.index[r.ID] = i
	}
	s.mu.Unlock()
	s.notify(Event{Type: EventReplaced})
}

// Rows returns a copy of the current row set in order.
func (s *RecordStore) Rows() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of one row.
func (s *RecordStore) Get(recordID string) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[recordID]
	if !ok {
		return models.Record{}, false
	}
	return s.rows[i].Clone(), true
}

// Value returns the current value of one cell.
func (s *RecordStore) Value(recordID, columnID string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[recordID]
	if !ok {
		return nil, false
	}
	return s.rows[i].Values.Get(columnID), true
}

// setValue replaces the whole row with an updated copy. Callers hold no
// lock; the swap is atomic under the write lock.
func (s *RecordStore) setValue(recordID, columnID string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[recordID]
	if !ok {
		return false
	}
	updated := s.rows[i].Clone()
	updated.Values[columnID] = value
	s.rows[i] = updated
	return true
}

// ApplyOptimistic mutates the cached row so the UI reflects the edit
// before server confirmation.
func (s *RecordStore) ApplyOptimistic(recordID, columnID string, value any) {
	if s.setValue(recordID, columnID, value) {
		s.notify(Event{Type: EventCellUpdated, RecordID: recordID, ColumnID: columnID})
	}
}

// Rollback restores the pre-edit value. Rolling back twice is harmless:
// the second call writes the same previous value again.
func (s *RecordStore) Rollback(recordID, columnID string, previous any) {
	if s.setValue(recordID, columnID, previous) {
		s.notify(Event{Type: EventRolledBack, RecordID: recordID, ColumnID: columnID})
	}
}

// CommitCell persists an optimistically applied value. On any failure
// the cell is rolled back to previous and a SyncError is both returned
// and published to subscribers. Commits to the same cell are serialized:
// a commit started while one is in flight waits for it, then issues its
// own request, so a rapid re-edit is never dropped.
func (s *RecordStore) CommitCell(ctx context.Context, recordID, columnID string, value, previous any) error {
	key := cellKey{recordID: recordID, columnID: columnID}
	var done chan struct{}
	for {
		s.mu.Lock()
		inFlight, ok := s.pending[key]
		if !ok {
			done = make(chan struct{})
			s.pending[key] = done
			s.mu.Unlock()
			break
		}
		s.mu.Unlock()
		select {
		case <-inFlight:
		case <-ctx.Done():
			return s.failCommit(recordID, columnID, previous, ctx.Err())
		}
	}

	defer func() {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
		close(done)
	}()

	if _, err := s.syncer.UpsertCell(ctx, s.tableID, recordID, columnID, value); err != nil {
		return s.failCommit(recordID, columnID, previous, err)
	}
	// Success is a no-op: the optimistic value already matches.
	return nil
}

// failCommit is the single failure path for a cell commit: roll the cell
// back to its snapshot, publish the failure, return the SyncError.
func (s *RecordStore) failCommit(recordID, columnID string, previous any, cause error) error {
	s.Rollback(recordID, columnID, previous)
	syncErr := &apperrors.SyncError{
		RecordID: recordID,
		ColumnID: columnID,
		Message:  "Failed to update cell value",
		Cause:    cause,
	}
	s.notify(Event{Type: EventSyncFailed, RecordID: recordID, ColumnID: columnID, Err: syncErr})
	return syncErr
}

// AddRow appends a row optimistically under a temporary id, then swaps
// in the server-assigned id once creation is confirmed. On failure the
// temporary row is removed again.
func (s *RecordStore) AddRow(ctx context.Context, values models.RowValues) (string, error) {
	tempID := utils.NewTempID()
	row := models.Record{ID: tempID, Values: values.Clone()}

	s.mu.Lock()
	s.index[tempID] = len(s.rows)
	s.rows = append(s.rows, row)
	s.mu.Unlock()
	s.notify(Event{Type: EventRowAdded, RecordID: tempID})

	created, err := s.syncer.CreateRecord(ctx, s.tableID, values)
	if err != nil {
		s.removeRow(tempID)
		syncErr := &apperrors.SyncError{
			RecordID: tempID,
			Message:  "Failed to create row",
			Cause:    err,
		}
		s.notify(Event{Type: EventSyncFailed, RecordID: tempID, Err: syncErr})
		return "", syncErr
	}

	s.mu.Lock()
	if i, ok := s.index[tempID]; ok {
		delete(s.index, tempID)
		confirmed := created.Clone()
		if confirmed.Values == nil {
			confirmed.Values = values.Clone()
		}
		s.rows[i] = confirmed
		s.index[confirmed.ID] = i
	}
	s.mu.Unlock()
	s.notify(Event{Type: EventRowAdded, RecordID: created.ID})
	return created.ID, nil
}

// DeleteRow removes a row and issues the delete call. A failed delete
// restores the row at its prior position. Snapshot and removal happen
// under one write lock so a concurrent mutation cannot shift the
// restore index.
func (s *RecordStore) DeleteRow(ctx context.Context, recordID string) error {
	s.mu.Lock()
	i, ok := s.index[recordID]
	if !ok {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("record", recordID)
	}
	snapshot := s.rows[i].Clone()
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	delete(s.index, recordID)
	for j := i; j < len(s.rows); j++ {
		s.index[s.rows[j].ID] = j
	}
	s.mu.Unlock()
	s.notify(Event{Type: EventRowRemoved, RecordID: recordID})

	if err := s.syncer.DeleteRecord(ctx, s.tableID, recordID); err != nil {
		s.insertRow(snapshot, i)
		syncErr := &apperrors.SyncError{
			RecordID: recordID,
			Message:  "Failed to delete row",
			Cause:    err,
		}
		s.notify(Event{Type: EventSyncFailed, RecordID: recordID, Err: syncErr})
		return syncErr
	}
	return nil
}

func (s *RecordStore) removeRow(recordID string) {
	s.mu.Lock()
	i, ok := s.index[recordID]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	delete(s.index, recordID)
	for j := i; j < len(s.rows); j++ {
		s.index[s.rows[j].ID] = j
	}
	s.mu.Unlock()
	s.notify(Event{Type: EventRowRemoved, RecordID: recordID})
}

func (s *RecordStore) insertRow(row models.Record, at int) {
	s.mu.Lock()
	if at > len(s.rows) {
		at = len(s.rows)
	}
	s.rows = append(s.rows[:at], append([]models.Record{row}, s.rows[at:]...)...)
	for j := at; j < len(s.rows); j++ {
		s.index[s.rows[j].ID] = j
	}
	s.mu.Unlock()
	s.notify(Event{Type: EventRowAdded, RecordID: row.ID})
}

// Len returns the number of cached rows.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

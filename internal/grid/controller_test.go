package grid

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectpulse/gridcore/internal/store"
	apperrors "github.com/projectpulse/gridcore/pkg/errors"
	"github.com/projectpulse/gridcore/pkg/models"
)

type fakeSyncer struct {
	mu          sync.Mutex
	upsertErr   error
	upserts     []string
	values      []any
	releaseHold chan struct{}
}

func (f *fakeSyncer) UpsertCell(ctx context.Context, tableID, rowID, columnID string, value any) (*models.Record, error) {
	f.mu.Lock()
	f.upserts = append(f.upserts, rowID+"/"+columnID)
	f.values = append(f.values, value)
	hold := f.releaseHold
	f.mu.Unlock()
	if hold != nil {
		<-hold
	}
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	return &models.Record{ID: rowID, Values: models.RowValues{columnID: value}}, nil
}

func (f *fakeSyncer) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

func (f *fakeSyncer) CreateRecord(ctx context.Context, tableID string, values models.RowValues) (*models.Record, error) {
	return &models.Record{ID: "srv-1", Values: values}, nil
}

func (f *fakeSyncer) DeleteRecord(ctx context.Context, tableID, rowID string) error {
	return nil
}

var testColumns = []models.Column{
	{ID: "col_name", Name: "Name", Type: models.ColumnTypeText},
	{ID: "col_budget", Name: "Budget", Type: models.ColumnTypeNumber},
	{ID: "col_start", Name: "Start", Type: models.ColumnTypeTime},
	{ID: "col_due", Name: "Due", Type: models.ColumnTypeDate},
}

func newController(t *testing.T, syncer store.RecordSyncer) (*Controller, *store.RecordStore) {
	t.Helper()
	s := store.New("tbl_projects", syncer)
	s.Replace([]models.Record{
		{ID: "r1", Values: models.RowValues{"col_name": "Website refresh", "col_budget": float64(42)}},
		{ID: "r2", Values: models.RowValues{"col_name": "Mobile app", "col_budget": float64(100)}},
	})
	c := New(s, nil)
	c.SetColumns(testColumns)
	return c, s
}

func TestStartEdit_SeedsBufferFromCurrentValue(t *testing.T) {
	c, _ := newController(t, &fakeSyncer{})

	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_budget"))
	recordID, columnID, ok := c.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, "r1", recordID)
	assert.Equal(t, "col_budget", columnID)
}

func TestStartEdit_UnknownTargets(t *testing.T) {
	c, _ := newController(t, &fakeSyncer{})

	var nf *apperrors.NotFoundError
	require.ErrorAs(t, c.StartEdit(context.Background(), "r1", "col_missing"), &nf)
	require.ErrorAs(t, c.StartEdit(context.Background(), "r_missing", "col_budget"), &nf)

	_, _, ok := c.ActiveSession()
	assert.False(t, ok)
}

func TestStopEdit_ValidCommitAppliesOptimistically(t *testing.T) {
	syncer := &fakeSyncer{}
	c, s := newController(t, syncer)

	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_budget"))
	c.SetBuffer("5000")
	require.NoError(t, c.StopEdit(context.Background()))

	// Optimistic value is visible before the commit resolves.
	v, _ := s.Value("r1", "col_budget")
	assert.Equal(t, float64(5000), v)

	c.Flush()
	assert.Equal(t, []string{"r1/col_budget"}, syncer.upserts)

	_, _, ok := c.ActiveSession()
	assert.False(t, ok)
}

func TestStopEdit_InvalidInputKeepsSessionOpen(t *testing.T) {
	c, s := newController(t, &fakeSyncer{})

	var surfaced error
	c.OnError(func(err error) { surfaced = err })

	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_budget"))
	c.SetBuffer("not a number")

	err := c.StopEdit(context.Background())
	require.Error(t, err)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid number format", verr.Message)
	assert.Equal(t, err, surfaced)

	// Session stays open for correction; the store is untouched.
	_, _, ok := c.ActiveSession()
	assert.True(t, ok)
	v, _ := s.Value("r1", "col_budget")
	assert.Equal(t, float64(42), v)

	// Correcting the buffer lets the session close normally.
	c.SetBuffer("77")
	require.NoError(t, c.StopEdit(context.Background()))
	c.Flush()
	v, _ = s.Value("r1", "col_budget")
	assert.Equal(t, float64(77), v)
}

func TestStartEdit_ForceStopsPriorSession(t *testing.T) {
	syncer := &fakeSyncer{}
	c, s := newController(t, syncer)

	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_budget"))
	c.SetBuffer("5000")

	// Starting a second session stops the first one; its edit commits.
	require.NoError(t, c.StartEdit(context.Background(), "r2", "col_name"))

	recordID, columnID, ok := c.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, "r2", recordID)
	assert.Equal(t, "col_name", columnID)

	v, _ := s.Value("r1", "col_budget")
	assert.Equal(t, float64(5000), v)
	c.Flush()
}

func TestStartEdit_DiscardsInvalidPriorSession(t *testing.T) {
	c, s := newController(t, &fakeSyncer{})

	var surfaced error
	c.OnError(func(err error) { surfaced = err })

	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_budget"))
	c.SetBuffer("garbage")

	require.NoError(t, c.StartEdit(context.Background(), "r2", "col_name"))

	// The abandoned edit's validation error is still surfaced.
	var verr *apperrors.ValidationError
	require.ErrorAs(t, surfaced, &verr)
	recordID, _, ok := c.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, "r2", recordID)

	// The abandoned invalid edit never reached the store.
	v, _ := s.Value("r1", "col_budget")
	assert.Equal(t, float64(42), v)
}

func TestStopEdit_ReEditWhileCommitInFlight(t *testing.T) {
	syncer := &fakeSyncer{releaseHold: make(chan struct{})}
	c, s := newController(t, syncer)

	var failed int32
	s.Subscribe(func(ev store.Event) {
		if ev.Type == store.EventSyncFailed {
			atomic.AddInt32(&failed, 1)
		}
	})

	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_budget"))
	c.SetBuffer("100")
	require.NoError(t, c.StopEdit(context.Background()))

	require.Eventually(t, func() bool { return syncer.upsertCount() == 1 },
		time.Second, 5*time.Millisecond)

	// The same cell is edited again while the first commit is still in
	// flight. The second commit queues behind it rather than reaching
	// the syncer early or being dropped.
	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_budget"))
	c.SetBuffer("200")
	require.NoError(t, c.StopEdit(context.Background()))

	require.Never(t, func() bool { return syncer.upsertCount() > 1 },
		100*time.Millisecond, 10*time.Millisecond)

	close(syncer.releaseHold)
	c.Flush()

	// The server received both edits, oldest first, and the cache kept
	// the later value.
	assert.Equal(t, []string{"r1/col_budget", "r1/col_budget"}, syncer.upserts)
	assert.Equal(t, []any{float64(100), float64(200)}, syncer.values)
	v, _ := s.Value("r1", "col_budget")
	assert.Equal(t, float64(200), v)
	assert.EqualValues(t, 0, atomic.LoadInt32(&failed))
}

func TestStopEdit_ErrorCallbackMayReenterController(t *testing.T) {
	c, _ := newController(t, &fakeSyncer{})

	// The callback highlights the offending cell by asking the
	// controller which session is open. It must not deadlock.
	var recordID, columnID string
	c.OnError(func(err error) {
		recordID, columnID, _ = c.ActiveSession()
	})

	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_budget"))
	c.SetBuffer("not a number")
	require.Error(t, c.StopEdit(context.Background()))

	assert.Equal(t, "r1", recordID)
	assert.Equal(t, "col_budget", columnID)
}

func TestStopEdit_FailedCommitRollsBack(t *testing.T) {
	syncer := &fakeSyncer{upsertErr: errors.New("http 500")}
	c, s := newController(t, syncer)

	var failure store.Event
	s.Subscribe(func(ev store.Event) {
		if ev.Type == store.EventSyncFailed {
			failure = ev
		}
	})

	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_budget"))
	c.SetBuffer("5000")
	require.NoError(t, c.StopEdit(context.Background()))
	c.Flush()

	// Grid cell visually matches the pre-edit state.
	v, _ := s.Value("r1", "col_budget")
	assert.Equal(t, float64(42), v)

	require.NotNil(t, failure.Err)
	var serr *apperrors.SyncError
	require.ErrorAs(t, failure.Err, &serr)
	assert.Equal(t, "Failed to update cell value", serr.Message)
}

func TestStopEdit_RefreshRunsAfterCommit(t *testing.T) {
	syncer := &fakeSyncer{}
	c, _ := newController(t, syncer)

	refreshed := make(chan string, 1)
	c.OnRefresh(func(recordID, columnID string) {
		refreshed <- recordID + "/" + columnID
	})

	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_start"))
	c.SetBuffer("9:30")
	require.NoError(t, c.StopEdit(context.Background()))

	select {
	case got := <-refreshed:
		assert.Equal(t, "r1/col_start", got)
	case <-time.After(time.Second):
		t.Fatal("refresh was never scheduled")
	}
	c.Flush()

	// The refreshed cell renders the formatted time, zero-padded.
	assert.Equal(t, "09:30", c.RenderCell("r1", "col_start"))
}

func TestStopEdit_TimeEditorRoundTrip(t *testing.T) {
	c, s := newController(t, &fakeSyncer{})

	// First edit stores an absolute timestamp for 14:45 today.
	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_start"))
	c.SetBuffer("14:45")
	require.NoError(t, c.StopEdit(context.Background()))
	c.Flush()

	stored, _ := s.Value("r1", "col_start")
	ts, err := time.Parse(time.RFC3339, stored.(string))
	require.NoError(t, err)
	assert.Equal(t, 14, ts.Hour())
	assert.Equal(t, 45, ts.Minute())

	// Re-opening the editor seeds the buffer back to clock form.
	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_start"))
	recordID, columnID, ok := c.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, "r1", recordID)
	assert.Equal(t, "col_start", columnID)
	require.NoError(t, c.StopEdit(context.Background()))
	c.Flush()

	// An untouched buffer re-commits the same clock value.
	after, _ := s.Value("r1", "col_start")
	ts2, err := time.Parse(time.RFC3339, after.(string))
	require.NoError(t, err)
	assert.Equal(t, 14, ts2.Hour())
	assert.Equal(t, 45, ts2.Minute())
}

func TestCancelEdit_DiscardsBuffer(t *testing.T) {
	c, s := newController(t, &fakeSyncer{})

	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_budget"))
	c.SetBuffer("9999")
	c.CancelEdit()

	_, _, ok := c.ActiveSession()
	assert.False(t, ok)
	v, _ := s.Value("r1", "col_budget")
	assert.Equal(t, float64(42), v)
}

func TestSessionSurvivesColumnReorder(t *testing.T) {
	c, s := newController(t, &fakeSyncer{})

	require.NoError(t, c.StartEdit(context.Background(), "r1", "col_budget"))
	c.SetBuffer("123")

	// Reorder and extend the columns mid-edit; the session is keyed by
	// column id and is unaffected.
	reordered := []models.Column{
		testColumns[3], testColumns[2], testColumns[1], testColumns[0],
		{ID: "col_extra", Name: "Extra", Type: models.ColumnTypeText},
	}
	c.SetColumns(reordered)

	_, columnID, ok := c.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, "col_budget", columnID)

	require.NoError(t, c.StopEdit(context.Background()))
	c.Flush()
	v, _ := s.Value("r1", "col_budget")
	assert.Equal(t, float64(123), v)
}

func TestRenderCell_FormatsStoredValues(t *testing.T) {
	c, _ := newController(t, &fakeSyncer{})
	assert.Equal(t, "42", c.RenderCell("r1", "col_budget"))
	assert.Equal(t, "Website refresh", c.RenderCell("r1", "col_name"))
	assert.Equal(t, "", c.RenderCell("r1", "col_missing"))
}

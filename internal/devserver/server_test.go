package devserver

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectpulse/gridcore/internal/client"
	apperrors "github.com/projectpulse/gridcore/pkg/errors"
	"github.com/projectpulse/gridcore/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tokenBox struct{ token string }

func (b *tokenBox) Token() string { return b.token }

func newEnv(t *testing.T) (*Server, *client.Client, *tokenBox) {
	t.Helper()
	srv := New("test-secret")
	require.NoError(t, srv.SeedUser("Pat", "pm@example.com", "hunter22A"))
	srv.SeedTable("tbl_projects", []models.Record{
		{ID: "r1", Values: models.RowValues{"col_name": "Website refresh", "col_budget": float64(42)}},
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	box := &tokenBox{}
	c := client.New(ts.URL, box)

	token, err := c.Login(context.Background(), "pm@example.com", "hunter22A")
	require.NoError(t, err)
	box.token = token
	return srv, c, box
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := New("test-secret")
	require.NoError(t, srv.SeedUser("Pat", "pm@example.com", "hunter22A"))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	c := client.New(ts.URL, nil)
	_, err := c.Login(context.Background(), "pm@example.com", "wrong")
	require.Error(t, err)
	var uerr *apperrors.UnauthorizedError
	assert.ErrorAs(t, err, &uerr)
}

func TestRecordRoundTrip(t *testing.T) {
	_, c, _ := newEnv(t)
	ctx := context.Background()

	records, err := c.ListRecords(ctx, "tbl_projects")
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Upsert one cell, then read it back.
	_, err = c.UpsertCell(ctx, "tbl_projects", "r1", "col_budget", float64(5000))
	require.NoError(t, err)

	records, err = c.ListRecords(ctx, "tbl_projects")
	require.NoError(t, err)
	budget, ok := records[0].Values.GetNumber("col_budget")
	require.True(t, ok)
	assert.Equal(t, float64(5000), budget)

	// Create then delete a row.
	created, err := c.CreateRecord(ctx, "tbl_projects", models.RowValues{"col_name": "New"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	require.NoError(t, c.DeleteRecord(ctx, "tbl_projects", created.ID))
	records, err = c.ListRecords(ctx, "tbl_projects")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestUpsertUnknownRow(t *testing.T) {
	_, c, _ := newEnv(t)
	_, err := c.UpsertCell(context.Background(), "tbl_projects", "ghost", "col_budget", float64(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row not found")
}

func TestStaleTokenGets401(t *testing.T) {
	_, c, box := newEnv(t)
	box.token = "not-a-jwt"

	fired := false
	c.OnUnauthorized = func() { fired = true }

	_, err := c.ListRecords(context.Background(), "tbl_projects")
	require.Error(t, err)
	var uerr *apperrors.UnauthorizedError
	assert.ErrorAs(t, err, &uerr)
	assert.True(t, fired)
}

func TestFileManagerFlow(t *testing.T) {
	_, c, _ := newEnv(t)
	ctx := context.Background()

	// Create a folder at the root, upload into it, list it back.
	folder, err := c.CreateFolder(ctx, models.CreateFolderRequest{
		Name:    "Reports",
		Section: models.SectionWorkspace,
	})
	require.NoError(t, err)

	uploaded, err := c.UploadFiles(ctx, models.SectionWorkspace, &folder.ID,
		[]client.FileUpload{{Name: "summary.pdf", Reader: strings.NewReader("%PDF-1.4")}}, nil)
	require.NoError(t, err)
	require.Len(t, uploaded, 1)
	assert.Equal(t, models.EntryTypePDF, uploaded[0].Type)
	assert.Equal(t, []string{"Reports"}, uploaded[0].Path)

	entries, err := c.ListEntries(ctx, models.SectionWorkspace, []string{"Reports"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "summary.pdf", entries[0].Name)

	// Sections are independent namespaces.
	private, err := c.GetStructure(ctx, models.SectionPrivate)
	require.NoError(t, err)
	assert.Empty(t, private)
}

func TestMoveRecomputesDescendantPaths(t *testing.T) {
	_, c, _ := newEnv(t)
	ctx := context.Background()

	top, err := c.CreateFolder(ctx, models.CreateFolderRequest{Name: "Archive", Section: models.SectionWorkspace})
	require.NoError(t, err)
	nested, err := c.CreateFolder(ctx, models.CreateFolderRequest{
		Name: "Reports", ParentID: &top.ID, Section: models.SectionWorkspace, Path: []string{"Archive"},
	})
	require.NoError(t, err)
	_, err = c.UploadFiles(ctx, models.SectionWorkspace, &nested.ID,
		[]client.FileUpload{{Name: "q3.pdf", Reader: strings.NewReader("%PDF-1.4")}}, nil)
	require.NoError(t, err)

	other, err := c.CreateFolder(ctx, models.CreateFolderRequest{Name: "Shared", Section: models.SectionWorkspace})
	require.NoError(t, err)

	// Move Reports under Shared; the server rewrites descendant paths.
	require.NoError(t, c.MoveEntry(ctx, nested.ID, &other.ID))

	structure, err := c.GetStructure(ctx, models.SectionWorkspace)
	require.NoError(t, err)
	byName := map[string]models.FileSystemEntry{}
	for _, e := range structure {
		byName[e.Name] = e
	}
	assert.Equal(t, []string{"Shared"}, byName["Reports"].Path)
	assert.Equal(t, []string{"Shared", "Reports"}, byName["q3.pdf"].Path)
}

func TestDeleteIsSoft(t *testing.T) {
	_, c, _ := newEnv(t)
	ctx := context.Background()

	folder, err := c.CreateFolder(ctx, models.CreateFolderRequest{Name: "Temp", Section: models.SectionWorkspace})
	require.NoError(t, err)
	require.NoError(t, c.DeleteEntry(ctx, folder.ID))

	// Gone from listings, still present in the structure with deleted
	// status until a real purge.
	entries, err := c.ListEntries(ctx, models.SectionWorkspace, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)

	structure, err := c.GetStructure(ctx, models.SectionWorkspace)
	require.NoError(t, err)
	require.Len(t, structure, 1)
	assert.Equal(t, models.EntryStatusDeleted, structure[0].Status)
}

package devserver

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/projectpulse/gridcore/pkg/models"
	"github.com/projectpulse/gridcore/pkg/utils"
)

func (s *Server) handleLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	s.mu.Lock()
	account, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || !verifyPassword(req.Password, account.passwordHash) {
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.generateToken(account.session)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to issue token")
		return
	}
	respond(c, models.LoginResponse{Token: token})
}

func (s *Server) handleListRecords(c *gin.Context) {
	tableID := c.Param("tableID")

	s.mu.Lock()
	rows := append([]models.Record{}, s.tables[tableID]...)
	s.mu.Unlock()
	respond(c, rows)
}

// handleUpsertRecord covers both shapes the client sends: a rowId plus
// columnId writes one cell of an existing row; neither creates a row.
func (s *Server) handleUpsertRecord(c *gin.Context) {
	tableID := c.Param("tableID")

	var req models.UpsertCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.RowID != "" {
		rows := s.tables[tableID]
		for i, row := range rows {
			if row.ID != req.RowID {
				continue
			}
			updated := row.Clone()
			if updated.Values == nil {
				updated.Values = models.RowValues{}
			}
			for columnID, value := range req.Values {
				updated.Values[columnID] = value
			}
			rows[i] = updated
			respond(c, updated)
			return
		}
		respondError(c, http.StatusNotFound, "row not found")
		return
	}

	row := models.Record{ID: utils.GenerateID(), Values: req.Values.Clone()}
	if row.Values == nil {
		row.Values = models.RowValues{}
	}
	s.tables[tableID] = append(s.tables[tableID], row)
	respond(c, row)
}

func (s *Server) handleDeleteRecord(c *gin.Context) {
	tableID := c.Param("tableID")
	rowID := c.Param("rowID")

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.tables[tableID]
	for i, row := range rows {
		if row.ID == rowID {
			s.tables[tableID] = append(rows[:i], rows[i+1:]...)
			respond(c, nil)
			return
		}
	}
	respondError(c, http.StatusNotFound, "row not found")
}

func (s *Server) handleListEntries(c *gin.Context) {
	section := models.Section(c.Query("section"))

	var path []string
	if raw := c.Query("path"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &path); err != nil {
			respondError(c, http.StatusBadRequest, "invalid path")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var parentID *string
	for _, name := range path {
		found := false
		for _, e := range s.entries {
			if e.Section == section && e.Status == models.EntryStatusActive &&
				e.IsFolder() && e.Name == name && sameParent(e.Parent, parentID) {
				id := e.ID
				parentID = &id
				found = true
				break
			}
		}
		if !found {
			respondError(c, http.StatusNotFound, "path not found")
			return
		}
	}

	var out []models.FileSystemEntry
	for _, e := range s.entries {
		if e.Section == section && e.Status == models.EntryStatusActive && sameParent(e.Parent, parentID) {
			out = append(out, e)
		}
	}
	respond(c, out)
}

func (s *Server) handleStructure(c *gin.Context) {
	section := models.Section(c.Query("section"))

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FileSystemEntry
	for _, e := range s.entries {
		if e.Section == section {
			out = append(out, e)
		}
	}
	respond(c, out)
}

func (s *Server) handleCreateFolder(c *gin.Context) {
	var req models.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		respondError(c, http.StatusBadRequest, "folder name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := models.FileSystemEntry{
		ID:      utils.GenerateID(),
		Name:    req.Name,
		Type:    models.EntryTypeFolder,
		Parent:  req.ParentID,
		Path:    append([]string{}, req.Path...),
		Section: req.Section,
		Status:  models.EntryStatusActive,
	}
	s.entries = append(s.entries, entry)
	respond(c, entry)
}

func (s *Server) handleUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "no files uploaded")
		return
	}

	section := models.Section(c.Request.FormValue("section"))
	var parentID *string
	if p := c.Request.FormValue("parentId"); p != "" {
		parentID = &p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parentPath := s.pathOfLocked(parentID)
	var created []models.FileSystemEntry
	for _, file := range form.File["files[]"] {
		entry := models.FileSystemEntry{
			ID:       utils.GenerateID(),
			Name:     file.Filename,
			Type:     entryTypeFor(file.Filename),
			Parent:   parentID,
			Path:     parentPath,
			Section:  section,
			Status:   models.EntryStatusActive,
			Size:     file.Size,
			MimeType: file.Header.Get("Content-Type"),
		}
		s.entries = append(s.entries, entry)
		created = append(created, entry)
	}
	respond(c, created)
}

func (s *Server) handleMove(c *gin.Context) {
	id := c.Param("id")

	var req models.MoveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries[i].Parent = req.ParentID
			// The backend owns the path invariant: recompute the moved
			// entry's path and every descendant's.
			s.recomputePathsLocked()
			respond(c, nil)
			return
		}
	}
	respondError(c, http.StatusNotFound, "entry not found")
}

func (s *Server) handleRename(c *gin.Context) {
	id := c.Param("id")

	var req models.RenameEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries[i].Name = req.Name
			s.recomputePathsLocked()
			respond(c, nil)
			return
		}
	}
	respondError(c, http.StatusNotFound, "entry not found")
}

func (s *Server) handleDelete(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries[i].Status = models.EntryStatusDeleted
			respond(c, nil)
			return
		}
	}
	respondError(c, http.StatusNotFound, "entry not found")
}

// pathOfLocked returns the folder-name chain leading to and including
// the folder with the given id.
func (s *Server) pathOfLocked(id *string) []string {
	if id == nil {
		return nil
	}
	for _, e := range s.entries {
		if e.ID == *id {
			return append(append([]string{}, s.pathOfLocked(e.Parent)...), e.Name)
		}
	}
	return nil
}

// recomputePathsLocked rewrites every entry's path from its parent
// chain. Runs after moves and renames so clients can trust refetched
// paths.
func (s *Server) recomputePathsLocked() {
	for i := range s.entries {
		s.entries[i].Path = s.pathOfLocked(s.entries[i].Parent)
	}
}

func entryTypeFor(filename string) models.EntryType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg":
		return models.EntryTypeImage
	case ".txt", ".md":
		return models.EntryTypeText
	case ".go", ".js", ".ts", ".py", ".rb", ".java", ".sql":
		return models.EntryTypeCode
	case ".pdf":
		return models.EntryTypePDF
	case ".mp3", ".wav", ".flac":
		return models.EntryTypeAudio
	case ".mp4", ".mov", ".webm":
		return models.EntryTypeVideo
	default:
		return models.EntryTypeFile
	}
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Package devserver is an in-memory stub of the backend API, used for
// local development and integration tests. It implements the same HTTP
// contract the real backend exposes: bearer-token auth, the JSON
// response envelope, table record upserts and the file-manager tree.
package devserver

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/projectpulse/gridcore/pkg/models"
	"github.com/projectpulse/gridcore/pkg/utils"
)

type user struct {
	session      UserSession
	passwordHash string
}

// Server holds the in-memory state behind the stub API.
type Server struct {
	secret []byte

	mu      sync.Mutex
	users   map[string]user
	tables  map[string][]models.Record
	entries []models.FileSystemEntry

	router *gin.Engine
}

// New creates a stub server signing tokens with the given secret.
func New(jwtSecret string) *Server {
	s := &Server{
		secret: []byte(jwtSecret),
		users:  make(map[string]user),
		tables: make(map[string][]models.Record),
	}
	s.router = s.buildRouter()
	return s
}

// Router exposes the gin engine, for http.Serve and httptest.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// SeedUser registers a login. The password is bcrypt-hashed like the
// real backend stores it.
func (s *Server) SeedUser(name, email, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = user{
		session:      UserSession{ID: utils.GenerateID(), Name: name, Email: email},
		passwordHash: hash,
	}
	return nil
}

// SeedTable installs rows for a table id.
func (s *Server) SeedTable(tableID string, rows []models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[tableID] = append([]models.Record{}, rows...)
}

// SeedEntries installs file-manager entries.
func (s *Server) SeedEntries(entries []models.FileSystemEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/auth/login", s.handleLogin)

	authed := api.Group("")
	authed.Use(s.requireAuth())
	{
		authed.GET("/tables/:tableID/records", s.handleListRecords)
		authed.POST("/tables/:tableID/records", s.handleUpsertRecord)
		authed.DELETE("/tables/:tableID/records/:rowID", s.handleDeleteRecord)

		authed.GET("/file-manager", s.handleListEntries)
		authed.GET("/file-manager/structure", s.handleStructure)
		authed.POST("/file-manager/folders", s.handleCreateFolder)
		authed.POST("/file-manager/upload", s.handleUpload)
		authed.PUT("/file-manager/:id/move", s.handleMove)
		authed.PUT("/file-manager/:id/rename", s.handleRename)
		authed.DELETE("/file-manager/:id", s.handleDelete)
	}

	return router
}

func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

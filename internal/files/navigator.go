// Package files mirrors the record store's cache pattern over the
// file-manager tree. Mutations are not applied optimistically: each one
// goes to the backend and then invalidates the cached structure, so the
// UI shows briefly stale state until the refetch lands.
package files

import (
	"context"
	"sync"

	"github.com/projectpulse/gridcore/internal/client"
	apperrors "github.com/projectpulse/gridcore/pkg/errors"
	"github.com/projectpulse/gridcore/pkg/models"
)

// FileSyncer is the slice of the sync client the navigator depends on.
type FileSyncer interface {
	GetStructure(ctx context.Context, section models.Section) ([]models.FileSystemEntry, error)
	CreateFolder(ctx context.Context, req models.CreateFolderRequest) (*models.FileSystemEntry, error)
	UploadFiles(ctx context.Context, section models.Section, parentID *string, files []client.FileUpload, progress client.ProgressFunc) ([]models.FileSystemEntry, error)
	MoveEntry(ctx context.Context, id string, parentID *string) error
	RenameEntry(ctx context.Context, id, name string) error
	DeleteEntry(ctx context.Context, id string) error
}

// Prefs persists the active section across sessions. Implementations
// may be nil-safe absent; the navigator tolerates a nil Prefs.
type Prefs interface {
	ActiveSection() (models.Section, bool)
	SetActiveSection(models.Section) error
}

// Navigator holds the cached tree of one section and the current
// navigation state. The workspace and private sections never share
// paths or identifiers; switching sections resets all navigation state.
type Navigator struct {
	syncer FileSyncer
	prefs  Prefs

	mu          sync.Mutex
	section     models.Section
	entries     []models.FileSystemEntry
	currentPath []string
	expanded    map[string]bool
	selected    string
}

// New creates a navigator starting in the workspace section, or in the
// last persisted section when prefs knows one.
func New(syncer FileSyncer, prefs Prefs) *Navigator {
	section := models.SectionWorkspace
	if prefs != nil {
		if saved, ok := prefs.ActiveSection(); ok {
			section = saved
		}
	}
	return &Navigator{
		syncer:   syncer,
		prefs:    prefs,
		section:  section,
		expanded: make(map[string]bool),
	}
}

// Section returns the active section.
func (n *Navigator) Section() models.Section {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.section
}

// Refresh refetches the section structure and replaces the cache.
func (n *Navigator) Refresh(ctx context.Context) error {
	n.mu.Lock()
	section := n.section
	n.mu.Unlock()

	entries, err := n.syncer.GetStructure(ctx, section)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.entries = entries
	n.mu.Unlock()
	return nil
}

// CurrentPath returns the breadcrumb chain of folder names.
func (n *Navigator) CurrentPath() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.currentPath))
	copy(out, n.currentPath)
	return out
}

// children returns the active entries under parentID, in cache order.
// Soft-deleted entries stay cached but are never listed.
func (n *Navigator) children(parentID *string) []models.FileSystemEntry {
	var out []models.FileSystemEntry
	for _, e := range n.entries {
		if e.Status == models.EntryStatusDeleted {
			continue
		}
		switch {
		case parentID == nil && e.Parent == nil:
			out = append(out, e)
		case parentID != nil && e.Parent != nil && *e.Parent == *parentID:
			out = append(out, e)
		}
	}
	return out
}

// folderAtPath walks the current path from the root and returns the id
// of the folder it lands on, or nil at the root.
func (n *Navigator) folderAtPath() (*string, bool) {
	var parentID *string
	for _, name := range n.currentPath {
		found := false
		for _, e := range n.children(parentID) {
			if e.IsFolder() && e.Name == name {
				id := e.ID
				parentID = &id
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return parentID, true
}

// CurrentEntries lists the active entries at the current path.
func (n *Navigator) CurrentEntries() []models.FileSystemEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	parentID, ok := n.folderAtPath()
	if !ok {
		return nil
	}
	return n.children(parentID)
}

// NavigateToFolder jumps to a folder by name. A name already on the
// current path truncates to that ancestor, breadcrumb style. Otherwise
// a depth-first search from the section root finds the first folder
// with that name; when several branches hold folders of the same name,
// first-match wins, deterministically, by cache order.
func (n *Navigator) NavigateToFolder(name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, seg := range n.currentPath {
		if seg == name {
			n.currentPath = n.currentPath[:i+1]
			return nil
		}
	}

	chain, found := n.dfs(nil, nil, name)
	if !found {
		return apperrors.NewNotFoundError("folder", name)
	}
	n.currentPath = chain
	return nil
}

// dfs searches for the first active folder named name, depth first,
// returning the chain of folder names from the root down to it.
func (n *Navigator) dfs(parentID *string, prefix []string, name string) ([]string, bool) {
	for _, e := range n.children(parentID) {
		if !e.IsFolder() {
			continue
		}
		chain := append(append([]string{}, prefix...), e.Name)
		if e.Name == name {
			return chain, true
		}
		id := e.ID
		if deeper, found := n.dfs(&id, chain, name); found {
			return deeper, true
		}
	}
	return nil, false
}

// NavigateToBreadcrumb truncates the path to the breadcrumb at index i.
// A negative index jumps to the section root.
func (n *Navigator) NavigateToBreadcrumb(i int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if i < 0 {
		n.currentPath = nil
		return
	}
	if i+1 < len(n.currentPath) {
		n.currentPath = n.currentPath[:i+1]
	}
}

// SwitchSection activates the other namespace, clearing the path, the
// expanded set and the selection, and invalidating the cached tree.
// The new section is persisted when prefs is present.
func (n *Navigator) SwitchSection(section models.Section) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if section == n.section {
		return
	}
	n.section = section
	n.currentPath = nil
	n.expanded = make(map[string]bool)
	n.selected = ""
	n.entries = nil
	if n.prefs != nil {
		_ = n.prefs.SetActiveSection(section)
	}
}

// ToggleExpanded flips a folder's expansion state.
func (n *Navigator) ToggleExpanded(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expanded[id] = !n.expanded[id]
}

// IsExpanded reports a folder's expansion state.
func (n *Navigator) IsExpanded(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.expanded[id]
}

// Select marks an entry as selected.
func (n *Navigator) Select(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.selected = id
}

// Selected returns the selected entry id, if any.
func (n *Navigator) Selected() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.selected
}

// CreateFolder creates a folder at the current path, then refetches the
// tree. No optimistic tree mutation happens for any navigator write.
func (n *Navigator) CreateFolder(ctx context.Context, name string) error {
	n.mu.Lock()
	parentID, ok := n.folderAtPath()
	section := n.section
	path := append([]string{}, n.currentPath...)
	n.mu.Unlock()
	if !ok {
		return apperrors.NewNotFoundError("folder", joinPath(path))
	}

	_, err := n.syncer.CreateFolder(ctx, models.CreateFolderRequest{
		Name:     name,
		ParentID: parentID,
		Section:  section,
		Path:     path,
	})
	if err != nil {
		return err
	}
	return n.Refresh(ctx)
}

// UploadFiles uploads into the folder at the current path, then
// refetches the tree.
func (n *Navigator) UploadFiles(ctx context.Context, uploads []client.FileUpload, progress client.ProgressFunc) error {
	n.mu.Lock()
	parentID, ok := n.folderAtPath()
	section := n.section
	n.mu.Unlock()
	if !ok {
		return apperrors.NewNotFoundError("folder", joinPath(n.CurrentPath()))
	}

	if _, err := n.syncer.UploadFiles(ctx, section, parentID, uploads, progress); err != nil {
		return err
	}
	return n.Refresh(ctx)
}

// MoveItem reparents an entry. Descendant paths are recomputed by the
// backend; the refetch picks them up rather than repairing them locally.
func (n *Navigator) MoveItem(ctx context.Context, id string, newParentID *string) error {
	if err := n.syncer.MoveEntry(ctx, id, newParentID); err != nil {
		return err
	}
	return n.Refresh(ctx)
}

// RenameItem renames an entry, then refetches.
func (n *Navigator) RenameItem(ctx context.Context, id, name string) error {
	if err := n.syncer.RenameEntry(ctx, id, name); err != nil {
		return err
	}
	return n.Refresh(ctx)
}

// DeleteItem soft-deletes an entry, then refetches.
func (n *Navigator) DeleteItem(ctx context.Context, id string) error {
	if err := n.syncer.DeleteEntry(ctx, id); err != nil {
		return err
	}
	return n.Refresh(ctx)
}

func joinPath(path []string) string {
	out := "/"
	for i, seg := range path {
		if i > 0 {
			out += "/"
		}
		out += seg
	}
	return out
}

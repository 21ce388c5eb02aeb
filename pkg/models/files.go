package models

// Section is one of the two independent file storage namespaces.
// Sections never share paths or identifiers.
type Section string

const (
	SectionWorkspace Section = "workspace"
	SectionPrivate   Section = "private"
)

// EntryType classifies a file-manager node.
type EntryType string

const (
	EntryTypeFolder EntryType = "folder"
	EntryTypeImage  EntryType = "image"
	EntryTypeText   EntryType = "text"
	EntryTypeCode   EntryType = "code"
	EntryTypePDF    EntryType = "pdf"
	EntryTypeAudio  EntryType = "audio"
	EntryTypeVideo  EntryType = "video"
	EntryTypeFile   EntryType = "file"
)

// EntryStatus marks soft deletion. Deleted entries stay in the client
// cache until the next full refetch.
type EntryStatus string

const (
	EntryStatusActive  EntryStatus = "active"
	EntryStatusDeleted EntryStatus = "deleted"
)

// FileSystemEntry is a node in the file-manager tree. Parent is a weak
// back-reference used for lookup only; Path is the ordered chain of
// ancestor folder names from the section root.
type FileSystemEntry struct {
	ID       string      `json:"_id"`
	Name     string      `json:"name"`
	Type     EntryType   `json:"type"`
	Parent   *string     `json:"parent,omitempty"`
	Path     []string    `json:"path"`
	Section  Section     `json:"section"`
	Status   EntryStatus `json:"status"`
	Size     int64       `json:"size,omitempty"`
	MimeType string      `json:"mimeType,omitempty"`
}

// IsFolder reports whether the entry can contain children.
func (e FileSystemEntry) IsFolder() bool {
	return e.Type == EntryTypeFolder
}

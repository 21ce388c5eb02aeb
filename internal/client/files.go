package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/projectpulse/gridcore/pkg/models"
)

// ListEntries fetches the entries at one path of a section.
func (c *Client) ListEntries(ctx context.Context, section models.Section, path []string) ([]models.FileSystemEntry, error) {
	pathJSON, err := json.Marshal(path)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal path: %w", err)
	}
	query := url.Values{}
	query.Set("section", string(section))
	query.Set("path", string(pathJSON))

	var entries []models.FileSystemEntry
	if err := c.doRequest(ctx, http.MethodGet, "/api/file-manager?"+query.Encode(), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetStructure fetches every entry of a section in one call. The
// navigator builds its tree cache from this.
func (c *Client) GetStructure(ctx context.Context, section models.Section) ([]models.FileSystemEntry, error) {
	query := url.Values{}
	query.Set("section", string(section))

	var entries []models.FileSystemEntry
	if err := c.doRequest(ctx, http.MethodGet, "/api/file-manager/structure?"+query.Encode(), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateFolder creates a folder under the given parent.
func (c *Client) CreateFolder(ctx context.Context, req models.CreateFolderRequest) (*models.FileSystemEntry, error) {
	var entry models.FileSystemEntry
	if err := c.doRequest(ctx, http.MethodPost, "/api/file-manager/folders", req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// MoveEntry reparents an entry. The backend recomputes descendant paths;
// the client refetches rather than repairing them locally.
func (c *Client) MoveEntry(ctx context.Context, id string, parentID *string) error {
	path := fmt.Sprintf("/api/file-manager/%s/move", url.PathEscape(id))
	return c.doRequest(ctx, http.MethodPut, path, models.MoveEntryRequest{ParentID: parentID}, nil)
}

// RenameEntry renames an entry.
func (c *Client) RenameEntry(ctx context.Context, id, name string) error {
	path := fmt.Sprintf("/api/file-manager/%s/rename", url.PathEscape(id))
	return c.doRequest(ctx, http.MethodPut, path, models.RenameEntryRequest{Name: name}, nil)
}

// DeleteEntry soft-deletes an entry.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/file-manager/%s", url.PathEscape(id))
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}

// FileUpload is one file in a multipart upload.
type FileUpload struct {
	Name   string
	Reader io.Reader
}

// ProgressFunc receives upload progress as bytes sent out of the total
// request body size.
type ProgressFunc func(sent, total int64)

// UploadFiles uploads files into a folder of a section. Cancel the
// context to abort a transfer in flight; progress, when non-nil, is
// reported as the request body streams out.
func (c *Client) UploadFiles(ctx context.Context, section models.Section, parentID *string, files []FileUpload, progress ProgressFunc) ([]models.FileSystemEntry, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range files {
		part, err := writer.CreateFormFile("files[]", f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, fmt.Errorf("failed to buffer %s: %w", f.Name, err)
		}
	}
	if err := writer.WriteField("section", string(section)); err != nil {
		return nil, err
	}
	if parentID != nil {
		if err := writer.WriteField("parentId", *parentID); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	total := int64(buf.Len())
	var body io.Reader = &buf
	if progress != nil {
		body = &progressReader{r: &buf, total: total, report: progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/file-manager/upload", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.ContentLength = total
	c.authorize(req)

	var entries []models.FileSystemEntry
	if err := c.execute(req, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// progressReader reports cumulative bytes read as the transport consumes
// the request body.
type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent, p.total)
	}
	return n, err
}

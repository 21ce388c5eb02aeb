package models

import "encoding/json"

// APIResponse is the JSON envelope every backend endpoint returns.
// Mutating calls set Success explicitly; a missing success field on a
// 2xx response is treated as success by the client.
type APIResponse struct {
	Success *bool           `json:"success,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// OK reports whether the envelope indicates success.
func (r APIResponse) OK() bool {
	return r.Success == nil || *r.Success
}

// UpsertCellRequest is the body of POST /api/tables/{tableID}/records
// when writing a single cell of an existing row.
type UpsertCellRequest struct {
	Values   RowValues `json:"values"`
	ColumnID string    `json:"columnId,omitempty"`
	RowID    string    `json:"rowId,omitempty"`
}

// CreateFolderRequest is the body of POST /api/file-manager/folders.
type CreateFolderRequest struct {
	Name     string   `json:"name"`
	ParentID *string  `json:"parentId,omitempty"`
	Section  Section  `json:"section"`
	Path     []string `json:"path,omitempty"`
}

// MoveEntryRequest is the body of PUT /api/file-manager/{id}/move.
type MoveEntryRequest struct {
	ParentID *string `json:"parentId"`
}

// RenameEntryRequest is the body of PUT /api/file-manager/{id}/rename.
type RenameEntryRequest struct {
	Name string `json:"name"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

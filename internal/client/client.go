// Package client is the HTTP boundary between the grid core and the
// backend API. It injects the bearer token on every request, decodes the
// JSON response envelope and converts 401 responses into the
// session-expiry hook. Failed calls are never retried here.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/projectpulse/gridcore/pkg/errors"
	"github.com/projectpulse/gridcore/pkg/models"
)

// TokenSource supplies the bearer token carried on every request,
// typically backed by local persisted storage.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed-token TokenSource for tests and CLI use.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client talks to the backend API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	tokens TokenSource

	// OnUnauthorized fires once per 401 response before the error is
	// returned. Session-expiry handling lives outside this package.
	OnUnauthorized func()
}

// New creates a client for the given base URL.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
	}
}

// doRequest executes one JSON request and decodes the envelope into result.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	return c.execute(req, result)
}

func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) execute(req *http.Request, result any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
		return apperrors.NewUnauthorizedError("session expired")
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope models.APIResponse
	if len(respBytes) > 0 {
		if err := json.Unmarshal(respBytes, &envelope); err != nil {
			if resp.StatusCode >= 400 {
				return fmt.Errorf("api error (%d): %s", resp.StatusCode, string(respBytes))
			}
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	if resp.StatusCode >= 400 || !envelope.OK() {
		message := envelope.Message
		if message == "" {
			message = envelope.Error
		}
		if message == "" {
			message = string(respBytes)
		}
		return fmt.Errorf("api error (%d): %s", resp.StatusCode, message)
	}

	if result != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out models.LoginResponse
	req := models.LoginRequest{Email: email, Password: password}
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", req, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// ListRecords fetches all rows of a table.
func (c *Client) ListRecords(ctx context.Context, tableID string) ([]models.Record, error) {
	var records []models.Record
	path := fmt.Sprintf("/api/tables/%s/records", url.PathEscape(tableID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// UpsertCell persists a single cell value of an existing row.
func (c *Client) UpsertCell(ctx context.Context, tableID, rowID, columnID string, value any) (*models.Record, error) {
	body := models.UpsertCellRequest{
		Values:   models.RowValues{columnID: value},
		ColumnID: columnID,
		RowID:    rowID,
	}
	var record models.Record
	path := fmt.Sprintf("/api/tables/%s/records", url.PathEscape(tableID))
	if err := c.doRequest(ctx, http.MethodPost, path, body, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateRecord creates a new row and returns it with the server-assigned id.
func (c *Client) CreateRecord(ctx context.Context, tableID string, values models.RowValues) (*models.Record, error) {
	body := models.UpsertCellRequest{Values: values}
	var record models.Record
	path := fmt.Sprintf("/api/tables/%s/records", url.PathEscape(tableID))
	if err := c.doRequest(ctx, http.MethodPost, path, body, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteRecord removes a row.
func (c *Client) DeleteRecord(ctx context.Context, tableID, rowID string) error {
	path := fmt.Sprintf("/api/tables/%s/records/%s", url.PathEscape(tableID), url.PathEscape(rowID))
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}

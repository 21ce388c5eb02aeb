package models

import (
	"time"
)

// ColumnType identifies the value strategy a column uses for coercion,
// rendering and editing.
type ColumnType string

const (
	ColumnTypeText         ColumnType = "text"
	ColumnTypeNumber       ColumnType = "number"
	ColumnTypeDate         ColumnType = "date"
	ColumnTypeTime         ColumnType = "time"
	ColumnTypeDateTime     ColumnType = "datetime"
	ColumnTypeCurrency     ColumnType = "currency"
	ColumnTypePercent      ColumnType = "percent"
	ColumnTypeRating       ColumnType = "rating"
	ColumnTypeTags         ColumnType = "tags"
	ColumnTypeLink         ColumnType = "link"
	ColumnTypeFile         ColumnType = "file"
	ColumnTypePhone        ColumnType = "phone"
	ColumnTypeSingleSelect ColumnType = "single-select"
	ColumnTypeRelation     ColumnType = "relation"
)

// IsNumeric reports whether the type stores a numeric value.
// Rating is numeric for storage purposes even though it renders as stars.
func (t ColumnType) IsNumeric() bool {
	switch t {
	case ColumnTypeNumber, ColumnTypeCurrency, ColumnTypePercent, ColumnTypeRating:
		return true
	}
	return false
}

// Column represents one field definition shared by all rows of a table.
// The ID is immutable once rows reference it; Type selects the coercion
// and render strategy.
type Column struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     ColumnType     `json:"type"`
	Sortable bool           `json:"sortable,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
}

// RowValues maps column ids to stored cell values. A nil value means the
// field is unset.
type RowValues map[string]any

// GetString returns the value for key as a string, or "" if absent or
// of another type.
func (v RowValues) GetString(key string) string {
	if val, ok := v[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetNumber returns the value for key as float64. JSON decoding always
// produces float64 for numbers, but int values set locally are accepted too.
func (v RowValues) GetNumber(key string) (float64, bool) {
	val, ok := v[key]
	if !ok || val == nil {
		return 0, false
	}
	switch n := val.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// GetTime returns the value for key parsed as an RFC3339 timestamp.
func (v RowValues) GetTime(key string) time.Time {
	if val, ok := v[key]; ok {
		if t, ok := val.(time.Time); ok {
			return t
		}
		if tStr, ok := val.(string); ok {
			parsed, _ := time.Parse(time.RFC3339, tStr)
			return parsed
		}
	}
	return time.Time{}
}

// Get returns the raw value for key.
func (v RowValues) Get(key string) any {
	return v[key]
}

// Clone returns a shallow copy of the values map. Cache writes replace
// whole rows rather than mutating shared maps in place.
func (v RowValues) Clone() RowValues {
	out := make(RowValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Record is one row of a table. ID is the server-assigned stable id,
// also used as the cache key. Rows created locally carry a temporary id
// until the server confirms the real one.
type Record struct {
	ID     string    `json:"_id"`
	Values RowValues `json:"values"`

	// Selected is ephemeral UI state and never persisted.
	Selected bool `json:"-"`
}

// Clone returns a copy of the record with its own values map.
func (r Record) Clone() Record {
	return Record{ID: r.ID, Values: r.Values.Clone(), Selected: r.Selected}
}

// Tag is one entry of a tags-typed cell value.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Package coerce validates and normalizes raw cell input according to a
// column's declared type. Every write path goes through Coerce so that
// the grid commit pipeline and manual patches share identical semantics
// and the same error vocabulary.
package coerce

import (
	"regexp"
	"time"

	"github.com/projectpulse/gridcore/pkg/errors"
	"github.com/projectpulse/gridcore/pkg/models"
	"github.com/projectpulse/gridcore/pkg/utils"
)

const (
	msgInvalidNumber = "Invalid number format"
	msgInvalidTime   = "Invalid time format. Please use HH:MM format."
	msgInvalidDate   = "Invalid date format. Please use YYYY-MM-DD, DD/MM/YYYY, or MM/DD/YYYY format."
)

// timePattern accepts 24-hour clock values. A single-digit hour is
// allowed on input; display always zero-pads.
var timePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)

// now is swapped out in tests that need a fixed "today" anchor.
var now = time.Now

// Result is the outcome of coercing one raw value.
type Result struct {
	Value any
	Valid bool
	Err   error
}

func ok(value any) Result {
	return Result{Value: value, Valid: true}
}

func invalid(field, message string, raw any) Result {
	err := errors.NewValidationError(field, message)
	err.Value = raw
	return Result{Value: raw, Valid: false, Err: err}
}

// Coerce validates raw against the column's type and returns the
// normalized storage value. prev is the pre-edit value; it is not
// consulted here but callers keep it for rollback, so the signature
// carries it through for symmetry with the commit pipeline.
func Coerce(col models.Column, raw, prev any) Result {
	_ = prev

	switch col.Type {
	case models.ColumnTypeNumber, models.ColumnTypeCurrency, models.ColumnTypePercent, models.ColumnTypeRating:
		return coerceNumber(col, raw)
	case models.ColumnTypeTime:
		return coerceTime(col, raw)
	case models.ColumnTypeDate, models.ColumnTypeDateTime:
		return coerceDate(col, raw)
	case models.ColumnTypeTags:
		return ok(NormalizeTags(raw))
	default:
		// text, link, file, phone, single-select, relation and any
		// unknown type pass through unchanged. Phone formatting is a
		// display-only transform, never applied to the stored value.
		return ok(raw)
	}
}

// coerceNumber handles the numeric family. An empty input clears the
// field. Ratings are intentionally not clamped here; the clamp to [0,5]
// happens at render time only, so an out-of-range stored value survives
// a round trip unchanged.
func coerceNumber(col models.Column, raw any) Result {
	if utils.IsEmptyValue(raw) {
		return ok(nil)
	}
	f, valid := utils.ToFloat(raw)
	if !valid {
		return invalid(col.ID, msgInvalidNumber, raw)
	}
	return ok(f)
}

// coerceTime accepts 24-hour HH:MM input, anchors it to today's date and
// stores the absolute timestamp as an RFC3339 string.
func coerceTime(col models.Column, raw any) Result {
	if utils.IsEmptyValue(raw) {
		return ok(nil)
	}
	s, isStr := raw.(string)
	if !isStr {
		return invalid(col.ID, msgInvalidTime, raw)
	}
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return invalid(col.ID, msgInvalidTime, raw)
	}
	hour := atoi(m[1])
	minute := atoi(m[2])
	today := now()
	t := time.Date(today.Year(), today.Month(), today.Day(), hour, minute, 0, 0, today.Location())
	return ok(t.Format(time.RFC3339))
}

// DisplayTime converts a stored time value back into the HH:MM edit
// representation. Unset or unparseable values display as empty.
func DisplayTime(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format("15:04")
	case string:
		if v == "" {
			return ""
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ""
		}
		return t.Format("15:04")
	default:
		return ""
	}
}

// dateLayouts are tried in order before falling back to the segment
// heuristic.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var dateSeparators = regexp.MustCompile(`[/\-.]`)

// coerceDate accepts a native time.Time directly, then known layouts,
// then a three-segment heuristic: a four-digit first segment means
// year-first, a first segment above 12 means day-first, anything else
// is read month-first.
func coerceDate(col models.Column, raw any) Result {
	if utils.IsEmptyValue(raw) {
		return ok(nil)
	}
	if t, isTime := raw.(time.Time); isTime {
		return ok(t.Format(time.RFC3339))
	}
	s, isStr := raw.(string)
	if !isStr {
		return invalid(col.ID, msgInvalidDate, raw)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ok(t.Format(time.RFC3339))
		}
	}
	t, parsed := parseDateSegments(s)
	if !parsed {
		return invalid(col.ID, msgInvalidDate, raw)
	}
	return ok(t.Format(time.RFC3339))
}

func parseDateSegments(s string) (time.Time, bool) {
	segs := dateSeparators.Split(s, -1)
	if len(segs) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, seg := range segs {
		if seg == "" || !allDigits(seg) {
			return time.Time{}, false
		}
		nums[i] = atoi(seg)
	}

	var year, month, day int
	switch {
	case len(segs[0]) == 4:
		year, month, day = nums[0], nums[1], nums[2]
	case nums[0] > 12:
		day, month, year = nums[0], nums[1], nums[2]
	default:
		month, day, year = nums[0], nums[1], nums[2]
	}
	if year < 100 {
		year += 2000
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	// time.Date normalizes overflow (Feb 30 becomes Mar 2), so reject
	// anything that did not round-trip.
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeTags converts the accepted tag input shapes into []models.Tag.
// Strings become unnamed-id tags; maps are read by their id/name keys.
func NormalizeTags(raw any) []models.Tag {
	switch v := raw.(type) {
	case nil:
		return nil
	case []models.Tag:
		return v
	case []string:
		tags := make([]models.Tag, 0, len(v))
		for _, name := range v {
			tags = append(tags, models.Tag{ID: utils.GenerateID(), Name: name})
		}
		return tags
	case []any:
		tags := make([]models.Tag, 0, len(v))
		for _, item := range v {
			switch tv := item.(type) {
			case models.Tag:
				tags = append(tags, tv)
			case string:
				tags = append(tags, models.Tag{ID: utils.GenerateID(), Name: tv})
			case map[string]any:
				tag := models.Tag{}
				if id, found := tv["id"].(string); found {
					tag.ID = id
				}
				if name, found := tv["name"].(string); found {
					tag.Name = name
				}
				tags = append(tags, tag)
			}
		}
		return tags
	default:
		return nil
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

package fieldtypes

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/projectpulse/gridcore/pkg/coerce"
	"github.com/projectpulse/gridcore/pkg/models"
	"github.com/projectpulse/gridcore/pkg/utils"
)

func registerBuiltins(r *RendererRegistry) {
	builtins := []CellRenderer{
		&TextRenderer{NewBaseRenderer(string(models.ColumnTypeText))},
		&NumberRenderer{NewBaseRenderer(string(models.ColumnTypeNumber))},
		&CurrencyRenderer{NewBaseRenderer(string(models.ColumnTypeCurrency))},
		&PercentRenderer{NewBaseRenderer(string(models.ColumnTypePercent))},
		&RatingRenderer{NewBaseRenderer(string(models.ColumnTypeRating))},
		&DateRenderer{NewBaseRenderer(string(models.ColumnTypeDate))},
		&DateRenderer{NewBaseRenderer(string(models.ColumnTypeDateTime))},
		&TimeRenderer{NewBaseRenderer(string(models.ColumnTypeTime))},
		&TagsRenderer{NewBaseRenderer(string(models.ColumnTypeTags))},
		&LinkRenderer{NewBaseRenderer(string(models.ColumnTypeLink))},
		&PhoneRenderer{NewBaseRenderer(string(models.ColumnTypePhone))},
		&TextRenderer{NewBaseRenderer(string(models.ColumnTypeFile))},
		&TextRenderer{NewBaseRenderer(string(models.ColumnTypeSingleSelect))},
		&TextRenderer{NewBaseRenderer(string(models.ColumnTypeRelation))},
	}
	for _, b := range builtins {
		if err := r.Register(b); err != nil {
			panic(err)
		}
	}
}

// TextRenderer is the default pass-through strategy, also used for
// file, single-select, relation and any unknown type.
type TextRenderer struct {
	BaseRenderer
}

// NumberRenderer formats floats without trailing zeros
type NumberRenderer struct {
	BaseRenderer
}

func (r *NumberRenderer) Format(value any, params map[string]any) string {
	f, valid := utils.ToFloat(value)
	if !valid {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CurrencyRenderer formats amounts with a column-configurable symbol
type CurrencyRenderer struct {
	BaseRenderer
}

func (r *CurrencyRenderer) Format(value any, params map[string]any) string {
	f, valid := utils.ToFloat(value)
	if !valid {
		return ""
	}
	symbol := "$"
	if params != nil {
		if s, ok := params["currency"].(string); ok && s != "" {
			symbol = s
		}
	}
	return fmt.Sprintf("%s%.2f", symbol, f)
}

// PercentRenderer appends the percent sign
type PercentRenderer struct {
	BaseRenderer
}

func (r *PercentRenderer) Format(value any, params map[string]any) string {
	f, valid := utils.ToFloat(value)
	if !valid {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64) + "%"
}

// RatingRenderer displays stars. The clamp to [0,5] happens here and
// only here; an out-of-range stored value persists unchanged server-side
// and simply displays saturated.
type RatingRenderer struct {
	BaseRenderer
}

func (r *RatingRenderer) Format(value any, params map[string]any) string {
	f, valid := utils.ToFloat(value)
	if !valid {
		return ""
	}
	stars := int(f)
	if stars < 0 {
		stars = 0
	}
	if stars > 5 {
		stars = 5
	}
	return strings.Repeat("★", stars) + strings.Repeat("☆", 5-stars)
}

// DateRenderer shows stored RFC3339 timestamps as calendar dates
type DateRenderer struct {
	BaseRenderer
}

func (r *DateRenderer) Format(value any, params map[string]any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format("Jan 2, 2006")
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return v
		}
		return t.Format("Jan 2, 2006")
	default:
		return ""
	}
}

// TimeRenderer shows the HH:MM component of the stored absolute
// timestamp and owns the one stateful editor in the registry.
type TimeRenderer struct {
	BaseRenderer
}

func (r *TimeRenderer) Format(value any, params map[string]any) string {
	return coerce.DisplayTime(value)
}

func (r *TimeRenderer) NewEditor(value any) CellEditor {
	return NewTimeEditor(value)
}

// TimeEditor holds a local HH:MM buffer seeded by converting the stored
// absolute timestamp back into clock form. The grid controller pulls
// the buffer via CurrentValue when editing stops.
type TimeEditor struct {
	buffer   string
	attached bool
}

// NewTimeEditor seeds the buffer from a stored value
func NewTimeEditor(value any) *TimeEditor {
	return &TimeEditor{buffer: coerce.DisplayTime(value)}
}

func (e *TimeEditor) CurrentValue() any { return e.buffer }

func (e *TimeEditor) SetBuffer(raw any) {
	if s, ok := raw.(string); ok {
		e.buffer = s
		return
	}
	e.buffer = coerce.DisplayTime(raw)
}

func (e *TimeEditor) OnAttach() { e.attached = true }

// TagsRenderer joins tag names for display
type TagsRenderer struct {
	BaseRenderer
}

func (r *TagsRenderer) Format(value any, params map[string]any) string {
	tags := coerce.NormalizeTags(value)
	if len(tags) == 0 {
		return ""
	}
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return strings.Join(names, ", ")
}

// LinkRenderer displays a column-configurable label in place of the URL
type LinkRenderer struct {
	BaseRenderer
}

func (r *LinkRenderer) Format(value any, params map[string]any) string {
	if value == nil {
		return ""
	}
	if params != nil {
		if label, ok := params["label"].(string); ok && label != "" {
			return label
		}
	}
	return fmt.Sprintf("%v", value)
}

// PhoneRenderer applies a display-only format mask. '#' consumes one
// digit; any other rune is emitted literally. The stored value is never
// touched.
type PhoneRenderer struct {
	BaseRenderer
}

func (r *PhoneRenderer) Format(value any, params map[string]any) string {
	s, ok := value.(string)
	if !ok || s == "" {
		if value == nil {
			return ""
		}
		return fmt.Sprintf("%v", value)
	}

	mask := "(###) ###-####"
	if params != nil {
		if m, found := params["format"].(string); found && m != "" {
			mask = m
		}
	}

	digits := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			digits = append(digits, ch)
		}
	}

	var out strings.Builder
	di := 0
	for _, m := range mask {
		if m == '#' {
			if di >= len(digits) {
				// Not enough digits for the mask; show the raw value.
				return s
			}
			out.WriteRune(digits[di])
			di++
			continue
		}
		out.WriteRune(m)
	}
	if di < len(digits) {
		return s
	}
	return out.String()
}

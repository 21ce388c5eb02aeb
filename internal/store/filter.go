package store

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/projectpulse/gridcore/pkg/models"
)

// Filter evaluates a filter expression against every cached row and
// returns the rows for which it is true. Column ids are exposed as
// variables; unknown variables evaluate to nil rather than erroring so
// sparse rows filter cleanly.
func (s *RecordStore) Filter(src string) ([]models.Record, error) {
	program, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	rows := s.Rows()
	out := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		env := map[string]any(row.Values)
		if env == nil {
			env = map[string]any{}
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("filter evaluation failed for row %s: %w", row.ID, err)
		}
		if keep, ok := result.(bool); ok && keep {
			out = append(out, row)
		}
	}
	return out, nil
}

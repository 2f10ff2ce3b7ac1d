package data

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// toFrame loads a table into a string-typed dataframe so that cells survive
// the round trip verbatim.
func toFrame(t *Table) dataframe.DataFrame {
	return dataframe.LoadRecords(
		t.Records(),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{"NA", "N/A", "NaN", "nan", "null", "NULL", "None", "#N/A"}),
	)
}

// OuterJoin merges two tables on a shared key column, keeping rows from both
// sides. Cells without a partner row are left missing for the cleaner to drop.
func OuterJoin(left, right *Table, key string) (*Table, error) {
	if left.Index(key) < 0 {
		return nil, fmt.Errorf("%w: join key %q not in left table", ErrSchema, key)
	}
	if right.Index(key) < 0 {
		return nil, fmt.Errorf("%w: join key %q not in right table", ErrSchema, key)
	}

	l := toFrame(left)
	if l.Err != nil {
		return nil, fmt.Errorf("failed to load left table: %w", l.Err)
	}
	r := toFrame(right)
	if r.Err != nil {
		return nil, fmt.Errorf("failed to load right table: %w", r.Err)
	}

	joined := l.OuterJoin(r, key)
	if joined.Err != nil {
		return nil, fmt.Errorf("outer join on %q failed: %w", key, joined.Err)
	}

	return FromRecords(joined.Records())
}

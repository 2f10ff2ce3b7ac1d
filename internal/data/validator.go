package data

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrTargetMissing = errors.New("target column not found")
	ErrEmptyTable    = errors.New("table has no rows")
	ErrSchema        = errors.New("invalid table schema")
)

type TableValidator struct{}

func NewTableValidator() *TableValidator {
	return &TableValidator{}
}

// ValidateTable checks the structural invariants every stage relies on.
func (tv *TableValidator) ValidateTable(t *Table) error {
	if t == nil || t.NumColumns() == 0 {
		return fmt.Errorf("%w: no columns", ErrSchema)
	}

	n := t.NumRows()
	seen := make(map[string]bool, t.NumColumns())
	for _, c := range t.Columns {
		if len(c.Cells) != n {
			return fmt.Errorf("%w: column %q has %d cells, expected %d", ErrSchema, c.Name, len(c.Cells), n)
		}
		if c.Kind == Numeric && len(c.Values) != n {
			return fmt.Errorf("%w: numeric column %q has %d values, expected %d", ErrSchema, c.Name, len(c.Values), n)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate column name %q", ErrSchema, c.Name)
		}
		seen[c.Name] = true
	}

	if n == 0 {
		return ErrEmptyTable
	}

	return nil
}

// RequireColumn fails when the target column is absent or the table holds no
// predictor next to it.
func (tv *TableValidator) RequireColumn(t *Table, name string) error {
	if t.Index(name) < 0 {
		return fmt.Errorf("%w: %q (have %v)", ErrTargetMissing, name, t.Names())
	}
	if t.NumColumns() < 2 {
		return fmt.Errorf("%w: no feature columns besides %q", ErrSchema, name)
	}
	return nil
}

// ValidateNumeric fails if any column is still categorical.
func (tv *TableValidator) ValidateNumeric(t *Table) error {
	for _, c := range t.Columns {
		if c.Kind != Numeric {
			return fmt.Errorf("%w: column %q is %s", ErrSchema, c.Name, c.Kind)
		}
	}
	return nil
}

type TableStats struct {
	Rows              int
	Columns           int
	Numeric           []string
	Categorical       []string
	ClassDistribution map[string]int
}

// GetTableStats summarizes a table; when target names a column its value
// counts are included.
func (tv *TableValidator) GetTableStats(t *Table, target string) TableStats {
	stats := TableStats{
		Rows:    t.NumRows(),
		Columns: t.NumColumns(),
	}

	for _, c := range t.Columns {
		if c.Kind == Numeric {
			stats.Numeric = append(stats.Numeric, c.Name)
		} else {
			stats.Categorical = append(stats.Categorical, c.Name)
		}
	}

	if col := t.Column(target); col != nil {
		stats.ClassDistribution = make(map[string]int)
		for _, cell := range col.Cells {
			stats.ClassDistribution[cell]++
		}
	}

	return stats
}

// Classes returns the distinct keys of a class distribution in ascending order.
func (s TableStats) Classes() []string {
	classes := make([]string, 0, len(s.ClassDistribution))
	for class := range s.ClassDistribution {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

package data

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Column holds one named column. Values is only populated for Numeric columns
// and is aligned with Cells; missing numeric cells are NaN.
type Column struct {
	Name   string
	Kind   Kind
	Cells  []string
	Values []float64
}

// Table is an ordered set of aligned columns. Stages never modify a Table they
// receive; they build a new one.
type Table struct {
	Columns []*Column
}

var missingMarkers = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
	"None": true,
	"#N/A": true,
}

func IsMissing(cell string) bool {
	return missingMarkers[strings.TrimSpace(cell)]
}

func NewTable(columns ...*Column) *Table {
	return &Table{Columns: columns}
}

// NewColumn infers the column kind from its cells: it is Numeric when every
// non-missing cell parses as a decimal number.
func NewColumn(name string, cells []string) *Column {
	values := make([]float64, len(cells))
	for i, cell := range cells {
		if IsMissing(cell) {
			values[i] = math.NaN()
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(cell))
		if err != nil {
			return &Column{Name: name, Kind: Categorical, Cells: cells}
		}
		values[i] = d.InexactFloat64()
	}
	return &Column{Name: name, Kind: Numeric, Cells: cells, Values: values}
}

// NewNumericColumn builds a numeric column from values, rendering the cells in
// their shortest form.
func NewNumericColumn(name string, values []float64) *Column {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return &Column{Name: name, Kind: Numeric, Cells: cells, Values: values}
}

func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

func (t *Table) NumColumns() int {
	return len(t.Columns)
}

func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Row returns the raw cells of row i.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Cells[i]
	}
	return row
}

// Records renders the table as CSV records, header first.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, t.NumRows()+1)
	records = append(records, t.Names())
	for i := 0; i < t.NumRows(); i++ {
		records = append(records, t.Row(i))
	}
	return records
}

// SelectRows returns a new table holding the given rows in the given order.
func (t *Table) SelectRows(rows []int) *Table {
	out := &Table{Columns: make([]*Column, len(t.Columns))}
	for j, c := range t.Columns {
		nc := &Column{Name: c.Name, Kind: c.Kind, Cells: make([]string, len(rows))}
		if c.Values != nil {
			nc.Values = make([]float64, len(rows))
		}
		for i, r := range rows {
			nc.Cells[i] = c.Cells[r]
			if c.Values != nil {
				nc.Values[i] = c.Values[r]
			}
		}
		out.Columns[j] = nc
	}
	return out
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	rows := make([]int, t.NumRows())
	for i := range rows {
		rows[i] = i
	}
	return t.SelectRows(rows)
}

// Equal reports whether both tables have the same names, kinds and cells.
func (t *Table) Equal(other *Table) bool {
	if t.NumColumns() != other.NumColumns() || t.NumRows() != other.NumRows() {
		return false
	}
	for j, c := range t.Columns {
		o := other.Columns[j]
		if c.Name != o.Name || c.Kind != o.Kind {
			return false
		}
		for i := range c.Cells {
			if c.Cells[i] != o.Cells[i] {
				return false
			}
		}
	}
	return true
}

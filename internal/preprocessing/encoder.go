package preprocessing

import (
	"fmt"
	"sort"

	"fraudml/internal/data"
)

// LabelEncoder maps the distinct values of one column to codes 0..k-1 in
// ascending byte-wise order, so codes never depend on row order.
type LabelEncoder struct {
	Classes    []string
	ClassToInt map[string]int
	IsFitted   bool
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{
		ClassToInt: make(map[string]int),
	}
}

func (le *LabelEncoder) Fit(labels []string) {
	unique := make(map[string]bool)
	for _, label := range labels {
		unique[label] = true
	}

	le.Classes = make([]string, 0, len(unique))
	for label := range unique {
		le.Classes = append(le.Classes, label)
	}
	sort.Strings(le.Classes)

	le.ClassToInt = make(map[string]int, len(le.Classes))
	for i, label := range le.Classes {
		le.ClassToInt[label] = i
	}

	le.IsFitted = true
}

func (le *LabelEncoder) Transform(labels []string) ([]int, error) {
	if !le.IsFitted {
		return nil, fmt.Errorf("LabelEncoder must be fitted before transform")
	}

	result := make([]int, len(labels))
	for i, label := range labels {
		val, ok := le.ClassToInt[label]
		if !ok {
			return nil, fmt.Errorf("unknown label: %s", label)
		}
		result[i] = val
	}

	return result, nil
}

func (le *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	le.Fit(labels)
	return le.Transform(labels)
}

func (le *LabelEncoder) InverseTransform(encoded []int) ([]string, error) {
	if !le.IsFitted {
		return nil, fmt.Errorf("LabelEncoder must be fitted before inverse transform")
	}

	result := make([]string, len(encoded))
	for i, val := range encoded {
		if val < 0 || val >= len(le.Classes) {
			return nil, fmt.Errorf("unknown encoding: %d", val)
		}
		result[i] = le.Classes[val]
	}

	return result, nil
}

// CategoricalEncoder holds one LabelEncoder per categorical column of a table.
type CategoricalEncoder struct {
	Encoders map[string]*LabelEncoder
	order    []string
}

func NewCategoricalEncoder() *CategoricalEncoder {
	return &CategoricalEncoder{Encoders: make(map[string]*LabelEncoder)}
}

func (ce *CategoricalEncoder) Fit(t *data.Table) {
	ce.Encoders = make(map[string]*LabelEncoder)
	ce.order = ce.order[:0]
	for _, c := range t.Columns {
		if c.Kind != data.Categorical {
			continue
		}
		le := NewLabelEncoder()
		le.Fit(c.Cells)
		ce.Encoders[c.Name] = le
		ce.order = append(ce.order, c.Name)
	}
}

// Transform returns a new table in which every fitted categorical column is
// replaced by its integer codes. Other columns are copied through.
func (ce *CategoricalEncoder) Transform(t *data.Table) (*data.Table, error) {
	out := t.Clone()
	for j, c := range out.Columns {
		le, ok := ce.Encoders[c.Name]
		if !ok || c.Kind != data.Categorical {
			continue
		}
		codes, err := le.Transform(c.Cells)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		values := make([]float64, len(codes))
		for i, code := range codes {
			values[i] = float64(code)
		}
		out.Columns[j] = data.NewNumericColumn(c.Name, values)
	}
	return out, nil
}

func (ce *CategoricalEncoder) FitTransform(t *data.Table) (*data.Table, error) {
	ce.Fit(t)
	return ce.Transform(t)
}

// Encoded lists the encoded columns in table order.
func (ce *CategoricalEncoder) Encoded() []string {
	return append([]string(nil), ce.order...)
}

func (ce *CategoricalEncoder) IsEncoded(column string) bool {
	_, ok := ce.Encoders[column]
	return ok
}

// Classes returns the ordered classes of an encoded column, or nil.
func (ce *CategoricalEncoder) Classes(column string) []string {
	if le, ok := ce.Encoders[column]; ok {
		return le.Classes
	}
	return nil
}

// Encode is FitTransform with a fresh encoder.
func Encode(t *data.Table) (*data.Table, *CategoricalEncoder, error) {
	ce := NewCategoricalEncoder()
	out, err := ce.FitTransform(t)
	if err != nil {
		return nil, nil, err
	}
	return out, ce, nil
}

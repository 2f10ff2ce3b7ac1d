package preprocessing

import (
	"strconv"
	"strings"

	"fraudml/internal/data"
)

// Clean drops rows with missing cells, then exact duplicate rows (first
// occurrence wins), then normalizes column names. The input is left untouched.
func Clean(t *data.Table) *data.Table {
	complete := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		if !hasMissing(t, i) {
			complete = append(complete, i)
		}
	}

	seen := make(map[string]bool, len(complete))
	unique := make([]int, 0, len(complete))
	for _, i := range complete {
		key := rowKey(t, i)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, i)
	}

	out := t.SelectRows(unique)
	names := NormalizeNames(t.Names())
	for j, c := range out.Columns {
		c.Name = names[j]
	}
	return out
}

func hasMissing(t *data.Table, row int) bool {
	for _, c := range t.Columns {
		if data.IsMissing(c.Cells[row]) {
			return true
		}
	}
	return false
}

// rowKey compares numeric cells by value so "1" and "1.0" are the same cell.
func rowKey(t *data.Table, row int) string {
	var sb strings.Builder
	for j, c := range t.Columns {
		if j > 0 {
			sb.WriteByte(0x1f)
		}
		if c.Kind == data.Numeric {
			sb.WriteString(strconv.FormatFloat(c.Values[row], 'g', -1, 64))
		} else {
			sb.WriteString(c.Cells[row])
		}
	}
	return sb.String()
}

// NormalizeName trims, lower-cases and replaces spaces with underscores.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// NormalizeNames normalizes every name and suffixes collisions with _2, _3...
// in column order.
func NormalizeNames(names []string) []string {
	out := make([]string, len(names))
	taken := make(map[string]bool, len(names))
	for i, name := range names {
		taken[NormalizeName(name)] = true
		out[i] = NormalizeName(name)
	}

	used := make(map[string]bool, len(names))
	for i, name := range out {
		if !used[name] {
			used[name] = true
			continue
		}
		for k := 2; ; k++ {
			candidate := name + "_" + strconv.Itoa(k)
			if !used[candidate] && !taken[candidate] {
				out[i] = candidate
				used[candidate] = true
				break
			}
		}
	}
	return out
}

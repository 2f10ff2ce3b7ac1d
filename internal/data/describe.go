package data

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Describe returns summary statistics of the numeric columns as CSV-like
// records: a header row followed by one row per statistic (count first, then
// gota's mean/median/stddev/min/quartiles/max). Missing cells are left out of
// every statistic of their column.
func Describe(t *Table) ([][]string, error) {
	var (
		header = []string{"column"}
		labels []string
		stats  [][]string
		counts []int
	)

	for _, c := range t.Columns {
		if c.Kind != Numeric {
			continue
		}

		present := make([]float64, 0, len(c.Values))
		for _, v := range c.Values {
			if !math.IsNaN(v) {
				present = append(present, v)
			}
		}
		header = append(header, c.Name)
		counts = append(counts, len(present))

		if len(present) == 0 {
			stats = append(stats, nil)
			continue
		}

		summary := dataframe.New(series.New(present, series.Float, c.Name)).Describe()
		if summary.Err != nil {
			return nil, fmt.Errorf("describe %q failed: %w", c.Name, summary.Err)
		}
		records := summary.Records()
		column := make([]string, 0, len(records)-1)
		if labels == nil {
			labels = make([]string, 0, len(records)-1)
			for _, row := range records[1:] {
				labels = append(labels, row[0])
			}
		}
		for _, row := range records[1:] {
			column = append(column, row[1])
		}
		stats = append(stats, column)
	}

	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no numeric columns to describe", ErrSchema)
	}
	if labels == nil {
		return nil, fmt.Errorf("%w: numeric columns hold no values", ErrSchema)
	}

	out := make([][]string, 0, len(labels)+2)
	out = append(out, header)

	count := []string{"count"}
	for _, n := range counts {
		count = append(count, strconv.Itoa(n))
	}
	out = append(out, count)

	for i, label := range labels {
		row := []string{label}
		for _, column := range stats {
			if column == nil {
				row = append(row, "NaN")
				continue
			}
			row = append(row, column[i])
		}
		out = append(out, row)
	}
	return out, nil
}

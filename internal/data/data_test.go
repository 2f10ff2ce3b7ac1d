package data_test

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudml/internal/data"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadInfersKinds(t *testing.T) {
	path := writeFile(t, "tx.csv", "\ufeffAmount,Merchant,Is Fraud\n12.5,shop,0\nNA,cafe,1\n3,shop,0\n")

	table, err := data.Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, table.NumRows())
	require.Equal(t, []string{"Amount", "Merchant", "Is Fraud"}, table.Names())

	amount := table.Column("Amount")
	require.Equal(t, data.Numeric, amount.Kind)
	assert.Equal(t, 12.5, amount.Values[0])
	assert.True(t, math.IsNaN(amount.Values[1]), "NA is missing")

	assert.Equal(t, data.Categorical, table.Column("Merchant").Kind)
	assert.Equal(t, data.Numeric, table.Column("Is Fraud").Kind)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := data.Load(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, data.ErrNotFound))
}

func TestLoadRaggedRecords(t *testing.T) {
	path := writeFile(t, "bad.csv", "a,b\n1,2\n3\n")

	_, err := data.Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, data.ErrParse))
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	_, err := data.Load(path)
	assert.True(t, errors.Is(err, data.ErrParse))
}

func TestSemicolonDelimiter(t *testing.T) {
	path := writeFile(t, "semi.csv", "a;b\n1;x\n")

	table, err := data.NewCSVReader(path).WithComma(';').LoadData()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Names())
}

func TestWriteCSVRoundTrip(t *testing.T) {
	table, err := data.FromRecords([][]string{{"a", "b"}, {"1", "x"}, {"2", "y"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, data.WriteCSV(&buf, table))
	assert.Equal(t, "a,b\n1,x\n2,y\n", buf.String())
}

func TestFromRecordsDoesNotAliasHeader(t *testing.T) {
	records := [][]string{{"\ufeffa", "b"}, {"1", "2"}}

	table, err := data.FromRecords(records)
	require.NoError(t, err)
	assert.Equal(t, "a", table.Columns[0].Name)
	assert.Equal(t, "\ufeffa", records[0][0])
}

func TestSelectRowsAndClone(t *testing.T) {
	table, err := data.FromRecords([][]string{{"a", "b"}, {"1", "x"}, {"2", "y"}, {"3", "z"}})
	require.NoError(t, err)

	picked := table.SelectRows([]int{2, 0})
	assert.Equal(t, []string{"3", "z"}, picked.Row(0))
	assert.Equal(t, []float64{3, 1}, picked.Column("a").Values)

	clone := table.Clone()
	require.True(t, clone.Equal(table))
	clone.Columns[1].Cells[0] = "changed"
	assert.Equal(t, "x", table.Columns[1].Cells[0])
	assert.False(t, clone.Equal(table))
}

func TestValidator(t *testing.T) {
	v := data.NewTableValidator()

	table, err := data.FromRecords([][]string{{"amount", "label"}, {"1", "a"}, {"2", "b"}, {"3", "a"}})
	require.NoError(t, err)
	require.NoError(t, v.ValidateTable(table))
	require.NoError(t, v.RequireColumn(table, "label"))

	err = v.RequireColumn(table, "missing")
	assert.True(t, errors.Is(err, data.ErrTargetMissing))

	err = v.ValidateNumeric(table)
	assert.True(t, errors.Is(err, data.ErrSchema))

	header, err := data.FromRecords([][]string{{"amount", "label"}})
	require.NoError(t, err)
	assert.True(t, errors.Is(v.ValidateTable(header), data.ErrEmptyTable))

	alone, err := data.FromRecords([][]string{{"label"}, {"a"}})
	require.NoError(t, err)
	assert.True(t, errors.Is(v.RequireColumn(alone, "label"), data.ErrSchema))

	stats := v.GetTableStats(table, "label")
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, []string{"amount"}, stats.Numeric)
	assert.Equal(t, []string{"label"}, stats.Categorical)
	assert.Equal(t, []string{"a", "b"}, stats.Classes())
	assert.Equal(t, 2, stats.ClassDistribution["a"])
}

func TestOuterJoin(t *testing.T) {
	left, err := data.FromRecords([][]string{{"year", "rate"}, {"2020", "0.1"}, {"2021", "0.2"}})
	require.NoError(t, err)
	right, err := data.FromRecords([][]string{{"year", "losses"}, {"2021", "300"}, {"2022", "400"}})
	require.NoError(t, err)

	merged, err := data.OuterJoin(left, right, "year")
	require.NoError(t, err)
	require.Equal(t, 3, merged.NumRows())
	assert.ElementsMatch(t, []string{"year", "rate", "losses"}, merged.Names())

	byYear := make(map[string][]string)
	year, rate, losses := merged.Index("year"), merged.Index("rate"), merged.Index("losses")
	for i := 0; i < merged.NumRows(); i++ {
		row := merged.Row(i)
		byYear[row[year]] = []string{row[rate], row[losses]}
	}

	require.Contains(t, byYear, "2021")
	assert.Equal(t, "0.2", byYear["2021"][0])
	assert.Equal(t, "300", byYear["2021"][1])
	assert.True(t, data.IsMissing(byYear["2020"][1]))
	assert.True(t, data.IsMissing(byYear["2022"][0]))
}

func TestOuterJoinUnknownKey(t *testing.T) {
	left, err := data.FromRecords([][]string{{"year", "rate"}, {"2020", "0.1"}})
	require.NoError(t, err)

	_, err = data.OuterJoin(left, left, "month")
	assert.True(t, errors.Is(err, data.ErrSchema))
}

func TestDescribe(t *testing.T) {
	table, err := data.FromRecords([][]string{{"amount", "merchant"}, {"1", "a"}, {"2", "b"}, {"3", "c"}, {"4", "d"}})
	require.NoError(t, err)

	records, err := data.Describe(table)
	require.NoError(t, err)
	require.Len(t, records[0], 2, "statistic column plus one numeric column")
	assert.Equal(t, "amount", records[0][1])
	assert.Equal(t, []string{"count", "4"}, records[1])

	var mean float64
	for _, row := range records {
		if row[0] == "mean" {
			mean, err = strconv.ParseFloat(row[1], 64)
			require.NoError(t, err)
		}
	}
	assert.InDelta(t, 2.5, mean, 1e-9)
}

func TestDescribeSkipsMissingCells(t *testing.T) {
	table, err := data.FromRecords([][]string{{"amount", "hour"}, {"1", "NA"}, {"NA", ""}, {"3", "NaN"}})
	require.NoError(t, err)

	records, err := data.Describe(table)
	require.NoError(t, err)
	assert.Equal(t, []string{"column", "amount", "hour"}, records[0])
	assert.Equal(t, []string{"count", "2", "0"}, records[1])

	for _, row := range records[2:] {
		if row[0] == "mean" {
			mean, err := strconv.ParseFloat(row[1], 64)
			require.NoError(t, err)
			assert.InDelta(t, 2.0, mean, 1e-9)
		}
		assert.Equal(t, "NaN", row[2], "a column without values has no statistics")
	}
}

func TestDescribeWithoutNumericColumns(t *testing.T) {
	table, err := data.FromRecords([][]string{{"merchant"}, {"a"}})
	require.NoError(t, err)

	_, err = data.Describe(table)
	assert.True(t, errors.Is(err, data.ErrSchema))
}

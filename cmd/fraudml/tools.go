package main

import (
	"fmt"
	"os"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"fraudml/internal/console"
	"fraudml/internal/data"
)

var (
	leftFile, rightFile, joinKey, mergedFile string
	describeFile, describeTarget             string
)

func Merge(cmd *commander.Command, args []string) error {
	if err := verifyFlags(cmd, []string{"left", "right", "key", "out"}); err != nil {
		return err
	}

	left, err := data.Load(leftFile)
	if err != nil {
		return err
	}
	right, err := data.Load(rightFile)
	if err != nil {
		return err
	}

	merged, err := data.OuterJoin(left, right, joinKey)
	if err != nil {
		return err
	}

	file, err := os.Create(mergedFile)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", mergedFile, err)
	}
	defer file.Close()

	if err := data.WriteCSV(file, merged); err != nil {
		return err
	}
	fmt.Printf("Merged %d rows x %d columns into %s\n", merged.NumRows(), merged.NumColumns(), mergedFile)
	return nil
}

func MergeCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Merge,
		UsageLine: "merge -left <csv> -right <csv> -key <column> -out <csv>",
		Short:     "outer-join two CSV files on a key column",
		Long: `
outer-join two CSV files on a shared key column, e.g. yearly fraud statistics

	$ ./fraudml merge -left rates.csv -right losses.csv -key year -out merged.csv

`,
		Flag: *flag.NewFlagSet("merge", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&leftFile, "left", "", "Left CSV file")
	cmd.Flag.StringVar(&rightFile, "right", "", "Right CSV file")
	cmd.Flag.StringVar(&joinKey, "key", "", "Join column")
	cmd.Flag.StringVar(&mergedFile, "out", "", "Output CSV file")
	return cmd
}

func Describe(cmd *commander.Command, args []string) error {
	if err := verifyFlags(cmd, []string{"data"}); err != nil {
		return err
	}

	t, err := data.Load(describeFile)
	if err != nil {
		return err
	}

	stats := data.NewTableValidator().GetTableStats(t, describeTarget)
	fmt.Printf("%s: %d rows, %d columns (%d numeric, %d categorical)\n",
		describeFile, stats.Rows, stats.Columns, len(stats.Numeric), len(stats.Categorical))
	for _, class := range stats.Classes() {
		fmt.Printf("  %s = %-12s %d\n", describeTarget, class, stats.ClassDistribution[class])
	}
	fmt.Println()

	records, err := data.Describe(t)
	if err != nil {
		return err
	}
	console.NewPrinter(os.Stdout).Records(records)
	return nil
}

func DescribeCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Describe,
		UsageLine: "describe -data <csv> [-target <column>]",
		Short:     "print summary statistics of the numeric columns of a CSV file",
		Flag:      *flag.NewFlagSet("describe", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&describeFile, "data", "", "Input CSV file")
	cmd.Flag.StringVar(&describeTarget, "target", "", "Column whose value counts are listed")
	return cmd
}

package main

import (
	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"fraudml/internal/pipeline"
)

var (
	trainConfig = pipeline.DefaultConfig()
	trainInput  pipeline.Input
)

func Train(cmd *commander.Command, args []string) error {
	if err := verifyFlags(cmd, []string{"data", "target"}); err != nil {
		return err
	}

	trainConfig.Target = trainInput.Target
	if err := trainConfig.Validate(); err != nil {
		return err
	}

	inputs := []pipeline.Input{trainInput}
	for _, path := range args {
		inputs = append(inputs, pipeline.Input{Path: path})
	}
	return runInputs(trainConfig, inputs)
}

func TrainCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Train,
		UsageLine: "train -data <csv file> -target <column> [options] [more csv files]",
		Short:     "train and evaluate one model on a CSV file",
		Long: `
load, clean, encode, split, scale, train and evaluate a model on a CSV file,
writing the actual/predicted pairs and the run metrics

	$ ./fraudml train -data data/raw/fraud.csv -target is_fraud [-algorithm forest|tree|linear] [options]

`,
		Flag: *flag.NewFlagSet("train", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&trainInput.Path, "data", "", "Input CSV file")
	cmd.Flag.StringVar(&trainInput.Target, "target", "", "Target column")
	cmd.Flag.StringVar(&trainInput.Output, "out", "", "Predictions CSV (default <output-dir>/<input name>)")
	cmd.Flag.StringVar(&trainConfig.Task, "task", trainConfig.Task, "auto|classification|regression")
	cmd.Flag.StringVar(&trainConfig.Algorithm, "algorithm", "", "forest|tree|linear (default by task)")
	cmd.Flag.Float64Var(&trainConfig.TestRatio, "test-ratio", trainConfig.TestRatio, "Fraction of rows held out for testing")
	cmd.Flag.Int64Var(&trainConfig.Seed, "seed", trainConfig.Seed, "Random seed for split and forest")
	cmd.Flag.BoolVar(&trainConfig.Stratify, "stratify", false, "Stratify the split by class")
	cmd.Flag.StringVar(&trainConfig.Scale, "scale", trainConfig.Scale, "standard|minmax|none")
	cmd.Flag.IntVar(&trainConfig.CVFolds, "cv", 0, "Cross-validation folds on the training partition (0 = off)")
	cmd.Flag.IntVar(&trainConfig.Forest.NTrees, "n-trees", trainConfig.Forest.NTrees, "Number of trees for random forest")
	cmd.Flag.IntVar(&trainConfig.Forest.MaxDepth, "max-depth", trainConfig.Forest.MaxDepth, "Max depth for decision tree/forest")
	cmd.Flag.IntVar(&trainConfig.Forest.MinSamplesSplit, "min-split", trainConfig.Forest.MinSamplesSplit, "Minimum samples to split a node")
	cmd.Flag.IntVar(&trainConfig.Forest.Workers, "workers", trainConfig.Forest.Workers, "Parallel tree workers")
	cmd.Flag.StringVar(&trainConfig.OutputDir, "output-dir", trainConfig.OutputDir, "Directory for default outputs")
	cmd.Flag.StringVar(&trainConfig.LogFile, "log", trainConfig.LogFile, "Stage log file")
	cmd.Flag.StringVar(&trainConfig.LogLevel, "log-level", trainConfig.LogLevel, "debug|info|warn|error")
	cmd.Flag.BoolVar(&trainConfig.Plots, "plots", false, "Render figures next to the predictions")
	return cmd
}

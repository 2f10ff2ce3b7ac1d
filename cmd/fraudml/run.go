package main

import (
	"fmt"
	"os"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"fraudml/internal/console"
	"fraudml/internal/logging"
	"fraudml/internal/pipeline"
)

var (
	configFile string
	forcePlots bool
)

func RunBatch(cmd *commander.Command, args []string) error {
	if err := verifyFlags(cmd, []string{"config"}); err != nil {
		return err
	}

	config, err := pipeline.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if forcePlots {
		config.Plots = true
	}

	inputs := config.Inputs
	for _, path := range args {
		inputs = append(inputs, pipeline.Input{Path: path})
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no inputs in %s or on the command line", configFile)
	}

	return runInputs(config, inputs)
}

// runInputs drives a batch and prints every outcome. It fails only after all
// inputs were attempted.
func runInputs(config pipeline.Config, inputs []pipeline.Input) error {
	logger, closer, err := logging.New(config.LogFile, os.Stderr, logging.ParseLevel(config.LogLevel))
	if err != nil {
		return err
	}
	defer closer.Close()

	runner := pipeline.NewRunner(config, logger)
	outcomes := runner.RunBatch(inputs)

	printer := console.NewPrinter(os.Stdout)
	failed := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			printer.Failure(outcome.Input, outcome.Err)
			continue
		}
		printer.Result(outcome.Result)
	}
	printer.Jobs(runner.Jobs())

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(outcomes))
	}
	return nil
}

func RunCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       RunBatch,
		UsageLine: "run -config <config file> [input files]",
		Short:     "run the pipeline over every input of a config file",
		Long: `
run the pipeline over every input listed in a YAML config file; extra input
files given as arguments use the config's defaults

	$ ./fraudml run -config config/pipeline.yaml [-plots] [file.csv ...]

`,
		Flag: *flag.NewFlagSet("run", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&configFile, "config", "", "YAML pipeline config")
	cmd.Flag.BoolVar(&forcePlots, "plots", false, "Render figures regardless of the config")
	return cmd
}

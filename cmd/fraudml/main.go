package main

import (
	"fmt"
	"os"

	"github.com/gonuts/commander"
)

var root = &commander.Command{
	UsageLine: "fraudml",
	Short:     "batch fraud-detection training pipeline",
}

func init() {
	root.Subcommands = []*commander.Command{
		RunCmd(),
		TrainCmd(),
		MergeCmd(),
		DescribeCmd(),
	}
}

func main() {
	if err := root.Dispatch(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
}

// verifyFlags reports the first required flag left empty.
func verifyFlags(cmd *commander.Command, required []string) error {
	for _, name := range required {
		f := cmd.Flag.Lookup(name)
		if f == nil || f.Value.String() == "" {
			cmd.Usage()
			return fmt.Errorf("required flag -%s not set", name)
		}
	}
	return nil
}

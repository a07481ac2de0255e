package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/blocktree/exception-adapter/stress"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStressCmd(root *rootOptions) *cobra.Command {
	var (
		flags   = stress.NewConfig()
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run try/catch sequences on many goroutines at once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := stress.NewConfig()
			if root.configFile != "" {
				var err error
				if conf, err = stress.LoadConfig(root.configFile); err != nil {
					return err
				}
			}
			//命令行参数优先于配置文件
			fs := cmd.Flags()
			if fs.Changed("threads") {
				conf.Threads = flags.Threads
			}
			if fs.Changed("iterations") {
				conf.Iterations = flags.Iterations
			}
			if fs.Changed("concurrency") {
				conf.Concurrency = flags.Concurrency
			}
			if fs.Changed("scenario") {
				conf.Scenario = flags.Scenario
			}

			runner, err := conf.NewRunner()
			if err != nil {
				return err
			}
			report := runner.Run()
			printReport(cmd.OutOrStdout(), report, verbose)
			return report.Err
		},
	}

	fs := cmd.Flags()
	fs.IntVarP(&flags.Threads, "threads", "t", flags.Threads, "goroutines per iteration")
	fs.IntVarP(&flags.Iterations, "iterations", "n", flags.Iterations, "number of iterations")
	fs.IntVar(&flags.Concurrency, "concurrency", flags.Concurrency, "max goroutines running at once, 0 for all")
	fs.StringVarP(&flags.Scenario, "scenario", "s", flags.Scenario, "JSON scenario file")
	fs.BoolVarP(&verbose, "verbose", "v", false, "print every worker's log")
	return cmd
}

func printReport(w io.Writer, report *stress.Report, verbose bool) {
	if verbose {
		for _, res := range report.Results {
			fmt.Fprintf(w, "iteration %d worker %d: %s\n", res.Iteration, res.Worker, strings.Join(res.Log, ", "))
		}
	}
	if report.Err != nil {
		color.New(color.FgRed).Fprintln(w, report.Summary())
		return
	}
	color.New(color.FgGreen).Fprintln(w, report.Summary())
}

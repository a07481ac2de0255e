package main

import (
	"io"

	"github.com/blocktree/exception-adapter/exception"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	closer     io.Closer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "trycatch",
		Short:        "Structured exception handling for goroutines",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			exception.Init()
			if opts.configFile == "" {
				return nil
			}
			conf, err := exception.LoadConfig(opts.configFile)
			if err != nil {
				return err
			}
			opts.closer, err = exception.Configure(conf)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.closer != nil {
				return opts.closer.Close()
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "INI configuration file")

	cmd.AddCommand(newDemoCmd(), newStressCmd(opts))
	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docfusion/internal/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	env        string
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "docfusion",
		Short:         "Hybrid document retrieval and vector backfill",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(),
		"environment name; selects config/<env>.yaml and the log format")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"explicit config file path (overrides --env lookup)")

	cmd.AddCommand(
		newServeCommand(opts),
		newBackfillCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

func (o *rootOptions) load() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	return config.Load(o.env)
}

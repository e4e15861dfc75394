package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/trezcool/ecolage/apps/shared"
	"github.com/trezcool/ecolage/core"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	stores shared.Stores
	svcs   *shared.Services
	out    io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         cli.conf.AppName + " administration",
		Version:       cli.conf.Build,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(cli.migrateCmd())
	root.AddCommand(cli.processRemindersCmd())
	root.AddCommand(cli.rulesCmd())
	root.AddCommand(cli.statsCmd())
	root.AddCommand(cli.tokenCmd())
	return root
}

// run executes the command line; args include the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// dateFlag parses a YYYY-MM-DD flag value, defaulting to today in the configured timezone.
func (cli *commandLine) dateFlag(val string) (core.Date, error) {
	if val == "" {
		return cli.conf.Today(), nil
	}
	return core.ParseDate(val)
}

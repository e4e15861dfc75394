package main

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (cli *commandLine) statsCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard summary as of a day (today by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := cli.dateFlag(date)
			if err != nil {
				return errors.Wrap(err, "parsing --date")
			}
			sum, err := cli.svcs.Stats.Compute(cmd.Context(), day)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to compute the summary for, as YYYY-MM-DD (default today)")
	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (cli *commandLine) processRemindersCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "process-reminders",
		Short: "Issue the reminders due on a day (today by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := cli.dateFlag(date)
			if err != nil {
				return errors.Wrap(err, "parsing --date")
			}
			res, err := cli.svcs.Reminders.ProcessReminders(cmd.Context(), day)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s: %d scanned, %d issued, %d skipped\n", res.Date, res.Scanned, res.Processed, res.Skipped)
			for _, rec := range res.Records {
				_, _ = fmt.Fprintf(out, "  issued  %-16s installment %s (%d channels)\n", rec.Level, rec.InstallmentID, len(rec.Channels))
			}
			for _, skip := range res.Skips {
				_, _ = fmt.Fprintf(out, "  skipped %-16s installment %s: %s\n", skip.Level, skip.InstallmentID, skip.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to process, as YYYY-MM-DD (default today)")
	return cmd
}

func (cli *commandLine) rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show or set the reminder rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the reminder rules as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := cli.svcs.Reminders.GetRules(cmd.Context())
			if err != nil {
				return err
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(rules)
		},
	})

	var file string
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the reminder rules with those of a YAML file; left out offsets keep their current value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				_ = cmd.Usage()
				return errHelp
			}
			rules, err := cli.svcs.Reminders.GetRules(cmd.Context())
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return errors.Wrap(err, "opening rules file")
			}
			defer func() { _ = f.Close() }()

			dec := yaml.NewDecoder(f)
			dec.KnownFields(true)
			if err = dec.Decode(&rules); err != nil {
				return errors.Wrap(err, "decoding rules file")
			}

			if rules, err = cli.svcs.Reminders.UpdateRules(cmd.Context(), rules); err != nil {
				return err
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(rules)
		},
	}
	set.Flags().StringVarP(&file, "file", "f", "", "YAML file holding preventive, due_day, overdue_level_1 and overdue_level_2")
	cmd.AddCommand(set)

	return cmd
}

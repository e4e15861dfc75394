package main

import (
	"fmt"

	"github.com/spf13/cobra"

	echoapi "github.com/trezcool/ecolage/apps/api/echo"
	"github.com/trezcool/ecolage/core"
)

// tokenCmd issues API tokens for staff, until the identity provider issues them.
func (cli *commandLine) tokenCmd() *cobra.Command {
	var id core.Identity
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id.ID == "" {
				id.ID = core.NewID()
			}
			token, err := echoapi.GenerateToken(cli.conf, echoapi.NewClaims(cli.conf, id))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&id.ID, "id", "", "Subject of the token (default random)")
	cmd.Flags().StringVar(&id.Name, "name", "", "Name of the staff member")
	cmd.Flags().StringVar(&id.Email, "email", "", "Email of the staff member")
	cmd.Flags().BoolVar(&id.IsAdmin, "admin", false, "Grant administration rights")
	return cmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored Last.fm session",
	Long: `Remove the locally stored session.

This does not revoke lfm's access on Last.fm; do that from the
applications page of your Last.fm settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.client.Auth().RemoveSession() {
			if a.client.Auth().UserHasAuthenticated() {
				return fmt.Errorf("failed to remove session from %s", a.cfg.SessionPath())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

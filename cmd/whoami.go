package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in Last.fm user",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)

	whoamiCmd.Flags().Bool("offline", false, "Only print the stored session, without calling Last.fm")
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireSession(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		fmt.Fprintln(out, a.client.Auth().Session().Name())
		return nil
	}

	user, err := lastfm.Await(cmd.Context(), func(done func(*lastfm.User, error)) *lastfm.Operation {
		return a.client.User().GetInfo("", done)
	})
	if err != nil {
		return fmt.Errorf("failed to get user info: %w", err)
	}

	fmt.Fprintln(out, user.Name)
	if user.RealName != "" {
		fmt.Fprintf(out, "  Name:       %s\n", user.RealName)
	}
	if user.Country != "" {
		fmt.Fprintf(out, "  Country:    %s\n", user.Country)
	}
	fmt.Fprintf(out, "  Scrobbles:  %d\n", user.Playcount)
	if !user.Registered.IsZero() {
		fmt.Fprintf(out, "  Registered: %s\n", user.Registered.Local().Format("2006-01-02"))
	}
	if user.Subscriber {
		fmt.Fprintln(out, "  Subscriber: yes")
	}
	if user.URL != "" {
		fmt.Fprintf(out, "  Profile:    %s\n", user.URL)
	}
	return nil
}

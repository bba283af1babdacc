package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

var recentCmd = &cobra.Command{
	Use:   "recent [username]",
	Short: "Show recently scrobbled tracks",
	Long: `Show a user's recent tracks, newest first.

Without a username, shows the signed in user's history.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecent,
}

func init() {
	rootCmd.AddCommand(recentCmd)

	recentCmd.Flags().IntP("limit", "n", 10, "Tracks per page (max 200)")
	recentCmd.Flags().IntP("page", "p", 1, "Page number")
}

func runRecent(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var username string
	if len(args) == 1 {
		username = args[0]
		err = a.requireCredentials()
	} else {
		err = a.requireSession()
	}
	if err != nil {
		return err
	}
	if username == "" {
		username = a.client.Auth().Session().Name()
	}

	limit, _ := cmd.Flags().GetInt("limit")
	page, _ := cmd.Flags().GetInt("page")

	recent, err := lastfm.Await(cmd.Context(), func(done func(*lastfm.RecentTracks, error)) *lastfm.Operation {
		return a.client.User().RecentTracks(username, lastfm.PageOptions{Page: page, Limit: limit}, done)
	})
	if err != nil {
		return fmt.Errorf("failed to get recent tracks: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(recent.Tracks) == 0 {
		fmt.Fprintf(out, "%s has no scrobbles.\n", recent.User)
		return nil
	}

	now := time.Now()
	t := newTable(10, 24, 0)
	for _, track := range recent.Tracks {
		when := formatAgo(track.PlayedAt, now)
		if track.NowPlaying {
			when = "now"
		}
		t.add(when, track.Artist, track.Name)
	}
	if err := t.write(out); err != nil {
		return err
	}
	if recent.Page.TotalPages > 1 {
		fmt.Fprintf(out, "\nPage %d of %d (%d scrobbles)\n", recent.Page.Page, recent.Page.TotalPages, recent.Page.Total)
	}
	return nil
}

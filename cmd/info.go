package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

var infoCmd = &cobra.Command{
	Use:   "info <artist> <track>",
	Short: "Show details of a track",
	Args:  cobra.ExactArgs(2),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().Bool("autocorrect", true, "Let Last.fm correct misspelled names")
}

func runInfo(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireCredentials(); err != nil {
		return err
	}

	query := lastfm.TrackQuery{Artist: args[0], Track: args[1]}
	query.AutoCorrect, _ = cmd.Flags().GetBool("autocorrect")
	// Loved status is reported for the signed in user
	if s := a.client.Auth().Session(); s != nil {
		query.Username = s.Name()
	}

	info, err := lastfm.Await(cmd.Context(), func(done func(*lastfm.TrackInfo, error)) *lastfm.Operation {
		return a.client.Track().GetInfo(query, done)
	})
	if err != nil {
		return fmt.Errorf("failed to get track info: %w", err)
	}

	out := cmd.OutOrStdout()
	artist := ""
	if info.Artist != nil {
		artist = info.Artist.Name
	}
	fmt.Fprintf(out, "%s - %s\n", artist, info.Name)
	if info.Album != nil {
		fmt.Fprintf(out, "  Album:     %s\n", info.Album.Name)
	}
	if d := formatDuration(info.Duration); d != "" {
		fmt.Fprintf(out, "  Length:    %s\n", d)
	}
	fmt.Fprintf(out, "  Listeners: %d\n", info.Listeners)
	fmt.Fprintf(out, "  Plays:     %d\n", info.Playcount)
	if info.UserLoved {
		fmt.Fprintln(out, "  ♥ Loved")
	}
	if info.URL != "" {
		fmt.Fprintf(out, "  %s\n", info.URL)
	}
	return nil
}

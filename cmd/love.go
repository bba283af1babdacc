package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

var loveCmd = &cobra.Command{
	Use:   "love <artist> <track>",
	Short: "Love a track",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLove(cmd, args[0], args[1], true)
	},
}

var unloveCmd = &cobra.Command{
	Use:   "unlove <artist> <track>",
	Short: "Remove a track from your loved tracks",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLove(cmd, args[0], args[1], false)
	},
}

func init() {
	rootCmd.AddCommand(loveCmd, unloveCmd)
}

func runLove(cmd *cobra.Command, artist, track string, love bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireSession(); err != nil {
		return err
	}

	err = lastfm.Wait(cmd.Context(), func(done func(error)) *lastfm.Operation {
		if love {
			return a.client.Track().Love(artist, track, done)
		}
		return a.client.Track().Unlove(artist, track, done)
	})
	if err != nil {
		return fmt.Errorf("failed to update loved tracks: %w", err)
	}

	if love {
		fmt.Fprintf(cmd.OutOrStdout(), "♥ %s - %s\n", artist, track)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "♡ %s - %s\n", artist, track)
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

var nowPlayingCmd = &cobra.Command{
	Use:   "nowplaying",
	Short: "Tell Last.fm what you are listening to",
	Long: `Update your now playing status on Last.fm.

Now playing is shown on your profile until the track is scrobbled or
its duration runs out.`,
	Example: `  lfm nowplaying --artist "Boards of Canada" --track "Roygbiv" --duration 2m31s`,
	RunE:    runNowPlaying,
}

func init() {
	rootCmd.AddCommand(nowPlayingCmd)
	addTrackFlags(nowPlayingCmd.Flags())
}

func runNowPlaying(cmd *cobra.Command, args []string) error {
	track, err := trackFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireSession(); err != nil {
		return err
	}

	resp, err := lastfm.Await(cmd.Context(), func(done func(*lastfm.NowPlayingResponse, error)) *lastfm.Operation {
		return a.client.Scrobble().UpdateNowPlaying(track, done)
	})
	if err != nil {
		return fmt.Errorf("failed to update now playing: %w", err)
	}
	if resp.Ignored.Code != 0 {
		return fmt.Errorf("now playing was ignored: %s", resp.Ignored.Text)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "♪ %s - %s\n", resp.Artist.Value, resp.Track.Value)
	printCorrections(cmd, resp.Artist, resp.Track)
	return nil
}

func printCorrections(cmd *cobra.Command, artist, track lastfm.Corrected) {
	if artist.Corrected {
		fmt.Fprintf(cmd.OutOrStdout(), "  artist corrected to %q\n", artist.Value)
	}
	if track.Corrected {
		fmt.Fprintf(cmd.OutOrStdout(), "  track corrected to %q\n", track.Value)
	}
}

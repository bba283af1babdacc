package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/lastfmkit/internal/scrobbler"
	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

var scrobbleCmd = &cobra.Command{
	Use:   "scrobble",
	Short: "Scrobble a track",
	Long: `Add a track to your Last.fm listening history.

If Last.fm cannot be reached, or is temporarily unavailable, the scrobble
is kept in the local queue. Send queued scrobbles with 'lfm queue flush'.

Last.fm rejects scrobbles older than two weeks.`,
	Example: `  lfm scrobble --artist "Radiohead" --track "Airbag" --album "OK Computer"
  lfm scrobble -a "Radiohead" -t "Lucky" --at 10m
  lfm scrobble -a "Radiohead" -t "Lucky" --at 2026-01-02T15:04:05Z`,
	RunE: runScrobble,
}

func init() {
	rootCmd.AddCommand(scrobbleCmd)
	addTrackFlags(scrobbleCmd.Flags())

	scrobbleCmd.Flags().String("at", "", "When the track started: RFC 3339, Unix time, or a duration ago (default now)")
	scrobbleCmd.Flags().Bool("not-chosen", false, "The track was picked by radio or a recommendation service")
	scrobbleCmd.Flags().Bool("no-queue", false, "Fail instead of queueing when Last.fm is unavailable")
}

func runScrobble(cmd *cobra.Command, args []string) error {
	track, err := trackFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	at, _ := cmd.Flags().GetString("at")
	started, err := parseWhen(at, time.Now())
	if err != nil {
		return err
	}
	notChosen, _ := cmd.Flags().GetBool("not-chosen")
	s := lastfm.Scrobble{Track: track, Timestamp: started, NotChosenByUser: notChosen}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireSession(); err != nil {
		return err
	}

	var queue *scrobbler.Queue
	if noQueue, _ := cmd.Flags().GetBool("no-queue"); !noQueue {
		if queue, err = a.openQueue(); err != nil {
			return err
		}
	}

	outcome, err := scrobbler.NewSubmitter(a.client, queue, a.logger).Submit(cmd.Context(), s)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch outcome {
	case scrobbler.OutcomeQueued:
		fmt.Fprintf(out, "Last.fm is unavailable; queued %s - %s\n", track.Artist, track.Track)
	default:
		fmt.Fprintf(out, "✓ Scrobbled %s - %s\n", track.Artist, track.Track)
	}
	return nil
}

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/lastfmkit/internal/scrobbler"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and send queued scrobbles",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued scrobbles",
	RunE:  runQueueList,
}

var queueFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Send queued scrobbles to Last.fm",
	Long: `Send every queued scrobble to Last.fm, oldest first, in batches of 50.

Scrobbles older than two weeks are dropped, since Last.fm no longer
accepts them. Flushing stops at the first batch that fails; those
scrobbles stay queued.`,
	RunE: runQueueFlush,
}

var queueCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete delivered scrobbles from the queue",
	RunE:  runQueueClean,
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueListCmd, queueFlushCmd, queueCleanCmd)

	queueListCmd.Flags().Bool("all", false, "Include delivered and ignored scrobbles")
	queueCleanCmd.Flags().Duration("older-than", 7*24*time.Hour, "Only delete entries older than this")
}

func runQueueList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	queue, err := a.openQueue()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var entries []scrobbler.QueuedScrobble
	if all, _ := cmd.Flags().GetBool("all"); all {
		entries, err = queue.All(ctx)
	} else {
		entries, err = queue.Pending(ctx, 0)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "Queue is empty.")
		return nil
	}

	now := time.Now()
	t := newTable(6, 10, 24, 30, 8, 0)
	for _, qs := range entries {
		status := "pending"
		switch {
		case qs.Scrobbled && qs.Error != "":
			status = "ignored"
		case qs.Scrobbled:
			status = "sent"
		case qs.Attempts > 0:
			status = fmt.Sprintf("retry %d", qs.Attempts)
		}
		t.add(
			fmt.Sprint(qs.ID),
			formatAgo(qs.Scrobble.Timestamp, now),
			qs.Scrobble.Track.Artist,
			qs.Scrobble.Track.Track,
			status,
			qs.Error,
		)
	}
	return t.write(out)
}

func runQueueFlush(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireSession(); err != nil {
		return err
	}

	queue, err := a.openQueue()
	if err != nil {
		return err
	}

	stats, err := scrobbler.NewSubmitter(a.client, queue, a.logger).Flush(cmd.Context())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sent %d, ignored %d, expired %d, %d remaining\n",
		stats.Accepted, stats.Ignored, stats.Expired, stats.Remaining)
	return err
}

func runQueueClean(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	queue, err := a.openQueue()
	if err != nil {
		return err
	}

	olderThan, _ := cmd.Flags().GetDuration("older-than")
	deleted, err := queue.Cleanup(cmd.Context(), olderThan)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", deleted)
	return nil
}

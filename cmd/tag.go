package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

var tagCmd = &cobra.Command{
	Use:   "tag <tag>",
	Short: "Show the top albums, artists or tracks for a tag",
	Args:  cobra.ExactArgs(1),
	Example: `  lfm tag shoegaze
  lfm tag jazz --kind albums --limit 20`,
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)

	tagCmd.Flags().StringP("kind", "k", "artists", "What to list: albums, artists or tracks")
	tagCmd.Flags().IntP("limit", "n", 10, "Items per page")
	tagCmd.Flags().IntP("page", "p", 1, "Page number")
}

func parseItemKind(s string) (lastfm.ItemKind, error) {
	switch s {
	case "albums", "album":
		return lastfm.ItemAlbums, nil
	case "artists", "artist":
		return lastfm.ItemArtists, nil
	case "tracks", "track":
		return lastfm.ItemTracks, nil
	}
	return 0, fmt.Errorf("invalid kind %q: must be albums, artists or tracks", s)
}

func runTag(cmd *cobra.Command, args []string) error {
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := parseItemKind(kindFlag)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	page, _ := cmd.Flags().GetInt("page")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireCredentials(); err != nil {
		return err
	}

	items, err := lastfm.Await(cmd.Context(), func(done func(*lastfm.TaggedItems, error)) *lastfm.Operation {
		return a.client.Tag().TopItems(args[0], kind, lastfm.PageOptions{Page: page, Limit: limit}, done)
	})
	if err != nil {
		return fmt.Errorf("failed to get top %s for %q: %w", kind, args[0], err)
	}

	out := cmd.OutOrStdout()
	if len(items.Items) == 0 {
		fmt.Fprintf(out, "Nothing tagged %q.\n", items.Tag)
		return nil
	}

	t := newTable(4, 28, 0)
	first := (max(page, 1) - 1) * limit
	for i, item := range items.Items {
		t.add(append([]string{fmt.Sprintf("%d.", first+i+1)}, itemColumns(item)...)...)
	}
	return t.write(out)
}

// itemColumns renders a chart entry as two columns.
func itemColumns(item lastfm.TaggedItem) []string {
	switch v := item.(type) {
	case *lastfm.Album:
		return []string{v.Artist, v.Name}
	case *lastfm.Artist:
		listeners := ""
		if v.Listeners > 0 {
			listeners = fmt.Sprintf("%d listeners", v.Listeners)
		}
		return []string{v.Name, listeners}
	case *lastfm.TrackInfo:
		artist := ""
		if v.Artist != nil {
			artist = v.Artist.Name
		}
		name := v.Name
		if d := formatDuration(v.Duration); d != "" {
			name += " (" + d + ")"
		}
		return []string{artist, name}
	}
	return []string{"", ""}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"podscrub/internal/discovery"
	"podscrub/internal/types"
)

var episodesLimit int

var episodesCmd = &cobra.Command{
	Use:   "episodes <feed-url>",
	Short: "List the episodes of a podcast feed",
	Args:  cobra.ExactArgs(1),
	RunE:  runEpisodes,
}

func init() {
	episodesCmd.Flags().IntVarP(&episodesLimit, "limit", "n", 20, "max episodes to list")
	rootCmd.AddCommand(episodesCmd)
}

func runEpisodes(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	disc := discovery.New(map[string][]types.Episode{}, log)
	eps, err := disc.Episodes(ctx, args[0])
	if err != nil {
		return err
	}
	if episodesLimit > 0 && len(eps) > episodesLimit {
		eps = eps[:episodesLimit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPUBLISHED\tDURATION\tTITLE")
	for i, ep := range eps {
		published := ""
		if !ep.Published.IsZero() {
			published = ep.Published.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, published, ep.Duration, ep.Title)
	}
	return w.Flush()
}

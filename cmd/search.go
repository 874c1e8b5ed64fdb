package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"podscrub/internal/discovery"
	"podscrub/internal/types"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search the podcast directory",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "max results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	disc := discovery.New(map[string][]types.Episode{}, log)
	podcasts, err := disc.Search(ctx, strings.Join(args, " "), searchLimit)
	if err != nil {
		return err
	}
	if len(podcasts) == 0 {
		fmt.Println("no podcasts found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAUTHOR\tEPISODES\tFEED")
	for _, p := range podcasts {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.Name, p.Author, p.Episodes, p.FeedURL)
	}
	return w.Flush()
}

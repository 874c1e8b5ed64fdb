package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"podscrub/internal/analysis"
	"podscrub/internal/discovery"
	"podscrub/internal/download"
	"podscrub/internal/extractor"
	"podscrub/internal/pipeline"
	"podscrub/internal/render"
	"podscrub/internal/transcribe"
	"podscrub/internal/types"
)

var (
	processEpisode   int
	processLimit     int
	processOutput    string
	processKeepMedia bool
	processLanguage  string
	processModel     string
)

var processCmd = &cobra.Command{
	Use:   "process <feed-url>",
	Short: "Download, transcribe and ad-strip episodes from a feed",
	Long: `Process runs the full pipeline for one or more episodes of a feed:
download the audio, transcribe it, analyze the transcript, redact the
detected ad segments and render a Markdown document per episode.

Episodes are numbered from 1, newest first.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().IntVarP(&processEpisode, "episode", "e", 1, "episode to start at, 1 = newest")
	processCmd.Flags().IntVarP(&processLimit, "limit", "n", 1, "number of episodes to process")
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "output directory for rendered documents")
	processCmd.Flags().BoolVar(&processKeepMedia, "keep-media", false, "keep downloaded audio instead of deleting it")
	processCmd.Flags().StringVar(&processLanguage, "language", "", "expected transcript language, \"none\" disables the check")
	processCmd.Flags().StringVar(&processModel, "model", "", "chat model for transcript analysis")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if processOutput != "" {
		cfg.OutputDir = processOutput
	}
	if processKeepMedia {
		cfg.KeepMedia = true
	}
	if processModel != "" {
		cfg.Model = processModel
	}
	switch processLanguage {
	case "":
	case "none":
		cfg.ExpectLanguage = ""
	default:
		cfg.ExpectLanguage = processLanguage
	}

	disc := discovery.New(map[string][]types.Episode{}, log)
	eps, err := disc.Episodes(ctx, args[0])
	if err != nil {
		return err
	}
	if processEpisode < 1 || processEpisode > len(eps) {
		return fmt.Errorf("episode %d out of range: feed has %d", processEpisode, len(eps))
	}
	if processLimit < 1 {
		processLimit = 1
	}
	first := processEpisode - 1
	last := first + processLimit
	if last > len(eps) {
		last = len(eps)
	}

	// Without credentials the pipeline still runs; analysis degrades to a
	// warning instead of calling out.
	var ext analysis.Extractor
	if cfg.HasCredentials() {
		ext = extractor.NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model, log)
	} else {
		log.Warn("OPENAI_API_KEY not set, transcript analysis will be skipped")
	}

	pipe := pipeline.New(
		download.New(cfg.MediaDir, log),
		transcribe.New(cfg.TranscribeURL, cfg.APIKey, cfg.TranscribeModel, cfg.RetryPolicy(), log),
		analysis.New(ext, extractor.Classify, cfg.RetryPolicy(), log),
		render.New(cfg.OutputDir, log),
		pipeline.Config{KeepMedia: cfg.KeepMedia, ExpectLanguage: cfg.ExpectLanguage},
		log,
	)

	for _, ep := range eps[first:last] {
		res, err := pipe.Run(ctx, ep)
		if err != nil {
			log.WithError(err).Error("processing failed")
			return fmt.Errorf("episode %q: %w", ep.Title, err)
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "warning [%s]: %s\n", w.Stage, w.Message)
		}
		fmt.Println(res.OutputPath)
	}
	return nil
}

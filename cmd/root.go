package cmd

import (
	"github.com/spf13/cobra"

	"podscrub/internal/config"
	"podscrub/internal/logger"
)

var (
	verbose bool
	quiet   bool

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "podscrub",
	Short: "Transcribe podcast episodes and strip the ads out",
	Long: `Podscrub discovers podcast episodes, downloads and transcribes their audio,
asks an LLM for a summary, topics, keywords and advertising segments, redacts
the ads from the transcript and renders one Markdown document per episode.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		log = logger.New()
		log.SetVerbosity(verbose, quiet)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
}

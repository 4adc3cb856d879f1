// scorescraper is the one-shot local front end to the pipeline: extract
// deduplicated frames from a video, lay an extracted frame directory out into
// a PDF, or renumber a frame directory after an edit session.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/macaquedev/score-video-scraper/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:   "scorescraper",
		Short: "Turn a score video into a deduplicated frame set and a paginated PDF",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(extractCmd(&verbose))
	root.AddCommand(pdfCmd(&verbose))
	root.AddCommand(renumberCmd(&verbose))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.New(level)
}

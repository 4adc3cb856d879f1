package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macaquedev/score-video-scraper/internal/infra/frames"
)

func renumberCmd(verbose *bool) *cobra.Command {
	var framesDir string

	cmd := &cobra.Command{
		Use:   "renumber <order>",
		Short: "Rewrite a frame directory to a new order",
		Long: `Rewrite a frame directory so it holds exactly the listed frames, renamed
contiguously from frame_000000.png. The order is a comma-separated list of
current indices; omitted indices are deleted, e.g. "0,2,1" keeps three frames
and swaps the last two.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(*verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			parts := strings.Split(args[0], ",")
			order := make([]int, 0, len(parts))
			for _, p := range parts {
				idx, err := strconv.Atoi(strings.TrimSpace(p))
				if err != nil {
					return fmt.Errorf("parse order entry %q: %w", p, err)
				}
				order = append(order, idx)
			}

			store, err := frames.NewStore(framesDir)
			if err != nil {
				return err
			}
			if err := store.Renumber(order); err != nil {
				return err
			}

			fmt.Printf("renumbered %s to %d frames\n", framesDir, len(order))
			return nil
		},
	}

	cmd.Flags().StringVarP(&framesDir, "frames", "f", "frames", "frame directory to rewrite")

	return cmd
}

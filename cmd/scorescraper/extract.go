package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/macaquedev/score-video-scraper/internal/dedup"
	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
	"github.com/macaquedev/score-video-scraper/internal/imaging"
	"github.com/macaquedev/score-video-scraper/internal/infra/ffmpeg"
	"github.com/macaquedev/score-video-scraper/internal/infra/frames"
)

func extractCmd(verbose *bool) *cobra.Command {
	var (
		output         string
		threshold      float64
		sampleInterval float64
		startTime      float64
		endTime        float64
		cropThreshold  uint8
		marginTop      int
		marginBottom   int
		marginLeft     int
		marginRight    int
	)

	cmd := &cobra.Command{
		Use:   "extract <video>",
		Short: "Extract deduplicated frames from a video into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(*verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			window := entity.TimeWindow{}
			if cmd.Flags().Changed("start-time") {
				window.Start = &startTime
			}
			if cmd.Flags().Changed("end-time") {
				window.End = &endTime
			}

			opener := ffmpeg.NewOpener(os.TempDir(), log)
			src, err := opener.Open(cmd.Context(), args[0], window, sampleInterval)
			if err != nil {
				return err
			}
			defer src.Close()

			store, err := frames.NewStore(output)
			if err != nil {
				return err
			}

			pipeline := dedup.New(dedup.Config{
				SimilarityThreshold: threshold,
				SampleInterval:      sampleInterval,
				CropThreshold:       cropThreshold,
				CropMargins: entity.Margins{
					Top:    marginTop,
					Bottom: marginBottom,
					Left:   marginLeft,
					Right:  marginRight,
				},
			}, log)

			res, err := pipeline.Run(cmd.Context(), src, store)
			if err != nil {
				return err
			}

			fmt.Printf("kept %d of %d candidate frames in %s\n", res.Kept, res.Candidates, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "frames", "output directory for frames")
	cmd.Flags().Float64Var(&threshold, "threshold", imaging.DefaultSimilarityThreshold, "SSIM similarity threshold; higher requires frames to be more similar to count as duplicates")
	cmd.Flags().Float64Var(&sampleInterval, "sample-interval", 1.5, "candidate sampling interval in seconds; 0 processes every frame")
	cmd.Flags().Float64Var(&startTime, "start-time", 0, "start time in seconds")
	cmd.Flags().Float64Var(&endTime, "end-time", 0, "end time in seconds")
	cmd.Flags().Uint8Var(&cropThreshold, "crop-threshold", imaging.DefaultCropThreshold, "luminance level below which border pixels are cropped")
	cmd.Flags().IntVar(&marginTop, "margin-top", 0, "pixels to cut from the top of every frame")
	cmd.Flags().IntVar(&marginBottom, "margin-bottom", 0, "pixels to cut from the bottom of every frame")
	cmd.Flags().IntVar(&marginLeft, "margin-left", 0, "pixels to cut from the left of every frame")
	cmd.Flags().IntVar(&marginRight, "margin-right", 0, "pixels to cut from the right of every frame")

	return cmd
}

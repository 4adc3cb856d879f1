package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
	"github.com/macaquedev/score-video-scraper/internal/infra/frames"
	"github.com/macaquedev/score-video-scraper/internal/infra/pdf"
	"github.com/macaquedev/score-video-scraper/internal/layout"
)

func pdfCmd(verbose *bool) *cobra.Command {
	var (
		framesDir   string
		output      string
		orientation string
		spacing     float64
		pageBreaks  []int
	)

	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Lay an extracted frame directory out into a paginated PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(*verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			o := entity.Orientation(orientation)
			if !o.Valid() {
				return fmt.Errorf("invalid orientation %q (want portrait or landscape)", orientation)
			}

			store, err := frames.NewStore(framesDir)
			if err != nil {
				return err
			}
			infos, err := store.List()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				return entity.ErrEmptyInput
			}

			w, h := pdf.PageSize(o)
			spec := layout.PageSpec{Width: w, Height: h, Spacing: spacing}

			pages, err := layout.Paginate(infos, pageBreaks, spec)
			if err != nil {
				return err
			}
			if err := pdf.NewRenderer(log).Render(pages, spec, output); err != nil {
				return err
			}

			fmt.Printf("wrote %d pages covering %d frames to %s\n", len(pages), len(infos), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&framesDir, "frames", "f", "frames", "frame directory to lay out")
	cmd.Flags().StringVarP(&output, "output", "o", "output.pdf", "PDF output path")
	cmd.Flags().StringVar(&orientation, "orientation", "portrait", "page orientation (portrait or landscape)")
	cmd.Flags().Float64Var(&spacing, "spacing", 10, "vertical gap between frames on a page, in points")
	cmd.Flags().IntSliceVar(&pageBreaks, "page-break", nil, "frame index after which a new page is forced (repeatable)")

	return cmd
}

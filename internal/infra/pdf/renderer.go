// Package pdf renders packed pages into a PDF document. It is a pure
// consumer: every placement is drawn exactly where the packer put it, in
// page order.
package pdf

import (
	"fmt"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
	"github.com/macaquedev/score-video-scraper/internal/layout"
)

// A4 dimensions in points.
const (
	a4WidthPt  = 595.28
	a4HeightPt = 841.89
)

// PageSize returns the full page geometry for an orientation.
func PageSize(o entity.Orientation) (w, h float64) {
	if o == entity.OrientationLandscape {
		return a4HeightPt, a4WidthPt
	}
	return a4WidthPt, a4HeightPt
}

type Renderer struct {
	logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// Render writes one document page per packed page to outPath. An empty page
// list is an input error; the caller decides that before any file is created.
func (r *Renderer) Render(pages []layout.Page, spec layout.PageSpec, outPath string) error {
	if len(pages) == 0 {
		return entity.ErrEmptyInput
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: spec.Width, Ht: spec.Height},
	})
	doc.SetAutoPageBreak(false, 0)

	for _, page := range pages {
		doc.AddPage()
		for _, pl := range page.Placements {
			doc.ImageOptions(pl.Frame.Path, pl.X, pl.Y, pl.Width, pl.Height,
				false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
	}
	if doc.Err() {
		return fmt.Errorf("render pdf: %w", doc.Error())
	}

	if err := doc.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf %s: %w", outPath, err)
	}

	r.logger.Info("pdf written",
		zap.String("path", outPath),
		zap.Int("pages", len(pages)),
	)
	return nil
}

package entity

// Orientation selects the output page orientation.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

func (o Orientation) Valid() bool {
	return o == OrientationPortrait || o == OrientationLandscape
}

// Margins are per-edge pixel counts cut from every frame before layout.
type Margins struct {
	Top    int `json:"top,omitempty"`
	Bottom int `json:"bottom,omitempty"`
	Left   int `json:"left,omitempty"`
	Right  int `json:"right,omitempty"`
}

func (m Margins) Zero() bool {
	return m.Top == 0 && m.Bottom == 0 && m.Left == 0 && m.Right == 0
}

// TimeWindow restricts processing to [Start, End) in seconds of video time.
// A nil bound means "from the beginning" / "to the end".
type TimeWindow struct {
	Start *float64 `json:"start_seconds,omitempty"`
	End   *float64 `json:"end_seconds,omitempty"`
}

// ProcessingOptions is the per-job configuration surface. Zero values fall
// back to the service-wide defaults from the environment.
type ProcessingOptions struct {
	// SimilarityThreshold is the SSIM score above which two consecutive
	// frames count as duplicates. Must be in (0, 1).
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// SampleInterval is the candidate sampling interval in seconds.
	// Zero means every decoded frame is a candidate.
	SampleInterval float64 `json:"sample_interval_seconds,omitempty"`

	Window TimeWindow `json:"window,omitempty"`

	// CropThreshold is the luminance level below which a border pixel
	// counts as background.
	CropThreshold uint8 `json:"crop_threshold,omitempty"`

	CropMargins Margins `json:"crop_margins,omitempty"`

	// PageBreaks are kept-frame indices after which a new page (and
	// section) is forced.
	PageBreaks []int `json:"page_breaks,omitempty"`

	Orientation Orientation `json:"orientation,omitempty"`
}

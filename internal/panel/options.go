// Package panel implements comic/manga panel detection and extraction from
// scanned page images.
package panel

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Policy constants for the detection heuristics. These are tuning knobs, not
// incidental values; they are named so alternative tunings can be validated
// against the defaults.
const (
	// BackgroundIntensityMinRange widens the sampled border intensity band
	// when deriving the background threshold.
	BackgroundIntensityMinRange = 25

	// MinWhiteThreshold is the lower clamp for the background threshold,
	// forcing near-white background detection.
	MinWhiteThreshold = 240

	// PageToSegmentRatio sets the halting area for background components:
	// components smaller than pageArea/PageToSegmentRatio are never background.
	PageToSegmentRatio = 1024

	// PageToPanelRatio sets the minimum panel contour area:
	// contours must exceed pageArea/PageToPanelRatio to count as panels.
	PageToPanelRatio = 32

	// BackgroundSizeErrorRatio is the tolerance for "spans the whole page":
	// components wider/taller than (1-ratio) of the page dimension are background.
	BackgroundSizeErrorRatio = 0.05

	// PageToJointObjectRatio scales the directional dilation kernels used to
	// extend cut lines when splitting joint panels.
	PageToJointObjectRatio = 3

	// StrokeEndMatchThreshold is the template-match score above which a skeleton
	// pixel counts as a directional stroke end.
	StrokeEndMatchThreshold = 0.9

	// StripeMaskAreaRatio is the background coverage below which joint-panel
	// splitting is worthwhile (dense layouts, webtoon stripes).
	StripeMaskAreaRatio = 0.3

	// FallbackEdgeThreshold is the binary threshold applied to the edge image
	// in the fallback extractor.
	FallbackEdgeThreshold = 8

	// PagePanelRejectRatio rejects boxes spanning at least this fraction of a
	// page dimension when whole-page panels are not accepted.
	PagePanelRejectRatio = 0.99

	// RowOverlapFraction is the fraction of the smaller box height (width) two
	// boxes must share vertically (horizontally) to land in the same row
	// (column) during sorting and merge grouping.
	RowOverlapFraction = 0.5
)

// OutputMode selects how panels are cut out of the page.
type OutputMode int

const (
	// ModeBounding crops each panel to its axis-aligned bounding box.
	ModeBounding OutputMode = iota
	// ModeMasked crops to the bounding box and fills pixels outside the panel
	// contour with the fill color.
	ModeMasked
)

func (m OutputMode) String() string {
	switch m {
	case ModeMasked:
		return "masked"
	default:
		return "bounding"
	}
}

// MergeMode selects whether adjacent panels are concatenated.
type MergeMode int

const (
	MergeNone MergeMode = iota
	MergeVertical
	MergeHorizontal
)

func (m MergeMode) String() string {
	switch m {
	case MergeVertical:
		return "vertical"
	case MergeHorizontal:
		return "horizontal"
	default:
		return "none"
	}
}

// BackgroundGenerator produces a background mask from a preprocessed page.
type BackgroundGenerator func(processed gocv.Mat) gocv.Mat

// Options configures a traditional panel extraction run.
type Options struct {
	// SplitJointPanels enables cut-line synthesis for panels that share a
	// border with no gutter between them.
	SplitJointPanels bool

	// Fallback enables threshold-based re-extraction when the primary
	// pipeline finds fewer than two panels.
	Fallback bool

	// Mode selects bounding or masked extraction.
	Mode OutputMode

	// Merge concatenates row- or column-adjacent panels into one image.
	Merge MergeMode

	// RTLOrder orders panels right-to-left within a row (manga layout).
	RTLOrder bool

	// FillColor fills non-panel pixels in masked mode.
	FillColor color.RGBA

	// Background overrides the background mask generator. Nil selects
	// GenerateBackgroundMask.
	Background BackgroundGenerator
}

// DefaultOptions returns the default extraction options.
func DefaultOptions() Options {
	return Options{
		Fallback:  true,
		Mode:      ModeBounding,
		Merge:     MergeNone,
		FillColor: color.RGBA{0, 0, 0, 255},
	}
}

// AIOptions configures an AI-assisted extraction run. The detector returns
// rectangles, so there is no masked mode, splitting, or fallback here.
type AIOptions struct {
	Merge    MergeMode
	RTLOrder bool
}

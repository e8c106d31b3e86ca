package panel

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Adaptive threshold parameters for the fallback extractor.
const (
	fallbackAdaptiveBlock = 11
	fallbackAdaptiveC     = 2
)

// ThresholdExtraction is the secondary, simpler detection path: edge-enhance,
// binary-threshold, subtract an adaptive local threshold, dilate, and extract
// the surviving contours. Whole-page boxes are never accepted here.
func ThresholdExtraction(img, gray gocv.Mat, mode OutputMode, fill color.RGBA) []gocv.Mat {
	processed := Preprocess(gray)
	defer processed.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Threshold(processed, &edges, FallbackEdgeThreshold, 255, gocv.ThresholdBinary)

	adaptive := gocv.NewMat()
	defer adaptive.Close()
	gocv.AdaptiveThreshold(processed, &adaptive, 255, gocv.AdaptiveThresholdGaussian,
		gocv.ThresholdBinary, fallbackAdaptiveBlock, fallbackAdaptiveC)

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.Subtract(adaptive, edges, &diff)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{3, 3})
	defer kernel.Close()
	for i := 0; i < 2; i++ {
		gocv.Dilate(diff, &diff, kernel)
	}

	contours := PanelContours(diff)
	defer contours.Close()

	sorted := SortContours(contours, false)
	defer sorted.Close()

	return ExtractPanels(img, sorted, false, mode, fill)
}

// FallbackPanels applies the fallback policy: when enabled and the primary
// pipeline produced fewer than two panels, run threshold extraction and keep
// its result only if it found strictly more panels.
func FallbackPanels(img, gray gocv.Mat, fallback bool, panels []gocv.Mat, mode OutputMode, fill color.RGBA) []gocv.Mat {
	return applyFallback(panels, fallback, func() []gocv.Mat {
		return ThresholdExtraction(img, gray, mode, fill)
	})
}

// applyFallback implements the replacement rule. The losing panel set is
// released.
func applyFallback(panels []gocv.Mat, enabled bool, extract func() []gocv.Mat) []gocv.Mat {
	if !enabled || len(panels) >= 2 {
		return panels
	}
	alt := extract()
	if len(alt) > len(panels) {
		closeAll(panels)
		return alt
	}
	closeAll(alt)
	return panels
}

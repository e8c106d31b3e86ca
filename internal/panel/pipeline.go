package panel

import (
	"fmt"
	"image"

	"panel-extractor/internal/detect"
	"panel-extractor/pkg/geometry"

	"gocv.io/x/gocv"
)

// GeneratePanelBlocks runs the traditional detection pipeline on a page image
// (BGR or grayscale) and returns the extracted panels in reading order. An
// empty slice means no panels were found; substituting the whole page is the
// caller's policy. The caller owns the returned Mats.
func GeneratePanelBlocks(img gocv.Mat, opts Options) []gocv.Mat {
	gray := Grayscale(img)
	defer gray.Close()

	processed := PreprocessWithDilation(gray)
	defer processed.Close()

	generate := opts.Background
	if generate == nil {
		generate = GenerateBackgroundMask
	}
	backgroundMask := generate(processed)
	defer backgroundMask.Close()

	page := PageWithoutBackground(gray, backgroundMask, opts.SplitJointPanels)
	defer page.Close()

	contours := PanelContours(page)
	defer contours.Close()

	sorted := SortContours(contours, opts.RTLOrder)
	defer sorted.Close()

	extract := func(cs gocv.PointsVector) []gocv.Mat {
		panels := ExtractPanels(img, cs, true, opts.Mode, opts.FillColor)
		return FallbackPanels(img, gray, opts.Fallback, panels, opts.Mode, opts.FillColor)
	}

	switch opts.Merge {
	case MergeHorizontal:
		return mergeGroups(GroupContoursHorizontally(sorted), extract, AdaptiveHConcat)
	case MergeVertical:
		return mergeGroups(GroupContoursVertically(sorted), extract, AdaptiveVConcat)
	default:
		return extract(sorted)
	}
}

// mergeGroups extracts each contour group and concatenates it into a single
// panel.
func mergeGroups(groups []gocv.PointsVector, extract func(gocv.PointsVector) []gocv.Mat, concat func([]gocv.Mat) gocv.Mat) []gocv.Mat {
	var merged []gocv.Mat
	for _, group := range groups {
		panels := extract(group)
		group.Close()
		if len(panels) == 0 {
			continue
		}
		joined := concat(panels)
		closeAll(panels)
		merged = append(merged, joined)
	}
	return merged
}

// GeneratePanelBlocksByAI runs the detector on the edge-enhanced page and
// feeds its boxes through the same sorting and merging as the traditional
// path. Only bounding-box crops are produced; the detector returns
// rectangles, not contours. Detector failures propagate so a batch caller can
// report them without aborting other pages.
func GeneratePanelBlocksByAI(img gocv.Mat, detector detect.Detector, opts AIOptions) ([]gocv.Mat, error) {
	gray := Grayscale(img)
	defer gray.Close()

	processed := Preprocess(gray)
	defer processed.Close()

	detections, err := detector.Detect(processed)
	if err != nil {
		return nil, fmt.Errorf("detect panels: %w", err)
	}

	boxes := make([]geometry.RectInt, 0, len(detections))
	for _, d := range detections {
		boxes = append(boxes, d.Box)
	}
	boxes = SortBoxes(boxes, opts.RTLOrder)

	switch opts.Merge {
	case MergeHorizontal:
		return mergeBoxGroups(img, GroupBoxesHorizontally(boxes), AdaptiveHConcat), nil
	case MergeVertical:
		return mergeBoxGroups(img, GroupBoxesVertically(boxes), AdaptiveVConcat), nil
	default:
		return cropBoxes(img, boxes), nil
	}
}

// cropBoxes crops each bounding box out of the image.
func cropBoxes(img gocv.Mat, boxes []geometry.RectInt) []gocv.Mat {
	panels := make([]gocv.Mat, 0, len(boxes))
	for _, b := range boxes {
		region := img.Region(image.Rect(b.X, b.Y, b.Right(), b.Bottom()))
		panels = append(panels, region.Clone())
		region.Close()
	}
	return panels
}

func mergeBoxGroups(img gocv.Mat, groups [][]geometry.RectInt, concat func([]gocv.Mat) gocv.Mat) []gocv.Mat {
	var merged []gocv.Mat
	for _, group := range groups {
		panels := cropBoxes(img, group)
		if len(panels) == 0 {
			continue
		}
		joined := concat(panels)
		closeAll(panels)
		merged = append(merged, joined)
	}
	return merged
}

package panel

import (
	"image"
	"math"

	"panel-extractor/pkg/geometry"

	"gocv.io/x/gocv"
)

// identityOrder returns 0..n-1. Merge grouping assumes its input is already
// in reading order, so clustering visits boxes as given.
func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// GroupContoursHorizontally clusters contours into row groups for horizontal
// merging. Input order (reading order) is preserved within and across groups.
// The caller owns the returned vectors.
func GroupContoursHorizontally(contours gocv.PointsVector) []gocv.PointsVector {
	return groupContours(contours, sameRow)
}

// GroupContoursVertically clusters contours into column groups for vertical
// merging.
func GroupContoursVertically(contours gocv.PointsVector) []gocv.PointsVector {
	return groupContours(contours, sameColumn)
}

func groupContours(contours gocv.PointsVector, matches func(box, span geometry.RectInt) bool) []gocv.PointsVector {
	boxes := boundingBoxes(contours)
	clusters := clusterIndices(boxes, identityOrder(len(boxes)), matches)

	groups := make([]gocv.PointsVector, 0, len(clusters))
	for _, cluster := range clusters {
		group := gocv.NewPointsVector()
		for _, i := range cluster {
			group.Append(contours.At(i))
		}
		groups = append(groups, group)
	}
	return groups
}

// GroupBoxesHorizontally clusters bounding boxes into row groups.
func GroupBoxesHorizontally(boxes []geometry.RectInt) [][]geometry.RectInt {
	return groupBoxes(boxes, sameRow)
}

// GroupBoxesVertically clusters bounding boxes into column groups.
func GroupBoxesVertically(boxes []geometry.RectInt) [][]geometry.RectInt {
	return groupBoxes(boxes, sameColumn)
}

func groupBoxes(boxes []geometry.RectInt, matches func(box, span geometry.RectInt) bool) [][]geometry.RectInt {
	clusters := clusterIndices(boxes, identityOrder(len(boxes)), matches)
	groups := make([][]geometry.RectInt, 0, len(clusters))
	for _, cluster := range clusters {
		group := make([]geometry.RectInt, 0, len(cluster))
		for _, i := range cluster {
			group = append(group, boxes[i])
		}
		groups = append(groups, group)
	}
	return groups
}

// AdaptiveHConcat concatenates panels left to right. Panels are scaled,
// aspect-preserving, to the tallest panel's height before concatenation, so
// the result's height is the group maximum and its width is the sum of the
// scaled widths. The caller owns the result; inputs are left untouched.
func AdaptiveHConcat(panels []gocv.Mat) gocv.Mat {
	if len(panels) == 0 {
		return gocv.NewMat()
	}

	target := 0
	for _, p := range panels {
		if p.Rows() > target {
			target = p.Rows()
		}
	}

	out := scaleToHeight(panels[0], target)
	for _, p := range panels[1:] {
		scaled := scaleToHeight(p, target)
		joined := gocv.NewMat()
		gocv.Hconcat(out, scaled, &joined)
		out.Close()
		scaled.Close()
		out = joined
	}
	return out
}

// AdaptiveVConcat concatenates panels top to bottom, scaling each to the
// widest panel's width.
func AdaptiveVConcat(panels []gocv.Mat) gocv.Mat {
	if len(panels) == 0 {
		return gocv.NewMat()
	}

	target := 0
	for _, p := range panels {
		if p.Cols() > target {
			target = p.Cols()
		}
	}

	out := scaleToWidth(panels[0], target)
	for _, p := range panels[1:] {
		scaled := scaleToWidth(p, target)
		joined := gocv.NewMat()
		gocv.Vconcat(out, scaled, &joined)
		out.Close()
		scaled.Close()
		out = joined
	}
	return out
}

func scaleToHeight(src gocv.Mat, height int) gocv.Mat {
	if src.Rows() == height {
		return src.Clone()
	}
	width := int(math.Round(float64(src.Cols()) * float64(height) / float64(src.Rows())))
	if width < 1 {
		width = 1
	}
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Point{width, height}, 0, 0, gocv.InterpolationCubic)
	return dst
}

func scaleToWidth(src gocv.Mat, width int) gocv.Mat {
	if src.Cols() == width {
		return src.Clone()
	}
	height := int(math.Round(float64(src.Rows()) * float64(width) / float64(src.Cols())))
	if height < 1 {
		height = 1
	}
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Point{width, height}, 0, 0, gocv.InterpolationCubic)
	return dst
}

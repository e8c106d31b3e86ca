package panel

import (
	"sort"

	"panel-extractor/pkg/geometry"

	"gocv.io/x/gocv"
)

// sameRow reports whether a box and a row's accumulated span overlap
// vertically by more than RowOverlapFraction of the smaller height.
func sameRow(box, span geometry.RectInt) bool {
	overlap := box.VerticalOverlap(span)
	smaller := min(box.Height, span.Height)
	return float64(overlap) > RowOverlapFraction*float64(smaller)
}

// sameColumn is the horizontal counterpart of sameRow.
func sameColumn(box, span geometry.RectInt) bool {
	overlap := box.HorizontalOverlap(span)
	smaller := min(box.Width, span.Width)
	return float64(overlap) > RowOverlapFraction*float64(smaller)
}

// clusterIndices groups box indices, visiting them in the given order and
// assigning each box to the first cluster whose accumulated span it matches.
// Clusters keep their creation order.
func clusterIndices(boxes []geometry.RectInt, order []int, matches func(box, span geometry.RectInt) bool) [][]int {
	var clusters [][]int
	var spans []geometry.RectInt

	for _, i := range order {
		placed := false
		for c := range clusters {
			if matches(boxes[i], spans[c]) {
				clusters[c] = append(clusters[c], i)
				spans[c] = spans[c].Union(boxes[i])
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []int{i})
			spans = append(spans, boxes[i])
		}
	}
	return clusters
}

// readingOrder returns the indices of boxes in reading order: rows clustered
// by vertical overlap, rows top to bottom, boxes within a row left-to-right
// or right-to-left.
func readingOrder(boxes []geometry.RectInt, rtl bool) []int {
	byTop := make([]int, len(boxes))
	for i := range byTop {
		byTop[i] = i
	}
	sort.SliceStable(byTop, func(a, b int) bool {
		if boxes[byTop[a]].Y != boxes[byTop[b]].Y {
			return boxes[byTop[a]].Y < boxes[byTop[b]].Y
		}
		return boxes[byTop[a]].X < boxes[byTop[b]].X
	})

	rows := clusterIndices(boxes, byTop, sameRow)

	ordered := make([]int, 0, len(boxes))
	for _, row := range rows {
		sort.SliceStable(row, func(a, b int) bool {
			if rtl {
				return boxes[row[a]].X > boxes[row[b]].X
			}
			return boxes[row[a]].X < boxes[row[b]].X
		})
		ordered = append(ordered, row...)
	}
	return ordered
}

// SortBoxes sorts bounding boxes into reading order.
func SortBoxes(boxes []geometry.RectInt, rtl bool) []geometry.RectInt {
	order := readingOrder(boxes, rtl)
	sorted := make([]geometry.RectInt, 0, len(boxes))
	for _, i := range order {
		sorted = append(sorted, boxes[i])
	}
	return sorted
}

// SortContours sorts contours into reading order by their bounding boxes.
// The caller owns both the input and the returned vector.
func SortContours(contours gocv.PointsVector, rtl bool) gocv.PointsVector {
	boxes := boundingBoxes(contours)
	order := readingOrder(boxes, rtl)

	sorted := gocv.NewPointsVector()
	for _, i := range order {
		sorted.Append(contours.At(i))
	}
	return sorted
}

// boundingBoxes computes the axis-aligned bounding box of every contour.
func boundingBoxes(contours gocv.PointsVector) []geometry.RectInt {
	boxes := make([]geometry.RectInt, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		boxes = append(boxes, geometry.NewRectInt(r.Min.X, r.Min.Y, r.Dx(), r.Dy()))
	}
	return boxes
}

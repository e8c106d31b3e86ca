package panel

import (
	"image"
	"sort"

	"panel-extractor/pkg/geometry"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// rectApproxEpsilon is the polygon approximation tolerance (fraction of the
// contour perimeter) used by the rectangularity test.
const rectApproxEpsilon = 0.02

// BackgroundIntensityRange returns the minimum and maximum intensity of the
// page background, sampled from the most uniform border line of the image.
// minRange widens the band downward from the maximum.
func BackgroundIntensityRange(gray gocv.Mat, minRange int) (int, int) {
	edges := borderLines(gray)

	least := edges[0]
	leastVar := stat.PopVariance(least, nil)
	for _, edge := range edges[1:] {
		if v := stat.PopVariance(edge, nil); v < leastVar {
			least = edge
			leastVar = v
		}
	}

	minVal, maxVal := least[0], least[0]
	for _, v := range least[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	minIntensity := int(minVal)
	if m := int(maxVal) - minRange; m > minIntensity {
		minIntensity = m
	}
	if minIntensity < 0 {
		minIntensity = 0
	}
	return minIntensity, int(maxVal)
}

// borderLines returns the four border rows/columns of the image as intensity
// slices: bottom row, top row, left column, right column.
func borderLines(gray gocv.Mat) [4][]float64 {
	rows, cols := gray.Rows(), gray.Cols()

	var edges [4][]float64
	edges[0] = make([]float64, cols)
	edges[1] = make([]float64, cols)
	for x := 0; x < cols; x++ {
		edges[0][x] = float64(gray.GetUCharAt(rows-1, x))
		edges[1][x] = float64(gray.GetUCharAt(0, x))
	}
	edges[2] = make([]float64, rows)
	edges[3] = make([]float64, rows)
	for y := 0; y < rows; y++ {
		edges[2][y] = float64(gray.GetUCharAt(y, 0))
		edges[3][y] = float64(gray.GetUCharAt(y, cols-1))
	}
	return edges
}

// thresholdBackground binarizes the preprocessed page at the derived
// background threshold, clamped to near-white.
func thresholdBackground(processed gocv.Mat) gocv.Mat {
	lessWhite, _ := BackgroundIntensityRange(processed, BackgroundIntensityMinRange)
	if lessWhite < MinWhiteThreshold {
		lessWhite = MinWhiteThreshold
	}

	binary := gocv.NewMat()
	gocv.Threshold(processed, &binary, float32(lessWhite), 255, gocv.ThresholdBinary)
	return binary
}

// acceptBackgroundComponents keeps the connected components of the binary
// mask that plausibly belong to the page background: large slabs spanning
// nearly the full page width or height, and rectangular regions. Components
// are visited largest-first and iteration halts once components become
// smaller than pageArea/PageToSegmentRatio.
func acceptBackgroundComponents(binary gocv.Mat) gocv.Mat {
	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	nLabels := gocv.ConnectedComponentsWithStats(binary, &labels, &stats, &centroids)

	rows, cols := binary.Rows(), binary.Cols()
	mask := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)

	haltingArea := (rows * cols) / PageToSegmentRatio
	minWidth := float64(cols) * (1 - BackgroundSizeErrorRatio)
	minHeight := float64(rows) * (1 - BackgroundSizeErrorRatio)

	// Label 0 is the thresholded-away foreground; rank the rest by area.
	order := make([]int, 0, nLabels-1)
	for i := 1; i < nLabels; i++ {
		order = append(order, i)
	}
	sort.Slice(order, func(a, b int) bool {
		return stats.GetIntAt(order[a], 4) > stats.GetIntAt(order[b], 4)
	})

	for _, idx := range order {
		area := int(stats.GetIntAt(idx, 4))
		if area < haltingArea {
			break
		}

		bounds := image.Rect(
			int(stats.GetIntAt(idx, 0)),
			int(stats.GetIntAt(idx, 1)),
			int(stats.GetIntAt(idx, 0))+int(stats.GetIntAt(idx, 2)),
			int(stats.GetIntAt(idx, 1))+int(stats.GetIntAt(idx, 3)),
		)

		if float64(bounds.Dx()) > minWidth ||
			float64(bounds.Dy()) > minHeight ||
			isComponentRectangular(labels, idx, bounds) {
			paintComponent(&mask, labels, idx, bounds)
		}
	}

	return mask
}

// isComponentRectangular tests whether the component's external contour
// approximates a convex quadrilateral.
func isComponentRectangular(labels gocv.Mat, idx int, bounds image.Rectangle) bool {
	comp := gocv.NewMatWithSize(bounds.Dy(), bounds.Dx(), gocv.MatTypeCV8U)
	defer comp.Close()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if labels.GetIntAt(y, x) == int32(idx) {
				comp.SetUCharAt(y-bounds.Min.Y, x-bounds.Min.X, 255)
			}
		}
	}

	contours := gocv.FindContours(comp, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	if contours.Size() == 0 {
		return false
	}

	contour := contours.At(0)
	perimeter := gocv.ArcLength(contour, true)
	approx := gocv.ApproxPolyDP(contour, rectApproxEpsilon*perimeter, true)
	defer approx.Close()

	if approx.Size() != 4 {
		return false
	}

	corners := make([]geometry.PointInt, 0, 4)
	for _, p := range approx.ToPoints() {
		corners = append(corners, geometry.PointInt{X: p.X, Y: p.Y})
	}
	return geometry.IsConvex(corners)
}

// paintComponent sets the component's pixels to white in the mask.
func paintComponent(mask *gocv.Mat, labels gocv.Mat, idx int, bounds image.Rectangle) {
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if labels.GetIntAt(y, x) == int32(idx) {
				mask.SetUCharAt(y, x, 255)
			}
		}
	}
}

// GenerateBackgroundMask builds the binary background mask for a preprocessed
// (edge-enhanced, dilated, inverted) grayscale page.
func GenerateBackgroundMask(processed gocv.Mat) gocv.Mat {
	binary := thresholdBackground(processed)
	defer binary.Close()

	mask := acceptBackgroundComponents(binary)

	// Close small gaps left between accepted components.
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{3, 3})
	defer kernel.Close()
	for i := 0; i < 2; i++ {
		gocv.Dilate(mask, &mask, kernel)
	}

	return mask
}

package panel

import (
	"gocv.io/x/gocv"
)

// minPanelArea returns the minimum contour area for a panel candidate on a
// page of the given size.
func minPanelArea(rows, cols int) float64 {
	return float64((rows * cols) / PageToPanelRatio)
}

// isPanelSized reports whether a contour area qualifies as a panel. The
// comparison is strictly greater: a contour exactly at the threshold is
// rejected.
func isPanelSized(area float64, rows, cols int) bool {
	return area > minPanelArea(rows, cols)
}

// PanelContours finds the external contours of the page content mask and
// keeps those large enough to be panels, discarding noise specks and small
// artifacts.
func PanelContours(pageWithoutBackground gocv.Mat) gocv.PointsVector {
	rows, cols := pageWithoutBackground.Rows(), pageWithoutBackground.Cols()

	all := gocv.FindContours(pageWithoutBackground, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer all.Close()

	kept := gocv.NewPointsVector()
	for i := 0; i < all.Size(); i++ {
		contour := all.At(i)
		if isPanelSized(gocv.ContourArea(contour), rows, cols) {
			kept.Append(contour)
		}
	}
	return kept
}

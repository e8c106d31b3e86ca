package panel

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// ExtractPanels cuts panels out of the page image using the given contours.
//
// In bounding mode each panel is a plain crop of the contour's bounding box.
// In masked mode pixels inside the bounding box but outside the contour are
// replaced with the fill color. When acceptPageAsPanel is false, boxes
// spanning at least PagePanelRejectRatio of the page width or height are
// discarded as whole-page false positives.
//
// The caller owns the returned Mats.
func ExtractPanels(img gocv.Mat, contours gocv.PointsVector, acceptPageAsPanel bool, mode OutputMode, fill color.RGBA) []gocv.Mat {
	rows, cols := img.Rows(), img.Cols()

	var panels []gocv.Mat
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		rect := gocv.BoundingRect(contour)

		if !acceptPageAsPanel &&
			(float64(rect.Dx()) >= float64(cols)*PagePanelRejectRatio ||
				float64(rect.Dy()) >= float64(rows)*PagePanelRejectRatio) {
			continue
		}

		if mode == ModeMasked {
			panels = append(panels, extractMasked(img, contours, i, rect, fill))
		} else {
			region := img.Region(rect)
			panels = append(panels, region.Clone())
			region.Close()
		}
	}
	return panels
}

// extractMasked crops the contour's bounding box and fills pixels outside the
// contour with the fill color.
func extractMasked(img gocv.Mat, contours gocv.PointsVector, idx int, rect image.Rectangle, fill color.RGBA) gocv.Mat {
	mask := gocv.NewMatWithSize(img.Rows(), img.Cols(), img.Type())
	defer mask.Close()
	gocv.DrawContours(&mask, contours, idx, white, -1)

	masked := gocv.NewMat()
	defer masked.Close()
	gocv.BitwiseAnd(img, mask, &masked)

	region := masked.Region(rect)
	panel := region.Clone()
	region.Close()

	maskRegion := mask.Region(rect)
	defer maskRegion.Close()
	exterior := gocv.NewMat()
	defer exterior.Close()
	gocv.BitwiseNot(maskRegion, &exterior)

	fillScalar := gocv.NewScalar(float64(fill.B), float64(fill.G), float64(fill.R), 0)
	fillMat := gocv.NewMatWithSizeFromScalar(fillScalar, rect.Dy(), rect.Dx(), img.Type())
	defer fillMat.Close()

	fillPart := gocv.NewMat()
	defer fillPart.Close()
	gocv.BitwiseAnd(exterior, fillMat, &fillPart)

	blended := gocv.NewMat()
	gocv.BitwiseOr(fillPart, panel, &blended)
	panel.Close()
	return blended
}

// TrimBorder crops a panel to the bounding box of its sub-white content,
// removing white scan margins. Returns an untrimmed copy when the panel has
// no sub-white content at all.
func TrimBorder(panel gocv.Mat) gocv.Mat {
	gray := Grayscale(panel)
	defer gray.Close()

	content := gocv.NewMat()
	defer content.Close()
	gocv.Threshold(gray, &content, float32(MinWhiteThreshold-1), 255, gocv.ThresholdBinaryInv)

	contours := gocv.FindContours(content, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	if contours.Size() == 0 {
		return panel.Clone()
	}

	bounds := gocv.BoundingRect(contours.At(0))
	for i := 1; i < contours.Size(); i++ {
		bounds = bounds.Union(gocv.BoundingRect(contours.At(i)))
	}

	region := panel.Region(bounds)
	trimmed := region.Clone()
	region.Close()
	return trimmed
}

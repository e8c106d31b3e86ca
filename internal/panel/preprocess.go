package panel

import (
	"image"

	"gocv.io/x/gocv"
)

// Preprocess blurs the grayscale page and applies a Laplacian filter,
// highlighting content edges. Used for AI preprocessing and the threshold
// fallback.
func Preprocess(gray gocv.Mat) gocv.Mat {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{3, 3}, 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	gocv.Laplacian(blurred, &edges, gocv.MatTypeCV8U, 1, 1, 0, gocv.BorderDefault)
	return edges
}

// PreprocessWithDilation additionally thickens the detected edges and inverts
// the result, seeding background mask generation. The dilation keeps the
// background mask from leaking through thin panel borders.
func PreprocessWithDilation(gray gocv.Mat) gocv.Mat {
	edges := Preprocess(gray)
	defer edges.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{5, 5})
	defer kernel.Close()

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(edges, &dilated, kernel)

	inverted := gocv.NewMat()
	gocv.BitwiseNot(dilated, &inverted)
	return inverted
}

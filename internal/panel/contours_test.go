package panel

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func TestMinPanelAreaStrict(t *testing.T) {
	rows, cols := 320, 320
	threshold := minPanelArea(rows, cols)
	if threshold != 3200 {
		t.Fatalf("minPanelArea(320, 320) = %v, want 3200", threshold)
	}
	if isPanelSized(threshold, rows, cols) {
		t.Error("contour at exactly the minimum area must be rejected")
	}
	if isPanelSized(threshold-1, rows, cols) {
		t.Error("contour below the minimum area must be rejected")
	}
	if !isPanelSized(threshold+1, rows, cols) {
		t.Error("contour above the minimum area must be retained")
	}
}

func TestPanelContoursFiltersSmall(t *testing.T) {
	page := gocv.NewMatWithSize(200, 200, gocv.MatTypeCV8U)
	defer page.Close()

	white := color.RGBA{255, 255, 255, 255}
	// One block well above 200*200/32 = 1250 and one well below it.
	gocv.Rectangle(&page, image.Rect(20, 20, 100, 100), white, -1)
	gocv.Rectangle(&page, image.Rect(150, 150, 160, 160), white, -1)

	contours := PanelContours(page)
	defer contours.Close()

	if contours.Size() != 1 {
		t.Fatalf("got %d contours, want 1", contours.Size())
	}
	rect := gocv.BoundingRect(contours.At(0))
	if rect.Min.X != 20 || rect.Min.Y != 20 {
		t.Errorf("kept contour at %v, want the 80x80 block", rect)
	}
}

func TestPanelContoursEmptyPage(t *testing.T) {
	page := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8U)
	defer page.Close()

	contours := PanelContours(page)
	defer contours.Close()

	if contours.Size() != 0 {
		t.Fatalf("got %d contours on a blank page, want 0", contours.Size())
	}
}

package panel

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"panel-extractor/internal/detect"
	"panel-extractor/pkg/geometry"

	"gocv.io/x/gocv"
)

var (
	testRectA = image.Rect(20, 20, 170, 120)
	testRectB = image.Rect(230, 20, 380, 120)
)

// twoPanelPage is a white page with two gray blocks side by side, light
// enough to read back through panel pixels.
func twoPanelPage() gocv.Mat {
	page := newColorMat(300, 400, 255, 255, 255)
	gocv.Rectangle(&page, testRectA, color.RGBA{180, 180, 180, 255}, -1)
	gocv.Rectangle(&page, testRectB, color.RGBA{220, 220, 220, 255}, -1)
	return page
}

// twoPanelBackground marks everything except the two blocks as background,
// standing in for the mask derivation so the pipeline is exercised on known
// geometry.
func twoPanelBackground(processed gocv.Mat) gocv.Mat {
	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0),
		processed.Rows(), processed.Cols(), gocv.MatTypeCV8U)
	black := color.RGBA{0, 0, 0, 255}
	gocv.Rectangle(&mask, testRectA, black, -1)
	gocv.Rectangle(&mask, testRectB, black, -1)
	return mask
}

func TestGeneratePanelBlocksReadingOrder(t *testing.T) {
	page := twoPanelPage()
	defer page.Close()

	opts := DefaultOptions()
	opts.Background = twoPanelBackground

	panels := GeneratePanelBlocks(page, opts)
	defer closeAll(panels)

	if len(panels) != 2 {
		t.Fatalf("got %d panels, want 2", len(panels))
	}
	for i, p := range panels {
		if p.Rows() != 100 || p.Cols() != 150 {
			t.Errorf("panel %d is %dx%d, want 150x100", i, p.Cols(), p.Rows())
		}
	}
	if v := panels[0].GetVecbAt(50, 50); v[0] != 180 {
		t.Errorf("left-to-right first panel has value %d, want 180", v[0])
	}

	opts.RTLOrder = true
	rtl := GeneratePanelBlocks(page, opts)
	defer closeAll(rtl)

	if len(rtl) != 2 {
		t.Fatalf("got %d panels in right-to-left order, want 2", len(rtl))
	}
	if v := rtl[0].GetVecbAt(50, 50); v[0] != 220 {
		t.Errorf("right-to-left first panel has value %d, want 220", v[0])
	}
}

func TestGeneratePanelBlocksDeterministic(t *testing.T) {
	page := twoPanelPage()
	defer page.Close()

	opts := DefaultOptions()
	opts.Background = twoPanelBackground

	first := GeneratePanelBlocks(page, opts)
	defer closeAll(first)
	second := GeneratePanelBlocks(page, opts)
	defer closeAll(second)

	if len(first) != len(second) {
		t.Fatalf("panel counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !bytes.Equal(first[i].ToBytes(), second[i].ToBytes()) {
			t.Errorf("panel %d differs between runs", i)
		}
	}
}

func TestGeneratePanelBlocksMaskedMatchesBoundingForRects(t *testing.T) {
	page := twoPanelPage()
	defer page.Close()

	opts := DefaultOptions()
	opts.Background = twoPanelBackground

	bounding := GeneratePanelBlocks(page, opts)
	defer closeAll(bounding)

	opts.Mode = ModeMasked
	opts.FillColor = color.RGBA{R: 255, A: 255}
	masked := GeneratePanelBlocks(page, opts)
	defer closeAll(masked)

	if len(masked) != len(bounding) {
		t.Fatalf("panel counts differ: %d vs %d", len(masked), len(bounding))
	}
	// Rectangular contours fill their whole bounding box, so both modes
	// produce identical crops.
	for i := range masked {
		if !bytes.Equal(masked[i].ToBytes(), bounding[i].ToBytes()) {
			t.Errorf("panel %d differs between masked and bounding modes", i)
		}
	}
}

func TestGeneratePanelBlocksMergeHorizontal(t *testing.T) {
	page := twoPanelPage()
	defer page.Close()

	opts := DefaultOptions()
	opts.Background = twoPanelBackground
	opts.Merge = MergeHorizontal

	panels := GeneratePanelBlocks(page, opts)
	defer closeAll(panels)

	if len(panels) != 1 {
		t.Fatalf("got %d panels, want 1 merged row", len(panels))
	}
	p := panels[0]
	if p.Rows() != 100 || p.Cols() != 300 {
		t.Errorf("merged panel is %dx%d, want 300x100", p.Cols(), p.Rows())
	}
	if v := p.GetVecbAt(50, 10); v[0] != 180 {
		t.Errorf("merged left side value %d, want 180", v[0])
	}
	if v := p.GetVecbAt(50, 290); v[0] != 220 {
		t.Errorf("merged right side value %d, want 220", v[0])
	}
}

func TestGeneratePanelBlocksNoPanels(t *testing.T) {
	page := newColorMat(300, 400, 255, 255, 255)
	defer page.Close()

	opts := DefaultOptions()
	opts.Background = func(processed gocv.Mat) gocv.Mat {
		return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0),
			processed.Rows(), processed.Cols(), gocv.MatTypeCV8U)
	}

	panels := GeneratePanelBlocks(page, opts)
	defer closeAll(panels)

	if len(panels) != 0 {
		t.Errorf("got %d panels from an all-background page, want 0", len(panels))
	}
}

type stubDetector struct {
	dets []detect.Detection
	err  error
}

func (s stubDetector) Detect(gocv.Mat) ([]detect.Detection, error) {
	return s.dets, s.err
}

func TestGeneratePanelBlocksByAI(t *testing.T) {
	page := twoPanelPage()
	defer page.Close()

	// Detections arrive unordered; the output must be in reading order.
	det := stubDetector{dets: []detect.Detection{
		{Box: geometry.NewRectInt(230, 20, 150, 100), Confidence: 0.9},
		{Box: geometry.NewRectInt(20, 20, 150, 100), Confidence: 0.8},
	}}

	panels, err := GeneratePanelBlocksByAI(page, det, AIOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeAll(panels)

	if len(panels) != 2 {
		t.Fatalf("got %d panels, want 2", len(panels))
	}
	if v := panels[0].GetVecbAt(50, 50); v[0] != 180 {
		t.Errorf("first panel value %d, want the left block (180)", v[0])
	}
	if panels[0].Rows() != 100 || panels[0].Cols() != 150 {
		t.Errorf("panel is %dx%d, want 150x100", panels[0].Cols(), panels[0].Rows())
	}
}

func TestGeneratePanelBlocksByAIMerge(t *testing.T) {
	page := twoPanelPage()
	defer page.Close()

	det := stubDetector{dets: []detect.Detection{
		{Box: geometry.NewRectInt(20, 20, 150, 100)},
		{Box: geometry.NewRectInt(230, 20, 150, 100)},
	}}

	panels, err := GeneratePanelBlocksByAI(page, det, AIOptions{Merge: MergeHorizontal})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeAll(panels)

	if len(panels) != 1 {
		t.Fatalf("got %d panels, want 1 merged row", len(panels))
	}
	if panels[0].Cols() != 300 || panels[0].Rows() != 100 {
		t.Errorf("merged panel is %dx%d, want 300x100", panels[0].Cols(), panels[0].Rows())
	}
}

func TestGeneratePanelBlocksByAIError(t *testing.T) {
	page := twoPanelPage()
	defer page.Close()

	det := stubDetector{err: detect.ErrModelUnavailable}

	panels, err := GeneratePanelBlocksByAI(page, det, AIOptions{})
	if err == nil {
		closeAll(panels)
		t.Fatal("expected an error from a failing detector")
	}
	if !errors.Is(err, detect.ErrModelUnavailable) {
		t.Errorf("error %v does not wrap the model sentinel", err)
	}
}

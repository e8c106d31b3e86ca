package detect

import (
	"math"
	"testing"

	"gocv.io/x/gocv"
)

// row builds one prediction row: center box plus objectness and class scores.
func row(cx, cy, w, h, obj float32, classScores ...float32) []float32 {
	return append([]float32{cx, cy, w, h, obj}, classScores...)
}

func TestDecodePredictions(t *testing.T) {
	var data []float32
	data = append(data, row(100, 100, 40, 20, 0.9, 0.8, 0.1)...) // kept, class 0
	data = append(data, row(200, 200, 40, 40, 0.1, 0.9, 0.1)...) // low objectness
	data = append(data, row(300, 300, 40, 40, 0.9, 0.1, 0.2)...) // obj*best = 0.18
	data = append(data, row(400, 100, 40, 40, 0.8, 0.2, 0.7)...) // kept, class 1
	shape := []int64{1, 4, 7}

	got := decodePredictions(data, shape, 0.25)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}

	first := got[0]
	if first.x1 != 80 || first.y1 != 90 || first.x2 != 120 || first.y2 != 110 {
		t.Errorf("first box (%v, %v)-(%v, %v), want (80, 90)-(120, 110)",
			first.x1, first.y1, first.x2, first.y2)
	}
	if first.class != 0 {
		t.Errorf("first class = %d, want 0", first.class)
	}
	if math.Abs(float64(first.score)-0.72) > 1e-5 {
		t.Errorf("first score = %v, want 0.72", first.score)
	}
	if got[1].class != 1 {
		t.Errorf("second class = %d, want 1", got[1].class)
	}
}

func TestDecodePredictionsBadShape(t *testing.T) {
	if got := decodePredictions([]float32{1, 2, 3}, []int64{1, 4}, 0.25); got != nil {
		t.Errorf("short shape decoded to %v, want nil", got)
	}
	if got := decodePredictions([]float32{1, 2, 3}, []int64{1, 4, 7}, 0.25); got != nil {
		t.Errorf("truncated data decoded to %v, want nil", got)
	}
}

func TestIoU(t *testing.T) {
	a := candidate{x1: 0, y1: 0, x2: 10, y2: 10}
	b := candidate{x1: 5, y1: 0, x2: 15, y2: 10}
	// Intersection 50, union 150.
	if got := iou(a, b); math.Abs(float64(got)-1.0/3.0) > 1e-5 {
		t.Errorf("iou = %v, want 1/3", got)
	}

	c := candidate{x1: 20, y1: 20, x2: 30, y2: 30}
	if got := iou(a, c); got != 0 {
		t.Errorf("disjoint iou = %v, want 0", got)
	}
}

func TestNonMaxSuppressionSameClass(t *testing.T) {
	candidates := []candidate{
		{x1: 0, y1: 0, x2: 10, y2: 10, score: 0.5, class: 0},
		{x1: 1, y1: 1, x2: 11, y2: 11, score: 0.9, class: 0},
		{x1: 100, y1: 100, x2: 110, y2: 110, score: 0.7, class: 0},
	}

	kept := nonMaxSuppression(candidates, 0.45)
	if len(kept) != 2 {
		t.Fatalf("kept %d candidates, want 2", len(kept))
	}
	if kept[0].score != 0.9 || kept[1].score != 0.7 {
		t.Errorf("kept scores %v, %v; want 0.9, 0.7", kept[0].score, kept[1].score)
	}
}

func TestNonMaxSuppressionKeepsOtherClasses(t *testing.T) {
	candidates := []candidate{
		{x1: 0, y1: 0, x2: 10, y2: 10, score: 0.9, class: 0},
		{x1: 0, y1: 0, x2: 10, y2: 10, score: 0.5, class: 1},
	}

	kept := nonMaxSuppression(candidates, 0.45)
	if len(kept) != 2 {
		t.Errorf("kept %d candidates, want 2: overlap across classes is allowed", len(kept))
	}
}

func TestToDetections(t *testing.T) {
	candidates := []candidate{
		{x1: 16, y1: 0, x2: 48, y2: 64, score: 0.8, class: 0},
		// Collapses to nothing after clamping.
		{x1: -50, y1: -50, x2: -10, y2: -10, score: 0.9, class: 0},
	}

	// Letterbox: 50x100 image scaled by 0.64 into a 64px square, padX=16.
	got := toDetections(candidates, 0.64, 16, 0, 50, 100)
	if len(got) != 1 {
		t.Fatalf("got %d detections, want 1", len(got))
	}

	box := got[0].Box
	if box.X != 0 || box.Y != 0 || box.Width != 50 || box.Height != 100 {
		t.Errorf("box = %+v, want the full 50x100 image", box)
	}
	if got[0].Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", got[0].Confidence)
	}
}

func TestLetterbox(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 100, 50, gocv.MatTypeCV8U)
	defer img.Close()

	data, scale, padX, padY := letterbox(img, 64)
	if scale != 0.64 || padX != 16 || padY != 0 {
		t.Fatalf("scale=%v padX=%d padY=%d, want 0.64, 16, 0", scale, padX, padY)
	}
	if len(data) != 3*64*64 {
		t.Fatalf("data length %d, want %d", len(data), 3*64*64)
	}

	pad := float32(114.0 / 255.0)
	if data[0] != pad {
		t.Errorf("padding value %v, want %v", data[0], pad)
	}
	if data[16] != 1 {
		t.Errorf("image value %v, want 1", data[16])
	}
	// Grayscale input replicates across all three planes.
	if data[64*64+16] != 1 || data[2*64*64+16] != 1 {
		t.Error("grayscale input not replicated to all planes")
	}
}

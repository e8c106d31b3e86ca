package detect

import "sort"

// candidate is a decoded box in letterboxed input coordinates.
type candidate struct {
	x1, y1, x2, y2 float32
	score          float32
	class          int
}

// decodePredictions decodes a YOLO-family detection head laid out as
// [1, boxes, 5+classes] with rows (cx, cy, w, h, objectness, class scores...).
// Rows whose combined score falls below confThreshold are dropped.
func decodePredictions(data []float32, shape []int64, confThreshold float32) []candidate {
	if len(shape) < 3 {
		return nil
	}
	boxes := int(shape[1])
	stride := int(shape[2])
	if stride < 5 || len(data) < boxes*stride {
		return nil
	}

	var candidates []candidate
	for i := 0; i < boxes; i++ {
		row := data[i*stride : (i+1)*stride]
		objectness := row[4]
		if objectness < confThreshold {
			continue
		}

		class := 0
		best := float32(1)
		if stride > 5 {
			best = row[5]
			for c := 6; c < stride; c++ {
				if row[c] > best {
					best = row[c]
					class = c - 5
				}
			}
		}

		score := objectness * best
		if score < confThreshold {
			continue
		}

		cx, cy, w, h := row[0], row[1], row[2], row[3]
		candidates = append(candidates, candidate{
			x1:    cx - w/2,
			y1:    cy - h/2,
			x2:    cx + w/2,
			y2:    cy + h/2,
			score: score,
			class: class,
		})
	}
	return candidates
}

// nonMaxSuppression keeps the highest-scoring boxes, dropping boxes of the
// same class that overlap a kept box by more than iouThreshold.
func nonMaxSuppression(candidates []candidate, iouThreshold float32) []candidate {
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	var kept []candidate
	for _, c := range candidates {
		suppressed := false
		for _, k := range kept {
			if c.class == k.class && iou(c, k) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c)
		}
	}
	return kept
}

// iou computes intersection over union of two boxes.
func iou(a, b candidate) float32 {
	ix1 := maxf(a.x1, b.x1)
	iy1 := maxf(a.y1, b.y1)
	ix2 := minf(a.x2, b.x2)
	iy2 := minf(a.y2, b.y2)

	iw := ix2 - ix1
	ih := iy2 - iy1
	if iw <= 0 || ih <= 0 {
		return 0
	}

	inter := iw * ih
	areaA := (a.x2 - a.x1) * (a.y2 - a.y1)
	areaB := (b.x2 - b.x1) * (b.y2 - b.y1)
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

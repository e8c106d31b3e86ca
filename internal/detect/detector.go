// Package detect wraps external object-detection models behind a uniform
// interface producing panel bounding boxes.
package detect

import (
	"errors"

	"panel-extractor/pkg/geometry"

	"gocv.io/x/gocv"
)

// ErrModelUnavailable indicates the external detection model could not be
// loaded or run. It is recoverable: callers report it and continue with other
// pages or the traditional pipeline.
var ErrModelUnavailable = errors.New("detection model unavailable")

// Detection is one detected panel candidate. Confidence and Class are carried
// through for callers but not consumed by the panel logic.
type Detection struct {
	Box        geometry.RectInt
	Confidence float32
	Class      int
}

// Detector produces panel detections for a preprocessed page image.
type Detector interface {
	Detect(img gocv.Mat) ([]Detection, error)
}

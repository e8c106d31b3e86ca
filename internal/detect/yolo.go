package detect

import (
	"fmt"
	"image"
	"sync"

	"panel-extractor/pkg/geometry"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"
)

// The ONNX runtime environment is process-wide and initialized once.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime(libraryPath string) error {
	ortInitOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// Config configures the YOLO panel detector.
type Config struct {
	// ModelPath is the path to the exported ONNX model.
	ModelPath string

	// RuntimePath optionally points at the onnxruntime shared library.
	RuntimePath string

	// InputSize is the square model input resolution.
	InputSize int

	// ConfThreshold discards detections below this confidence.
	ConfThreshold float32

	// IoUThreshold is the NMS overlap threshold.
	IoUThreshold float32
}

// DefaultConfig returns the default detector configuration for a model.
func DefaultConfig(modelPath string) Config {
	return Config{
		ModelPath:     modelPath,
		InputSize:     640,
		ConfThreshold: 0.25,
		IoUThreshold:  0.45,
	}
}

// YOLODetector runs a YOLO-family ONNX model. The model is loaded lazily on
// first use and the session is reused for the life of the process; inference
// calls are serialized, so one detector is safe to share across page workers.
type YOLODetector struct {
	cfg Config

	mu      sync.Mutex
	options *ort.SessionOptions
	session *ort.DynamicAdvancedSession
}

// NewYOLODetector creates a detector for the given configuration. The model
// is not loaded until Load or the first Detect call.
func NewYOLODetector(cfg Config) *YOLODetector {
	if cfg.InputSize <= 0 {
		cfg.InputSize = 640
	}
	return &YOLODetector{cfg: cfg}
}

// Load initializes the runtime and opens the model session. Safe to call more
// than once.
func (d *YOLODetector) Load() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadLocked()
}

func (d *YOLODetector) loadLocked() error {
	if d.session != nil {
		return nil
	}

	if err := initRuntime(d.cfg.RuntimePath); err != nil {
		return fmt.Errorf("%w: initialize onnx runtime: %v", ErrModelUnavailable, err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(d.cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("%w: read model %s: %v", ErrModelUnavailable, d.cfg.ModelPath, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("%w: model %s declares no inputs/outputs", ErrModelUnavailable, d.cfg.ModelPath)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("%w: session options: %v", ErrModelUnavailable, err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		d.cfg.ModelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		options,
	)
	if err != nil {
		options.Destroy()
		return fmt.Errorf("%w: open session: %v", ErrModelUnavailable, err)
	}

	d.options = options
	d.session = session
	return nil
}

// Close releases the model session.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
	if d.options != nil {
		d.options.Destroy()
		d.options = nil
	}
	return nil
}

// Detect runs inference on the image and returns panel detections in image
// pixel coordinates, clamped to the image bounds.
func (d *YOLODetector) Detect(img gocv.Mat) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.loadLocked(); err != nil {
		return nil, err
	}

	size := d.cfg.InputSize
	input, scale, padX, padY := letterbox(img, size)

	tensor, err := ort.NewTensor(ort.NewShape(1, 3, int64(size), int64(size)), input)
	if err != nil {
		return nil, fmt.Errorf("%w: input tensor: %v", ErrModelUnavailable, err)
	}
	defer tensor.Destroy()

	outputs := []ort.Value{nil}
	if err := d.session.Run([]ort.Value{tensor}, outputs); err != nil {
		return nil, fmt.Errorf("%w: inference: %v", ErrModelUnavailable, err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("%w: model produced no output", ErrModelUnavailable)
	}
	defer outputs[0].Destroy()

	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("%w: unexpected output tensor type", ErrModelUnavailable)
	}

	candidates := decodePredictions(outTensor.GetData(), outTensor.GetShape(), d.cfg.ConfThreshold)
	candidates = nonMaxSuppression(candidates, d.cfg.IoUThreshold)

	return toDetections(candidates, scale, padX, padY, img.Cols(), img.Rows()), nil
}

// letterbox resizes the image into a size x size square, preserving aspect
// ratio and padding with neutral gray, and returns the NCHW float input plus
// the scale and padding needed to map boxes back. Single-channel input is
// replicated across the three model channels.
func letterbox(img gocv.Mat, size int) (data []float32, scale float64, padX, padY int) {
	w, h := img.Cols(), img.Rows()
	scale = min(float64(size)/float64(w), float64(size)/float64(h))
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	padX = (size - newW) / 2
	padY = (size - newH) / 2

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(img, &scaled, image.Point{newW, newH}, 0, 0, gocv.InterpolationLinear)

	channels := scaled.Channels()
	plane := size * size
	data = make([]float32, 3*plane)
	for i := range data {
		data[i] = 114.0 / 255.0
	}

	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			di := (y+padY)*size + (x + padX)
			if channels == 1 {
				v := float32(scaled.GetUCharAt(y, x)) / 255.0
				data[di] = v
				data[plane+di] = v
				data[2*plane+di] = v
			} else {
				// BGR to RGB planes.
				data[di] = float32(scaled.GetUCharAt(y, x*channels+2)) / 255.0
				data[plane+di] = float32(scaled.GetUCharAt(y, x*channels+1)) / 255.0
				data[2*plane+di] = float32(scaled.GetUCharAt(y, x*channels+0)) / 255.0
			}
		}
	}
	return data, scale, padX, padY
}

// toDetections maps letterboxed candidate boxes back to image coordinates.
func toDetections(candidates []candidate, scale float64, padX, padY, imgW, imgH int) []Detection {
	detections := make([]Detection, 0, len(candidates))
	for _, c := range candidates {
		x1 := int((float64(c.x1) - float64(padX)) / scale)
		y1 := int((float64(c.y1) - float64(padY)) / scale)
		x2 := int((float64(c.x2) - float64(padX)) / scale)
		y2 := int((float64(c.y2) - float64(padY)) / scale)

		x1 = clamp(x1, 0, imgW)
		x2 = clamp(x2, 0, imgW)
		y1 = clamp(y1, 0, imgH)
		y2 = clamp(y2, 0, imgH)
		if x2 <= x1 || y2 <= y1 {
			continue
		}

		detections = append(detections, Detection{
			Box:        geometry.NewRectInt(x1, y1, x2-x1, y2-y1),
			Confidence: c.score,
			Class:      c.class,
		})
	}
	return detections
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Command panel-extractor extracts comic/manga panels from scanned page
// images into individual panel files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"panel-extractor/internal/detect"
	"panel-extractor/internal/imageio"
	"panel-extractor/internal/panel"
	"panel-extractor/internal/version"

	"gocv.io/x/gocv"
)

type config struct {
	output      string
	trimBorders bool
	useAI       bool

	opts   panel.Options
	aiOpts panel.AIOptions
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	input := flag.String("input", "", "Input image or directory of page images")
	output := flag.String("output", "panels", "Output directory")
	splitJoint := flag.Bool("split-joint-panels", false, "Cut apart panels that share a border with no gutter")
	fallback := flag.Bool("fallback", true, "Retry with threshold extraction when fewer than 2 panels are found")
	masked := flag.Bool("masked", false, "Extract along the panel contour, filling the exterior with black")
	mergeFlag := flag.String("merge", "none", "Merge adjacent panels: none, horizontal or vertical")
	rtl := flag.Bool("rtl", false, "Right-to-left reading order (manga layout)")
	trimBorders := flag.Bool("trim-borders", false, "Trim white margins off extracted panels")
	useAI := flag.Bool("ai", false, "Detect panels with the ONNX model instead of the traditional pipeline")
	modelPath := flag.String("model", "", "Path to the ONNX detection model (required with -ai)")
	runtimePath := flag.String("onnxruntime", "", "Path to the onnxruntime shared library")
	zipOut := flag.Bool("zip", false, "Package the output directory into panels.zip")
	workers := flag.Int("workers", runtime.NumCPU(), "Concurrent page workers")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("panel-extractor %s (%s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}
	if *input == "" {
		fmt.Println("Usage: panel-extractor -input <image|dir> [-output dir] [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	merge, err := parseMergeMode(*mergeFlag)
	if err != nil {
		log.Fatalf("Invalid -merge value: %v", err)
	}

	cfg := config{
		output:      *output,
		trimBorders: *trimBorders,
		useAI:       *useAI,
	}
	cfg.opts = panel.DefaultOptions()
	cfg.opts.SplitJointPanels = *splitJoint
	cfg.opts.Fallback = *fallback
	cfg.opts.Merge = merge
	cfg.opts.RTLOrder = *rtl
	if *masked {
		cfg.opts.Mode = panel.ModeMasked
	}
	cfg.aiOpts = panel.AIOptions{Merge: merge, RTLOrder: *rtl}

	var detector *detect.YOLODetector
	if *useAI {
		if *modelPath == "" {
			log.Fatalf("-ai requires -model")
		}
		dcfg := detect.DefaultConfig(*modelPath)
		dcfg.RuntimePath = *runtimePath
		detector = detect.NewYOLODetector(dcfg)
		if err := detector.Load(); err != nil {
			log.Fatalf("Cannot load detection model: %v", err)
		}
		defer detector.Close()
	}

	pages, err := collectPages(*input)
	if err != nil {
		log.Fatalf("Cannot read input: %v", err)
	}
	if len(pages) == 0 {
		log.Fatalf("No supported images found in %s", *input)
	}

	if err := os.MkdirAll(cfg.output, 0o755); err != nil {
		log.Fatalf("Cannot create output directory: %v", err)
	}

	log.Printf("Processing %d page(s) with %d worker(s)", len(pages), *workers)

	var (
		wg          sync.WaitGroup
		sem         = make(chan struct{}, max(*workers, 1))
		totalPanels atomic.Int64
		failedPages atomic.Int64
	)
	for _, page := range pages {
		wg.Add(1)
		sem <- struct{}{}
		go func(page string) {
			defer wg.Done()
			defer func() { <-sem }()

			n, err := processPage(page, cfg, detector)
			if err != nil {
				// One bad page must not abort the batch.
				log.Printf("Page %s failed: %v", page, err)
				failedPages.Add(1)
				return
			}
			totalPanels.Add(int64(n))
		}(page)
	}
	wg.Wait()

	log.Printf("Extracted %d panel(s) from %d page(s), %d failed",
		totalPanels.Load(), len(pages)-int(failedPages.Load()), failedPages.Load())

	if *zipOut {
		archive := filepath.Join(cfg.output, "panels.zip")
		if err := imageio.ZipDir(cfg.output, archive); err != nil {
			log.Fatalf("Cannot package panels: %v", err)
		}
		log.Printf("Packaged panels into %s", archive)
	}
}

// processPage extracts and writes the panels of a single page, returning how
// many panels were written.
func processPage(page string, cfg config, detector *detect.YOLODetector) (int, error) {
	src, err := imageio.Open(page)
	if err != nil {
		return 0, err
	}

	mat, err := panel.ImageToMat(src)
	if err != nil {
		return 0, fmt.Errorf("convert %s: %w", page, err)
	}
	defer mat.Close()

	var blocks []gocv.Mat
	if cfg.useAI {
		blocks, err = panel.GeneratePanelBlocksByAI(mat, detector, cfg.aiOpts)
		if err != nil {
			return 0, err
		}
	} else {
		blocks = panel.GeneratePanelBlocks(mat, cfg.opts)
	}
	defer closeAll(blocks)

	// No detected panels: keep the whole page as a single panel.
	if len(blocks) == 0 {
		log.Printf("No panels found in %s, keeping the whole page", page)
		blocks = append(blocks, mat.Clone())
	}

	name := strings.TrimSuffix(filepath.Base(page), filepath.Ext(page))
	ext := imageio.OutputExt(page)

	for k, block := range blocks {
		out := block
		if cfg.trimBorders {
			trimmed := panel.TrimBorder(block)
			defer trimmed.Close()
			out = trimmed
		}

		img, err := out.ToImage()
		if err != nil {
			return k, fmt.Errorf("encode panel %d of %s: %w", k, page, err)
		}
		dest := filepath.Join(cfg.output, fmt.Sprintf("%s_%d%s", name, k, ext))
		if err := imageio.Save(img, dest); err != nil {
			return k, err
		}
	}
	return len(blocks), nil
}

// collectPages expands the input path into a list of page image files.
func collectPages(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return imageio.ListImages(input)
	}
	if !imageio.IsSupported(input) {
		return nil, fmt.Errorf("unsupported image format: %s", input)
	}
	return []string{input}, nil
}

func parseMergeMode(s string) (panel.MergeMode, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return panel.MergeNone, nil
	case "horizontal":
		return panel.MergeHorizontal, nil
	case "vertical":
		return panel.MergeVertical, nil
	default:
		return panel.MergeNone, fmt.Errorf("unknown merge mode %q", s)
	}
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}

// Command paneldebug runs panel detection on a single page and writes the
// intermediate images for inspection.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"panel-extractor/internal/imageio"
	"panel-extractor/internal/panel"

	"gocv.io/x/gocv"
)

func main() {
	imagePath := flag.String("image", "", "Path to a page image")
	outDir := flag.String("out", "paneldebug", "Directory for intermediate dumps")
	split := flag.Bool("split-joint-panels", false, "Enable joint-panel splitting")
	rtl := flag.Bool("rtl", false, "Right-to-left reading order")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: paneldebug -image <path> [-out dir] [-split-joint-panels] [-rtl]")
		os.Exit(1)
	}

	src, err := imageio.Open(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open image: %v\n", err)
		os.Exit(1)
	}

	mat, err := panel.ImageToMat(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to convert image: %v\n", err)
		os.Exit(1)
	}
	defer mat.Close()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	fmt.Printf("Loaded %s: %dx%d pixels\n", *imagePath, mat.Cols(), mat.Rows())

	gray := panel.Grayscale(mat)
	defer gray.Close()
	dump(*outDir, "01_gray.png", gray)

	processed := panel.PreprocessWithDilation(gray)
	defer processed.Close()
	dump(*outDir, "02_preprocessed.png", processed)

	mask := panel.GenerateBackgroundMask(processed)
	defer mask.Close()
	dump(*outDir, "03_background_mask.png", mask)

	coverage := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols())
	fmt.Printf("Background coverage: %.1f%%\n", coverage*100)

	page := panel.PageWithoutBackground(gray, mask, *split)
	defer page.Close()
	dump(*outDir, "04_page_without_background.png", page)

	contours := panel.PanelContours(page)
	defer contours.Close()
	sorted := panel.SortContours(contours, *rtl)
	defer sorted.Close()
	fmt.Printf("Panel contours: %d\n", sorted.Size())

	green := color.RGBA{G: 255, A: 255}
	overlay := mat.Clone()
	defer overlay.Close()
	for i := 0; i < sorted.Size(); i++ {
		rect := gocv.BoundingRect(sorted.At(i))
		fmt.Printf("  panel %d: x=%d y=%d w=%d h=%d\n", i, rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
		gocv.Rectangle(&overlay, rect, green, 3)
		gocv.PutText(&overlay, fmt.Sprintf("%d", i),
			image.Point{rect.Min.X + 10, rect.Min.Y + 40},
			gocv.FontHersheyPlain, 3, green, 3)
	}
	dump(*outDir, "05_panels.png", overlay)

	fmt.Printf("Wrote intermediate images to %s\n", *outDir)
}

func dump(dir, name string, img gocv.Mat) {
	path := filepath.Join(dir, name)
	if ok := gocv.IMWrite(path, img); !ok {
		fmt.Fprintf(os.Stderr, "Failed to write %s\n", path)
	}
}

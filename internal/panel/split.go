package panel

import (
	"image"

	"gocv.io/x/gocv"
)

// SplitJointPanels synthesizes cut lines between panels that share a border
// with no gutter. The background mask is thinned to a skeleton, stroke ends
// are located by matching 3x3 directional templates, and each end is extended
// along its implied direction with an elongated dilation kernel. The union of
// those lines with the mask separates the joined panels. Returns the page
// content mask (inverted background).
func SplitJointPanels(backgroundMask gocv.Mat) gocv.Mat {
	rows, cols := backgroundMask.Rows(), backgroundMask.Cols()
	pixelsBefore := gocv.CountNonZero(backgroundMask)

	mask := thinMask(backgroundMask)

	heightBased := rows / PageToJointObjectRatio
	heightBased += heightBased%2 + 1
	widthBased := (2 * cols) / PageToJointObjectRatio
	widthBased += widthBased%2 + 1
	minBased := min(heightBased, widthBased)

	type direction struct {
		match  [3][3]uint8
		extend gocv.Mat
	}

	directions := []direction{
		{[3][3]uint8{{0, 0, 0}, {0, 1, 0}, {0, 1, 0}}, verticalLineKernel(heightBased, true)},
		{[3][3]uint8{{0, 1, 0}, {0, 1, 0}, {0, 0, 0}}, verticalLineKernel(heightBased, false)},
		{[3][3]uint8{{0, 0, 0}, {0, 1, 1}, {0, 0, 0}}, horizontalLineKernel(widthBased, true)},
		{[3][3]uint8{{0, 0, 0}, {1, 1, 0}, {0, 0, 0}}, horizontalLineKernel(widthBased, false)},
		{[3][3]uint8{{1, 0, 0}, {0, 1, 0}, {0, 0, 0}}, diagonalLineKernel(minBased, diagDownRight)},
		{[3][3]uint8{{0, 0, 1}, {0, 1, 0}, {0, 0, 0}}, diagonalLineKernel(minBased, diagDownLeft)},
		{[3][3]uint8{{0, 0, 0}, {0, 1, 0}, {0, 0, 1}}, diagonalLineKernel(minBased, diagUpLeft)},
		{[3][3]uint8{{0, 0, 0}, {0, 1, 0}, {1, 0, 0}}, diagonalLineKernel(minBased, diagUpRight)},
	}

	for _, dir := range directions {
		template := matchKernel(dir.match)
		dots := strokeEndDots(mask, template)
		template.Close()

		lines := gocv.NewMat()
		gocv.Dilate(dots, &lines, dir.extend)
		dots.Close()
		dir.extend.Close()

		gocv.BitwiseOr(mask, lines, &mask)
		lines.Close()
	}

	// Smooth the joins: the fewer pixels the skeleton and its extension lines
	// kept relative to the original mask, the stronger the final dilation.
	if pixelsNow := gocv.CountNonZero(mask); pixelsNow > 0 {
		dilationSize := pixelsBefore / (4 * pixelsNow)
		dilationSize += dilationSize%2 + 1
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{dilationSize, dilationSize})
		gocv.Dilate(mask, &mask, kernel)
		kernel.Close()
	}

	pageWithoutBackground := gocv.NewMat()
	gocv.BitwiseNot(mask, &pageWithoutBackground)
	mask.Close()
	return pageWithoutBackground
}

// PageWithoutBackground subtracts the background mask from the grayscale
// page. When splitting is requested and background coverage is low enough
// (dense panel layouts benefit from cut lines, sparse ones do not), the mask
// is routed through the joint-panel splitter instead.
func PageWithoutBackground(gray, backgroundMask gocv.Mat, splitJointPanels bool) gocv.Mat {
	maskArea := gocv.CountNonZero(backgroundMask)
	maskAreaRatio := float64(maskArea) / float64(backgroundMask.Rows()*backgroundMask.Cols())

	if splitJointPanels && maskAreaRatio < StripeMaskAreaRatio {
		return SplitJointPanels(backgroundMask)
	}

	page := gocv.NewMat()
	gocv.Subtract(gray, backgroundMask, &page)
	return page
}

// matchKernel builds a 3x3 template Mat with 0/1 values.
func matchKernel(pattern [3][3]uint8) gocv.Mat {
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV8U)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			kernel.SetUCharAt(y, x, pattern[y][x])
		}
	}
	return kernel
}

// strokeEndDots marks skeleton pixels whose 3x3 neighborhood matches the
// template. The match result is re-padded so dots line up with the source.
func strokeEndDots(mask, template gocv.Mat) gocv.Mat {
	result := gocv.NewMat()
	defer result.Close()
	noMask := gocv.NewMat()
	defer noMask.Close()
	gocv.MatchTemplate(mask, template, &result, gocv.TmCcoeffNormed, noMask)

	dots := gocv.NewMatWithSize(mask.Rows(), mask.Cols(), gocv.MatTypeCV8U)
	for y := 0; y < result.Rows(); y++ {
		for x := 0; x < result.Cols(); x++ {
			if result.GetFloatAt(y, x) > StrokeEndMatchThreshold {
				dots.SetUCharAt(y+1, x+1, 255)
			}
		}
	}
	return dots
}

// verticalLineKernel builds a size x size kernel whose center column is set
// from the center downward (up=true extends dots upward on dilation) or from
// the top through the center.
func verticalLineKernel(size int, up bool) gocv.Mat {
	kernel := gocv.NewMatWithSize(size, size, gocv.MatTypeCV8U)
	c := size / 2
	if up {
		for y := c; y < size; y++ {
			kernel.SetUCharAt(y, c, 1)
		}
	} else {
		for y := 0; y <= c; y++ {
			kernel.SetUCharAt(y, c, 1)
		}
	}
	return kernel
}

// horizontalLineKernel is the horizontal counterpart of verticalLineKernel.
func horizontalLineKernel(size int, left bool) gocv.Mat {
	kernel := gocv.NewMatWithSize(size, size, gocv.MatTypeCV8U)
	c := size / 2
	if left {
		for x := c; x < size; x++ {
			kernel.SetUCharAt(c, x, 1)
		}
	} else {
		for x := 0; x <= c; x++ {
			kernel.SetUCharAt(c, x, 1)
		}
	}
	return kernel
}

type diagDirection int

const (
	diagDownRight diagDirection = iota
	diagDownLeft
	diagUpLeft
	diagUpRight
)

// diagonalLineKernel builds a size x size kernel with a half-diagonal segment
// anchored so dilation extends stroke ends along the given diagonal.
func diagonalLineKernel(size int, dir diagDirection) gocv.Mat {
	kernel := gocv.NewMatWithSize(size, size, gocv.MatTypeCV8U)
	c := size / 2
	for i := 0; i <= c; i++ {
		switch dir {
		case diagDownRight:
			kernel.SetUCharAt(i, i, 1)
		case diagDownLeft:
			kernel.SetUCharAt(i, size-1-i, 1)
		case diagUpLeft:
			kernel.SetUCharAt(c+i, i, 1)
		case diagUpRight:
			kernel.SetUCharAt(c+i, c-i, 1)
		}
	}
	return kernel
}

// thinMask reduces a binary mask to its one-pixel-wide skeleton using
// Zhang-Suen thinning.
func thinMask(mask gocv.Mat) gocv.Mat {
	rows, cols := mask.Rows(), mask.Cols()
	grid := make([]uint8, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) > 0 {
				grid[y*cols+x] = 1
			}
		}
	}

	var marks []int
	for changed := true; changed; {
		changed = false
		for pass := 0; pass < 2; pass++ {
			marks = marks[:0]
			for y := 1; y < rows-1; y++ {
				for x := 1; x < cols-1; x++ {
					i := y*cols + x
					if grid[i] == 0 {
						continue
					}
					// Neighbors p2..p9 clockwise from north.
					n := [8]uint8{
						grid[i-cols], grid[i-cols+1], grid[i+1], grid[i+cols+1],
						grid[i+cols], grid[i+cols-1], grid[i-1], grid[i-cols-1],
					}

					b := 0
					for _, v := range n {
						b += int(v)
					}
					if b < 2 || b > 6 {
						continue
					}

					a := 0
					for k := 0; k < 8; k++ {
						if n[k] == 0 && n[(k+1)%8] == 1 {
							a++
						}
					}
					if a != 1 {
						continue
					}

					if pass == 0 {
						if n[0]*n[2]*n[4] != 0 || n[2]*n[4]*n[6] != 0 {
							continue
						}
					} else {
						if n[0]*n[2]*n[6] != 0 || n[0]*n[4]*n[6] != 0 {
							continue
						}
					}
					marks = append(marks, i)
				}
			}
			if len(marks) > 0 {
				changed = true
				for _, i := range marks {
					grid[i] = 0
				}
			}
		}
	}

	skeleton := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if grid[y*cols+x] != 0 {
				skeleton.SetUCharAt(y, x, 255)
			}
		}
	}
	return skeleton
}

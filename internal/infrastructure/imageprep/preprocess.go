// Package imageprep converts raw receipt photos into bilevel images
// that the text extraction engine can read reliably, and optionally
// rectifies a photo taken at an angle into a flat top-down view.
package imageprep

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Config holds tuning parameters for the preprocessor.
type Config struct {
	// Gaussian blur sigmas. The kernel is asymmetric: wider
	// horizontally than vertically suppresses scan noise without
	// smearing text lines together.
	BlurSigmaX float64
	BlurSigmaY float64

	// Adaptive threshold neighborhood size (odd) and constant
	// subtracted from the local mean.
	ThresholdBlock int
	ThresholdC     float64
}

// Preprocessor produces bilevel receipt images.
type Preprocessor struct {
	config Config
}

// NewPreprocessor creates a preprocessor. Zero-value config fields
// fall back to defaults tuned for supermarket receipts.
func NewPreprocessor(config Config) *Preprocessor {
	if config.BlurSigmaX <= 0 {
		config.BlurSigmaX = 1.4
	}
	if config.BlurSigmaY <= 0 {
		config.BlurSigmaY = 1.0
	}
	if config.ThresholdBlock <= 0 {
		config.ThresholdBlock = 11
	}
	if config.ThresholdBlock%2 == 0 {
		config.ThresholdBlock++
	}
	if config.ThresholdC == 0 {
		config.ThresholdC = 5
	}
	return &Preprocessor{config: config}
}

// Preprocess converts a raster photo into a bilevel image of the same
// pixel dimensions: grayscale, asymmetric Gaussian blur, then adaptive
// thresholding robust to uneven lighting.
func (p *Preprocessor) Preprocess(img image.Image) image.Image {
	gray := toGray(imaging.Grayscale(img))
	blurred := gaussianBlur(gray, p.config.BlurSigmaX, p.config.BlurSigmaY)
	return adaptiveThreshold(blurred, p.config.ThresholdBlock, p.config.ThresholdC)
}

// toGray flattens any image into an 8-bit grayscale buffer.
func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

// gaussianKernel builds a normalized 1D Gaussian kernel for sigma.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// gaussianBlur applies a separable Gaussian blur with independent
// horizontal and vertical sigmas. Edges are clamped.
func gaussianBlur(src *image.Gray, sigmaX, sigmaY float64) *image.Gray {
	horizontal := convolve1D(src, gaussianKernel(sigmaX), true)
	return convolve1D(horizontal, gaussianKernel(sigmaY), false)
}

func convolve1D(src *image.Gray, kernel []float64, horizontal bool) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	radius := len(kernel) / 2
	w, h := bounds.Dx(), bounds.Dy()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0.0
			for k := -radius; k <= radius; k++ {
				sx, sy := x, y
				if horizontal {
					sx = clamp(x+k, 0, w-1)
				} else {
					sy = clamp(y+k, 0, h-1)
				}
				sum += kernel[k+radius] * float64(src.GrayAt(bounds.Min.X+sx, bounds.Min.Y+sy).Y)
			}
			dst.SetGray(bounds.Min.X+x, bounds.Min.Y+y, grayPixel(sum))
		}
	}
	return dst
}

// adaptiveThreshold binarizes against the mean of a block×block
// neighborhood minus c, computed via an integral image. Pixels above
// the local threshold become white (255), the rest black (0).
func adaptiveThreshold(src *image.Gray, block int, c float64) *image.Gray {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(bounds)
	radius := block / 2

	// integral[y][x] holds the sum over the rectangle [0,x) x [0,y).
	integral := make([][]float64, h+1)
	for y := range integral {
		integral[y] = make([]float64, w+1)
	}
	for y := 0; y < h; y++ {
		rowSum := 0.0
		for x := 0; x < w; x++ {
			rowSum += float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			integral[y+1][x+1] = integral[y][x+1] + rowSum
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0 := clamp(x-radius, 0, w-1)
			x1 := clamp(x+radius, 0, w-1)
			y0 := clamp(y-radius, 0, h-1)
			y1 := clamp(y+radius, 0, h-1)

			area := float64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[y1+1][x1+1] - integral[y0][x1+1] - integral[y1+1][x0] + integral[y0][x0]
			mean := sum / area

			v := float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			if v > mean-c {
				dst.SetGray(bounds.Min.X+x, bounds.Min.Y+y, grayPixel(255))
			} else {
				dst.SetGray(bounds.Min.X+x, bounds.Min.Y+y, grayPixel(0))
			}
		}
	}
	return dst
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

func grayPixel(v float64) color.Gray {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return color.Gray{Y: uint8(v + 0.5)}
}

package imageprep

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

type pointF struct {
	X, Y float64
}

// orderQuad arranges four corners as top-left, top-right,
// bottom-right, bottom-left. The two leftmost points form the left
// edge and the two rightmost the right edge; within each pair the
// upper point comes first. Each input point lands in exactly one slot.
func orderQuad(quad []pointF) [4]pointF {
	pts := make([]pointF, 4)
	copy(pts, quad)
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	tl, bl := pts[0], pts[1]
	if bl.Y < tl.Y {
		tl, bl = bl, tl
	}
	tr, br := pts[2], pts[3]
	if br.Y < tr.Y {
		tr, br = br, tr
	}
	return [4]pointF{tl, tr, br, bl}
}

// fourPointTransform warps the quadrilateral region of src into a flat
// top-down rectangle sized from the quad's longest edges.
func fourPointTransform(src image.Image, quad []pointF) image.Image {
	corners := orderQuad(quad)
	tl, tr, br, bl := corners[0], corners[1], corners[2], corners[3]

	width := int(math.Max(distF(br, bl), distF(tr, tl)))
	height := int(math.Max(distF(tr, br), distF(tl, bl)))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	// Homography from the flat destination rectangle back into the
	// source quad, so every output pixel is sampled directly.
	h := homography(
		[4]pointF{{0, 0}, {float64(width - 1), 0}, {float64(width - 1), float64(height - 1)}, {0, float64(height - 1)}},
		corners,
	)

	srcNRGBA := imaging.Clone(src)
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := h.apply(float64(x), float64(y))
			dst.SetNRGBA(x, y, bilinearSample(srcNRGBA, sx, sy))
		}
	}
	return dst
}

func distF(a, b pointF) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// homographyMatrix is a 3x3 projective transform with h33 fixed at 1.
type homographyMatrix [8]float64

func (h homographyMatrix) apply(x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + 1
	if w == 0 {
		return 0, 0
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

// homography solves the 8-unknown projective mapping taking each src
// corner to the corresponding dst corner.
func homography(src, dst [4]pointF) homographyMatrix {
	// Two equations per correspondence:
	//   X = (h0 x + h1 y + h2) / (h6 x + h7 y + 1)
	//   Y = (h3 x + h4 y + h5) / (h6 x + h7 y + 1)
	var m [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		X, Y := dst[i].X, dst[i].Y
		m[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * X, -y * X, X}
		m[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * Y, -y * Y, Y}
	}

	// Gaussian elimination with partial pivoting.
	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		m[col], m[pivot] = m[pivot], m[col]
		if m[col][col] == 0 {
			continue // degenerate quad
		}
		for row := 0; row < 8; row++ {
			if row == col {
				continue
			}
			factor := m[row][col] / m[col][col]
			for k := col; k < 9; k++ {
				m[row][k] -= factor * m[col][k]
			}
		}
	}

	var h homographyMatrix
	for i := 0; i < 8; i++ {
		if m[i][i] != 0 {
			h[i] = m[i][8] / m[i][i]
		}
	}
	return h
}

// bilinearSample reads src at a fractional position, clamping to the
// image bounds.
func bilinearSample(src *image.NRGBA, x, y float64) color.NRGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	x0 := clamp(int(math.Floor(x)), 0, w-1)
	y0 := clamp(int(math.Floor(y)), 0, h-1)
	x1 := clamp(x0+1, 0, w-1)
	y1 := clamp(y0+1, 0, h-1)
	fx := x - math.Floor(x)
	fy := y - math.Floor(y)

	blend := func(a, b uint8, t float64) float64 {
		return float64(a)*(1-t) + float64(b)*t
	}

	c00 := src.NRGBAAt(bounds.Min.X+x0, bounds.Min.Y+y0)
	c10 := src.NRGBAAt(bounds.Min.X+x1, bounds.Min.Y+y0)
	c01 := src.NRGBAAt(bounds.Min.X+x0, bounds.Min.Y+y1)
	c11 := src.NRGBAAt(bounds.Min.X+x1, bounds.Min.Y+y1)

	top := [4]float64{blend(c00.R, c10.R, fx), blend(c00.G, c10.G, fx), blend(c00.B, c10.B, fx), blend(c00.A, c10.A, fx)}
	bot := [4]float64{blend(c01.R, c11.R, fx), blend(c01.G, c11.G, fx), blend(c01.B, c11.B, fx), blend(c01.A, c11.A, fx)}

	return color.NRGBA{
		R: uint8(top[0]*(1-fy) + bot[0]*fy + 0.5),
		G: uint8(top[1]*(1-fy) + bot[1]*fy + 0.5),
		B: uint8(top[2]*(1-fy) + bot[2]*fy + 0.5),
		A: uint8(top[3]*(1-fy) + bot[3]*fy + 0.5),
	}
}

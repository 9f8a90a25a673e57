package imageprep

import (
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
)

const (
	// scanWidth is the working width for contour detection. The
	// original image is only touched by the final warp.
	scanWidth = 500

	// approxEpsilonFraction is the polygon approximation tolerance as
	// a fraction of the contour perimeter.
	approxEpsilonFraction = 0.02

	// edgeThreshold is the minimum Sobel gradient magnitude for a
	// pixel to count as an edge.
	edgeThreshold = 60
)

// ScanDocument rectifies a receipt photographed at an angle into a
// flat top-down rendering: downscale, edge map, external contour
// detection, pick the largest 4-vertex polygon, perspective warp.
// Returns ErrOutlineNotFound when no contour approximates to 4 vertices.
func (p *Preprocessor) ScanDocument(img image.Image) (image.Image, error) {
	origW := img.Bounds().Dx()
	resized := imaging.Resize(img, scanWidth, 0, imaging.Lanczos)
	ratio := float64(origW) / float64(scanWidth)

	gray := toGray(imaging.Grayscale(resized))
	blurred := gaussianBlur(gray, 1.0, 1.0)
	edges := sobelEdges(blurred, edgeThreshold)

	contours := findContours(edges)
	sort.SliceStable(contours, func(i, j int) bool {
		return contourArea(contours[i]) > contourArea(contours[j])
	})

	for _, contour := range contours {
		epsilon := approxEpsilonFraction * contourPerimeter(contour)
		approx := approxPolygon(contour, epsilon)
		if len(approx) == 4 {
			quad := make([]pointF, 4)
			for i, pt := range approx {
				quad[i] = pointF{float64(pt.X) * ratio, float64(pt.Y) * ratio}
			}
			return fourPointTransform(img, quad), nil
		}
	}

	return nil, domain.ErrOutlineNotFound
}

// sobelEdges produces a binary edge map from gradient magnitude.
func sobelEdges(src *image.Gray, threshold float64) [][]bool {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	edges := make([][]bool, h)
	for y := range edges {
		edges[y] = make([]bool, w)
	}

	at := func(x, y int) float64 {
		return float64(src.GrayAt(bounds.Min.X+clamp(x, 0, w-1), bounds.Min.Y+clamp(y, 0, h-1)).Y)
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) +
				at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			if math.Hypot(gx, gy) >= threshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// mooreNeighbors lists the 8-neighborhood in clockwise order starting west.
var mooreNeighbors = [8]image.Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// findContours extracts the external boundary of each connected edge
// component via Moore-neighbor tracing, in scan order.
func findContours(edges [][]bool) [][]image.Point {
	h := len(edges)
	if h == 0 {
		return nil
	}
	w := len(edges[0])

	labeled := make([][]bool, h)
	for y := range labeled {
		labeled[y] = make([]bool, w)
	}

	inBounds := func(pt image.Point) bool {
		return pt.X >= 0 && pt.X < w && pt.Y >= 0 && pt.Y < h
	}
	isEdge := func(pt image.Point) bool {
		return inBounds(pt) && edges[pt.Y][pt.X]
	}

	var contours [][]image.Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !edges[y][x] || labeled[y][x] {
				continue
			}

			start := image.Point{X: x, Y: y}
			contour := traceBoundary(start, isEdge)
			for _, pt := range contour {
				labeled[pt.Y][pt.X] = true
			}
			// Flood the rest of the component so it is not traced again.
			floodMark(start, labeled, edges)
			if len(contour) >= 4 {
				contours = append(contours, contour)
			}
		}
	}
	return contours
}

// traceBoundary walks the outer boundary clockwise from the start
// pixel, which is the topmost-leftmost pixel of its component.
func traceBoundary(start image.Point, isEdge func(image.Point) bool) []image.Point {
	contour := []image.Point{start}
	current := start
	// The scan reached start from the west, so begin checking there.
	backtrack := 0
	maxSteps := 1 << 20

	for steps := 0; steps < maxSteps; steps++ {
		found := false
		dir := backtrack
		for i := 0; i < 8; i++ {
			dir = (backtrack + 1 + i) % 8
			next := current.Add(mooreNeighbors[dir])
			if isEdge(next) {
				// Re-enter pointing back at the pixel we came from.
				backtrack = (dir + 4) % 8
				current = next
				found = true
				break
			}
		}
		if !found {
			break // isolated pixel
		}
		if current == start {
			break
		}
		contour = append(contour, current)
	}
	return contour
}

// floodMark marks every pixel of the component containing start.
func floodMark(start image.Point, labeled [][]bool, edges [][]bool) {
	h, w := len(edges), len(edges[0])
	stack := []image.Point{start}
	labeled[start.Y][start.X] = true
	for len(stack) > 0 {
		pt := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range mooreNeighbors {
			n := pt.Add(d)
			if n.X >= 0 && n.X < w && n.Y >= 0 && n.Y < h && edges[n.Y][n.X] && !labeled[n.Y][n.X] {
				labeled[n.Y][n.X] = true
				stack = append(stack, n)
			}
		}
	}
}

// contourArea computes the enclosed area via the shoelace formula.
func contourArea(contour []image.Point) float64 {
	area := 0.0
	n := len(contour)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += float64(contour[i].X*contour[j].Y - contour[j].X*contour[i].Y)
	}
	return math.Abs(area) / 2
}

// contourPerimeter computes the closed arc length of the contour.
func contourPerimeter(contour []image.Point) float64 {
	perimeter := 0.0
	n := len(contour)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		perimeter += distance(contour[i], contour[j])
	}
	return perimeter
}

func distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// approxPolygon simplifies a closed contour with the Douglas-Peucker
// algorithm at the given tolerance. The curve is split at the two
// mutually most distant points and each open chain simplified.
func approxPolygon(contour []image.Point, epsilon float64) []image.Point {
	if len(contour) < 3 {
		return contour
	}

	// Find the point farthest from the first as the split point.
	far := 0
	maxDist := -1.0
	for i, pt := range contour {
		if d := distance(contour[0], pt); d > maxDist {
			maxDist = d
			far = i
		}
	}
	if far == 0 {
		return contour[:1]
	}

	first := douglasPeucker(contour[:far+1], epsilon)
	second := douglasPeucker(append(contour[far:], contour[0]), epsilon)

	// Chains share their endpoints; drop the duplicates when joining.
	approx := append([]image.Point{}, first...)
	if len(second) > 2 {
		approx = append(approx, second[1:len(second)-1]...)
	}
	return approx
}

// douglasPeucker simplifies an open polyline.
func douglasPeucker(points []image.Point, epsilon float64) []image.Point {
	if len(points) < 3 {
		return points
	}

	maxDist := 0.0
	index := 0
	last := len(points) - 1
	for i := 1; i < last; i++ {
		if d := perpendicularDistance(points[i], points[0], points[last]); d > maxDist {
			maxDist = d
			index = i
		}
	}

	if maxDist <= epsilon {
		return []image.Point{points[0], points[last]}
	}

	left := douglasPeucker(points[:index+1], epsilon)
	right := douglasPeucker(points[index:], epsilon)
	return append(left[:len(left)-1], right...)
}

// perpendicularDistance is the distance from pt to the line a-b.
func perpendicularDistance(pt, a, b image.Point) float64 {
	if a == b {
		return distance(pt, a)
	}
	num := math.Abs(float64((b.Y-a.Y)*pt.X - (b.X-a.X)*pt.Y + b.X*a.Y - b.Y*a.X))
	return num / distance(a, b)
}

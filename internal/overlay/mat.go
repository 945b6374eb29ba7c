package overlay

import (
	"image"
	"image/color"
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MatSurface is a Surface backed by a 4-channel GoCV Mat. Cleared pixels are
// fully transparent so the canvas can be layered over the video feed.
type MatSurface struct {
	mat    gocv.Mat
	width  int
	height int
	mu     sync.Mutex
}

// NewMatSurface allocates a transparent canvas of the given size.
func NewMatSurface(width, height int) *MatSurface {
	return &MatSurface{
		mat:    gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC4),
		width:  width,
		height: height,
	}
}

// Size returns the canvas dimensions in pixels.
func (s *MatSurface) Size() (int, int) {
	return s.width, s.height
}

// Clear resets every pixel to transparent black.
func (s *MatSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

// FillCircle draws a filled circle centred on (x, y).
func (s *MatSurface) FillCircle(x, y, radius float64, c color.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gocv.Circle(&s.mat, toPoint(x, y), int(math.Round(radius)), c, -1)
}

// Line strokes a segment between two points.
func (s *MatSurface) Line(x1, y1, x2, y2, width float64, c color.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thickness := int(math.Round(width))
	if thickness < 1 {
		thickness = 1
	}
	gocv.Line(&s.mat, toPoint(x1, y1), toPoint(x2, y2), c, thickness)
}

// Snapshot copies the current canvas into an image.
func (s *MatSurface) Snapshot() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mat.ToImage()
}

// At returns the colour of a single pixel, mostly useful in tests.
func (s *MatSurface) At(x, y int) color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.mat.GetVecbAt(y, x)
	// Mat channels are stored as BGRA
	return color.RGBA{R: v[2], G: v[1], B: v[0], A: v[3]}
}

// Close releases the underlying Mat.
func (s *MatSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mat.Close()
}

func toPoint(x, y float64) image.Point {
	return image.Point{X: int(math.Round(x)), Y: int(math.Round(y))}
}

// Package overlay draws hand landmarks and skeletal connections onto a 2D surface.
package overlay

import (
	"image/color"

	"github.com/ayusman/handtracker/internal/detector"
)

// Drawing style
const (
	LandmarkRadius  = 5
	ConnectionWidth = 3
)

var (
	// WristColor fills the circle drawn at landmark 0.
	WristColor = color.RGBA{R: 255, G: 0, B: 0, A: 178}
	// LandmarkColor fills every other landmark circle.
	LandmarkColor = color.RGBA{R: 0, G: 255, B: 0, A: 178}
	// ConnectionColor strokes the skeleton segments.
	ConnectionColor = color.RGBA{R: 0, G: 255, B: 0, A: 178}
)

// Surface is a 2D raster canvas exposing the primitives the overlay needs.
// Coordinates are in pixels with the origin at the top left.
type Surface interface {
	Size() (width, height int)
	Clear()
	FillCircle(x, y, radius float64, c color.RGBA)
	Line(x1, y1, x2, y2, width float64, c color.RGBA)
}

// DrawHands renders every hand onto s. A circle is drawn at each present
// landmark, then a segment for each connection whose endpoints both exist.
// Nothing is drawn for an empty slice.
func DrawHands(s Surface, hands []detector.Hand) {
	if len(hands) == 0 {
		return
	}

	width, height := s.Size()
	w, h := float64(width), float64(height)

	for i := range hands {
		hand := &hands[i]

		for idx := range hand.Points {
			lm, ok := hand.At(idx)
			if !ok {
				continue
			}
			fill := LandmarkColor
			if idx == detector.Wrist {
				fill = WristColor
			}
			s.FillCircle(lm.X*w, lm.Y*h, LandmarkRadius, fill)
		}

		for _, c := range detector.Connections {
			start, ok := hand.At(c.Start)
			if !ok {
				continue
			}
			end, ok := hand.At(c.End)
			if !ok {
				continue
			}
			s.Line(start.X*w, start.Y*h, end.X*w, end.Y*h, ConnectionWidth, ConnectionColor)
		}
	}
}

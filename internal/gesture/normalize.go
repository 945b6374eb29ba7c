// Package gesture compares recorded hand motions against a template.
package gesture

import (
	"math"

	"github.com/ayusman/handtracker/internal/detector"
)

// Dims is the length of a flattened hand: three coordinates per landmark.
const Dims = detector.NumLandmarks * 3

// Vector flattens a hand into wrist-relative coordinates divided by the
// wrist to middle MCP distance, so position and hand size drop out.
// A hand without a wrist yields all zeros, as do missing points.
func Vector(h *detector.Hand) []float64 {
	v := make([]float64, Dims)

	wrist, ok := h.At(detector.Wrist)
	if !ok {
		return v
	}

	scale := 1.0
	if mcp, ok := h.At(detector.MiddleMCP); ok {
		if d := distance3(mcp, wrist); d > 0 {
			scale = d
		}
	}

	for i := 0; i < detector.NumLandmarks; i++ {
		p, ok := h.At(i)
		if !ok {
			continue
		}
		v[i*3] = (p.X - wrist.X) / scale
		v[i*3+1] = (p.Y - wrist.Y) / scale
		v[i*3+2] = (p.Z - wrist.Z) / scale
	}
	return v
}

// Sequence turns a recording into one vector per frame. Only the first hand
// of a frame is used; a frame without hands becomes a zero vector.
func Sequence(frames [][]detector.Hand) [][]float64 {
	seq := make([][]float64, len(frames))
	for i, hands := range frames {
		if len(hands) == 0 {
			seq[i] = make([]float64, Dims)
			continue
		}
		seq[i] = Vector(&hands[0])
	}
	return seq
}

func distance3(a, b detector.Landmark) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

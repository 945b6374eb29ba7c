// Package detector provides hand detection interfaces and types for landmark tracking.
package detector

import "time"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Connection is a skeletal edge between two landmark indices.
type Connection struct {
	Start int
	End   int
}

// Connections is the fixed hand skeleton drawn over each detected hand.
// The wrist to index MCP edge is listed in both the index chain and the palm.
var Connections = []Connection{
	// Thumb
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	// Index finger
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	// Middle finger
	{Wrist, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	// Ring finger
	{Wrist, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	// Pinky
	{Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
	// Palm
	{Wrist, IndexMCP}, {IndexMCP, MiddleMCP}, {MiddleMCP, RingMCP}, {RingMCP, PinkyMCP},
}

// Landmark is a keypoint normalized to the frame: X and Y are in [0,1],
// Z is the relative depth reported by the model.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Hand holds the landmarks of one detected hand, indexed by the constants above.
// A nil entry, or a slice shorter than NumLandmarks, marks a missing point.
type Hand struct {
	Points     []*Landmark `json:"points"`
	Handedness string      `json:"handedness"` // "Left" or "Right"
	Score      float64     `json:"score"`
}

// At returns the landmark at index i and whether it is present.
func (h *Hand) At(i int) (Landmark, bool) {
	if h == nil || i < 0 || i >= len(h.Points) || h.Points[i] == nil {
		return Landmark{}, false
	}
	return *h.Points[i], true
}

// Complete reports whether every one of the NumLandmarks points is present.
func (h *Hand) Complete() bool {
	if h == nil || len(h.Points) < NumLandmarks {
		return false
	}
	for i := 0; i < NumLandmarks; i++ {
		if h.Points[i] == nil {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the hand that shares no memory with h.
func (h Hand) Clone() Hand {
	c := Hand{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	if h.Points != nil {
		c.Points = make([]*Landmark, len(h.Points))
		for i, p := range h.Points {
			if p != nil {
				lm := *p
				c.Points[i] = &lm
			}
		}
	}
	return c
}

// Result is the output of one detection pass over a frame.
type Result struct {
	Hands     []Hand    `json:"hands"`
	Timestamp time.Time `json:"-"`
}

// NewHand builds a Hand from a full set of landmarks.
func NewHand(handedness string, score float64, points [NumLandmarks]Landmark) Hand {
	h := Hand{
		Points:     make([]*Landmark, NumLandmarks),
		Handedness: handedness,
		Score:      score,
	}
	for i := range points {
		p := points[i]
		h.Points[i] = &p
	}
	return h
}

package detector

import (
	"context"
	"errors"

	"gocv.io/x/gocv"
)

// ErrUnavailable is returned by a Factory when the detection engine is not
// installed or cannot be located in the current environment.
var ErrUnavailable = errors.New("hand detector unavailable")

// Detector defines the interface for hand detection implementations.
//
// Detection is asynchronous: Send hands a frame to the engine and results are
// delivered to the callback registered with OnResults, possibly before Send
// returns and possibly on another goroutine.
type Detector interface {
	// SetOptions configures the engine. It must be called before Send.
	SetOptions(opts Options) error

	// OnResults registers the function that receives each detection result.
	OnResults(fn func(*Result))

	// Send submits a frame for detection. It returns once the engine has
	// accepted the frame. The frame may be released after Send returns.
	Send(ctx context.Context, frame *gocv.Mat) error

	// Close releases any resources held by the detector.
	Close() error
}

// Factory constructs a Detector. It returns an error wrapping ErrUnavailable
// when the engine is missing from the environment.
type Factory func() (Detector, error)

// Options holds configuration options for hand detection.
type Options struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// ModelComplexity selects the landmark model tier, 0 (lite) or 1 (full).
	ModelComplexity int

	// MinDetectionConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinDetectionConfidence float64

	// MinTrackingConfidence is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConfidence float64
}

// DefaultOptions returns the fixed options used by the tracker.
func DefaultOptions() Options {
	return Options{
		MaxHands:               2,
		ModelComplexity:        1,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
	}
}

// Validate checks that the options are within the ranges the engine accepts.
func (o Options) Validate() error {
	if o.MaxHands < 1 {
		return errors.New("max hands must be at least 1")
	}
	if o.ModelComplexity < 0 || o.ModelComplexity > 1 {
		return errors.New("model complexity must be 0 or 1")
	}
	if o.MinDetectionConfidence < 0 || o.MinDetectionConfidence > 1 {
		return errors.New("min detection confidence must be within [0, 1]")
	}
	if o.MinTrackingConfidence < 0 || o.MinTrackingConfidence > 1 {
		return errors.New("min tracking confidence must be within [0, 1]")
	}
	return nil
}

package detector

import (
	"context"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results and delivery timing.
type MockDetector struct {
	mu         sync.Mutex
	hands      []Hand
	err        error
	optionsErr error
	options    *Options
	onResults  func(*Result)
	async      bool
	manual     bool
	block      chan struct{}
	sends      int
	closed     bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// MockFactory returns a Factory that always yields d.
func MockFactory(d *MockDetector) Factory {
	return func() (Detector, error) {
		return d, nil
	}
}

// SetHands sets the hands that will be delivered for every sent frame.
func (m *MockDetector) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Send.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetOptionsError sets the error that will be returned by SetOptions.
func (m *MockDetector) SetOptionsError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.optionsErr = err
}

// SetAsync makes Send return before the result is delivered from another goroutine.
func (m *MockDetector) SetAsync(async bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.async = async
}

// SetManual stops Send from delivering results. Tests deliver them with
// Deliver instead, in any order and at any time.
func (m *MockDetector) SetManual(manual bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manual = manual
}

// SetBlock makes Send wait until ch is closed, ignoring its context.
func (m *MockDetector) SetBlock(ch chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = ch
}

// SetOptions records the options or returns the configured error.
func (m *MockDetector) SetOptions(opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.optionsErr != nil {
		return m.optionsErr
	}
	m.options = &opts
	return nil
}

// Options returns the last options passed to SetOptions, or nil.
func (m *MockDetector) Options() *Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.options
}

// OnResults registers the result callback.
func (m *MockDetector) OnResults(fn func(*Result)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onResults = fn
}

// Send delivers the pre-configured hands or returns the configured error.
func (m *MockDetector) Send(ctx context.Context, frame *gocv.Mat) error {
	m.mu.Lock()
	if m.err != nil {
		err := m.err
		m.mu.Unlock()
		return err
	}
	m.sends++
	result := &Result{Hands: m.hands, Timestamp: time.Now()}
	fn := m.onResults
	async := m.async
	manual := m.manual
	block := m.block
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if fn == nil || manual {
		return nil
	}
	if async {
		go fn(result)
		return nil
	}
	fn(result)
	return nil
}

// Deliver pushes a result to the registered callback as if a frame had been processed.
func (m *MockDetector) Deliver(result *Result) {
	m.mu.Lock()
	fn := m.onResults
	m.mu.Unlock()
	if fn != nil {
		fn(result)
	}
}

// Sends returns the number of frames accepted by Send.
func (m *MockDetector) Sends() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sends
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the mock as closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// ThumbsUpHand returns a preset Hand representing a thumbs up pose.
// The thumb is extended upward while other fingers are curled.
func ThumbsUpHand() Hand {
	var p [NumLandmarks]Landmark

	p[Wrist] = Landmark{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended upward (pointing up, Y decreases going up)
	p[ThumbCMC] = Landmark{X: 0.55, Y: 0.75, Z: 0.0}
	p[ThumbMCP] = Landmark{X: 0.58, Y: 0.65, Z: 0.0}
	p[ThumbIP] = Landmark{X: 0.58, Y: 0.50, Z: 0.0}
	p[ThumbTip] = Landmark{X: 0.58, Y: 0.35, Z: 0.0}

	p[IndexMCP] = Landmark{X: 0.55, Y: 0.70, Z: -0.02}
	p[IndexPIP] = Landmark{X: 0.55, Y: 0.68, Z: -0.05}
	p[IndexDIP] = Landmark{X: 0.52, Y: 0.70, Z: -0.04}
	p[IndexTip] = Landmark{X: 0.50, Y: 0.72, Z: -0.02}

	p[MiddleMCP] = Landmark{X: 0.50, Y: 0.68, Z: -0.02}
	p[MiddlePIP] = Landmark{X: 0.50, Y: 0.66, Z: -0.05}
	p[MiddleDIP] = Landmark{X: 0.47, Y: 0.68, Z: -0.04}
	p[MiddleTip] = Landmark{X: 0.45, Y: 0.70, Z: -0.02}

	p[RingMCP] = Landmark{X: 0.45, Y: 0.70, Z: -0.02}
	p[RingPIP] = Landmark{X: 0.45, Y: 0.68, Z: -0.05}
	p[RingDIP] = Landmark{X: 0.42, Y: 0.70, Z: -0.04}
	p[RingTip] = Landmark{X: 0.40, Y: 0.72, Z: -0.02}

	p[PinkyMCP] = Landmark{X: 0.40, Y: 0.72, Z: -0.02}
	p[PinkyPIP] = Landmark{X: 0.40, Y: 0.70, Z: -0.05}
	p[PinkyDIP] = Landmark{X: 0.37, Y: 0.72, Z: -0.04}
	p[PinkyTip] = Landmark{X: 0.35, Y: 0.74, Z: -0.02}

	return NewHand("Right", 0.95, p)
}

// OpenPalmHand returns a preset Hand representing an open palm.
// All fingers are extended outward.
func OpenPalmHand() Hand {
	var p [NumLandmarks]Landmark

	p[Wrist] = Landmark{X: 0.5, Y: 0.8, Z: 0.0}

	p[ThumbCMC] = Landmark{X: 0.55, Y: 0.75, Z: 0.02}
	p[ThumbMCP] = Landmark{X: 0.62, Y: 0.70, Z: 0.03}
	p[ThumbIP] = Landmark{X: 0.68, Y: 0.65, Z: 0.03}
	p[ThumbTip] = Landmark{X: 0.73, Y: 0.60, Z: 0.03}

	p[IndexMCP] = Landmark{X: 0.55, Y: 0.68, Z: 0.0}
	p[IndexPIP] = Landmark{X: 0.57, Y: 0.55, Z: 0.0}
	p[IndexDIP] = Landmark{X: 0.58, Y: 0.45, Z: 0.0}
	p[IndexTip] = Landmark{X: 0.58, Y: 0.35, Z: 0.0}

	p[MiddleMCP] = Landmark{X: 0.50, Y: 0.66, Z: 0.0}
	p[MiddlePIP] = Landmark{X: 0.50, Y: 0.52, Z: 0.0}
	p[MiddleDIP] = Landmark{X: 0.50, Y: 0.40, Z: 0.0}
	p[MiddleTip] = Landmark{X: 0.50, Y: 0.28, Z: 0.0}

	p[RingMCP] = Landmark{X: 0.45, Y: 0.68, Z: 0.0}
	p[RingPIP] = Landmark{X: 0.43, Y: 0.55, Z: 0.0}
	p[RingDIP] = Landmark{X: 0.42, Y: 0.45, Z: 0.0}
	p[RingTip] = Landmark{X: 0.42, Y: 0.35, Z: 0.0}

	p[PinkyMCP] = Landmark{X: 0.40, Y: 0.70, Z: 0.0}
	p[PinkyPIP] = Landmark{X: 0.37, Y: 0.60, Z: 0.0}
	p[PinkyDIP] = Landmark{X: 0.35, Y: 0.50, Z: 0.0}
	p[PinkyTip] = Landmark{X: 0.34, Y: 0.42, Z: 0.0}

	return NewHand("Right", 0.95, p)
}

// Package tracker coordinates the camera, the hand detector and the overlay
// surface: frames go to the detector, and each result is cached, drawn and
// handed to registered observers.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/ayusman/handtracker/internal/capture"
	"github.com/ayusman/handtracker/internal/detector"
	"github.com/ayusman/handtracker/internal/overlay"
)

var (
	// ErrDetectorUnavailable is returned when no detection engine can be found.
	ErrDetectorUnavailable = errors.New("hand detector not available")
	// ErrInitialize is returned when the detector fails to build or configure.
	ErrInitialize = errors.New("initialize hand detector")
	// ErrFrameInFlight is returned when a frame arrives while the previous one
	// is still waiting for its result.
	ErrFrameInFlight = errors.New("frame already in flight")
)

// State is the lifecycle stage of a Tracker.
type State int

const (
	Uninitialized State = iota
	Ready
	Tracking
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Tracking:
		return "tracking"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ResultFunc observes detection results.
type ResultFunc func(*detector.Result)

// Option configures a Tracker.
type Option func(*Tracker)

// WithFPS sets the capture rate of the frame loop.
func WithFPS(fps int) Option {
	return func(t *Tracker) {
		t.fps = fps
	}
}

// WithFrameBuffer keeps a copy of every frame submitted for detection in fb.
func WithFrameBuffer(fb *capture.FrameBuffer) Option {
	return func(t *Tracker) {
		t.frames = fb
	}
}

// WithOptions overrides the detector options.
func WithOptions(opts detector.Options) Option {
	return func(t *Tracker) {
		t.options = opts
	}
}

// Tracker owns the detector and frame source handles, caches the latest
// hands and renders them onto the surface.
type Tracker struct {
	camera  capture.Camera
	surface overlay.Surface
	factory detector.Factory
	options detector.Options
	fps     int
	frames  *capture.FrameBuffer

	// lifecycle serializes Initialize, Start, Stop and Close.
	lifecycle sync.Mutex

	mu        sync.RWMutex
	detector  detector.Detector
	source    *capture.Source
	state     State
	hands     []detector.Hand
	observers []ResultFunc

	// pending is closed by the result answering the frame in flight. late
	// counts requests abandoned by Stop whose results have not arrived; the
	// detector answers in order, so those results come first.
	pending chan struct{}
	late    int

	inFlight atomic.Bool
}

// New creates a Tracker. The detector is not built until Initialize or Start.
func New(camera capture.Camera, surface overlay.Surface, factory detector.Factory, opts ...Option) *Tracker {
	t := &Tracker{
		camera:  camera,
		surface: surface,
		factory: factory,
		options: detector.DefaultOptions(),
		fps:     capture.DefaultFPS,
		state:   Uninitialized,
		hands:   []detector.Hand{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Initialize builds and configures the detector and registers the result
// handler. Calling it again once it has succeeded does nothing.
func (t *Tracker) Initialize() error {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()
	return t.initialize()
}

func (t *Tracker) initialize() (err error) {
	t.mu.RLock()
	initialized := t.detector != nil
	t.mu.RUnlock()
	if initialized {
		return nil
	}

	if t.factory == nil {
		log.Printf("tracker: %v", ErrDetectorUnavailable)
		return ErrDetectorUnavailable
	}

	// A panicking factory is reported as an initialization failure.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInitialize, r)
			log.Printf("tracker: %v", err)
		}
	}()

	d, err := t.factory()
	if err != nil {
		if errors.Is(err, detector.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", ErrDetectorUnavailable, err)
		} else {
			err = fmt.Errorf("%w: %w", ErrInitialize, err)
		}
		log.Printf("tracker: %v", err)
		return err
	}
	if d == nil {
		log.Printf("tracker: %v", ErrDetectorUnavailable)
		return ErrDetectorUnavailable
	}

	if err := d.SetOptions(t.options); err != nil {
		d.Close()
		err = fmt.Errorf("%w: set options: %w", ErrInitialize, err)
		log.Printf("tracker: %v", err)
		return err
	}

	d.OnResults(t.handleResults)

	t.mu.Lock()
	t.detector = d
	t.state = Ready
	t.mu.Unlock()

	log.Println("tracker: hand detector initialized")
	return nil
}

// Start begins tracking, initializing the detector first if needed.
// Starting a tracker that is already tracking does nothing.
func (t *Tracker) Start(ctx context.Context) error {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	if err := t.initialize(); err != nil {
		return err
	}

	t.mu.RLock()
	running := t.source != nil
	t.mu.RUnlock()
	if running {
		return nil
	}

	src := capture.NewSource(t.camera, t.fps, t.submitFrame)
	if err := src.Start(ctx); err != nil {
		err = fmt.Errorf("start frame source: %w", err)
		log.Printf("tracker: %v", err)
		return err
	}

	t.mu.Lock()
	t.source = src
	t.state = Tracking
	t.mu.Unlock()

	log.Println("tracker: tracking started")
	return nil
}

// Stop halts frame submission and returns the tracker to Ready. It does not
// wait for a detector request already in progress; that request finishes on
// its own and its result is still accepted. Stopping a tracker that is not
// tracking does nothing.
func (t *Tracker) Stop() {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()
	t.stop()
}

func (t *Tracker) stop() {
	t.mu.Lock()
	src := t.source
	if src == nil {
		t.mu.Unlock()
		return
	}
	t.source = nil
	t.state = Ready
	t.mu.Unlock()

	// The frame loop takes t.mu in handleResults, so stop it outside the lock.
	if err := src.Stop(); err != nil {
		log.Printf("tracker: error stopping frame source: %v", err)
	}
	log.Println("tracker: tracking stopped")
}

// Close stops tracking and releases the detector. The tracker returns to
// Uninitialized and may be started again.
func (t *Tracker) Close() error {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	t.stop()

	t.mu.Lock()
	d := t.detector
	t.detector = nil
	t.state = Uninitialized
	t.pending = nil
	t.late = 0
	t.mu.Unlock()

	if d == nil {
		return nil
	}
	return d.Close()
}

// submitFrame is the frame loop callback. Frames that arrive while a request
// is outstanding are dropped.
func (t *Tracker) submitFrame(ctx context.Context, frame *gocv.Mat) error {
	if err := t.processFrame(ctx, frame); err != nil && !errors.Is(err, ErrFrameInFlight) {
		return err
	}
	return nil
}

// processFrame sends one frame and waits for its result. Only one detector
// request may be outstanding at a time, including requests abandoned by Stop.
func (t *Tracker) processFrame(ctx context.Context, frame *gocv.Mat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.frames != nil {
		t.frames.Store(frame)
	}

	if !t.inFlight.CompareAndSwap(false, true) {
		return ErrFrameInFlight
	}
	defer t.inFlight.Store(false)

	t.mu.Lock()
	d := t.detector
	if d == nil {
		t.mu.Unlock()
		return ErrDetectorUnavailable
	}
	if t.late > 0 {
		t.mu.Unlock()
		return ErrFrameInFlight
	}
	answered := make(chan struct{})
	t.pending = answered
	t.mu.Unlock()

	if err := d.Send(ctx, frame); err != nil {
		t.abandon(answered, false)
		return fmt.Errorf("send frame: %w", err)
	}

	select {
	case <-answered:
		return nil
	case <-ctx.Done():
		t.abandon(answered, true)
		return ctx.Err()
	}
}

// abandon forgets an unanswered request. When a result is still expected it
// is counted as late so it cannot answer a later frame.
func (t *Tracker) abandon(answered chan struct{}, expectResult bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != answered {
		return
	}
	t.pending = nil
	if expectResult {
		t.late++
	}
}

// handleResults is the detector callback. It repaints the surface, replaces
// the cached hands and notifies observers in registration order. The frame
// in flight is released once the observers have run.
func (t *Tracker) handleResults(result *detector.Result) {
	var hands []detector.Hand
	if result != nil {
		hands = result.Hands
	}
	if hands == nil {
		hands = []detector.Hand{}
	}

	t.mu.Lock()
	t.surface.Clear()
	t.hands = hands
	if len(hands) > 0 {
		overlay.DrawHands(t.surface, hands)
	}
	observers := make([]ResultFunc, len(t.observers))
	copy(observers, t.observers)

	var answered chan struct{}
	if t.late > 0 {
		t.late--
	} else {
		answered = t.pending
		t.pending = nil
	}
	t.mu.Unlock()

	for i, fn := range observers {
		t.notify(i, fn, result)
	}

	if answered != nil {
		close(answered)
	}
}

// notify runs one observer, recovering a panic so later observers still run.
func (t *Tracker) notify(i int, fn ResultFunc, result *detector.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("tracker: observer %d panicked: %v", i, r)
		}
	}()
	fn(result)
}

// OnResults registers an observer. A nil function is ignored.
// Observers run on the detector callback goroutine and must not call Stop or
// Close from there.
func (t *Tracker) OnResults(fn ResultFunc) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, fn)
}

// HandsDetected reports whether the latest result contained any hands.
func (t *Tracker) HandsDetected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.hands) > 0
}

// Landmarks returns a copy of the hands from the latest result.
func (t *Tracker) Landmarks() []detector.Hand {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]detector.Hand, len(t.hands))
	for i, h := range t.hands {
		out[i] = h.Clone()
	}
	return out
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// IsTracking reports whether frames are being submitted.
func (t *Tracker) IsTracking() bool {
	return t.State() == Tracking
}

// Package app wires the camera, hand detector, overlay surface and settings
// store into a running handtracker.
package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/ayusman/handtracker/internal/capture"
	"github.com/ayusman/handtracker/internal/detector"
	"github.com/ayusman/handtracker/internal/overlay"
	"github.com/ayusman/handtracker/internal/store"
	"github.com/ayusman/handtracker/internal/tracker"
)

// Config holds configuration options for the application.
type Config struct {
	Store    *store.Store
	CameraID int
	FPS      int
	// Width and Height request a capture size. Zero keeps the camera default.
	Width  int
	Height int
	// Mirror is the overlay mirror preference used until one is stored.
	Mirror bool

	// MediaPipeScript and Python locate the detection subprocess. Empty
	// values are searched for in the usual places.
	MediaPipeScript string
	Python          string

	// Camera and Detector override the hardware camera and the MediaPipe
	// detector.
	Camera   capture.Camera
	Detector detector.Factory
}

// App is the main application that owns the tracker and its collaborators.
type App struct {
	config  Config
	camera  capture.Camera
	surface *overlay.MatSurface
	frames  *capture.FrameBuffer
	tracker *tracker.Tracker

	mu       sync.Mutex
	onToggle []func(on bool)
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	camera := config.Camera
	if camera == nil {
		camera = capture.NewCamera(config.CameraID,
			capture.WithResolution(config.Width, config.Height),
			capture.WithCameraFPS(config.FPS))
	}

	factory := config.Detector
	if factory == nil {
		factory = detector.MediaPipeFactory(config.MediaPipeScript, config.Python)
	}

	width, height := camera.Resolution()
	surface := overlay.NewMatSurface(width, height)
	frames := capture.NewFrameBuffer()

	a := &App{
		config:  config,
		camera:  camera,
		surface: surface,
		frames:  frames,
		tracker: tracker.New(camera, surface, factory,
			tracker.WithFPS(config.FPS),
			tracker.WithFrameBuffer(frames)),
	}
	return a
}

// Tracker returns the hand tracker.
func (a *App) Tracker() *tracker.Tracker {
	return a.tracker
}

// Overlay returns the surface hands are drawn on.
func (a *App) Overlay() *overlay.MatSurface {
	return a.surface
}

// Video returns the latest captured camera frame.
func (a *App) Video() *capture.FrameBuffer {
	return a.frames
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// SetTracking starts or stops tracking and records the choice so it can be
// resumed on the next launch. ctx bounds the frame loop, not the call.
func (a *App) SetTracking(ctx context.Context, on bool) error {
	if on {
		if err := a.tracker.Start(ctx); err != nil {
			return err
		}
	} else {
		a.tracker.Stop()
	}

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.KeyAutostart, on); err != nil {
			log.Printf("app: failed to save tracking preference: %v", err)
		}
	}
	a.notifyTracking(on)
	return nil
}

// OnTrackingChange registers fn to be called after tracking is switched on or
// off, whichever caller switched it.
func (a *App) OnTrackingChange(fn func(on bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onToggle = append(a.onToggle, fn)
}

func (a *App) notifyTracking(on bool) {
	a.mu.Lock()
	fns := append(([]func(bool))(nil), a.onToggle...)
	a.mu.Unlock()

	for _, fn := range fns {
		fn(on)
	}
}

// Resume starts tracking if it was on when the application last stopped.
func (a *App) Resume(ctx context.Context) error {
	if !a.Autostart() {
		return nil
	}
	log.Println("app: resuming tracking")
	if err := a.tracker.Start(ctx); err != nil {
		return err
	}
	a.notifyTracking(true)
	return nil
}

// Autostart reports whether tracking was left on.
func (a *App) Autostart() bool {
	if a.config.Store == nil {
		return false
	}
	on, err := a.config.Store.Settings().GetBool(store.KeyAutostart, false)
	if err != nil {
		log.Printf("app: failed to read tracking preference: %v", err)
	}
	return on
}

// Mirror reports whether the overlay stream should be flipped horizontally.
// A stored preference wins over the configured default.
func (a *App) Mirror() bool {
	if a.config.Store == nil {
		return a.config.Mirror
	}
	mirror, err := a.config.Store.Settings().GetBool(store.KeyMirror, a.config.Mirror)
	if err != nil {
		log.Printf("app: failed to read mirror preference: %v", err)
	}
	return mirror
}

// State returns the tracker lifecycle state.
func (a *App) State() tracker.State {
	return a.tracker.State()
}

// HandsDetected reports whether the latest result contained any hands.
func (a *App) HandsDetected() bool {
	return a.tracker.HandsDetected()
}

// Landmarks returns a copy of the latest hands.
func (a *App) Landmarks() []detector.Hand {
	return a.tracker.Landmarks()
}

// OnResults registers a tracker observer.
func (a *App) OnResults(fn tracker.ResultFunc) {
	a.tracker.OnResults(fn)
}

// Close stops tracking and releases the detector, the overlay surface and
// the frame buffer.
func (a *App) Close() error {
	return errors.Join(a.tracker.Close(), a.surface.Close(), a.frames.Close())
}

package capture

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// FrameFunc handles one captured frame. The frame is closed after it returns.
type FrameFunc func(ctx context.Context, frame *gocv.Mat) error

// Source pulls frames from a Camera at a fixed cadence and hands each one to
// a FrameFunc. Frames are processed one at a time: the next frame is not read
// until the FrameFunc for the previous one has returned, and ticks that fire
// in the meantime are dropped.
type Source struct {
	camera  Camera
	fps     int
	onFrame FrameFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	last   chan struct{}

	// reading is held during a camera read, never while the FrameFunc runs.
	reading sync.Mutex
}

// NewSource creates a Source. A non-positive fps falls back to DefaultFPS.
func NewSource(camera Camera, fps int, onFrame FrameFunc) *Source {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Source{
		camera:  camera,
		fps:     fps,
		onFrame: onFrame,
	}
}

// Start opens the camera and begins the frame loop. The loop runs until Stop
// is called or ctx is cancelled. Starting a running Source is a no-op.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return nil
	}

	s.camera.SetFPS(s.fps)
	if err := s.camera.Open(); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.last = s.done
	go s.run(loopCtx, s.done)

	return nil
}

// Stop halts the frame loop and closes the camera. No frame is read once it
// returns, and any frame still being handed off carries a cancelled context.
// A FrameFunc already running is not waited for; the loop exits when it
// returns. Stopping a Source that is not running is a no-op.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return nil
	}

	s.cancel()
	// Wait out a camera read in progress.
	s.reading.Lock()
	s.reading.Unlock()

	s.cancel = nil
	s.done = nil

	return s.camera.Close()
}

// Done returns a channel closed when the most recent loop has exited, or nil
// if the Source was never started.
func (s *Source) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Running reports whether the frame loop is active.
func (s *Source) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// read takes one frame unless the loop has been stopped, in which case ok
// is false.
func (s *Source) read(ctx context.Context) (frame *gocv.Mat, ok bool, err error) {
	s.reading.Lock()
	defer s.reading.Unlock()

	if ctx.Err() != nil {
		return nil, false, nil
	}
	frame, err = s.camera.ReadFrame()
	return frame, true, err
}

func (s *Source) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	// Only the first of a run of read failures is logged.
	failing := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, ok, err := s.read(ctx)
		if !ok {
			return
		}
		if err != nil {
			if !failing {
				log.Printf("capture: error reading frame: %v", err)
				failing = true
			}
			continue
		}
		failing = false

		err = s.onFrame(ctx, frame)
		frame.Close()

		if err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
			log.Printf("capture: error processing frame: %v", err)
		}
	}
}

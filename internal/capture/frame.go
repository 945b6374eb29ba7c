package capture

import (
	"errors"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoFrame is returned by FrameBuffer.Snapshot before any frame is stored.
var ErrNoFrame = errors.New("no frame captured")

// FrameBuffer holds a copy of the most recent camera frame so it can be
// served while the camera is owned by the frame loop.
type FrameBuffer struct {
	mu     sync.Mutex
	mat    gocv.Mat
	has    bool
	closed bool
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{mat: gocv.NewMat()}
}

// Store copies frame into the buffer. Empty frames, and frames stored after
// Close, are ignored.
func (b *FrameBuffer) Store(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	frame.CopyTo(&b.mat)
	b.has = true
}

// Snapshot returns the latest frame as an image.
func (b *FrameBuffer) Snapshot() (image.Image, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.has {
		return nil, ErrNoFrame
	}
	return b.mat.ToImage()
}

// Size returns the dimensions of the latest frame, or zeros when empty.
func (b *FrameBuffer) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.has {
		return 0, 0
	}
	return b.mat.Cols(), b.mat.Rows()
}

// Close releases the buffered frame.
func (b *FrameBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.has = false
	b.closed = true
	return b.mat.Close()
}

package server

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/handtracker/internal/detector"
	"github.com/ayusman/handtracker/internal/store"
	"github.com/ayusman/handtracker/internal/tracker"
)

// fakeTracker is an in-memory Tracker whose observers are driven by emit.
type fakeTracker struct {
	mu        sync.Mutex
	state     tracker.State
	hands     []detector.Hand
	observers []tracker.ResultFunc
}

func (f *fakeTracker) SetTracking(ctx context.Context, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if on {
		f.state = tracker.Tracking
	} else {
		f.state = tracker.Ready
	}
	return nil
}

func (f *fakeTracker) State() tracker.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeTracker) HandsDetected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hands) > 0
}

func (f *fakeTracker) Landmarks() []detector.Hand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hands
}

func (f *fakeTracker) OnResults(fn tracker.ResultFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, fn)
}

func (f *fakeTracker) observerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.observers)
}

func (f *fakeTracker) emit(result *detector.Result) {
	f.mu.Lock()
	f.hands = result.Hands
	observers := append([]tracker.ResultFunc(nil), f.observers...)
	f.mu.Unlock()

	for _, fn := range observers {
		fn(result)
	}
}

type fakeSnapshotter struct {
	img image.Image
	err error
}

func (f *fakeSnapshotter) Snapshot() (image.Image, error) {
	return f.img, f.err
}

// halfRedImage is red on its left half and black on its right half.
func halfRedImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{A: 255}
			if x < width/2 {
				c.R = 255
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func solidImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func isBlue(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 < 60 && g>>8 < 60 && b>>8 > 200
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 200 && g>>8 < 60 && b>>8 < 60
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

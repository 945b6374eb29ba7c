package capture

import (
	"errors"
	"testing"
)

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name       string
		opts       []CameraOption
		wantFPS    int
		wantWidth  int
		wantHeight int
	}{
		{
			name:       "defaults",
			wantFPS:    DefaultFPS,
			wantWidth:  DefaultWidth,
			wantHeight: DefaultHeight,
		},
		{
			name:       "requested resolution",
			opts:       []CameraOption{WithResolution(1280, 720)},
			wantFPS:    DefaultFPS,
			wantWidth:  1280,
			wantHeight: 720,
		},
		{
			name:       "invalid resolution keeps default",
			opts:       []CameraOption{WithResolution(0, 720)},
			wantFPS:    DefaultFPS,
			wantWidth:  DefaultWidth,
			wantHeight: DefaultHeight,
		},
		{
			name:       "requested fps",
			opts:       []CameraOption{WithCameraFPS(30)},
			wantFPS:    30,
			wantWidth:  DefaultWidth,
			wantHeight: DefaultHeight,
		},
		{
			name:       "invalid fps keeps default",
			opts:       []CameraOption{WithCameraFPS(-1)},
			wantFPS:    DefaultFPS,
			wantWidth:  DefaultWidth,
			wantHeight: DefaultHeight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(0, tt.opts...)

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
			if w, h := cam.Resolution(); w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("Resolution() = %dx%d, want %dx%d", w, h, tt.wantWidth, tt.wantHeight)
			}
			if cam.IsOpen() {
				t.Error("camera should not be open before Open()")
			}
		})
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(0)

	for _, step := range []struct {
		fps, want int
	}{
		{10, 10},
		{1, 1},
		{0, 1},
		{-5, 1},
	} {
		cam.SetFPS(step.fps)
		if got := cam.FPS(); got != step.want {
			t.Errorf("after SetFPS(%d): FPS() = %d, want %d", step.fps, got, step.want)
		}
	}
}

func TestCamera_NotOpened(t *testing.T) {
	cam := NewCamera(0)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
	if err := cam.Close(); err != nil {
		t.Errorf("Close() on a closed camera = %v, want nil", err)
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(0, WithResolution(320, 240))
	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}
	if !cam.IsOpen() {
		t.Error("IsOpen() should return true after Open()")
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		// Resolution reports what the device settled on.
		w, h := cam.Resolution()
		if mat.Cols() != w || mat.Rows() != h {
			t.Errorf("frame is %dx%d, Resolution() = %dx%d", mat.Cols(), mat.Rows(), w, h)
		}
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}

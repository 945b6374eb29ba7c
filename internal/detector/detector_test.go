package detector

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestConnections(t *testing.T) {
	t.Run("has 24 edges", func(t *testing.T) {
		if len(Connections) != 24 {
			t.Errorf("expected 24 connections, got %d", len(Connections))
		}
	})

	t.Run("all endpoints are valid landmark indices", func(t *testing.T) {
		for _, c := range Connections {
			if c.Start < 0 || c.Start >= NumLandmarks || c.End < 0 || c.End >= NumLandmarks {
				t.Errorf("connection %v has out of range endpoint", c)
			}
		}
	})

	t.Run("index tip appears in exactly one edge", func(t *testing.T) {
		count := 0
		for _, c := range Connections {
			if c.Start == IndexTip || c.End == IndexTip {
				count++
			}
		}
		if count != 1 {
			t.Errorf("expected index tip in 1 edge, got %d", count)
		}
	})
}

func TestHand_At(t *testing.T) {
	hand := OpenPalmHand()
	hand.Points[IndexTip] = nil

	tests := []struct {
		name  string
		index int
		want  bool
	}{
		{name: "wrist present", index: Wrist, want: true},
		{name: "missing index tip", index: IndexTip, want: false},
		{name: "negative index", index: -1, want: false},
		{name: "past the end", index: NumLandmarks, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := hand.At(tt.index)
			if ok != tt.want {
				t.Errorf("At(%d) ok = %v, want %v", tt.index, ok, tt.want)
			}
		})
	}

	t.Run("nil hand", func(t *testing.T) {
		var h *Hand
		if _, ok := h.At(0); ok {
			t.Error("expected nil hand to have no points")
		}
	})
}

func TestHand_Complete(t *testing.T) {
	full := OpenPalmHand()
	if !full.Complete() {
		t.Error("expected preset hand to be complete")
	}

	missing := OpenPalmHand()
	missing.Points[MiddleTip] = nil
	if missing.Complete() {
		t.Error("expected hand with a nil point to be incomplete")
	}

	short := Hand{Points: full.Points[:10]}
	if short.Complete() {
		t.Error("expected truncated hand to be incomplete")
	}
}

func TestHand_Clone(t *testing.T) {
	orig := ThumbsUpHand()
	orig.Points[RingTip] = nil

	clone := orig.Clone()
	clone.Points[Wrist].X = 0.1

	if orig.Points[Wrist].X != 0.5 {
		t.Errorf("modifying clone changed original wrist X to %f", orig.Points[Wrist].X)
	}
	if clone.Points[RingTip] != nil {
		t.Error("expected missing point to stay missing in clone")
	}
	if clone.Handedness != orig.Handedness || clone.Score != orig.Score {
		t.Error("expected handedness and score to be preserved")
	}
}

func TestOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts := DefaultOptions()
		if opts.MaxHands != 2 || opts.ModelComplexity != 1 {
			t.Errorf("unexpected defaults: %+v", opts)
		}
		if opts.MinDetectionConfidence != 0.5 || opts.MinTrackingConfidence != 0.5 {
			t.Errorf("unexpected confidence defaults: %+v", opts)
		}
		if err := opts.Validate(); err != nil {
			t.Errorf("defaults should validate, got %v", err)
		}
	})

	invalid := []struct {
		name string
		opts Options
	}{
		{name: "zero hands", opts: Options{MaxHands: 0, ModelComplexity: 1}},
		{name: "complexity too high", opts: Options{MaxHands: 2, ModelComplexity: 2}},
		{name: "detection above one", opts: Options{MaxHands: 2, MinDetectionConfidence: 1.5}},
		{name: "tracking below zero", opts: Options{MaxHands: 2, MinTrackingConfidence: -0.1}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("no hands", func(t *testing.T) {
		result, err := parseResponse([]byte(`{"hands":[]}` + "\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Hands) != 0 {
			t.Errorf("expected 0 hands, got %d", len(result.Hands))
		}
	})

	t.Run("null and truncated points become missing", func(t *testing.T) {
		line := `{"hands":[{"handedness":"Left","score":0.8,"points":[{"x":0.1,"y":0.2,"z":0},null,{"x":0.3,"y":0.4,"z":0}]}]}`
		result, err := parseResponse([]byte(line))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(result.Hands))
		}

		hand := result.Hands[0]
		if hand.Handedness != "Left" {
			t.Errorf("expected handedness Left, got %s", hand.Handedness)
		}
		if len(hand.Points) != NumLandmarks {
			t.Errorf("expected %d point slots, got %d", NumLandmarks, len(hand.Points))
		}
		if _, ok := hand.At(1); ok {
			t.Error("expected null point to be missing")
		}
		if lm, ok := hand.At(2); !ok || lm.X != 0.3 {
			t.Errorf("expected point 2 at x=0.3, got %+v (ok=%v)", lm, ok)
		}
		if _, ok := hand.At(5); ok {
			t.Error("expected truncated point to be missing")
		}
	})

	t.Run("service error", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"error":"model not loaded"}`))
		if err == nil || !strings.Contains(err.Error(), "model not loaded") {
			t.Errorf("expected service error, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := parseResponse([]byte("not json")); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestMediaPipeDetector(t *testing.T) {
	t.Run("missing script is unavailable", func(t *testing.T) {
		_, err := NewMediaPipeDetector(filepath.Join(t.TempDir(), "nope.py"), "")
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("options are passed as flags", func(t *testing.T) {
		script := filepath.Join(t.TempDir(), "mediapipe_service.py")
		if err := os.WriteFile(script, []byte("# stub\n"), 0644); err != nil {
			t.Fatalf("write script: %v", err)
		}

		d, err := NewMediaPipeDetector(script, "python3")
		if err != nil {
			t.Fatalf("NewMediaPipeDetector() error = %v", err)
		}
		defer d.Close()

		if err := d.SetOptions(DefaultOptions()); err != nil {
			t.Fatalf("SetOptions() error = %v", err)
		}

		args := strings.Join(d.args(), " ")
		for _, want := range []string{"--max-hands 2", "--model-complexity 1", "--min-detection-confidence 0.5", "--asset-base " + AssetBaseURL} {
			if !strings.Contains(args, want) {
				t.Errorf("args %q missing %q", args, want)
			}
		}
	})

	t.Run("invalid options rejected", func(t *testing.T) {
		script := filepath.Join(t.TempDir(), "mediapipe_service.py")
		os.WriteFile(script, []byte("# stub\n"), 0644)

		d, err := NewMediaPipeDetector(script, "python3")
		if err != nil {
			t.Fatalf("NewMediaPipeDetector() error = %v", err)
		}
		if err := d.SetOptions(Options{}); err == nil {
			t.Error("expected error for zero options")
		}
	})

	t.Run("close ends a request the service never answers", func(t *testing.T) {
		sh, err := exec.LookPath("sh")
		if err != nil {
			t.Skip("sh not available")
		}
		script := filepath.Join(t.TempDir(), "mediapipe_service.py")
		if err := os.WriteFile(script, []byte("exec sleep 60\n"), 0644); err != nil {
			t.Fatalf("write script: %v", err)
		}

		d, err := NewMediaPipeDetector(script, sh)
		if err != nil {
			t.Fatalf("NewMediaPipeDetector() error = %v", err)
		}
		if err := d.SetOptions(DefaultOptions()); err != nil {
			t.Fatalf("SetOptions() error = %v", err)
		}

		frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		defer frame.Close()

		sent := make(chan error, 1)
		go func() { sent <- d.Send(context.Background(), &frame) }()

		// Wait for the service to be started by the request.
		deadline := time.Now().Add(5 * time.Second)
		for {
			d.procMu.Lock()
			started := d.proc != nil
			d.procMu.Unlock()
			if started {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("service was not started")
			}
			time.Sleep(5 * time.Millisecond)
		}

		closed := make(chan struct{})
		go func() {
			d.Close()
			close(closed)
		}()

		select {
		case <-closed:
		case <-time.After(5 * time.Second):
			t.Fatal("Close blocked on an unanswered request")
		}
		select {
		case err := <-sent:
			if err == nil {
				t.Error("Send() should fail once the service is killed")
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Send did not return after Close")
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("delivers empty result by default", func(t *testing.T) {
		mock := NewMockDetector()

		var got *Result
		mock.OnResults(func(r *Result) { got = r })

		if err := mock.Send(context.Background(), nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if got == nil {
			t.Fatal("expected a result to be delivered")
		}
		if len(got.Hands) != 0 {
			t.Errorf("expected no hands, got %d", len(got.Hands))
		}
	})

	t.Run("delivers configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]Hand{ThumbsUpHand(), OpenPalmHand()})

		var got *Result
		mock.OnResults(func(r *Result) { got = r })
		mock.Send(context.Background(), nil)

		if got == nil || len(got.Hands) != 2 {
			t.Errorf("expected 2 hands, got %v", got)
		}
		if mock.Sends() != 1 {
			t.Errorf("expected 1 send, got %d", mock.Sends())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		called := false
		mock.OnResults(func(*Result) { called = true })

		if err := mock.Send(context.Background(), nil); err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if called {
			t.Error("callback should not run when Send fails")
		}
	})

	t.Run("manual mode holds results until delivered", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetManual(true)

		var got []*Result
		mock.OnResults(func(r *Result) { got = append(got, r) })
		mock.Send(context.Background(), nil)

		if len(got) != 0 {
			t.Fatalf("expected no delivery from Send, got %d", len(got))
		}
		mock.Deliver(&Result{Hands: []Hand{OpenPalmHand()}})
		if len(got) != 1 || len(got[0].Hands) != 1 {
			t.Errorf("expected the delivered result, got %v", got)
		}
	})

	t.Run("blocked send ignores context", func(t *testing.T) {
		mock := NewMockDetector()
		release := make(chan struct{})
		mock.SetBlock(release)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan error, 1)
		go func() { done <- mock.Send(ctx, nil) }()

		select {
		case <-done:
			t.Fatal("Send returned before release")
		case <-time.After(20 * time.Millisecond):
		}

		close(release)
		if err := <-done; err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("async delivery", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetAsync(true)

		var wg sync.WaitGroup
		wg.Add(1)
		mock.OnResults(func(*Result) { wg.Done() })
		mock.Send(context.Background(), nil)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("async result was not delivered")
		}
	})

	t.Run("records options", func(t *testing.T) {
		mock := NewMockDetector()
		if err := mock.SetOptions(DefaultOptions()); err != nil {
			t.Fatalf("SetOptions() error = %v", err)
		}
		if opts := mock.Options(); opts == nil || opts.MaxHands != 2 {
			t.Errorf("expected recorded options, got %v", opts)
		}
	})

	t.Run("Close marks closed", func(t *testing.T) {
		mock := NewMockDetector()
		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
		if !mock.Closed() {
			t.Error("expected mock to be closed")
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestPresetHands(t *testing.T) {
	thumbs := ThumbsUpHand()
	t.Run("thumbs up thumb is extended upward", func(t *testing.T) {
		if thumbs.Points[ThumbTip].Y >= thumbs.Points[ThumbMCP].Y {
			t.Error("thumb tip should be above thumb MCP (lower Y value)")
		}
	})

	palm := OpenPalmHand()
	t.Run("open palm fingers are extended", func(t *testing.T) {
		for _, f := range [][2]int{{IndexMCP, IndexTip}, {MiddleMCP, MiddleTip}, {RingMCP, RingTip}, {PinkyMCP, PinkyTip}} {
			if ext := palm.Points[f[0]].Y - palm.Points[f[1]].Y; ext < 0.2 {
				t.Errorf("finger %d not extended enough (extension: %f)", f[1], ext)
			}
		}
	})

	t.Run("presets are complete", func(t *testing.T) {
		if !thumbs.Complete() || !palm.Complete() {
			t.Error("expected preset hands to have all landmarks")
		}
	})
}

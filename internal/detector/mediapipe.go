package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// AssetBaseURL is where the engine fetches its model files at runtime.
const AssetBaseURL = "https://cdn.jsdelivr.net/npm/@mediapipe/hands/"

// idleTimeout is how long the Python process may sit unused before it is shut down.
const idleTimeout = 30 * time.Second

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Frames are written to the process as a 4 byte big-endian length followed by
// JPEG data. The process answers each frame with one JSON line.
type MediaPipeDetector struct {
	scriptPath string
	pythonPath string
	options    Options
	configured bool
	onResults  func(*Result)

	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer

	// proc is the running process. It is guarded by procMu so Close can
	// kill it while a detect call holds mu.
	procMu sync.Mutex
	proc   *os.Process
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// An empty scriptPath or pythonPath is resolved from the usual install locations.
// The Python process is started lazily on first Send.
func NewMediaPipeDetector(scriptPath, pythonPath string) (*MediaPipeDetector, error) {
	if scriptPath == "" {
		scriptPath = findMediaPipeScript()
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("mediapipe_service.py not found: %w", ErrUnavailable)
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("mediapipe script %s: %w", scriptPath, ErrUnavailable)
	}

	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	return &MediaPipeDetector{
		scriptPath: scriptPath,
		pythonPath: pythonPath,
	}, nil
}

// MediaPipeFactory returns a Factory that builds MediaPipe detectors.
func MediaPipeFactory(scriptPath, pythonPath string) Factory {
	return func() (Detector, error) {
		d, err := NewMediaPipeDetector(scriptPath, pythonPath)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

// SetOptions validates and stores the options. A running process is
// restarted on the next Send so that the new options take effect.
func (d *MediaPipeDetector) SetOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		if err := d.shutdown(); err != nil {
			return fmt.Errorf("restart mediapipe service: %w", err)
		}
	}

	d.options = opts
	d.configured = true
	return nil
}

// OnResults registers the result callback.
func (d *MediaPipeDetector) OnResults(fn func(*Result)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onResults = fn
}

// Send encodes the frame, runs it through the Python service and delivers the
// parsed result to the registered callback before returning.
func (d *MediaPipeDetector) Send(ctx context.Context, frame *gocv.Mat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if frame == nil || frame.Empty() {
		return fmt.Errorf("empty frame")
	}

	result, callback, err := d.detect(frame)
	if err != nil {
		return err
	}

	if callback != nil {
		callback(result)
	}
	return nil
}

func (d *MediaPipeDetector) detect(frame *gocv.Mat) (*Result, func(*Result), error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.configured {
		return nil, nil, fmt.Errorf("detector options not set")
	}

	if err := d.ensureStarted(); err != nil {
		return nil, nil, err
	}

	// Encode frame as JPEG
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	result, err := parseResponse([]byte(line))
	if err != nil {
		return nil, nil, err
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return result, d.onResults, nil
}

// Close shuts down the Python process. A request stuck waiting on the process
// is ended by killing it.
func (d *MediaPipeDetector) Close() error {
	if !d.mu.TryLock() {
		d.procMu.Lock()
		if d.proc != nil {
			d.proc.Kill()
		}
		d.procMu.Unlock()
		d.mu.Lock()
	}
	defer d.mu.Unlock()
	return d.shutdown()
}

// args builds the command line passed to the Python service.
func (d *MediaPipeDetector) args() []string {
	return []string{
		d.scriptPath,
		"--max-hands", strconv.Itoa(d.options.MaxHands),
		"--model-complexity", strconv.Itoa(d.options.ModelComplexity),
		"--min-detection-confidence", strconv.FormatFloat(d.options.MinDetectionConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.options.MinTrackingConfidence, 'f', -1, 64),
		"--asset-base", AssetBaseURL,
	}
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	d.cmd = exec.Command(d.pythonPath, d.args()...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.procMu.Lock()
	d.proc = d.cmd.Process
	d.procMu.Unlock()

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.procMu.Lock()
	d.proc = nil
	d.procMu.Unlock()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/mediapipe_service.py",
		"../scripts/mediapipe_service.py",
		filepath.Join(execDir, "scripts/mediapipe_service.py"),
		filepath.Join(os.Getenv("HOME"), ".handtracker/scripts/mediapipe_service.py"),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".handtracker/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
// Points may be null or truncated when the engine loses part of a hand.
type jsonHand struct {
	Points     []*jsonPoint `json:"points"`
	Handedness string       `json:"handedness"`
	Score      float64      `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (h jsonHand) toHand() Hand {
	hand := Hand{
		Points:     make([]*Landmark, NumLandmarks),
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	for i := 0; i < NumLandmarks && i < len(h.Points); i++ {
		if p := h.Points[i]; p != nil {
			hand.Points[i] = &Landmark{X: p.X, Y: p.Y, Z: p.Z}
		}
	}

	return hand
}

// parseResponse decodes one JSON line from the Python service.
func parseResponse(line []byte) (*Result, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error,omitempty"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("mediapipe service: %s", response.Error)
	}

	result := &Result{
		Hands:     make([]Hand, len(response.Hands)),
		Timestamp: time.Now(),
	}
	for i, h := range response.Hands {
		result.Hands[i] = h.toHand()
	}

	return result, nil
}

package server

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log"
	"net/http"
	"time"

	"github.com/disintegration/gift"
	"gocv.io/x/gocv"

	"github.com/ayusman/handtracker/internal/capture"
)

// DefaultStreamInterval is the delay between MJPEG frames (~15 FPS).
const DefaultStreamInterval = 66 * time.Millisecond

// Snapshotter produces the current contents of a canvas or frame buffer.
type Snapshotter interface {
	Snapshot() (image.Image, error)
}

// mjpeg writes frames as a multipart JPEG stream.
type mjpeg struct {
	name     string
	mirror   func() bool
	interval time.Duration
	flip     *gift.GIFT
}

func newMJPEG(name string, mirror func() bool) mjpeg {
	return mjpeg{
		name:     name,
		mirror:   mirror,
		interval: DefaultStreamInterval,
		flip:     gift.New(gift.FlipHorizontal()),
	}
}

func (m mjpeg) serve(w http.ResponseWriter, r *http.Request, frame func() (image.Image, error)) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		data, err := m.encode(frame)
		switch {
		case errors.Is(err, capture.ErrNoFrame):
		case err != nil:
			log.Printf("%s stream: %v", m.name, err)
		default:
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
			if _, err := w.Write(data); err != nil {
				return
			}
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// encode takes one frame, mirrors it if requested and encodes a JPEG.
func (m mjpeg) encode(frame func() (image.Image, error)) ([]byte, error) {
	img, err := frame()
	if err != nil {
		return nil, err
	}

	if m.mirror != nil && m.mirror() {
		dst := image.NewRGBA(m.flip.Bounds(img.Bounds()))
		m.flip.Draw(dst, img)
		img = dst
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory freed by buf.Close.
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

// StreamHandler serves the camera feed as an MJPEG stream.
type StreamHandler struct {
	video Snapshotter
	mjpeg
}

// NewStreamHandler creates a StreamHandler over the latest captured frame.
// mirror is consulted on every frame and may be nil.
func NewStreamHandler(video Snapshotter, mirror func() bool) *StreamHandler {
	return &StreamHandler{video: video, mjpeg: newMJPEG("video", mirror)}
}

// ServeHTTP streams MJPEG frames until the client disconnects. Nothing is
// sent before the first frame is captured.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.frame)
}

func (h *StreamHandler) encode() ([]byte, error) {
	return h.mjpeg.encode(h.frame)
}

func (h *StreamHandler) frame() (image.Image, error) {
	img, err := h.video.Snapshot()
	if err != nil && !errors.Is(err, capture.ErrNoFrame) {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return img, err
}

// OverlayHandler serves the landmark canvas drawn over the camera feed as an
// MJPEG stream. Without a captured frame the canvas is drawn over black.
type OverlayHandler struct {
	video   Snapshotter
	overlay Snapshotter
	mjpeg
}

// NewOverlayHandler creates an OverlayHandler. video may be nil, in which case
// only the canvas is streamed. mirror is consulted on every frame and may be nil.
func NewOverlayHandler(video, overlay Snapshotter, mirror func() bool) *OverlayHandler {
	return &OverlayHandler{video: video, overlay: overlay, mjpeg: newMJPEG("overlay", mirror)}
}

// ServeHTTP streams MJPEG frames until the client disconnects.
func (h *OverlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.compose)
}

func (h *OverlayHandler) encode() ([]byte, error) {
	return h.mjpeg.encode(h.compose)
}

// compose draws the canvas over the latest frame. The canvas is scaled to the
// frame when their sizes differ.
func (h *OverlayHandler) compose() (image.Image, error) {
	over, err := h.overlay.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot overlay: %w", err)
	}

	var dst *image.RGBA
	if h.video != nil {
		frame, err := h.video.Snapshot()
		switch {
		case errors.Is(err, capture.ErrNoFrame):
		case err != nil:
			return nil, fmt.Errorf("snapshot video: %w", err)
		default:
			b := frame.Bounds()
			dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
			draw.Draw(dst, dst.Bounds(), frame, b.Min, draw.Src)
		}
	}
	if dst == nil {
		b := over.Bounds()
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	}

	if over.Bounds().Size() != dst.Bounds().Size() {
		g := gift.New(gift.Resize(dst.Bounds().Dx(), dst.Bounds().Dy(), gift.LinearResampling))
		scaled := image.NewRGBA(g.Bounds(over.Bounds()))
		g.Draw(scaled, over)
		over = scaled
	}

	draw.Draw(dst, dst.Bounds(), over, over.Bounds().Min, draw.Over)
	return dst, nil
}

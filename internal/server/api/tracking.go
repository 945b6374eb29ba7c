package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/ayusman/handtracker/internal/detector"
	"github.com/ayusman/handtracker/internal/tracker"
)

// Tracker is the tracking control surface the API drives.
type Tracker interface {
	SetTracking(ctx context.Context, on bool) error
	State() tracker.State
	HandsDetected() bool
	Landmarks() []detector.Hand
}

// TrackingHandler serves /api/tracking: GET reports status, POST starts
// tracking and DELETE stops it.
type TrackingHandler struct {
	tracker Tracker
}

// NewTrackingHandler creates a TrackingHandler for t.
func NewTrackingHandler(t Tracker) *TrackingHandler {
	return &TrackingHandler{tracker: t}
}

type trackingResponse struct {
	State         string          `json:"state"`
	Tracking      bool            `json:"tracking"`
	HandsDetected bool            `json:"hands_detected"`
	Hands         []detector.Hand `json:"hands"`
}

// ServeHTTP implements the http.Handler interface.
func (h *TrackingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.status())
	case http.MethodPost:
		h.set(w, r, true)
	case http.MethodDelete:
		h.set(w, r, false)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TrackingHandler) status() trackingResponse {
	state := h.tracker.State()
	return trackingResponse{
		State:         state.String(),
		Tracking:      state == tracker.Tracking,
		HandsDetected: h.tracker.HandsDetected(),
		Hands:         h.tracker.Landmarks(),
	}
}

// set starts or stops tracking. The frame loop outlives the request, so it
// runs on a context detached from the request's cancellation.
func (h *TrackingHandler) set(w http.ResponseWriter, r *http.Request, on bool) {
	err := h.tracker.SetTracking(context.WithoutCancel(r.Context()), on)
	if err != nil {
		log.Printf("api: set tracking %v: %v", on, err)
		switch {
		case errors.Is(err, tracker.ErrDetectorUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Hand detector not available")
		case errors.Is(err, tracker.ErrInitialize):
			writeError(w, http.StatusInternalServerError, "Failed to initialize hand detector")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to start tracking")
		}
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

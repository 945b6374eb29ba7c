package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/handtracker/internal/detector"
	"github.com/ayusman/handtracker/internal/gesture"
)

// maxCompareBody bounds a comparison request. A few seconds of two-hand
// landmarks fit well inside it.
const maxCompareBody = 8 << 20

// CompareHandler serves POST /api/compare, scoring a recorded attempt
// against a template recording.
type CompareHandler struct{}

// NewCompareHandler creates a CompareHandler.
func NewCompareHandler() *CompareHandler {
	return &CompareHandler{}
}

// compareRequest holds two recordings, each a list of frames of the hands
// detected in them.
type compareRequest struct {
	Template [][]detector.Hand `json:"template"`
	Attempt  [][]detector.Hand `json:"attempt"`
}

type compareResponse struct {
	gesture.Feedback
	FrameScores []float64      `json:"frame_scores"`
	Path        []gesture.Step `json:"path"`
}

// ServeHTTP implements the http.Handler interface.
func (h *CompareHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req compareRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCompareBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Template) == 0 || len(req.Attempt) == 0 {
		writeError(w, http.StatusBadRequest, "Template and attempt recordings are required")
		return
	}

	c := gesture.Compare(req.Template, req.Attempt)
	writeJSON(w, http.StatusOK, compareResponse{
		Feedback:    c.Feedback(),
		FrameScores: c.FrameScores,
		Path:        c.Path,
	})
}

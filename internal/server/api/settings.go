package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/handtracker/internal/store"
)

// SettingsHandler serves /api/settings backed by the settings store.
type SettingsHandler struct {
	store *store.Store
}

// NewSettingsHandler creates a new SettingsHandler with the given store.
func NewSettingsHandler(s *store.Store) *SettingsHandler {
	return &SettingsHandler{store: s}
}

type settingsResponse struct {
	Autostart bool `json:"autostart"`
	Mirror    bool `json:"mirror"`
}

// Fields are pointers so a PUT can update either setting alone.
type updateSettingsRequest struct {
	Autostart *bool `json:"autostart"`
	Mirror    *bool `json:"mirror"`
}

// ServeHTTP implements the http.Handler interface.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) load() (settingsResponse, error) {
	settings := h.store.Settings()

	autostart, err := settings.GetBool(store.KeyAutostart, false)
	if err != nil {
		return settingsResponse{}, err
	}
	mirror, err := settings.GetBool(store.KeyMirror, false)
	if err != nil {
		return settingsResponse{}, err
	}

	return settingsResponse{Autostart: autostart, Mirror: mirror}, nil
}

// get handles GET /api/settings.
func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// update handles PUT /api/settings.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	settings := h.store.Settings()
	if req.Autostart != nil {
		if err := settings.SetBool(store.KeyAutostart, *req.Autostart); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}
	if req.Mirror != nil {
		if err := settings.SetBool(store.KeyMirror, *req.Mirror); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}

	h.get(w, r)
}

// Package admin provides the HTTP side door: health checks and a JSON
// view of the voice catalog.
package admin

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/opentts/wyoming-opentts/internal/speech/engine"
)

// Handler provides REST endpoints for service introspection.
type Handler struct {
	engines map[string]engine.TTSEngine
}

// NewHandler creates an admin handler over the started engines.
func NewHandler(engines map[string]engine.TTSEngine) *Handler {
	return &Handler{engines: engines}
}

// RegisterRoutes registers all admin routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /api/v1/voices", h.ListVoices)
}

// VoiceResponse is one voice in the catalog listing.
type VoiceResponse struct {
	Name     string `json:"name"` // full <engine>.<voice> name
	Engine   string `json:"engine"`
	ID       string `json:"id"`
	Gender   string `json:"gender,omitempty"`
	Language string `json:"language"`
	Locale   string `json:"locale"`
}

// HealthResponse reports service liveness and the loaded engines.
type HealthResponse struct {
	Status  string   `json:"status"`
	Engines []string `json:"engines"`
}

// ErrorResponse carries an error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func (h *Handler) engineNames() []string {
	names := make([]string, 0, len(h.engines))
	for name := range h.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Engines: h.engineNames(),
	})
}

// ListVoices handles GET /api/v1/voices
func (h *Handler) ListVoices(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("engine")
	if filter != "" {
		if _, ok := h.engines[filter]; !ok {
			writeError(w, http.StatusNotFound, "unknown engine: "+filter)
			return
		}
	}

	voices := make([]VoiceResponse, 0)
	for _, name := range h.engineNames() {
		if filter != "" && filter != name {
			continue
		}

		engineVoices, err := h.engines[name].Voices(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list voices: "+err.Error())
			return
		}

		for _, v := range engineVoices {
			voices = append(voices, VoiceResponse{
				Name:     name + "." + v.ID,
				Engine:   name,
				ID:       v.ID,
				Gender:   v.Gender,
				Language: v.Language,
				Locale:   v.Locale,
			})
		}
	}

	writeJSON(w, http.StatusOK, voices)
}

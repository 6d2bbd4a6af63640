package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// maxDocumentBytes bounds the size of a saved document.
const maxDocumentBytes = 1 << 20

// NewHTTPHandler returns an http.Handler with all routes registered.
// Every route except GET /health requires a session; POST /save also
// requires the CSRF header to match the CSRF cookie.
func (s *SettingsServer) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /load", s.handleLoad)
	mux.HandleFunc("POST /save", s.handleSave)
	mux.HandleFunc("GET /devices", s.handleDevices)
	mux.HandleFunc("GET /health", s.handleHealth)
	return SessionMiddleware(s.sessions, CSRFMiddleware(mux))
}

// handleHealth handles GET /health.
func (s *SettingsServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLoad handles GET /load.
func (s *SettingsServer) handleLoad(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	s.track(r.Context(), "load", r.UserAgent())
	doc, err := s.loadDocument(r.Context(), userID)
	if err != nil {
		slog.Error("load settings failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// handleSave handles POST /save.
func (s *SettingsServer) handleSave(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "document too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	s.track(r.Context(), "save", r.UserAgent())
	if err := s.saveDocument(r.Context(), userID, body); err != nil {
		var ie inputError
		if errors.As(err, &ie) {
			writeError(w, http.StatusBadRequest, ie.Error())
			return
		}
		slog.Error("save settings failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleDevices handles GET /devices.
func (s *SettingsServer) handleDevices(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": s.presence.Devices(userID)})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

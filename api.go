// api.go
package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"spectraweb/internal/spectra"
)

var version = "1.0.0"

func writeAPI(w http.ResponseWriter, code int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

func (h *handler) predictAPIHandler(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r)
	if err != nil {
		writeAPI(w, http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return
	}

	results, err := h.form.Submit(r.Context(), up.name, up.data)
	if err != nil {
		writeAPI(w, statusFor(err), APIResponse{Success: false, Error: err.Error()})
		return
	}
	writeAPI(w, http.StatusOK, APIResponse{Success: true, Data: results})
}

// validateFileHandler checks an upload without calling the backend.
func (h *handler) validateFileHandler(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r)
	if err != nil {
		writeAPI(w, http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return
	}
	if up.data == nil {
		writeAPI(w, http.StatusBadRequest, APIResponse{Success: false, Error: spectra.ErrMissingFile.Error()})
		return
	}

	samples, err := h.parser.ParseFile(up.name, bytes.NewReader(up.data))
	if err != nil {
		writeAPI(w, http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return
	}
	writeAPI(w, http.StatusOK, APIResponse{Success: true, Data: ValidationReport{
		Samples: len(samples),
		Bands:   len(samples[0]),
	}})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	})
}

// Package refbackend is a self-contained prediction service speaking the
// same HTTP contracts the upload form calls.
package refbackend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"spectraweb/internal/middleware"
	"spectraweb/internal/predict"
	"spectraweb/internal/spectra"
)

const maxBodySize = 10 << 20

type Server struct {
	classifier *Classifier
	db         *MicrobialDB
	cond       predict.Conditions
	logger     *zap.Logger
}

// NewServer serves the default classifier and db. cond is used for batch
// and upload reports, where the caller sends no conditions.
func NewServer(db *MicrobialDB, cond predict.Conditions, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		classifier: DefaultClassifier(),
		db:         db,
		cond:       cond,
		logger:     logger,
	}
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	POST := router.Methods(http.MethodPost).Subrouter()
	GET := router.Methods(http.MethodGet, http.MethodHead).Subrouter()

	POST.HandleFunc("/identify_plastic", s.identify)
	POST.HandleFunc("/recommend_microbe", s.recommend)
	POST.HandleFunc("/monitor_degradation", s.monitor)
	POST.HandleFunc("/predict/", s.predictFile)
	GET.HandleFunc("/health", s.health)

	return middleware.Chain(s.logger).Then(router)
}

// Report runs the full pipeline for one sample.
func (s *Server) Report(sample spectra.Sample) predict.Result {
	plastic := s.classifier.Classify(sample)
	m, ok := s.db.Recommend(plastic, s.cond.PH, s.cond.Temp)
	if !ok {
		return predict.Result{
			PlasticType:         plastic,
			DegradationProgress: predict.FormatProgress(0),
			Message:             fmt.Sprintf("No suitable microbe found for %s", plastic),
		}
	}
	d := s.db.Monitor(plastic, m.Name, s.cond.ElapsedDays)
	return predict.Result{
		PlasticType:         plastic,
		RecommendedMicrobe:  m.Name,
		DegradationProgress: predict.FormatProgress(d.Progress),
		Message:             d.Message,
		OptimalPH:           fmt.Sprintf("%g", m.OptimalPH),
		OptimalTemp:         fmt.Sprintf("%g", m.OptimalTemp),
	}
}

func (s *Server) identify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	raw = bytes.TrimSpace(raw)

	if len(raw) > 0 && raw[0] == '[' {
		var samples []spectra.Sample
		if err := json.Unmarshal(raw, &samples); err != nil || len(samples) == 0 {
			writeError(w, http.StatusBadRequest, "Missing spectral bands")
			return
		}
		report := make([]predict.Result, 0, len(samples))
		for _, sample := range samples {
			report = append(report, s.Report(sample))
		}
		writeJSON(w, http.StatusOK, predict.BatchResponse{
			Report:      report,
			DurationSec: time.Since(start).Seconds(),
		})
		return
	}

	var sample spectra.Sample
	if err := json.Unmarshal(raw, &sample); err != nil || len(sample) == 0 {
		writeError(w, http.StatusBadRequest, "Missing spectral bands")
		return
	}
	writeJSON(w, http.StatusOK, predict.IdentifyResponse{PlasticType: s.classifier.Classify(sample)})
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlasticType string   `json:"plastic_type"`
		PH          *float64 `json:"pH"`
		Temp        *float64 `json:"temp"`
	}
	if err := decode(r, &req); err != nil || req.PlasticType == "" || req.PH == nil || req.Temp == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	m, ok := s.db.Recommend(req.PlasticType, *req.PH, *req.Temp)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No suitable microbe found for %s", req.PlasticType))
		return
	}
	writeJSON(w, http.StatusOK, predict.RecommendResponse{
		Recommended: m.Name,
		OptimalPH:   &m.OptimalPH,
		OptimalTemp: &m.OptimalTemp,
	})
}

func (s *Server) monitor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlasticType string   `json:"plastic_type"`
		Microbe     string   `json:"microbe"`
		ElapsedTime *float64 `json:"elapsed_time"`
	}
	if err := decode(r, &req); err != nil || req.PlasticType == "" || req.Microbe == "" || req.ElapsedTime == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	d := s.db.Monitor(req.PlasticType, req.Microbe, *req.ElapsedTime)
	progress := d.Progress
	writeJSON(w, http.StatusOK, predict.MonitorResponse{Progress: &progress, Message: d.Message})
}

func (s *Server) predictFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBodySize); err != nil {
		writeError(w, http.StatusBadRequest, "File too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	defer file.Close()

	samples, err := spectra.NewParser().ParseFile(header.Filename, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report := make([]predict.Result, 0, len(samples))
	for _, sample := range samples {
		report = append(report, s.Report(sample))
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"microbes":  s.db.Len(),
	})
}

func decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, predict.ErrorResponse{Error: msg})
}

// handlers.go
package main

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"spectraweb/internal/aggregate"
	"spectraweb/internal/form"
	"spectraweb/internal/middleware"
	"spectraweb/internal/spectra"
)

type handler struct {
	form       *form.Form
	parser     *spectra.Parser
	mode       string
	aggregated bool
	logger     *zap.Logger
}

func router(h *handler) http.Handler {
	router := mux.NewRouter()
	POST := router.Methods(http.MethodPost).Subrouter()
	GET := router.Methods(http.MethodGet, http.MethodHead).Subrouter()

	GET.HandleFunc("/", h.uploadHandler).Name("index")
	GET.HandleFunc("/api/health", healthHandler)
	GET.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	POST.HandleFunc("/upload", h.submitHandler)
	POST.HandleFunc("/api/predict", h.predictAPIHandler)
	POST.HandleFunc("/api/validate", h.validateFileHandler)

	return middleware.Chain(h.logger).Then(router)
}

func (h *handler) uploadHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	st := h.form.State()
	h.renderUpload(w, http.StatusOK, UploadPage{Error: st.Err, Loading: st.Loading, Mode: h.mode})
}

func (h *handler) submitHandler(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r)
	if err != nil {
		h.renderUpload(w, http.StatusBadRequest, UploadPage{Error: err.Error(), Mode: h.mode})
		return
	}

	results, err := h.form.Submit(r.Context(), up.name, up.data)
	if err != nil {
		h.renderUpload(w, statusFor(err), UploadPage{Error: err.Error(), Mode: h.mode})
		return
	}

	page := ResultPage{
		FileName:   up.name,
		FileSize:   up.size,
		Timestamp:  time.Now().Format("January 2, 2006 at 3:04 PM"),
		Results:    results,
		Summary:    aggregate.Summarize(results),
		Aggregated: h.aggregated,
	}
	if err := resultTemplate.Execute(w, page); err != nil {
		h.logger.Error("template error", zap.Error(err))
		http.Error(w, "Failed to render results", http.StatusInternalServerError)
	}
}

func (h *handler) renderUpload(w http.ResponseWriter, code int, page UploadPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := uploadTemplate.Execute(w, page); err != nil {
		h.logger.Error("template error", zap.Error(err))
	}
}

type upload struct {
	name string
	size int64
	data []byte
}

// maxUploadBody bounds the whole multipart request: the file itself plus
// room for the part headers and boundaries.
const maxUploadBody = spectra.MaxFileSize + 1<<20

// readUpload pulls the "file" field out of a multipart request. A request
// without the field yields a nil data slice so the form can report the
// missing file itself.
func readUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(spectra.MaxFileSize); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			return upload{}, nil
		case errors.As(err, &tooBig), errors.Is(err, multipart.ErrMessageTooLarge):
			return upload{}, errors.New("File too large")
		default:
			return upload{}, errors.New("Failed to read file")
		}
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return upload{}, nil
	}
	if err != nil {
		return upload{}, errors.New("Failed to read file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, spectra.MaxFileSize+1))
	if err != nil {
		return upload{}, errors.New("Failed to read file")
	}
	if len(data) > spectra.MaxFileSize {
		return upload{}, errors.New("File too large")
	}
	return upload{name: header.Filename, size: header.Size, data: data}, nil
}

func statusFor(err error) int {
	if errors.Is(err, form.ErrBusy) {
		return http.StatusConflict
	}
	var fe *form.Error
	if errors.As(err, &fe) && fe.Stage == form.StagePredict {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

// Package predict talks to the remote plastic identification service.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"spectraweb/internal/spectra"
)

// Mode selects the backend contract.
type Mode string

const (
	// ModePipeline runs identify, recommend and monitor once per sample.
	ModePipeline Mode = "pipeline"
	// ModeBatch posts every sample to /identify_plastic in one request.
	ModeBatch Mode = "batch"
	// ModeUpload posts the raw file to /predict/.
	ModeUpload Mode = "upload"
)

var ErrInvalidResponse = errors.New("Invalid response format from server.")

// StatusError is returned for any non-2xx reply.
type StatusError struct {
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed with status code %d: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s failed with status code %d", e.Path, e.Code)
}

// Conditions is the environment sent with pipeline requests.
type Conditions struct {
	PH          float64
	Temp        float64
	ElapsedDays float64
}

// Upload is one validated submission.
type Upload struct {
	Name    string
	Data    []byte
	Samples []spectra.Sample
}

type Client struct {
	BaseURL    string
	Mode       Mode
	Conditions Conditions
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewClient(baseURL string, mode Mode, cond Conditions, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Mode:       mode,
		Conditions: cond,
		HTTPClient: &http.Client{},
		Logger:     logger,
	}
}

// Predict sends the upload using the configured contract. Any failure
// aborts the whole submission; no partial results are returned.
func (c *Client) Predict(ctx context.Context, up Upload) ([]Result, error) {
	switch c.Mode {
	case ModeBatch:
		return c.predictBatch(ctx, up.Samples)
	case ModeUpload:
		return c.predictUpload(ctx, up.Name, up.Data)
	case ModePipeline, "":
		return c.predictPipeline(ctx, up.Samples)
	default:
		return nil, fmt.Errorf("unknown backend mode %q", c.Mode)
	}
}

func (c *Client) predictBatch(ctx context.Context, samples []spectra.Sample) ([]Result, error) {
	var resp BatchResponse
	if err := c.postJSON(ctx, "/identify_plastic", samples, &resp); err != nil {
		return nil, err
	}
	switch {
	case resp.Report != nil:
		return resp.Report, nil
	case resp.Result != nil:
		return []Result{*resp.Result}, nil
	default:
		return nil, ErrInvalidResponse
	}
}

func (c *Client) predictPipeline(ctx context.Context, samples []spectra.Sample) ([]Result, error) {
	results := make([]Result, 0, len(samples))
	for i, s := range samples {
		r, err := c.predictSample(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		results = append(results, r)
	}
	return results, nil
}

func (c *Client) predictSample(ctx context.Context, s spectra.Sample) (Result, error) {
	var id IdentifyResponse
	if err := c.postJSON(ctx, "/identify_plastic", s, &id); err != nil {
		return Result{}, err
	}
	if id.PlasticType == "" {
		return Result{}, ErrInvalidResponse
	}

	var rec RecommendResponse
	err := c.postJSON(ctx, "/recommend_microbe", RecommendRequest{
		PlasticType: id.PlasticType,
		PH:          c.Conditions.PH,
		Temp:        c.Conditions.Temp,
	}, &rec)
	if err != nil {
		return Result{}, err
	}
	if rec.Microbe() == "" {
		return Result{}, ErrInvalidResponse
	}

	var mon MonitorResponse
	err = c.postJSON(ctx, "/monitor_degradation", MonitorRequest{
		PlasticType: id.PlasticType,
		Microbe:     rec.Microbe(),
		ElapsedTime: c.Conditions.ElapsedDays,
		PH:          c.Conditions.PH,
		Temp:        c.Conditions.Temp,
	}, &mon)
	if err != nil {
		return Result{}, err
	}
	if mon.Progress == nil {
		return Result{}, ErrInvalidResponse
	}

	return Result{
		PlasticType:         id.PlasticType,
		RecommendedMicrobe:  rec.Microbe(),
		DegradationProgress: FormatProgress(*mon.Progress),
		Message:             mon.Message,
		OptimalPH:           formatReading(rec.OptimalPH),
		OptimalTemp:         formatReading(rec.OptimalTemp),
	}, nil
}

func (c *Client) predictUpload(ctx context.Context, name string, data []byte) ([]Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}

	var results []Result
	if err := c.do(ctx, "/predict/", mw.FormDataContentType(), &body, &results); err != nil {
		return nil, err
	}
	if results == nil {
		return nil, ErrInvalidResponse
	}
	return results, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", path, err)
	}
	return c.do(ctx, path, "application/json", bytes.NewReader(payload), out)
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.Logger.Debug("calling prediction backend", zap.String("path", path))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		se := &StatusError{Path: path, Code: resp.StatusCode}
		var er ErrorResponse
		if json.Unmarshal(raw, &er) == nil && er.Error != "" {
			se.Message = er.Error
		} else {
			se.Message = strings.TrimSpace(string(raw))
		}
		c.Logger.Warn("prediction backend error",
			zap.String("path", path), zap.Int("status", resp.StatusCode), zap.String("message", se.Message))
		return se
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w (%s: %v)", ErrInvalidResponse, path, err)
	}
	return nil
}

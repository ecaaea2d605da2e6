// types.go
package main

import (
	"spectraweb/internal/aggregate"
	"spectraweb/internal/predict"
)

// UploadPage backs upload.html.
type UploadPage struct {
	Error   string
	Loading bool
	Mode    string
}

// ResultPage backs results.html.
type ResultPage struct {
	FileName   string
	FileSize   int64
	Timestamp  string
	Results    []predict.Result
	Summary    aggregate.Summary
	Aggregated bool
}

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ValidationReport is returned by /api/validate.
type ValidationReport struct {
	Samples int `json:"samples"`
	Bands   int `json:"bands"`
}

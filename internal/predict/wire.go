package predict

import (
	"fmt"
	"strconv"
)

// Result is one display-ready recommendation. Field names follow the
// backend's report records.
type Result struct {
	PlasticType         string `json:"Plastic_Type"`
	RecommendedMicrobe  string `json:"Recommended_Microbe"`
	DegradationProgress string `json:"Degradation_Progress"`
	Message             string `json:"Message"`
	OptimalPH           string `json:"Optimal_pH"`
	OptimalTemp         string `json:"Optimal_Temp"`
	Count               int    `json:"count,omitempty"`
}

// BatchResponse is the reply to a batch /identify_plastic call.
type BatchResponse struct {
	Report      []Result `json:"report,omitempty"`
	Result      *Result  `json:"result,omitempty"`
	DurationSec float64  `json:"duration_sec,omitempty"`
}

type IdentifyResponse struct {
	PlasticType string `json:"plastic_type"`
}

type RecommendRequest struct {
	PlasticType string  `json:"plastic_type"`
	PH          float64 `json:"pH"`
	Temp        float64 `json:"temp"`
}

// RecommendResponse accepts both "recommended" and the older
// "recommended_microbe" key.
type RecommendResponse struct {
	Recommended        string   `json:"recommended,omitempty"`
	RecommendedMicrobe string   `json:"recommended_microbe,omitempty"`
	OptimalPH          *float64 `json:"optimal_pH,omitempty"`
	OptimalTemp        *float64 `json:"optimal_temp,omitempty"`
}

func (r RecommendResponse) Microbe() string {
	if r.Recommended != "" {
		return r.Recommended
	}
	return r.RecommendedMicrobe
}

type MonitorRequest struct {
	PlasticType string  `json:"plastic_type"`
	Microbe     string  `json:"microbe"`
	ElapsedTime float64 `json:"elapsed_time"`
	PH          float64 `json:"pH"`
	Temp        float64 `json:"temp"`
}

type MonitorResponse struct {
	Progress *float64 `json:"progress"`
	Message  string   `json:"message"`
}

// ErrorResponse is the body backends send with a non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FormatProgress renders a completion fraction as a percentage string.
func FormatProgress(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

func formatReading(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

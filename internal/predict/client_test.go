package predict

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"spectraweb/internal/spectra"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(ts *httptest.Server, mode Mode) *Client {
	c := NewClient(ts.URL+"/", mode, Conditions{PH: 7.2, Temp: 32, ElapsedDays: 30}, nil)
	c.HTTPClient = ts.Client()
	return c
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// pipelineBackend fails the failOn-th identify call when failOn > 0.
func pipelineBackend(t *testing.T, calls *int32, failOn int32) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/identify_plastic", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(calls, 1) == failOn {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "model unavailable"})
			return
		}
		var s spectra.Sample
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&s))
		pt := "PE"
		if s["band1"] > 0.5 {
			pt = "PET"
		}
		writeJSON(w, http.StatusOK, IdentifyResponse{PlasticType: pt})
	})
	mux.HandleFunc("/recommend_microbe", func(w http.ResponseWriter, r *http.Request) {
		var req RecommendRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 7.2, req.PH)
		assert.Equal(t, 32.0, req.Temp)
		ph, temp := 7.0, 30.5
		writeJSON(w, http.StatusOK, RecommendResponse{Recommended: "Ideonella sakaiensis", OptimalPH: &ph, OptimalTemp: &temp})
	})
	mux.HandleFunc("/monitor_degradation", func(w http.ResponseWriter, r *http.Request) {
		var req MonitorRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Ideonella sakaiensis", req.Microbe)
		assert.Equal(t, 30.0, req.ElapsedTime)
		p := 0.4
		writeJSON(w, http.StatusOK, MonitorResponse{Progress: &p, Message: "ok"})
	})
	return httptest.NewServer(mux)
}

func TestPredictPipeline(t *testing.T) {
	var calls int32
	ts := pipelineBackend(t, &calls, 0)
	defer ts.Close()

	results, err := newTestClient(ts, ModePipeline).Predict(context.Background(), Upload{
		Samples: []spectra.Sample{{"band1": 0.9}, {"band1": 0.1}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, Result{
		PlasticType:         "PET",
		RecommendedMicrobe:  "Ideonella sakaiensis",
		DegradationProgress: "40.0%",
		Message:             "ok",
		OptimalPH:           "7",
		OptimalTemp:         "30.5",
	}, results[0])
	assert.Equal(t, "PE", results[1].PlasticType)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestPredictPipelineAbortsOnFailure(t *testing.T) {
	var calls int32
	ts := pipelineBackend(t, &calls, 2)
	defer ts.Close()

	results, err := newTestClient(ts, ModePipeline).Predict(context.Background(), Upload{
		Samples: []spectra.Sample{{"band1": 0.9}, {"band1": 0.1}, {"band1": 0.2}},
	})
	assert.Nil(t, results)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "model unavailable", se.Message)
	assert.Contains(t, err.Error(), "row 2")
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestPredictPipelineAcceptsLegacyMicrobeKey(t *testing.T) {
	var rec RecommendResponse
	require.NoError(t, json.Unmarshal([]byte(`{"recommended_microbe":"Rhodococcus ruber"}`), &rec))
	assert.Equal(t, "Rhodococcus ruber", rec.Microbe())
}

func TestPredictBatch(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []Result
		err  error
	}{
		{
			name: "report",
			body: `{"report":[{"Plastic_Type":"PET","Degradation_Progress":"10%"},{"Plastic_Type":"PP"}],"duration_sec":0.2}`,
			want: []Result{{PlasticType: "PET", DegradationProgress: "10%"}, {PlasticType: "PP"}},
		},
		{
			name: "single result",
			body: `{"result":{"Plastic_Type":"PE","Recommended_Microbe":"Rhodococcus ruber"}}`,
			want: []Result{{PlasticType: "PE", RecommendedMicrobe: "Rhodococcus ruber"}},
		},
		{
			name: "unexpected shape",
			body: `{"plastic_type":"PE"}`,
			err:  ErrInvalidResponse,
		},
		{
			name: "not json",
			body: `<html>`,
			err:  ErrInvalidResponse,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/identify_plastic", r.URL.Path)
				var samples []spectra.Sample
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&samples))
				assert.Len(t, samples, 2)
				io.WriteString(w, tc.body)
			}))
			defer ts.Close()

			got, err := newTestClient(ts, ModeBatch).Predict(context.Background(), Upload{
				Samples: []spectra.Sample{{"band1": 1}, {"band1": 2}},
			})
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPredictUpload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict/", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		raw, _ := io.ReadAll(f)
		assert.Equal(t, "samples.csv", hdr.Filename)
		assert.Equal(t, "band1\n0.3\n", string(raw))
		io.WriteString(w, `[{"Plastic_Type":"PP","count":2}]`)
	}))
	defer ts.Close()

	got, err := newTestClient(ts, ModeUpload).Predict(context.Background(), Upload{
		Name: "samples.csv",
		Data: []byte("band1\n0.3\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, []Result{{PlasticType: "PP", Count: 2}}, got)
}

func TestPredictNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewClient(url, ModeBatch, Conditions{}, nil)
	_, err := c.Predict(context.Background(), Upload{Samples: []spectra.Sample{{"band1": 1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/identify_plastic")
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "40.0%", FormatProgress(0.4))
	assert.Equal(t, "0.0%", FormatProgress(0))
	assert.Equal(t, "12.3%", FormatProgress(0.1234))
}

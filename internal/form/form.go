// Package form runs the upload workflow: validate, predict, aggregate.
// It holds the same state the upload page shows: the last results, one
// error string and a loading flag.
package form

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"spectraweb/internal/aggregate"
	"spectraweb/internal/predict"
	"spectraweb/internal/spectra"
)

// ErrBusy is returned while another submission is in flight.
var ErrBusy = errors.New("A submission is already being processed.")

const failurePrefix = "Failed to process data. Error: "

// Predictor is the remote half of the workflow.
type Predictor interface {
	Predict(ctx context.Context, up predict.Upload) ([]predict.Result, error)
}

// State is a snapshot of the form.
type State struct {
	Results []predict.Result
	Err     string
	Loading bool
}

type Form struct {
	parser    *spectra.Parser
	predictor Predictor
	aggregate bool
	logger    *zap.Logger

	inflight *semaphore.Weighted

	mu    sync.RWMutex
	state State
}

// New builds a form. When aggregate is set, results are collapsed by
// plastic type before they are stored.
func New(parser *spectra.Parser, predictor Predictor, aggregate bool, logger *zap.Logger) *Form {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Form{
		parser:    parser,
		predictor: predictor,
		aggregate: aggregate,
		logger:    logger,
		inflight:  semaphore.NewWeighted(1),
	}
}

// State returns a copy of the current state.
func (f *Form) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s := f.state
	s.Results = append([]predict.Result(nil), f.state.Results...)
	return s
}

// Submit runs one workflow for the named file. The returned error carries
// the same user-visible message stored in State().Err. A nil data slice
// means no file was chosen.
func (f *Form) Submit(ctx context.Context, name string, data []byte) ([]predict.Result, error) {
	if !f.inflight.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer f.inflight.Release(1)

	id := uuid.NewString()
	log := f.logger.With(zap.String("submission", id), zap.String("file", name))

	f.set(func(s *State) {
		s.Loading = true
		s.Err = ""
	})

	results, err := f.run(ctx, log, name, data)

	f.set(func(s *State) {
		s.Loading = false
		if err != nil {
			s.Results = nil
			s.Err = err.Error()
			return
		}
		s.Results = results
	})
	return results, err
}

func (f *Form) run(ctx context.Context, log *zap.Logger, name string, data []byte) ([]predict.Result, error) {
	if data == nil {
		return nil, &Error{Stage: StageValidate, Msg: spectra.ErrMissingFile.Error(), Err: spectra.ErrMissingFile}
	}

	samples, err := f.parser.ParseFile(name, bytes.NewReader(data))
	if err != nil {
		log.Info("upload rejected", zap.Error(err))
		return nil, &Error{Stage: StageValidate, Msg: err.Error(), Err: err}
	}
	log.Debug("upload validated", zap.Int("samples", len(samples)))

	results, err := f.predictor.Predict(ctx, predict.Upload{Name: name, Data: data, Samples: samples})
	if err != nil {
		log.Warn("prediction failed", zap.Error(err))
		return nil, &Error{Stage: StagePredict, Msg: failurePrefix + err.Error(), Err: err}
	}

	if f.aggregate {
		results = aggregate.ByPlastic(results)
	}
	log.Info("prediction complete", zap.Int("samples", len(samples)), zap.Int("results", len(results)))
	return results, nil
}

func (f *Form) set(fn func(*State)) {
	f.mu.Lock()
	fn(&f.state)
	f.mu.Unlock()
}

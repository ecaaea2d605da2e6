// Package spectra validates uploaded spectral datasets and turns them into
// samples keyed by band name.
package spectra

import (
	"errors"
	"fmt"
	"strings"
)

// Sample is one parsed data row: band name to reading.
type Sample map[string]float64

// BandName returns the header expected at zero-based column i.
func BandName(i int) string {
	return fmt.Sprintf("band%d", i+1)
}

// Vector returns the readings for band1..bandN, substituting fill for any
// band the sample does not carry.
func (s Sample) Vector(n int, fill float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		v, ok := s[BandName(i)]
		if !ok {
			v = fill
		}
		out[i] = v
	}
	return out
}

var (
	ErrMissingFile      = errors.New("Please select a CSV file.")
	ErrInsufficientRows = errors.New("CSV must have headers and at least one data row.")
	ErrHeaderFormat     = errors.New("CSV headers must be sequential: band1, band2, ...")
	ErrTooManyRows      = errors.New("too many rows")
	ErrUnsupportedType  = errors.New("unsupported file type")
)

// RowError reports a data row with the wrong number of fields or a value
// that is not a finite number. Row is 1-based and counts data rows only.
type RowError struct {
	Row     int
	Headers []string
	Err     error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("Row %d must have %d numeric spectral bands (%s).",
		e.Row, len(e.Headers), strings.Join(e.Headers, ", "))
}

func (e *RowError) Unwrap() error { return e.Err }

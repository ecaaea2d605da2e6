package refbackend

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gocarina/gocsv"
)

//go:embed microbial_db.csv
var defaultMicrobialDB []byte

// Microbe is one row of the microbial database.
type Microbe struct {
	PlasticType     string  `csv:"plastic_type"`
	Name            string  `csv:"microbe"`
	OptimalPH       float64 `csv:"optimal_pH"`
	OptimalTemp     float64 `csv:"optimal_temp"`
	Efficiency      float64 `csv:"efficiency"`
	DegradationTime float64 `csv:"degradation_time"` // days
}

type MicrobialDB struct {
	rows []*Microbe
}

// LoadMicrobialDB reads a comma separated table with a header row.
func LoadMicrobialDB(r io.Reader) (*MicrobialDB, error) {
	rows := []*Microbe{}
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parsing microbial database: %w", err)
	}
	for i, m := range rows {
		if m.PlasticType == "" || m.Name == "" {
			return nil, fmt.Errorf("microbial database row %d: plastic_type and microbe are required", i+1)
		}
		if m.DegradationTime <= 0 {
			return nil, fmt.Errorf("microbial database row %d: degradation_time must be positive", i+1)
		}
	}
	return &MicrobialDB{rows: rows}, nil
}

// OpenMicrobialDB loads the table at path, or the embedded table when
// path is empty.
func OpenMicrobialDB(path string) (*MicrobialDB, error) {
	if path == "" {
		return LoadMicrobialDB(bytes.NewReader(defaultMicrobialDB))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadMicrobialDB(f)
}

func (db *MicrobialDB) Len() int { return len(db.rows) }

// Recommend picks the microbe for plasticType whose efficiency, discounted
// by its distance from the given pH and temperature, is highest. The
// first row wins ties.
func (db *MicrobialDB) Recommend(plasticType string, pH, temp float64) (*Microbe, bool) {
	var best *Microbe
	bestScore := math.Inf(-1)
	for _, m := range db.rows {
		if m.PlasticType != plasticType {
			continue
		}
		score := m.Efficiency / (1 + math.Abs(m.OptimalPH-pH) + math.Abs(m.OptimalTemp-temp))
		if score > bestScore {
			best, bestScore = m, score
		}
	}
	return best, best != nil
}

// Degradation is the estimated state after elapsed days.
type Degradation struct {
	Progress float64
	Message  string
}

// Monitor estimates how much of plasticType the microbe has broken down.
// Progress grows linearly with elapsed time and saturates at the
// microbe's efficiency.
func (db *MicrobialDB) Monitor(plasticType, microbe string, elapsed float64) Degradation {
	for _, m := range db.rows {
		if m.PlasticType != plasticType || m.Name != microbe {
			continue
		}
		progress := math.Min(m.Efficiency*(elapsed/m.DegradationTime), m.Efficiency)
		return Degradation{
			Progress: progress,
			Message: fmt.Sprintf("%s has degraded %.1f%% of %s in %g days",
				microbe, progress*100, plasticType, elapsed),
		}
	}
	return Degradation{Message: fmt.Sprintf("No data for %s degrading %s", microbe, plasticType)}
}

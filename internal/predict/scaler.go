package predict

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"riftwatch/internal/features"
)

// ErrDimension is returned when an artifact or input has the wrong width
var ErrDimension = errors.New("dimension mismatch")

// Scaler is a fitted standard scaler: (x - mean) / scale. It is read-only
// after load and safe for concurrent use.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// NewScaler validates mean and scale. Zero scale entries (constant features
// at fit time) are treated as 1.
func NewScaler(mean, scale []float64) (*Scaler, error) {
	if len(mean) != features.Size || len(scale) != features.Size {
		return nil, fmt.Errorf("scaler has %d means and %d scales, want %d: %w",
			len(mean), len(scale), features.Size, ErrDimension)
	}

	s := &Scaler{
		Mean:  append([]float64(nil), mean...),
		Scale: append([]float64(nil), scale...),
	}
	for i, v := range s.Scale {
		if v == 0 {
			s.Scale[i] = 1
		}
	}
	return s, nil
}

// LoadScaler reads a scaler from a JSON file of the form
// {"mean": [...], "scale": [...]}
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scaler: %w", err)
	}

	var raw Scaler
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse scaler: %w", err)
	}
	return NewScaler(raw.Mean, raw.Scale)
}

// Transform returns the normalized copy of v
func (s *Scaler) Transform(v features.Vector) []float64 {
	out := make([]float64, features.Size)
	for i, x := range v {
		out[i] = (x - s.Mean[i]) / s.Scale[i]
	}
	return out
}

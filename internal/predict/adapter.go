// Package predict turns a feature vector into a win-probability pair using a
// fitted scaler and an opaque scorer.
package predict

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"riftwatch/internal/features"
)

var (
	// ErrInvalidTemperature is returned for a non-positive or non-finite temperature
	ErrInvalidTemperature = errors.New("temperature must be > 0")

	// ErrModelUnavailable wraps the artifact load failure of a degraded adapter
	ErrModelUnavailable = errors.New("model unavailable")
)

// Prediction is the probability pair for one vector. SideA is ORDER.
type Prediction struct {
	SideA       float64 `json:"sideA"`
	SideB       float64 `json:"sideB"`
	Degraded    bool    `json:"degraded"`
	Temperature float64 `json:"temperature"`
}

// Neutral is the degraded-mode answer
func Neutral(temperature float64) Prediction {
	return Prediction{SideA: 0.5, SideB: 0.5, Degraded: true, Temperature: temperature}
}

// Adapter scales, scores and calibrates. It never mutates its artifacts, so
// one Adapter may serve concurrent callers.
type Adapter struct {
	scaler *Scaler
	scorer Scorer
	err    error
}

// NewAdapter builds a working adapter
func NewAdapter(scaler *Scaler, scorer Scorer) *Adapter {
	return &Adapter{scaler: scaler, scorer: scorer}
}

// NewDegraded builds an adapter that always answers 50/50. cause is
// reported by Err.
func NewDegraded(cause error) *Adapter {
	return &Adapter{err: fmt.Errorf("%w: %v", ErrModelUnavailable, cause)}
}

// LoadAdapter loads both artifacts. A failure on either yields a degraded
// adapter instead of an error; the cause is logged once here.
func LoadAdapter(scalerPath, modelPath string, logger *zap.Logger) *Adapter {
	log := logger.Sugar()

	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		log.Errorw("Win probability disabled", "artifact", scalerPath, "error", err)
		return NewDegraded(err)
	}

	model, err := LoadMLP(modelPath)
	if err != nil {
		log.Errorw("Win probability disabled", "artifact", modelPath, "error", err)
		return NewDegraded(err)
	}

	log.Infow("Win probability model loaded", "scaler", scalerPath, "model", modelPath, "layers", len(model.layers))
	return NewAdapter(scaler, model)
}

// Err returns the load failure of a degraded adapter, nil otherwise
func (a *Adapter) Err() error {
	return a.err
}

// Degraded reports whether the adapter is permanently disabled
func (a *Adapter) Degraded() bool {
	return a.err != nil
}

// Predict returns (P(side A wins), P(side B wins)). Logits are divided by
// temperature before softmax; values above 1 flatten the distribution.
func (a *Adapter) Predict(v features.Vector, temperature float64) (Prediction, error) {
	if !(temperature > 0) || math.IsInf(temperature, 1) {
		return Prediction{}, fmt.Errorf("%w: got %v", ErrInvalidTemperature, temperature)
	}
	if a.Degraded() {
		return Neutral(temperature), nil
	}

	logits, err := a.scorer.Score(a.scaler.Transform(v))
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to score: %w", err)
	}

	probs, err := Softmax(logits, temperature)
	if err != nil {
		return Prediction{}, err
	}

	return Prediction{SideA: probs[1], SideB: probs[0], Temperature: temperature}, nil
}

// Softmax applies temperature-scaled softmax to a logit pair. For two
// classes this is the logistic of the scaled difference, which saturates to
// 0 or 1 instead of overflowing when logits are huge or temperature is tiny.
// Only NaN logits are rejected.
func Softmax(logits [2]float64, temperature float64) ([2]float64, error) {
	if math.IsNaN(logits[0]) || math.IsNaN(logits[1]) {
		return [2]float64{}, fmt.Errorf("NaN logits %v", logits)
	}
	// covers two infinities of the same sign
	if logits[0] == logits[1] {
		return [2]float64{0.5, 0.5}, nil
	}

	d := (logits[1] - logits[0]) / temperature
	return [2]float64{1 / (1 + math.Exp(d)), 1 / (1 + math.Exp(-d))}, nil
}

package predict

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"riftwatch/internal/features"
)

func identityScaler(t *testing.T) *Scaler {
	t.Helper()
	mean := make([]float64, features.Size)
	scale := make([]float64, features.Size)
	for i := range scale {
		scale[i] = 1
	}
	s, err := NewScaler(mean, scale)
	require.NoError(t, err)
	return s
}

func fixedScorer(logits [2]float64) Scorer {
	return ScorerFunc(func([]float64) ([2]float64, error) { return logits, nil })
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestPredict_SumsToOne(t *testing.T) {
	cases := [][2]float64{{0, 0}, {3, -2}, {-50, 80}, {1e3, -1e3}, {0.1, 0.2}}
	temps := []float64{0.1, 0.5, 1, 1.5, 10}

	for _, logits := range cases {
		a := NewAdapter(identityScaler(t), fixedScorer(logits))
		for _, temp := range temps {
			p, err := a.Predict(features.Vector{}, temp)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, p.SideA, 0.0)
			assert.GreaterOrEqual(t, p.SideB, 0.0)
			assert.InDelta(t, 1.0, p.SideA+p.SideB, 1e-6)
			assert.False(t, p.Degraded)
		}
	}
}

// TestPredict_IndexOneIsSideA tests that the second logit is side A's win
func TestPredict_IndexOneIsSideA(t *testing.T) {
	a := NewAdapter(identityScaler(t), fixedScorer([2]float64{0, 2}))

	p, err := a.Predict(features.Vector{}, 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(2)/(1+math.Exp(2)), p.SideA, 1e-12)
	assert.Greater(t, p.SideA, p.SideB)
}

func TestPredict_TemperatureFlattens(t *testing.T) {
	a := NewAdapter(identityScaler(t), fixedScorer([2]float64{0, 2}))

	sharp, err := a.Predict(features.Vector{}, 0.5)
	require.NoError(t, err)
	plain, err := a.Predict(features.Vector{}, 1)
	require.NoError(t, err)
	flat, err := a.Predict(features.Vector{}, 1.5)
	require.NoError(t, err)

	assert.Greater(t, sharp.SideA, plain.SideA)
	assert.Greater(t, plain.SideA, flat.SideA)
	assert.Greater(t, flat.SideA, 0.5)
	assert.Equal(t, 1.5, flat.Temperature)
}

func TestPredict_InvalidTemperature(t *testing.T) {
	a := NewAdapter(identityScaler(t), fixedScorer([2]float64{0, 1}))
	degraded := NewDegraded(errors.New("missing"))

	for _, temp := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := a.Predict(features.Vector{}, temp)
		assert.ErrorIs(t, err, ErrInvalidTemperature)

		_, err = degraded.Predict(features.Vector{}, temp)
		assert.ErrorIs(t, err, ErrInvalidTemperature)
	}
}

func TestPredict_ScalerApplied(t *testing.T) {
	mean := make([]float64, features.Size)
	scale := make([]float64, features.Size)
	for i := range scale {
		mean[i] = 1
		scale[i] = 2
	}
	scale[3] = 0
	s, err := NewScaler(mean, scale)
	require.NoError(t, err)

	var seen []float64
	scorer := ScorerFunc(func(x []float64) ([2]float64, error) {
		seen = x
		return [2]float64{0, 0}, nil
	})

	v := features.Vector{5, 1, 1, 11}
	_, err = NewAdapter(s, scorer).Predict(v, 1)
	require.NoError(t, err)
	require.Len(t, seen, features.Size)
	assert.Equal(t, 2.0, seen[0])
	assert.Equal(t, 0.0, seen[1])
	assert.Equal(t, 10.0, seen[3], "zero scale treated as 1")
	assert.Equal(t, -0.5, seen[4])
}

func TestPredict_ScorerError(t *testing.T) {
	boom := errors.New("boom")
	a := NewAdapter(identityScaler(t), ScorerFunc(func([]float64) ([2]float64, error) {
		return [2]float64{}, boom
	}))

	_, err := a.Predict(features.Vector{}, 1)
	assert.ErrorIs(t, err, boom)
}

func TestPredict_NaNLogits(t *testing.T) {
	a := NewAdapter(identityScaler(t), fixedScorer([2]float64{math.NaN(), 0}))
	_, err := a.Predict(features.Vector{}, 1)
	assert.Error(t, err)
}

// TestPredict_Saturates tests that overflowing logits or tiny temperatures
// still produce a valid probability pair
func TestPredict_Saturates(t *testing.T) {
	cases := []struct {
		name   string
		logits [2]float64
		temp   float64
		sideA  float64
	}{
		{"subnormal temperature", [2]float64{1, 2}, 1e-310, 1},
		{"subnormal temperature favoring B", [2]float64{2, 1}, 1e-310, 0},
		{"positive infinity", [2]float64{0, math.Inf(1)}, 1.5, 1},
		{"negative infinity", [2]float64{0, math.Inf(-1)}, 1.5, 0},
		{"both positive infinity", [2]float64{math.Inf(1), math.Inf(1)}, 1.5, 0.5},
		{"both negative infinity", [2]float64{math.Inf(-1), math.Inf(-1)}, 1.5, 0.5},
		{"opposite infinities", [2]float64{math.Inf(-1), math.Inf(1)}, 1.5, 1},
		{"huge finite difference", [2]float64{-math.MaxFloat64, math.MaxFloat64}, 0.5, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAdapter(identityScaler(t), fixedScorer(tc.logits))
			p, err := a.Predict(features.Vector{}, tc.temp)
			require.NoError(t, err)
			assert.Equal(t, tc.sideA, p.SideA)
			assert.InDelta(t, 1.0, p.SideA+p.SideB, 1e-6)
			assert.GreaterOrEqual(t, p.SideB, 0.0)
		})
	}
}

// TestPredict_HugeFeatureOverflowsModel tests a finite vector whose logit overflows to +Inf
func TestPredict_HugeFeatureOverflowsModel(t *testing.T) {
	rows := [][]float64{make([]float64, features.Size), make([]float64, features.Size)}
	rows[1][3] = 10 // ORDER gold

	m, err := NewMLP([]Layer{{Weights: rows, Bias: []float64{0, 0}}})
	require.NoError(t, err)

	var v features.Vector
	v[3] = 1e308
	logits, err := m.Score(identityScaler(t).Transform(v))
	require.NoError(t, err)
	require.True(t, math.IsInf(logits[1], 1))

	p, err := NewAdapter(identityScaler(t), m).Predict(v, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.SideA)
	assert.Equal(t, 0.0, p.SideB)
}

func TestDegraded_Neutral(t *testing.T) {
	a := NewDegraded(errors.New("no such file"))

	assert.True(t, a.Degraded())
	assert.ErrorIs(t, a.Err(), ErrModelUnavailable)

	p, err := a.Predict(features.Vector{1, 2, 3}, 1.5)
	require.NoError(t, err)
	assert.Equal(t, Prediction{SideA: 0.5, SideB: 0.5, Degraded: true, Temperature: 1.5}, p)
}

func TestLoadAdapter_MissingArtifacts(t *testing.T) {
	dir := t.TempDir()

	a := LoadAdapter(filepath.Join(dir, "scaler.json"), filepath.Join(dir, "model.json"), zap.NewNop())
	assert.True(t, a.Degraded())
	assert.ErrorIs(t, a.Err(), ErrModelUnavailable)
}

func TestLoadAdapter_BadModel(t *testing.T) {
	dir := t.TempDir()
	scaler := writeFile(t, dir, "scaler.json",
		`{"mean":[0,0,0,0,0,0,0,0,0,0,0,0],"scale":[1,1,1,1,1,1,1,1,1,1,1,1]}`)
	model := writeFile(t, dir, "model.json", `{"layers":[{"weights":[[1,2]],"bias":[0]}]}`)

	a := LoadAdapter(scaler, model, zap.NewNop())
	assert.True(t, a.Degraded())
	assert.ErrorIs(t, a.Err(), ErrModelUnavailable)
}

func TestLoadAdapter_Working(t *testing.T) {
	dir := t.TempDir()
	scaler := writeFile(t, dir, "scaler.json",
		`{"mean":[0,0,0,0,0,0,0,0,0,0,0,0],"scale":[1,1,1,1,1,1,1,1,1,1,1,1]}`)
	// logit 1 = side A kills - side B kills
	model := writeFile(t, dir, "model.json", `{"layers":[{
		"weights":[[0,0,0,0,0,0,0,0,0,0,0,0],[1,0,0,0,0,0,-1,0,0,0,0,0]],
		"bias":[0,0],
		"activation":"linear"}]}`)

	a := LoadAdapter(scaler, model, zap.NewNop())
	require.False(t, a.Degraded())
	require.NoError(t, a.Err())

	p, err := a.Predict(features.Vector{3, 0, 0, 0, 0, 0, 1}, 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(2)/(1+math.Exp(2)), p.SideA, 1e-12)
}

func TestLoadScaler_WrongWidth(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scaler.json", `{"mean":[0,0],"scale":[1,1]}`)

	_, err := LoadScaler(path)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestMLP_HiddenLayer(t *testing.T) {
	hidden := make([][]float64, 2)
	for i := range hidden {
		hidden[i] = make([]float64, features.Size)
	}
	hidden[0][0] = 1  // +x0
	hidden[1][0] = -1 // -x0, zeroed by relu for positive x0

	m, err := NewMLP([]Layer{
		{Weights: hidden, Bias: []float64{0, 0}, Activation: "relu"},
		{Weights: [][]float64{{0, 1}, {1, 0}}, Bias: []float64{0.5, 0}},
	})
	require.NoError(t, err)

	x := make([]float64, features.Size)
	x[0] = 3
	logits, err := m.Score(x)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0.5, 3}, logits)

	_, err = m.Score(x[:4])
	assert.ErrorIs(t, err, ErrDimension)
}

func TestNewMLP_Rejects(t *testing.T) {
	row := make([]float64, features.Size)

	_, err := NewMLP(nil)
	assert.Error(t, err)

	_, err = NewMLP([]Layer{{Weights: [][]float64{row, row, row}, Bias: []float64{0, 0, 0}}})
	assert.ErrorIs(t, err, ErrDimension, "three outputs")

	_, err = NewMLP([]Layer{{Weights: [][]float64{row, row}, Bias: []float64{0}}})
	assert.ErrorIs(t, err, ErrDimension, "bias width")

	_, err = NewMLP([]Layer{{Weights: [][]float64{row, row}, Bias: []float64{0, 0}, Activation: "swish"}})
	assert.Error(t, err)
}

package predict

import (
	"fmt"
	"math"
	"os"

	json "github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"

	"riftwatch/internal/features"
)

// Scorer turns a normalized feature vector into two raw logits. Index 1 is
// the logit for side A (ORDER) winning.
type Scorer interface {
	Score(x []float64) ([2]float64, error)
}

// ScorerFunc adapts a plain function to Scorer
type ScorerFunc func(x []float64) ([2]float64, error)

func (f ScorerFunc) Score(x []float64) ([2]float64, error) {
	return f(x)
}

// Layer is one dense layer as exported from training. Weights are laid
// out [out][in].
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

type modelFile struct {
	Layers []Layer `json:"layers"`
}

type dense struct {
	w   *mat.Dense
	b   *mat.VecDense
	act func(float64) float64
}

// MLP is a feed-forward network evaluated with gonum. Immutable after
// construction.
type MLP struct {
	layers []dense
}

func activation(name string) (func(float64) float64, error) {
	switch name {
	case "", "linear", "identity":
		return nil, nil
	case "relu":
		return func(x float64) float64 { return math.Max(x, 0) }, nil
	case "tanh":
		return math.Tanh, nil
	case "sigmoid":
		return func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}

// NewMLP checks that the layers chain from the feature width down to two
// logits.
func NewMLP(layers []Layer) (*MLP, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}

	m := &MLP{}
	in := features.Size
	for i, l := range layers {
		out := len(l.Weights)
		if out == 0 || len(l.Bias) != out {
			return nil, fmt.Errorf("layer %d: %d weight rows, %d biases: %w", i, out, len(l.Bias), ErrDimension)
		}

		data := make([]float64, 0, out*in)
		for r, row := range l.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("layer %d row %d: width %d, want %d: %w", i, r, len(row), in, ErrDimension)
			}
			data = append(data, row...)
		}

		act, err := activation(l.Activation)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}

		m.layers = append(m.layers, dense{
			w:   mat.NewDense(out, in, data),
			b:   mat.NewVecDense(out, append([]float64(nil), l.Bias...)),
			act: act,
		})
		in = out
	}

	if in != 2 {
		return nil, fmt.Errorf("model outputs %d logits, want 2: %w", in, ErrDimension)
	}
	return m, nil
}

// LoadMLP reads a model from a JSON file of the form
// {"layers": [{"weights": [[...]], "bias": [...], "activation": "relu"}]}
func LoadMLP(path string) (*MLP, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return NewMLP(f.Layers)
}

// Score runs the forward pass
func (m *MLP) Score(x []float64) ([2]float64, error) {
	if len(x) != features.Size {
		return [2]float64{}, fmt.Errorf("input width %d, want %d: %w", len(x), features.Size, ErrDimension)
	}

	h := mat.NewVecDense(len(x), append([]float64(nil), x...))
	for _, l := range m.layers {
		r, _ := l.w.Dims()
		next := mat.NewVecDense(r, nil)
		next.MulVec(l.w, h)
		next.AddVec(next, l.b)
		if l.act != nil {
			for i := 0; i < r; i++ {
				next.SetVec(i, l.act(next.AtVec(i)))
			}
		}
		h = next
	}

	return [2]float64{h.AtVec(0), h.AtVec(1)}, nil
}

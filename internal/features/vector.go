// Package features assembles the model input from two team states.
package features

import (
	"errors"
	"fmt"

	"riftwatch/internal/team"
)

// Size is the width of the model input
const Size = 12

// ErrMissingSide is returned when either team has no usable data for the cycle
var ErrMissingSide = errors.New("team state missing")

// Names lists the fields in the exact order the scaler and model were fit
// on. Never reorder.
var Names = [Size]string{
	"a_kills", "a_deaths", "a_assists", "a_gold", "a_cs", "a_kda",
	"b_kills", "b_deaths", "b_assists", "b_gold", "b_cs", "b_kda",
}

// Vector is the ordered feature vector
type Vector [Size]float64

// Slice returns a copy of the vector as a slice
func (v Vector) Slice() []float64 {
	out := make([]float64, Size)
	copy(out, v[:])
	return out
}

// Build lays out a then b. Side a is the side the model's positive label
// refers to (ORDER).
func Build(a, b *team.State) (Vector, error) {
	if a == nil || len(a.Players) == 0 {
		return Vector{}, fmt.Errorf("side A: %w", ErrMissingSide)
	}
	if b == nil || len(b.Players) == 0 {
		return Vector{}, fmt.Errorf("side B: %w", ErrMissingSide)
	}

	var v Vector
	put(v[0:6], a)
	put(v[6:12], b)
	return v, nil
}

func put(dst []float64, st *team.State) {
	dst[0] = float64(st.Kills)
	dst[1] = float64(st.Deaths)
	dst[2] = float64(st.Assists)
	dst[3] = float64(st.Gold)
	dst[4] = float64(st.CS)
	dst[5] = st.KDA
}

// FromValues builds a vector from raw per-side stats (kills, deaths,
// assists, gold, cs). KDA is derived. Used for one-off predictions.
func FromValues(a, b [5]float64) Vector {
	var v Vector
	for i, side := range [][5]float64{a, b} {
		off := i * 6
		copy(v[off:off+5], side[:])
		v[off+5] = team.KDA(int(side[0]), int(side[1]), int(side[2]))
	}
	return v
}

package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riftwatch/internal/lcu"
	"riftwatch/internal/team"
)

func state(side lcu.Side, k, d, a, gold, cs int, kda float64) *team.State {
	return &team.State{
		Side: side, Kills: k, Deaths: d, Assists: a, Gold: gold, CS: cs, KDA: kda,
		Players: []team.PlayerState{{Name: "p", Side: side}},
	}
}

// TestBuild_PositionalOrder tests the exact field layout the model was fit on
func TestBuild_PositionalOrder(t *testing.T) {
	a := state(lcu.SideOrder, 1, 2, 3, 4000, 5, 2.0)
	b := state(lcu.SideChaos, 6, 7, 8, 9000, 10, 2.0)

	v, err := Build(a, b)
	require.NoError(t, err)

	assert.Equal(t, Vector{1, 2, 3, 4000, 5, 2.0, 6, 7, 8, 9000, 10, 2.0}, v)
}

func TestBuild_SwappedSidesDetected(t *testing.T) {
	a := state(lcu.SideOrder, 1, 2, 3, 4000, 5, 2.0)
	b := state(lcu.SideChaos, 6, 7, 8, 9000, 10, 2.0)

	ab, err := Build(a, b)
	require.NoError(t, err)
	ba, err := Build(b, a)
	require.NoError(t, err)

	assert.NotEqual(t, ab, ba)
	assert.Equal(t, ab[0:6], ba[6:12])
}

func TestBuild_MissingSide(t *testing.T) {
	a := state(lcu.SideOrder, 1, 2, 3, 4000, 5, 2.0)

	_, err := Build(a, nil)
	assert.ErrorIs(t, err, ErrMissingSide)

	_, err = Build(nil, a)
	assert.ErrorIs(t, err, ErrMissingSide)

	_, err = Build(a, &team.State{Side: lcu.SideChaos})
	assert.ErrorIs(t, err, ErrMissingSide)
}

func TestNames_MatchSize(t *testing.T) {
	assert.Len(t, Names, Size)
	assert.Equal(t, "a_kda", Names[5])
	assert.Equal(t, "b_kills", Names[6])
}

func TestFromValues(t *testing.T) {
	v := FromValues([5]float64{5, 0, 5, 10000, 120}, [5]float64{2, 4, 2, 8000, 100})
	assert.Equal(t, Vector{5, 0, 5, 10000, 120, 10, 2, 4, 2, 8000, 100, 1}, v)
}

func TestSlice_IsCopy(t *testing.T) {
	v := Vector{1}
	s := v.Slice()
	s[0] = 99
	assert.Equal(t, 1.0, v[0])
	assert.Len(t, s, Size)
}

package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestRandomWithinProfile(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		p := Random(rng, DefaultProfile)
		require.NoError(t, p.Validate())
		assert.LessOrEqual(t, p.Vel.X, DefaultMaxSpeed)
		assert.GreaterOrEqual(t, p.Vel.X, -DefaultMaxSpeed)
		assert.LessOrEqual(t, p.Vel.Y, DefaultMaxSpeed)
		assert.GreaterOrEqual(t, p.Vel.Y, -DefaultMaxSpeed)
		assert.Equal(t, DefaultRadius, p.Radius)
		assert.Equal(t, DefaultMass, p.Mass)
		assert.Zero(t, p.Count())
	}
}

func TestRandomSetNoOverlap(t *testing.T) {
	set, err := RandomSet(rand.New(rand.NewSource(1)), 60, DefaultProfile)
	require.NoError(t, err)
	require.Len(t, set, 60)

	for i := range set {
		for j := i + 1; j < len(set); j++ {
			assert.False(t, set[i].Overlaps(&set[j]), "particles %d and %d overlap", i, j)
		}
	}
}

func TestRandomSetReproducible(t *testing.T) {
	first, err := RandomSet(rand.New(rand.NewSource(99)), 30, DefaultProfile)
	require.NoError(t, err)
	second, err := RandomSet(rand.New(rand.NewSource(99)), 30, DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRandomSetTooDense(t *testing.T) {
	profile := DefaultProfile
	profile.Radius = 0.2
	_, err := RandomSet(rand.New(rand.NewSource(3)), 50, profile)
	assert.Error(t, err)
}

func TestRandomSetBadRadius(t *testing.T) {
	profile := DefaultProfile
	profile.Radius = 0
	_, err := RandomSet(rand.New(rand.NewSource(3)), 5, profile)
	assert.ErrorIs(t, err, errNonPositiveRadius)

	profile.Radius = 0.6
	_, err = RandomSet(rand.New(rand.NewSource(3)), 5, profile)
	assert.Error(t, err)
}

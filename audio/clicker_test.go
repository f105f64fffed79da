package audio

import (
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/collide/engine"
	"github.com/lixenwraith/collide/event"
)

func energy(samples [][2]float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s[0]*s[0] + s[1]*s[1]
	}
	return sum
}

func TestOscillatorLength(t *testing.T) {
	rate := beep.SampleRate(1000)
	osc := NewOscillator(100, 50*time.Millisecond, WaveSquare, rate)

	buf := make([][2]float64, 40)
	n, ok := osc.Stream(buf)
	assert.Equal(t, 40, n)
	assert.True(t, ok)
	for _, s := range buf[:n] {
		assert.InDelta(t, 1, s[0]*s[0], 1e-12, "square wave is always full scale")
	}

	n, ok = osc.Stream(buf)
	assert.Equal(t, 10, n)
	assert.True(t, ok)

	n, ok = osc.Stream(buf)
	assert.Equal(t, 0, n)
	assert.False(t, ok)
}

func TestEnvelopeShape(t *testing.T) {
	rate := beep.SampleRate(1000)
	osc := NewOscillator(250, 20*time.Millisecond, WaveSquare, rate)
	env := NewEnvelope(osc, 20*time.Millisecond, 5*time.Millisecond, 5*time.Millisecond, rate)

	buf := make([][2]float64, 20)
	n, _ := env.Stream(buf)
	require.Equal(t, 20, n)

	assert.Equal(t, 0.0, buf[0][0], "attack starts silent")
	assert.InDelta(t, 1, abs(buf[10][0]), 1e-12, "sustain")
	assert.Less(t, abs(buf[19][0]), abs(buf[15][0]), "release decays")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestPitch(t *testing.T) {
	soft := Pitch(engine.Collision{Kind: event.KindParticle, Impulse: 0.0001})
	hard := Pitch(engine.Collision{Kind: event.KindParticle, Impulse: 0.01})
	wall := Pitch(engine.Collision{Kind: event.KindVerticalWall, A: 0, B: event.None})

	assert.Greater(t, hard, soft)
	assert.Less(t, wall, soft)
	assert.Equal(t, wall, Pitch(engine.Collision{Kind: event.KindHorizontalWall}))
	assert.LessOrEqual(t, hard, particleBaseFreq+particleSpanFreq)
}

func TestClickerNotifyDropsWhenFull(t *testing.T) {
	k := NewClicker(SampleRate, 2)
	for i := 0; i < 5; i++ {
		k.Notify(engine.Collision{Kind: event.KindParticle, Impulse: 0.001})
	}
	assert.Equal(t, uint64(3), k.Dropped())

	buf := make([][2]float64, 256)
	n, ok := k.Stream(buf)
	assert.Equal(t, 256, n)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), k.Played())
	assert.Greater(t, energy(buf), 0.0)
}

func TestClickerSilentWhenIdle(t *testing.T) {
	k := NewClicker(SampleRate, 8)
	buf := make([][2]float64, 128)
	n, ok := k.Stream(buf)
	assert.Equal(t, 128, n)
	assert.True(t, ok, "stream stays alive for the speaker")
	assert.Equal(t, 0.0, energy(buf))
}

func TestClickerMute(t *testing.T) {
	k := NewClicker(SampleRate, 8)
	k.Notify(engine.Collision{Kind: event.KindHorizontalWall})

	assert.True(t, k.Toggle())
	assert.True(t, k.Muted())
	k.Notify(engine.Collision{Kind: event.KindHorizontalWall})

	buf := make([][2]float64, 128)
	k.Stream(buf)
	assert.Equal(t, 0.0, energy(buf))
	assert.Equal(t, uint64(0), k.Played())

	assert.False(t, k.Toggle())
	k.Notify(engine.Collision{Kind: event.KindHorizontalWall})
	k.Stream(buf)
	assert.Equal(t, uint64(1), k.Played())
}

func TestClickerAsCollisionHook(t *testing.T) {
	k := NewClicker(SampleRate, 64)
	sim, err := engine.NewRandom(7, 10, engine.WithCollisionHook(k.Notify))
	require.NoError(t, err)

	_, err = sim.RunEvents(t.Context(), 20)
	require.NoError(t, err)

	st := sim.Stats()
	assert.Equal(t, st.Collisions+st.WallHits, k.Played()+k.Dropped()+uint64(len(k.pending)))
}

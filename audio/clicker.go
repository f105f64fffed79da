package audio

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/collide/engine"
	"github.com/lixenwraith/collide/event"
)

const (
	// SampleRate is the rate clicks are synthesized at
	SampleRate = beep.SampleRate(44100)

	clickDuration = 30 * time.Millisecond
	clickAttack   = 2 * time.Millisecond
	clickRelease  = 20 * time.Millisecond

	particleBaseFreq = 660.0
	particleSpanFreq = 880.0
	wallFreq         = 220.0

	// Impulse at which the particle pitch is about two thirds up its span
	impulseScale = 0.0025

	particleVolume = 0.35
	wallVolume     = 0.2
)

// Clicker turns collisions into short tones
// Notify is safe from any goroutine and never blocks; Stream is driven by a
// single audio goroutine, typically the speaker
type Clicker struct {
	pending chan engine.Collision
	mixer   *beep.Mixer
	rate    beep.SampleRate
	muted   atomic.Bool
	dropped atomic.Uint64
	played  atomic.Uint64
}

// NewClicker buffers up to capacity collisions between audio callbacks
func NewClicker(rate beep.SampleRate, capacity int) *Clicker {
	if capacity < 1 {
		capacity = 1
	}
	return &Clicker{
		pending: make(chan engine.Collision, capacity),
		mixer:   &beep.Mixer{},
		rate:    rate,
	}
}

// Notify queues a click for c, dropping it when the buffer is full
func (k *Clicker) Notify(c engine.Collision) {
	if k.muted.Load() {
		return
	}
	select {
	case k.pending <- c:
	default:
		k.dropped.Add(1)
	}
}

// Toggle flips muting and returns the new state
func (k *Clicker) Toggle() bool {
	for {
		old := k.muted.Load()
		if k.muted.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Muted reports whether clicks are being discarded
func (k *Clicker) Muted() bool { return k.muted.Load() }

// Dropped returns the number of clicks lost to a full buffer
func (k *Clicker) Dropped() uint64 { return k.dropped.Load() }

// Played returns the number of clicks handed to the mixer
func (k *Clicker) Played() uint64 { return k.played.Load() }

// Stream implements beep.Streamer, it never ends
func (k *Clicker) Stream(samples [][2]float64) (int, bool) {
	k.drain()
	if k.muted.Load() {
		k.mixer.Clear()
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	}
	return k.mixer.Stream(samples)
}

func (k *Clicker) Err() error { return nil }

func (k *Clicker) drain() {
	for {
		select {
		case c := <-k.pending:
			if k.muted.Load() {
				continue
			}
			k.mixer.Add(Click(c, k.rate))
			k.played.Add(1)
		default:
			return
		}
	}
}

// Click synthesizes the tone for one collision
func Click(c engine.Collision, rate beep.SampleRate) beep.Streamer {
	wave, vol := WaveSine, particleVolume
	if c.Kind.Wall() {
		wave, vol = WaveSquare, wallVolume
	}
	osc := NewOscillator(Pitch(c), clickDuration, wave, rate)
	return newVolume(NewEnvelope(osc, clickDuration, clickAttack, clickRelease, rate), vol)
}

// Pitch maps a collision to a frequency: harder particle hits sound higher,
// walls use a fixed low tone
func Pitch(c engine.Collision) float64 {
	if c.Kind != event.KindParticle {
		return wallFreq
	}
	j := math.Abs(c.Impulse)
	if !(j < math.Inf(1)) {
		return particleBaseFreq + particleSpanFreq
	}
	return particleBaseFreq + particleSpanFreq*(1-math.Exp(-j/impulseScale))
}

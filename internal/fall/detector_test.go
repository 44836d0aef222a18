package fall

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMagnitude(t *testing.T) {
	tests := []struct {
		name string
		s    Sample
		want float64
	}{
		{"at rest on one axis", Sample{0, 0, 9.8}, 1},
		{"one g per axis", Sample{9.8, 9.8, 9.8}, 3},
		{"signs ignored", Sample{-9.8, 9.8, -9.8}, 3},
		{"not a vector norm", Sample{19.6, 19.6, 19.6}, 6},
		{"zero", Sample{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Magnitude(tt.s), 1e-9)
		})
	}
}

func TestObserveDisconnectedNeverFalls(t *testing.T) {
	d := NewDetector(DefaultThreshold)

	r := d.Observe(Sample{9.8, 9.8, 9.8}, false)
	assert.InDelta(t, 3.0, r.Magnitude, 1e-9)
	assert.False(t, r.Fall)

	r = d.Observe(Sample{40, 40, 40}, false)
	assert.False(t, r.Fall, "no fall while disconnected, whatever the magnitude")
	assert.Equal(t, 0, d.Falls())
}

func TestObserveThresholdIsStrict(t *testing.T) {
	d := NewDetector(6)

	r := d.Observe(Sample{19.6, 19.6, 19.6}, true)
	assert.False(t, r.Fall, "magnitude equal to the threshold is not a fall")

	r = d.Observe(Sample{19.6, 19.6, 19.7}, true)
	assert.True(t, r.Fall)
}

func TestObserveNoDebounce(t *testing.T) {
	d := NewDetector(DefaultThreshold)
	high := Sample{19.6, 19.6, 19.6} // magnitude 6.0

	for i := 0; i < 5; i++ {
		assert.True(t, d.Observe(high, true).Fall)
	}
	assert.Equal(t, 5, d.Falls())
}

func TestMaxGMonotonic(t *testing.T) {
	d := NewDetector(DefaultThreshold)
	rng := rand.New(rand.NewSource(1))

	prev := 0.0
	for i := 0; i < 500; i++ {
		s := Sample{rng.NormFloat64() * 10, rng.NormFloat64() * 10, rng.NormFloat64() * 10}
		r := d.Observe(s, i%2 == 0)
		assert.GreaterOrEqual(t, r.MaxG, prev)
		assert.Equal(t, max(prev, r.Magnitude), r.MaxG)
		prev = r.MaxG
	}
	assert.Equal(t, prev, d.MaxG())
}

func TestNewDetectorDefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewDetector(0).Threshold())
	assert.Equal(t, 4.0, NewDetector(4).Threshold())
}

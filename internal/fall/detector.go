// Package fall turns accelerometer samples into fall decisions.
package fall

import "math"

// Gravity is the per-axis normalization constant in m/s².
const Gravity = 9.8

// DefaultThreshold is the magnitude above which a sample counts as a fall.
const DefaultThreshold = 5.5

// Sample is one accelerometer reading in m/s².
type Sample struct {
	X, Y, Z float64
}

// Magnitude returns |x|/g + |y|/g + |z|/g. This is a sum of per-axis
// ratios, not a vector norm, and the threshold is defined against it.
func Magnitude(s Sample) float64 {
	return math.Abs(s.X)/Gravity + math.Abs(s.Y)/Gravity + math.Abs(s.Z)/Gravity
}

// Reading is the result of observing one sample.
type Reading struct {
	Magnitude float64
	MaxG      float64
	Fall      bool
}

// Detector makes a single-sample decision per reading. There is no
// debounce: every qualifying sample is a fall. Not safe for concurrent use.
type Detector struct {
	threshold float64
	maxG      float64
	falls     int
}

// NewDetector creates a Detector. A non-positive threshold selects
// DefaultThreshold.
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold}
}

// Observe folds s into MaxG and reports a fall when the magnitude exceeds
// the threshold while armed (a device is connected).
func (d *Detector) Observe(s Sample, armed bool) Reading {
	mag := Magnitude(s)
	if mag > d.maxG {
		d.maxG = mag
	}
	r := Reading{Magnitude: mag, MaxG: d.maxG}
	if armed && mag > d.threshold {
		d.falls++
		r.Fall = true
	}
	return r
}

// MaxG returns the largest magnitude observed so far.
func (d *Detector) MaxG() float64 { return d.maxG }

// Falls returns the number of falls detected so far.
func (d *Detector) Falls() int { return d.falls }

// Threshold returns the configured threshold.
func (d *Detector) Threshold() float64 { return d.threshold }

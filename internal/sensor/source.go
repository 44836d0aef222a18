// Package sensor reads accelerometer samples from a line-oriented stream.
//
// Each line holds one sample as three numbers in m/s², separated by commas
// or whitespace:
//
//	0.12,-0.40,9.79
//	0.10 -0.38 9.81
//
// Blank lines and lines starting with # are skipped.
package sensor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chaz8081/fallwatch/internal/fall"
	"github.com/sirupsen/logrus"
)

// DefaultRateHz is the nominal accelerometer sample rate.
const DefaultRateHz = 50

// LineSource paces samples read from r at a fixed rate.
type LineSource struct {
	r        io.Reader
	interval time.Duration
	logger   *logrus.Logger
}

// NewLineSource creates a source emitting at most rateHz samples per
// second. A non-positive rate disables pacing.
func NewLineSource(r io.Reader, rateHz int, logger *logrus.Logger) *LineSource {
	if logger == nil {
		logger = logrus.New()
	}
	var interval time.Duration
	if rateHz > 0 {
		interval = time.Second / time.Duration(rateHz)
	}
	return &LineSource{r: r, interval: interval, logger: logger}
}

// Samples starts reading in a goroutine. The channel is closed at end of
// input, on a read error or when ctx is cancelled. Malformed lines are
// logged and skipped.
func (s *LineSource) Samples(ctx context.Context) <-chan fall.Sample {
	out := make(chan fall.Sample)
	go func() {
		defer close(out)

		var tick <-chan time.Time
		if s.interval > 0 {
			ticker := time.NewTicker(s.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		sc := bufio.NewScanner(s.r)
		lineNo := 0
		for sc.Scan() {
			lineNo++
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			sample, err := ParseSample(line)
			if err != nil {
				s.logger.WithError(err).WithField("line", lineNo).Warn("skipping accelerometer sample")
				continue
			}

			if tick != nil {
				select {
				case <-tick:
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- sample:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			s.logger.WithError(err).Error("accelerometer error")
		}
	}()
	return out
}

// ParseSample parses "x,y,z" or "x y z". Each value must be finite.
func ParseSample(line string) (fall.Sample, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == ';'
	})
	if len(fields) != 3 {
		return fall.Sample{}, fmt.Errorf("sensor: want 3 values, got %d in %q", len(fields), line)
	}

	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fall.Sample{}, fmt.Errorf("sensor: parse %q: %w", f, err)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fall.Sample{}, fmt.Errorf("sensor: %q is not a finite number", f)
		}
		v[i] = x
	}
	return fall.Sample{X: v[0], Y: v[1], Z: v[2]}, nil
}

// Open opens the sample stream at path; "-" is stdin.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sensor: open %s: %w", path, err)
	}
	return f, nil
}

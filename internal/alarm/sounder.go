// Package alarm plays an audible alarm on the default output device while
// a fall alert is outstanding.
package alarm

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

// Options selects the alarm sound. WAVPath takes precedence over ToneHz.
type Options struct {
	WAVPath    string
	ToneHz     float64
	SampleRate uint32
}

// Sounder loops a mono sound while started.
type Sounder struct {
	ctx    *malgo.AllocatedContext
	logger *logrus.Logger

	sampleRate uint32
	pcm        []float32

	mu      sync.Mutex
	device  *malgo.Device
	pos     int
	playing bool
}

// Open prepares the alarm sound and the audio context. Call Close when done.
func Open(opts Options, logger *logrus.Logger) (*Sounder, error) {
	if logger == nil {
		logger = logrus.New()
	}

	var (
		pcm  []float32
		rate = opts.SampleRate
	)
	if opts.WAVPath != "" {
		var err error
		pcm, rate, err = LoadWAV(opts.WAVPath)
		if err != nil {
			return nil, err
		}
	} else {
		pcm = BeepPattern(opts.ToneHz, rate)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("alarm: empty alarm sound")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("alarm: initializing audio context: %w", err)
	}

	s := newSounder(pcm, rate, logger)
	s.ctx = ctx
	return s, nil
}

func newSounder(pcm []float32, sampleRate uint32, logger *logrus.Logger) *Sounder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Sounder{
		logger:     logger,
		sampleRate: sampleRate,
		pcm:        pcm,
	}
}

// Start begins looping the alarm. Starting a playing alarm is a no-op.
func (s *Sounder) Start() error {
	s.mu.Lock()
	if s.playing {
		s.mu.Unlock()
		return nil
	}
	s.pos = 0
	s.playing = true
	s.mu.Unlock()

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceCfg.Playback.Format = malgo.FormatF32
	deviceCfg.Playback.Channels = 1
	deviceCfg.SampleRate = s.sampleRate

	device, err := malgo.InitDevice(s.ctx.Context, deviceCfg, malgo.DeviceCallbacks{
		Data: s.onSamples,
	})
	if err != nil {
		s.setStopped()
		return fmt.Errorf("alarm: initializing playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		s.setStopped()
		return fmt.Errorf("alarm: starting playback device: %w", err)
	}

	s.mu.Lock()
	s.device = device
	s.mu.Unlock()

	s.logger.Info("alarm sounding")
	return nil
}

// Stop silences the alarm. Stopping a silent alarm is a no-op.
func (s *Sounder) Stop() {
	s.mu.Lock()
	device := s.device
	wasPlaying := s.playing
	s.device = nil
	s.playing = false
	s.mu.Unlock()

	if device != nil {
		device.Uninit()
	}
	if wasPlaying {
		s.logger.Info("alarm silenced")
	}
}

// Playing reports whether the alarm is sounding.
func (s *Sounder) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Close stops playback and releases the audio context.
func (s *Sounder) Close() error {
	s.Stop()
	if s.ctx != nil {
		if err := s.ctx.Uninit(); err != nil {
			return fmt.Errorf("alarm: uninitializing audio context: %w", err)
		}
		s.ctx.Free()
		s.ctx = nil
	}
	return nil
}

func (s *Sounder) setStopped() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

// onSamples is the malgo playback callback. It fills pOutput with
// little-endian float32 frames, looping the alarm sound.
func (s *Sounder) onSamples(pOutput, _ []byte, frameCount uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := uint32(0); i < frameCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(pOutput)) {
			break
		}
		binary.LittleEndian.PutUint32(pOutput[offset:], math.Float32bits(s.pcm[s.pos]))
		s.pos = (s.pos + 1) % len(s.pcm)
	}
}

// BeepPattern returns one second of sound: half a second of a sine tone at
// hz followed by half a second of silence.
func BeepPattern(hz float64, sampleRate uint32) []float32 {
	if hz <= 0 || sampleRate == 0 {
		return nil
	}
	pcm := make([]float32, sampleRate)
	for i := 0; i < len(pcm)/2; i++ {
		pcm[i] = float32(0.5 * math.Sin(2*math.Pi*hz*float64(i)/float64(sampleRate)))
	}
	return pcm
}

// LoadWAV reads a PCM WAV file, mixes it down to mono and normalizes the
// samples to [-1, 1].
func LoadWAV(path string) ([]float32, uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("alarm: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("alarm: %s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("alarm: decode %s: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	pcm := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		pcm[i] = sum / float32(channels)
	}
	return pcm, uint32(buf.Format.SampleRate), nil
}

// Package monitor runs the fall-detection control loop. One goroutine owns
// the detector and the active session; poll ticks, accelerometer samples
// and connect requests are all handled in that goroutine, one at a time.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chaz8081/fallwatch/internal/ble"
	"github.com/chaz8081/fallwatch/internal/fall"
	"github.com/chaz8081/fallwatch/internal/notify"
	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is the period of the status poll.
const DefaultPollInterval = 500 * time.Millisecond

// Link is the connection to the peripheral.
type Link interface {
	Connect(ctx context.Context, target string) (*ble.Session, error)
	Session() *ble.Session
}

// Notifier delivers event labels to a remote service.
type Notifier interface {
	Notify(ctx context.Context, label string)
}

// Alarm sounds locally while a fall alert is outstanding.
type Alarm interface {
	Start() error
	Stop()
}

// Reporter shows the operator what the loop is doing.
type Reporter interface {
	Status(msg string)
	Error(msg string)
	Readout(magnitude, maxG float64)
	State(sent, current byte)
}

// Options configures a Monitor. Nil Notifier, Desktop, Alarm and Reporter
// are allowed and disable that output.
type Options struct {
	PollInterval time.Duration
	Threshold    float64
	Notifier     Notifier
	Desktop      Notifier // shows event labels on the local desktop
	Alarm        Alarm
	Reporter     Reporter
}

type connectResult struct {
	target  string
	session *ble.Session
	err     error
}

// Monitor couples the fall detector to the peripheral and the notifier.
type Monitor struct {
	link     Link
	detector *fall.Detector
	interval time.Duration
	notifier Notifier
	desktop  Notifier
	alarm    Alarm
	reporter Reporter
	logger   *logrus.Logger

	requests chan string
	results  chan connectResult
	alarmOn  bool
}

// New creates a Monitor.
func New(link Link, opts Options, logger *logrus.Logger) *Monitor {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	return &Monitor{
		link:     link,
		detector: fall.NewDetector(opts.Threshold),
		interval: opts.PollInterval,
		notifier: opts.Notifier,
		desktop:  opts.Desktop,
		alarm:    opts.Alarm,
		reporter: opts.Reporter,
		logger:   logger,
		requests: make(chan string, 1),
		results:  make(chan connectResult),
	}
}

// Detector returns the monitor's fall detector.
func (m *Monitor) Detector() *fall.Detector { return m.detector }

// RequestConnect asks the loop to scan for and connect to target. It does
// not block; a request made while another is still queued is dropped.
func (m *Monitor) RequestConnect(target string) bool {
	select {
	case m.requests <- target:
		return true
	default:
		m.logger.WithField("device", target).Warn("connect request already pending")
		return false
	}
}

// Run drives the loop until ctx is done. samples may be nil or closed;
// polling and connecting continue without them.
func (m *Monitor) Run(ctx context.Context, samples <-chan fall.Sample) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			m.stopAlarm()
			return nil

		case target := <-m.requests:
			m.reporter.Status(fmt.Sprintf("Scanning for %s...", target))
			wg.Add(1)
			go func() {
				defer wg.Done()
				sess, err := m.link.Connect(ctx, target)
				select {
				case m.results <- connectResult{target: target, session: sess, err: err}:
				case <-ctx.Done():
				}
			}()

		case res := <-m.results:
			m.handleConnect(res)

		case <-ticker.C:
			m.Poll(ctx)

		case s, ok := <-samples:
			if !ok {
				m.logger.Info("accelerometer stream ended")
				samples = nil
				continue
			}
			m.HandleSample(ctx, s)
		}
	}
}

func (m *Monitor) handleConnect(res connectResult) {
	log := m.logger.WithField("device", res.target)
	if res.err != nil {
		if errors.Is(res.err, context.Canceled) {
			log.WithError(res.err).Debug("connect attempt superseded")
			return
		}
		log.WithError(res.err).Error("connect failed")
		switch {
		case errors.Is(res.err, ble.ErrNotFound):
			m.reporter.Error(fmt.Sprintf("%s not found", res.target))
		default:
			m.reporter.Error(res.err.Error())
		}
		return
	}

	// A fresh session starts with nothing sent, so no alert is outstanding.
	m.stopAlarm()
	m.reporter.Status(fmt.Sprintf("Connected to %s", res.session.Device.Name))
	log.WithField("address", res.session.Device.Address).Info("session ready")
}

// HandleSample runs the detector on one sample. On a fall it raises the
// alert on the peripheral, sounds the alarm and notifies.
func (m *Monitor) HandleSample(ctx context.Context, s fall.Sample) {
	sess := m.link.Session()
	r := m.detector.Observe(s, sess != nil)
	m.reporter.Readout(r.Magnitude, r.MaxG)
	if !r.Fall {
		return
	}

	m.logger.WithField("magnitude", r.Magnitude).Warnf("%d falls detected", m.detector.Falls())
	if err := sess.WriteCommand(ble.CommandAlert); err != nil {
		m.logger.WithError(err).Warn("alert write failed, sent state kept")
		m.reporter.Error("Write characteristic failed")
	}
	m.startAlarm()
	m.send(ctx, notify.EventFallDetected)
}

// Poll reads the peripheral status once. A button press on the peripheral
// while an alert is outstanding clears the alert. Without a session Poll
// does nothing.
func (m *Monitor) Poll(ctx context.Context) {
	sess := m.link.Session()
	if sess == nil {
		return
	}

	current, err := sess.ReadStatus()
	if err != nil {
		m.logger.WithError(err).Error("status read failed")
		m.reporter.Error("Read characteristic failed")
		return
	}
	m.reporter.State(sess.SentState(), current)

	if !Cancels(sess.SentState(), current) {
		return
	}

	m.logger.WithField("status", current).Info("fall alert cancelled on device")
	if err := sess.WriteCommand(ble.CommandClear); err != nil {
		m.logger.WithError(err).Warn("clear write failed, sent state kept")
		m.reporter.Error("Write characteristic failed")
	}
	m.stopAlarm()
	m.send(ctx, notify.EventFallCancelled)
}

// Cancels reports whether a status read of current, with sent as the last
// command written, cancels an outstanding alert.
func Cancels(sent, current byte) bool {
	if sent != ble.CommandAlert {
		return false
	}
	return current == ble.StatusButton1 || current == ble.StatusButton2
}

func (m *Monitor) send(ctx context.Context, label string) {
	if m.desktop != nil {
		m.desktop.Notify(ctx, label)
	}
	if m.notifier != nil {
		m.notifier.Notify(ctx, label)
	}
}

func (m *Monitor) startAlarm() {
	if m.alarm == nil || m.alarmOn {
		return
	}
	if err := m.alarm.Start(); err != nil {
		m.logger.WithError(err).Error("alarm failed to start")
		return
	}
	m.alarmOn = true
}

func (m *Monitor) stopAlarm() {
	if m.alarm == nil || !m.alarmOn {
		return
	}
	m.alarm.Stop()
	m.alarmOn = false
}

type nopReporter struct{}

func (nopReporter) Status(string) {}
func (nopReporter) Error(string) {}
func (nopReporter) Readout(float64, float64) {}
func (nopReporter) State(byte, byte) {}

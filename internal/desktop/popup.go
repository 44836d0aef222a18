// Package desktop shows fall events in a desktop dialog using robotgo.
package desktop

import (
	"context"
	"sync"

	"github.com/go-vgo/robotgo"
	"github.com/sirupsen/logrus"
)

// Title is the dialog window title.
const Title = "fallwatch"

// Popup shows each event label in a dialog. robotgo.Alert blocks until the
// dialog is dismissed, so every dialog runs in its own goroutine. While a
// dialog for a label is open, further events with that label are not shown
// again.
type Popup struct {
	show   func(title, msg string) bool
	logger *logrus.Logger

	mu   sync.Mutex
	open map[string]bool
	wg   sync.WaitGroup
}

// NewPopup creates a Popup backed by the platform dialog.
func NewPopup(logger *logrus.Logger) *Popup {
	return newPopup(func(title, msg string) bool {
		return robotgo.Alert(title, msg)
	}, logger)
}

func newPopup(show func(title, msg string) bool, logger *logrus.Logger) *Popup {
	if logger == nil {
		logger = logrus.New()
	}
	return &Popup{
		show:   show,
		logger: logger,
		open:   make(map[string]bool),
	}
}

// Notify shows label without waiting for the dialog to close.
func (p *Popup) Notify(_ context.Context, label string) {
	p.mu.Lock()
	if p.open[label] {
		p.mu.Unlock()
		p.logger.WithField("event", label).Debug("dialog already open")
		return
	}
	p.open[label] = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.show(Title, label)

		p.mu.Lock()
		delete(p.open, label)
		p.mu.Unlock()
	}()
}

// Wait blocks until every dialog shown so far has been dismissed.
func (p *Popup) Wait() {
	p.wg.Wait()
}

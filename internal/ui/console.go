// Package ui renders monitor status lines on a terminal.
package ui

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// Console prints status, accelerometer and device state lines. Readout
// and state lines are printed only when their value changes.
type Console struct {
	mu  sync.Mutex
	out io.Writer

	info    *color.Color
	err     *color.Color
	readout *color.Color
	state   *color.Color

	maxG     float64
	lastSent int
	lastRead int
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:      out,
		info:     color.New(color.FgCyan),
		err:      color.New(color.FgRed, color.Bold),
		readout:  color.New(color.FgYellow),
		state:    color.New(color.FgGreen),
		lastSent: -1,
		lastRead: -1,
	}
}

// Status prints a status message.
func (c *Console) Status(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.Fprintf(c.out, "Status: %s\n", msg)
}

// Error prints an error message.
func (c *Console) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err.Fprintf(c.out, "Error: %s\n", msg)
}

// Readout prints the accelerometer magnitude when MaxG has grown.
func (c *Console) Readout(magnitude, maxG float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if maxG <= c.maxG {
		return
	}
	c.maxG = maxG
	c.readout.Fprintf(c.out, "acc: %.2f g  max: %.2f g\n", magnitude, maxG)
}

// State prints the last sent command and current peripheral status when
// either changed.
func (c *Console) State(sent, current byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(sent) == c.lastSent && int(current) == c.lastRead {
		return
	}
	c.lastSent, c.lastRead = int(sent), int(current)
	c.state.Fprintf(c.out, "Sent: %d, Current: %d\n", sent, current)
}

package ble

import "fmt"

// Session is the state of one connection to the peripheral. It is created
// by Manager.Connect and dropped when the connection closes. A Session is
// not safe for concurrent use; the monitor loop owns it.
type Session struct {
	Device Device

	status  Characteristic
	command Characteristic

	sent byte // last command value this app tried to write
	read byte // last status value read from the peripheral
}

// NewSession creates a Session for a connected device. The sent state
// starts at CommandClear.
func NewSession(dev Device, status, command Characteristic) *Session {
	return &Session{
		Device:  dev,
		status:  status,
		command: command,
	}
}

// SentState returns the last command value written (or attempted).
func (s *Session) SentState() byte { return s.sent }

// ReadState returns the last status value read.
func (s *Session) ReadState() byte { return s.read }

// ReadStatus reads the single status byte from the peripheral.
func (s *Session) ReadStatus() (byte, error) {
	data, err := s.status.Read()
	if err != nil {
		return 0, fmt.Errorf("ble: read status: %w: %w", ErrRead, err)
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("ble: read status: %w: empty value", ErrRead)
	}
	s.read = data[0]
	return s.read, nil
}

// WriteCommand records b as the sent state and writes it to the command
// characteristic. The sent state is kept even when the write fails, so it
// can differ from the peripheral until the next successful write.
func (s *Session) WriteCommand(b byte) error {
	s.sent = b
	if err := s.command.Write([]byte{b}); err != nil {
		return fmt.Errorf("ble: write command %d: %w: %w", b, ErrWrite, err)
	}
	return nil
}

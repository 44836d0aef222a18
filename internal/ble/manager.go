package ble

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Manager owns the single active connection to the peripheral.
type Manager struct {
	adapter Adapter
	logger  *logrus.Logger

	// connectMu serializes Connect calls.
	connectMu sync.Mutex

	mu            sync.Mutex
	enabled       bool
	conn          Connection
	session       *Session
	attempt       uint64
	cancelAttempt context.CancelFunc
}

// NewManager creates a Manager on top of the given adapter.
func NewManager(adapter Adapter, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		adapter: adapter,
		logger:  logger,
	}
}

// Connect scans for a device named target, connects to it and discovers
// the status and command characteristics. Any previous scan or connection
// is torn down first, so at most one connection is ever open. A Connect
// that is still running when a newer one starts is cancelled.
func (m *Manager) Connect(ctx context.Context, target string) (*Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	if m.cancelAttempt != nil {
		m.cancelAttempt()
	}
	m.attempt++
	id := m.attempt
	m.cancelAttempt = cancel
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		if m.attempt == id {
			m.cancelAttempt = nil
		}
		m.mu.Unlock()
	}()

	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ble: connect to %q: %w", target, err)
	}

	m.teardown()

	if err := m.enable(); err != nil {
		return nil, err
	}

	dev, err := FindByName(ctx, m.adapter, target, m.logger)
	if err != nil {
		return nil, err
	}

	m.logger.WithField("address", dev.Address).Info("[BLE] connecting")
	conn, err := m.adapter.Connect(ctx, dev)
	if err != nil {
		return nil, fmt.Errorf("ble: connect to %s: %w: %w", dev.Address, ErrConnect, err)
	}

	// Registered before setup so a drop during discovery is not lost.
	var dropped atomic.Bool
	conn.OnDisconnect(func() {
		dropped.Store(true)
		m.handleDisconnect(conn)
	})

	sess, err := m.initSession(conn, dev)
	if err != nil {
		if derr := conn.Disconnect(); derr != nil {
			m.logger.WithError(derr).Warn("[BLE] disconnect after failed discovery")
		}
		return nil, err
	}

	m.mu.Lock()
	if dropped.Load() {
		m.mu.Unlock()
		return nil, fmt.Errorf("ble: connect to %s: %w: disconnected during setup", dev.Address, ErrConnect)
	}
	m.conn = conn
	m.session = sess
	m.mu.Unlock()

	m.logger.WithField("address", dev.Address).Infof("[BLE] connected to %s", dev.Name)
	return sess, nil
}

// initSession logs the peripheral's services and looks up both
// characteristics.
func (m *Manager) initSession(conn Connection, dev Device) (*Session, error) {
	if m.logger.IsLevelEnabled(logrus.DebugLevel) {
		services, err := conn.Services()
		if err != nil {
			m.logger.WithError(err).Debug("[BLE] failed to read services")
		}
		for _, svc := range services {
			m.logger.Debugf("  service: %s", svc.UUID)
			for _, c := range svc.Characteristics {
				m.logger.Debugf("    characteristic: %s", c)
			}
		}
	}

	status, err := conn.DiscoverCharacteristic(ServiceUUID, StatusCharUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: discover status characteristic: %w: %w", ErrServiceDiscovery, err)
	}
	command, err := conn.DiscoverCharacteristic(ServiceUUID, CommandCharUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: discover command characteristic: %w: %w", ErrServiceDiscovery, err)
	}
	return NewSession(dev, status, command), nil
}

func (m *Manager) enable() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enabled {
		return nil
	}
	if err := m.adapter.Enable(); err != nil {
		return fmt.Errorf("ble: enable adapter: %w", err)
	}
	m.enabled = true
	return nil
}

// teardown stops any scan and closes the open connection, in that order.
func (m *Manager) teardown() {
	m.mu.Lock()
	enabled := m.enabled
	conn := m.conn
	m.conn = nil
	m.session = nil
	m.mu.Unlock()

	if enabled {
		if err := m.adapter.StopScan(); err != nil {
			m.logger.WithError(err).Debug("[BLE] stop scan")
		}
	}
	if conn != nil {
		if err := conn.Disconnect(); err != nil {
			m.logger.WithError(err).Warn("[BLE] disconnect previous device")
		}
	}
}

// handleDisconnect clears the session if conn is still the active one.
func (m *Manager) handleDisconnect(conn Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != conn {
		return
	}
	m.logger.Warn("[BLE] disconnected")
	m.conn = nil
	m.session = nil
}

// Connected reports whether a device is currently connected.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// Session returns the active session, or nil while disconnected.
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Close cancels any running Connect and closes the connection.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.cancelAttempt != nil {
		m.cancelAttempt()
	}
	m.mu.Unlock()

	m.connectMu.Lock()
	defer m.connectMu.Unlock()
	m.teardown()
	return nil
}

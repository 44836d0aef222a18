package ble

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"
)

// maxReadLen bounds a characteristic read; the peripheral's values are at
// most 10 bytes.
const maxReadLen = 20

// TinyGoAdapter wraps tinygo-org/bluetooth. Addresses are the strings
// reported by the platform stack (MAC on Linux and Windows, CoreBluetooth
// UUID on macOS).
type TinyGoAdapter struct {
	adapter *bluetooth.Adapter

	// mu protects addresses, connections and scanStop.
	mu          sync.Mutex
	addresses   map[string]bluetooth.Address // seen during scans
	connections map[string]*tinyGoConnection
	scanStop    *scanStopper // non-nil while a scan runs
}

// scanStopper stops one scan at most once. The platform StopScan is not
// safe to call twice for the same scan. A failed stop (not scanning yet)
// can be retried.
type scanStopper struct {
	mu      sync.Mutex
	stop    func() error
	stopped bool
}

func newScanStopper(stop func() error) *scanStopper {
	return &scanStopper{stop: stop}
}

func (s *scanStopper) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	if err := s.stop(); err != nil {
		return err
	}
	s.stopped = true
	return nil
}

// NewTinyGoAdapter creates a BLE adapter on the platform's default adapter.
func NewTinyGoAdapter() *TinyGoAdapter {
	return &TinyGoAdapter{
		adapter:     bluetooth.DefaultAdapter,
		addresses:   make(map[string]bluetooth.Address),
		connections: make(map[string]*tinyGoConnection),
	}
}

func (a *TinyGoAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return err
	}

	// The adapter-level handler is the only place disconnects are reported.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		id := device.Address.String()
		a.mu.Lock()
		conn, ok := a.connections[id]
		delete(a.connections, id)
		a.mu.Unlock()
		if ok {
			conn.fireDisconnect()
		}
	})

	return nil
}

func (a *TinyGoAdapter) Scan(ctx context.Context, onDevice func(Device) bool) error {
	stopper := newScanStopper(a.adapter.StopScan)
	a.mu.Lock()
	a.scanStop = stopper
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		if a.scanStop == stopper {
			a.scanStop = nil
		}
		a.mu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = stopper.Stop()
		case <-done:
		}
	}()

	err := a.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		addr := result.Address.String()
		a.mu.Lock()
		a.addresses[addr] = result.Address
		a.mu.Unlock()

		stop := onDevice(Device{
			Name:    result.LocalName(),
			Address: addr,
			RSSI:    int(result.RSSI),
		})
		if stop || ctx.Err() != nil {
			_ = stopper.Stop()
		}
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// StopScan stops the running scan, sharing its once-only stop with the
// scan's own context and match handling.
func (a *TinyGoAdapter) StopScan() error {
	a.mu.Lock()
	stopper := a.scanStop
	a.mu.Unlock()
	if stopper != nil {
		return stopper.Stop()
	}
	return a.adapter.StopScan()
}

func (a *TinyGoAdapter) Connect(ctx context.Context, dev Device) (Connection, error) {
	a.mu.Lock()
	addr, ok := a.addresses[dev.Address]
	a.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("device %s was not seen in a scan", dev.Address)
	}

	// tinygo/bluetooth's Connect blocks with its own timeout; ctx only
	// lets the caller stop waiting.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if result := <-ch; result.err == nil {
				_ = result.device.Disconnect()
			}
		}()
		return nil, ctx.Err()
	case result := <-ch:
		if result.err != nil {
			return nil, result.err
		}
		conn := &tinyGoConnection{device: result.device}

		a.mu.Lock()
		a.connections[dev.Address] = conn
		a.mu.Unlock()

		return conn, nil
	}
}

// Compile-time check that TinyGoAdapter implements Adapter.
var _ Adapter = (*TinyGoAdapter)(nil)

type tinyGoConnection struct {
	device bluetooth.Device

	mu           sync.Mutex
	disconnectCb func()
	down         bool
}

// fireDisconnect runs the callback, or remembers the drop so a callback
// registered later still runs.
func (c *tinyGoConnection) fireDisconnect() {
	c.mu.Lock()
	c.down = true
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (c *tinyGoConnection) DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error) {
	svcUUID, err := bluetooth.ParseUUID(serviceUUID)
	if err != nil {
		return nil, err
	}
	charUUIDParsed, err := bluetooth.ParseUUID(charUUID)
	if err != nil {
		return nil, err
	}

	svcs, err := c.device.DiscoverServices([]bluetooth.UUID{svcUUID})
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("service %s not found", serviceUUID)
	}

	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{charUUIDParsed})
	if err != nil {
		return nil, fmt.Errorf("discover characteristics: %w", err)
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("characteristic %s not found", charUUID)
	}

	return &tinyGoCharacteristic{char: chars[0]}, nil
}

func (c *tinyGoConnection) Services() ([]ServiceInfo, error) {
	svcs, err := c.device.DiscoverServices(nil)
	if err != nil {
		return nil, err
	}

	var errs []error
	infos := make([]ServiceInfo, 0, len(svcs))
	for _, svc := range svcs {
		info := ServiceInfo{UUID: svc.UUID().String()}
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("service %s: %w", info.UUID, err))
		}
		for _, ch := range chars {
			info.Characteristics = append(info.Characteristics, ch.UUID().String())
		}
		infos = append(infos, info)
	}
	return infos, errors.Join(errs...)
}

func (c *tinyGoConnection) Disconnect() error {
	return c.device.Disconnect()
}

func (c *tinyGoConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	c.disconnectCb = cb
	down := c.down
	c.mu.Unlock()
	if down && cb != nil {
		cb()
	}
}

type tinyGoCharacteristic struct {
	char bluetooth.DeviceCharacteristic
}

func (c *tinyGoCharacteristic) Read() ([]byte, error) {
	buf := make([]byte, maxReadLen)
	n, err := c.char.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (c *tinyGoCharacteristic) Write(data []byte) error {
	return writeValue(c.char, data)
}

// Package ble connects to the fall-alert peripheral. It handles discovery
// by advertised name, the single active connection and the status/command
// characteristic I/O over Bluetooth Low Energy.
package ble

import "context"

// Fall-alert peripheral GATT UUIDs.
const (
	ServiceUUID     = "0000a000-0000-1000-8000-00805f9b34fb"
	StatusCharUUID  = "0000a001-0000-1000-8000-00805f9b34fb"
	CommandCharUUID = "0000a002-0000-1000-8000-00805f9b34fb"
)

// Command bytes written to the command characteristic. Values 1 and 2
// light a single LED on the peripheral and are not used by the monitor.
const (
	CommandClear byte = 0
	CommandAlert byte = 3
)

// Status bytes reported by the peripheral when one of its buttons is pressed.
const (
	StatusButton1 byte = 4
	StatusButton2 byte = 5
)

// Characteristic represents a BLE GATT characteristic.
type Characteristic interface {
	// Read returns the current value of the characteristic.
	Read() ([]byte, error)
	// Write sends data to the characteristic and waits for the acknowledgement.
	Write(data []byte) error
}

// Device represents a discovered BLE peripheral.
type Device struct {
	Name    string
	Address string
	RSSI    int
}

// ServiceInfo lists a discovered service and its characteristic UUIDs.
type ServiceInfo struct {
	UUID            string
	Characteristics []string
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverCharacteristic finds a characteristic by UUID within a service.
	DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error)
	// Services discovers every service and characteristic the peripheral exposes.
	Services() ([]ServiceInfo, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan reports every advertisement to onDevice until onDevice returns
	// true, StopScan is called or ctx is cancelled. Cancellation is not an
	// error.
	Scan(ctx context.Context, onDevice func(Device) bool) error
	// StopScan stops an in-flight scan.
	StopScan() error
	// Connect establishes a connection to a device reported by Scan.
	Connect(ctx context.Context, dev Device) (Connection, error)
}

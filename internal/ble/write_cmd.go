//go:build !darwin && !windows

package ble

import "tinygo.org/x/bluetooth"

// writeValue hands the value to the stack. BlueZ turns a WriteValue call
// without a type option into a write request when the characteristic
// supports one, which the command characteristic does.
func writeValue(c bluetooth.DeviceCharacteristic, data []byte) error {
	_, err := c.WriteWithoutResponse(data)
	return err
}

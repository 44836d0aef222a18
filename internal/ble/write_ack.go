//go:build darwin || windows

package ble

import "tinygo.org/x/bluetooth"

// writeValue issues an acknowledged write request.
func writeValue(c bluetooth.DeviceCharacteristic, data []byte) error {
	_, err := c.Write(data)
	return err
}

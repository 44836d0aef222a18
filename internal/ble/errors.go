package ble

import "errors"

// Error kinds reported by the directory, manager and session. Returned
// errors wrap one of these together with the platform error.
var (
	ErrScan             = errors.New("scan failed")
	ErrNotFound         = errors.New("device not found")
	ErrConnect          = errors.New("connection failed")
	ErrServiceDiscovery = errors.New("service discovery failed")
	ErrRead             = errors.New("characteristic read failed")
	ErrWrite            = errors.New("characteristic write failed")
)

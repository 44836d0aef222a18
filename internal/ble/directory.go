package ble

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// FindByName scans until a device advertising exactly target (case
// sensitive) is seen, stops the scan and returns it. Unnamed devices are
// ignored. It returns ErrNotFound if ctx ends first.
func FindByName(ctx context.Context, adapter Adapter, target string, logger *logrus.Logger) (Device, error) {
	if logger == nil {
		logger = logrus.New()
	}

	var (
		mu    sync.Mutex
		found *Device
	)
	err := adapter.Scan(ctx, func(d Device) bool {
		if d.Name == "" {
			return false
		}
		logger.Debugf("%s : %s", d.Name, strings.ReplaceAll(d.Address, ":", ""))
		if d.Name != target {
			return false
		}

		mu.Lock()
		defer mu.Unlock()
		if found == nil {
			found = &d
		}
		return true
	})
	if err != nil {
		return Device{}, fmt.Errorf("ble: scan: %w: %w", ErrScan, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if found == nil {
		if err := ctx.Err(); err != nil {
			return Device{}, fmt.Errorf("ble: %q: %w: %w", target, ErrNotFound, err)
		}
		return Device{}, fmt.Errorf("ble: %q: %w", target, ErrNotFound)
	}
	logger.WithField("address", found.Address).Infof("[BLE] device found: %s", found.Name)
	return *found, nil
}

// ListNamed collects every distinct named device seen until ctx ends,
// sorted by name.
func ListNamed(ctx context.Context, adapter Adapter) ([]Device, error) {
	var mu sync.Mutex
	seen := make(map[string]Device)

	err := adapter.Scan(ctx, func(d Device) bool {
		if d.Name == "" {
			return false
		}
		mu.Lock()
		seen[d.Address] = d
		mu.Unlock()
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("ble: scan: %w: %w", ErrScan, err)
	}

	mu.Lock()
	defer mu.Unlock()
	devices := make([]Device, 0, len(seen))
	for _, d := range seen {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Name == devices[j].Name {
			return devices[i].Address < devices[j].Address
		}
		return devices[i].Name < devices[j].Name
	})
	return devices, nil
}

package ble

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindByNameExactMatch(t *testing.T) {
	adapter := newMockAdapter([]Device{
		{Name: "", Address: "00:00:00:00:00:01"},
		{Name: "dave", Address: "00:00:00:00:00:02"},
		{Name: "Dave2", Address: "00:00:00:00:00:03"},
		{Name: "Dave", Address: "AA:BB:CC:DD:EE:FF", RSSI: -50},
		{Name: "Dave", Address: "11:22:33:44:55:66"},
	})

	dev, err := FindByName(context.Background(), adapter, "Dave", nil)
	require.NoError(t, err)
	assert.Equal(t, Device{Name: "Dave", Address: "AA:BB:CC:DD:EE:FF", RSSI: -50}, dev)
}

func TestFindByNameIsCaseSensitive(t *testing.T) {
	adapter := newMockAdapter([]Device{
		{Name: "dave", Address: "00:00:00:00:00:02"},
		{Name: "DAVE", Address: "00:00:00:00:00:03"},
	})

	_, err := FindByName(context.Background(), adapter, "Dave", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByNameStopsAtFirstMatch(t *testing.T) {
	adapter := newMockAdapter([]Device{
		{Name: "Dave", Address: "AA:BB:CC:DD:EE:FF"},
	})
	adapter.blockScan = true

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	_, err := FindByName(ctx, adapter, "Dave", nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "scan should stop on first match")
}

func TestFindByNameScanError(t *testing.T) {
	adapter := newMockAdapter(nil)
	adapter.scanErr = errors.New("adapter busy")

	_, err := FindByName(context.Background(), adapter, "Dave", nil)
	assert.ErrorIs(t, err, ErrScan)
	assert.Contains(t, err.Error(), "adapter busy")
}

func TestFindByNameContextEnds(t *testing.T) {
	adapter := newMockAdapter([]Device{{Name: "Other", Address: "00:00:00:00:00:09"}})
	adapter.blockScan = true

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := FindByName(ctx, adapter, "Dave", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByNameLogsNamedDevices(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	adapter := newMockAdapter([]Device{
		{Name: "", Address: "00:00:00:00:00:01"},
		{Name: "Watch", Address: "12:34:56:78:9A:BC"},
		{Name: "Dave", Address: "AA:BB:CC:DD:EE:FF"},
	})

	_, err := FindByName(context.Background(), adapter, "Dave", logger)
	require.NoError(t, err)

	var debug []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.DebugLevel {
			debug = append(debug, e.Message)
		}
	}
	assert.Equal(t, []string{"Watch : 123456789ABC", "Dave : AABBCCDDEEFF"}, debug)
}

func TestListNamed(t *testing.T) {
	adapter := newMockAdapter([]Device{
		{Name: "Zed", Address: "00:00:00:00:00:03"},
		{Name: "", Address: "00:00:00:00:00:04"},
		{Name: "Dave", Address: "00:00:00:00:00:01"},
		{Name: "Dave", Address: "00:00:00:00:00:01", RSSI: -30},
	})

	devices, err := ListNamed(context.Background(), adapter)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "Dave", devices[0].Name)
	assert.Equal(t, -30, devices[0].RSSI, "latest advertisement wins")
	assert.Equal(t, "Zed", devices[1].Name)
}

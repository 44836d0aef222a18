package ble

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionReadStatus(t *testing.T) {
	status := &mockCharacteristic{value: []byte{StatusButton1, 0xff}}
	sess := NewSession(Device{Name: "Dave"}, status, &mockCharacteristic{})

	got, err := sess.ReadStatus()
	require.NoError(t, err)
	assert.Equal(t, StatusButton1, got)
	assert.Equal(t, StatusButton1, sess.ReadState())
}

func TestSessionReadStatusErrors(t *testing.T) {
	status := &mockCharacteristic{readErr: errors.New("gatt timeout")}
	sess := NewSession(Device{}, status, &mockCharacteristic{})

	_, err := sess.ReadStatus()
	assert.ErrorIs(t, err, ErrRead)

	status.readErr = nil
	status.value = nil
	_, err = sess.ReadStatus()
	assert.ErrorIs(t, err, ErrRead, "empty value is a read error")
}

func TestSessionWriteCommand(t *testing.T) {
	command := &mockCharacteristic{}
	sess := NewSession(Device{}, &mockCharacteristic{}, command)
	assert.Equal(t, CommandClear, sess.SentState())

	require.NoError(t, sess.WriteCommand(CommandAlert))
	assert.Equal(t, CommandAlert, sess.SentState())
	assert.Equal(t, [][]byte{{3}}, command.written())
}

func TestSessionWriteFailureKeepsSentState(t *testing.T) {
	command := &mockCharacteristic{writeErr: errors.New("not connected")}
	sess := NewSession(Device{}, &mockCharacteristic{}, command)

	err := sess.WriteCommand(CommandAlert)
	assert.ErrorIs(t, err, ErrWrite)
	assert.Equal(t, CommandAlert, sess.SentState(), "sent state is not rolled back")
}

package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineLoadFlow(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, StateIdle, m.State())

	m.StartLoad("abc")
	assert.Equal(t, StateLoading, m.State())
	assert.Equal(t, "abc", m.VideoId())

	require.NoError(t, m.LoadReady())
	assert.Equal(t, StateReady, m.State())
}

func TestMachineLoadFailure(t *testing.T) {
	m := NewMachine()
	m.StartLoad("abc")
	require.NoError(t, m.LoadFailed())
	assert.Equal(t, StateError, m.State())

	// no auto-retry: only a new load leaves the error state
	m.Applied(ActionSeek)
	assert.Equal(t, StateError, m.State())

	m.StartLoad("abc")
	assert.Equal(t, StateLoading, m.State())
}

func TestMachineLoadReadyOutOfOrder(t *testing.T) {
	m := NewMachine()
	assert.Error(t, m.LoadReady())
	assert.Error(t, m.LoadFailed())
}

func TestMachineRateAdjusting(t *testing.T) {
	m := NewMachine()
	m.StartLoad("abc")
	require.NoError(t, m.LoadReady())

	m.Applied(ActionNudgeRate)
	assert.Equal(t, StateRateAdjusting, m.State())

	m.Applied(ActionSnapRate)
	assert.Equal(t, StateReady, m.State())

	m.Applied(ActionNudgeRate)
	m.Applied(ActionSeek)
	assert.Equal(t, StateReady, m.State())
}

func TestMachineReset(t *testing.T) {
	m := NewMachine()
	m.StartLoad("abc")
	require.NoError(t, m.LoadReady())

	m.Reset()
	assert.Equal(t, StateIdle, m.State())
	assert.Empty(t, m.VideoId())
}

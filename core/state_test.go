package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobState_HappyPath(t *testing.T) {
	s := NewJobState()
	assert.Equal(t, StatusPending, s.Current())

	assert.NoError(t, s.Transition(StatusPending, StatusProvisioning))
	assert.NoError(t, s.Transition(StatusProvisioning, StatusRunning))
	assert.NoError(t, s.Transition(StatusRunning, StatusSucceeded))
	assert.Equal(t, StatusSucceeded, s.Current())
	assert.True(t, s.Current().Terminal())
}

func TestJobState_ProvisionFailure(t *testing.T) {
	s := NewJobState()
	assert.NoError(t, s.Transition(StatusPending, StatusProvisioning))
	assert.NoError(t, s.Transition(StatusProvisioning, StatusProvisionFailed))

	// Terminal: nothing may leave ProvisionFailed.
	err := s.Transition(StatusProvisionFailed, StatusRunning)
	assert.Error(t, err)
	assert.Equal(t, StatusProvisionFailed, s.Current())
}

func TestJobState_WrongExpectedState(t *testing.T) {
	s := NewJobState()
	err := s.Transition(StatusRunning, StatusSucceeded)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected running")
	assert.Equal(t, StatusPending, s.Current())
}

func TestJobState_CancellableFromEveryNonTerminalState(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusProvisioning, StatusRunning} {
		s := NewJobState()
		if from != StatusPending {
			assert.NoError(t, s.Transition(StatusPending, StatusProvisioning))
		}
		if from == StatusRunning {
			assert.NoError(t, s.Transition(StatusProvisioning, StatusRunning))
		}
		assert.NoError(t, s.Transition(from, StatusCancelled), "from %s", from)
		assert.True(t, s.Current().Terminal())
	}
}

func TestJobState_NoRetryFromFailed(t *testing.T) {
	s := NewJobState()
	assert.NoError(t, s.Transition(StatusPending, StatusProvisioning))
	assert.NoError(t, s.Transition(StatusProvisioning, StatusRunning))
	assert.NoError(t, s.Transition(StatusRunning, StatusFailed))

	assert.Error(t, s.Transition(StatusFailed, StatusRunning))
	assert.Error(t, s.Transition(StatusFailed, StatusPending))
}

func TestStatus_TerminalAndSuccess(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProvisioning.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusSucceeded.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusProvisionFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())

	assert.True(t, StatusSucceeded.Success())
	assert.False(t, StatusFailed.Success())
	assert.False(t, StatusCancelled.Success())
}

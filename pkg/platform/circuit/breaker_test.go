package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outcome is one recorded result: true for success.
type outcome bool

const (
	ok   outcome = true
	fail outcome = false
)

func replay(b *Breaker, outcomes ...outcome) {
	for _, o := range outcomes {
		if o {
			b.RecordSuccess()
		} else {
			b.RecordFailure()
		}
	}
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		recovery int
		outcomes []outcome
		open     bool
	}{
		{name: "new breaker is closed", failures: 3, recovery: 1, open: false},
		{name: "below failure threshold", failures: 3, recovery: 1, outcomes: []outcome{fail, fail}, open: false},
		{name: "failure threshold reached", failures: 3, recovery: 1, outcomes: []outcome{fail, fail, fail}, open: true},
		{name: "success breaks a failure run", failures: 3, recovery: 1, outcomes: []outcome{fail, fail, ok, fail, fail}, open: false},
		{name: "one success is not enough to recover", failures: 1, recovery: 2, outcomes: []outcome{fail, ok}, open: true},
		{name: "recovery run closes", failures: 1, recovery: 2, outcomes: []outcome{fail, ok, ok}, open: false},
		{name: "failure restarts the recovery run", failures: 1, recovery: 2, outcomes: []outcome{fail, ok, fail, ok}, open: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("owner-cache", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.recovery))
			replay(b, tt.outcomes...)
			assert.Equal(t, tt.open, b.IsOpen())
		})
	}
}

func TestBreakerReportsStateChanges(t *testing.T) {
	b := New("owner-cache", WithFailureThreshold(2), WithSuccessThreshold(1))
	assert.Equal(t, "owner-cache", b.Name())

	fallback, change := b.RecordFailure()
	assert.False(t, fallback)
	assert.Equal(t, StateChange{}, change)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback, "still open")
	assert.False(t, change.Opened, "no second transition")

	primary, change := b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerReset(t *testing.T) {
	b := New("owner-cache", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerAllowProbesOncePerCooldown(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := New("owner-cache", WithFailureThreshold(1), WithCooldown(time.Minute), WithClock(func() time.Time { return now }))

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(time.Minute)
	assert.True(t, b.Allow())
	assert.False(t, b.Allow(), "second probe in the same window")
}

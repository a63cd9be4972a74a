package campaign

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerCycle(t *testing.T) {
	var mu sync.Mutex
	var seen []Status
	tr := NewTracker(20*time.Millisecond, func(s Status) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	assert.Equal(t, StatusIdle, tr.Status())

	tr.Loading()
	assert.Equal(t, StatusLoading, tr.Status())
	tr.Succeed()
	assert.Equal(t, StatusSuccess, tr.Status())

	require.Eventually(t, func() bool { return tr.Status() == StatusIdle }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusLoading, StatusSuccess, StatusIdle}, seen)
}

func TestTrackerErrorResets(t *testing.T) {
	tr := NewTracker(10*time.Millisecond, nil)
	tr.Loading()
	tr.Fail()
	assert.Equal(t, StatusError, tr.Status())
	require.Eventually(t, func() bool { return tr.Status() == StatusIdle }, time.Second, 5*time.Millisecond)
}

func TestTrackerLoadingCancelsReset(t *testing.T) {
	tr := NewTracker(10*time.Millisecond, nil)
	tr.Succeed()
	tr.Loading()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, StatusLoading, tr.Status())
}

func TestTrackerDefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultResetInterval, NewTracker(0, nil).Interval())
	assert.Equal(t, 2*time.Second, DefaultResetInterval)
}

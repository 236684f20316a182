package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduleFires(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired atomic.Int32
	m.Schedule(20*time.Millisecond, func() { fired.Add(1) })

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestCancelPreventsFiring(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fired atomic.Int32
	id := m.Schedule(50*time.Millisecond, func() { fired.Add(1) })
	m.Cancel(id)

	time.Sleep(150 * time.Millisecond)
	require.Equal(t, int32(0), fired.Load())
}

func TestCancelUnknownIDIsNoop(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	m.Cancel(9999)
}

func TestEarlierTaskFiresFirst(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	order := make(chan string, 2)
	m.Schedule(80*time.Millisecond, func() { order <- "late" })
	m.Schedule(20*time.Millisecond, func() { order <- "early" })

	require.Equal(t, "early", <-order)
	require.Equal(t, "late", <-order)
}

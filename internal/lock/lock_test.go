package lock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireSerializesSameName(t *testing.T) {
	table := NewTable(t.TempDir())

	release, err := table.Acquire("foo")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		release2, err := table.Acquire("foo")
		require.NoError(t, err)
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire should have blocked while the first holds the lock")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	<-acquired
}

func TestAcquireDifferentNamesDoNotContend(t *testing.T) {
	table := NewTable(t.TempDir())

	releaseA, err := table.Acquire("a")
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := table.Acquire("b")
	require.NoError(t, err)
	releaseB()
}

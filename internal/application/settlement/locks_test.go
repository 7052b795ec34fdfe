package settlement

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomLocksReturnsSameMutexPerRoom(t *testing.T) {
	locks := newRoomLocks()

	a := locks.get("room-1")
	b := locks.get("room-1")
	c := locks.get("room-2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestRoomLocksConcurrentGet(t *testing.T) {
	locks := newRoomLocks()

	var wg sync.WaitGroup
	results := make([]*sync.Mutex, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = locks.get("room-1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestRoomLockSerializes(t *testing.T) {
	locks := newRoomLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := locks.get("room-1")
			m.Lock()
			counter++
			m.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

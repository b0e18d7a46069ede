// internal/users/pool_test.go
package users

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func testInventory() []User {
	return []User{
		{ID: "qa-1", Username: "qa.one@example.com", Password: "p1"},
		{ID: "qa-2", Username: "qa.two@example.com", Password: "p2"},
	}
}

func TestPoolAcquireRelease(t *testing.T) {
	pool := NewPool(testInventory(), zaptest.NewLogger(t))
	require.Equal(t, 2, pool.Available())

	u1, err := pool.Acquire("login_scenario")
	require.NoError(t, err)
	assert.Equal(t, "qa-1", u1.ID)
	assert.Equal(t, 1, pool.Available())

	u2, err := pool.Acquire("search_scenario")
	require.NoError(t, err)
	assert.Equal(t, "qa-2", u2.ID)
	assert.Equal(t, 0, pool.Available())

	assert.Equal(t, map[string]string{
		"qa-1": "login_scenario",
		"qa-2": "search_scenario",
	}, pool.Assignments())

	pool.Release(u1.ID)
	assert.Equal(t, 1, pool.Available())
}

func TestPoolAcquireFailsImmediatelyWhenExhausted(t *testing.T) {
	pool := NewPool(testInventory()[:1], zaptest.NewLogger(t))

	_, err := pool.Acquire("first")
	require.NoError(t, err)

	start := time.Now()
	_, err = pool.Acquire("second")
	require.ErrorIs(t, err, ErrPoolExhausted)
	assert.Less(t, time.Since(start), 50*time.Millisecond, "Acquire must not wait for a release")
}

func TestPoolReleaseUnknownIsNoop(t *testing.T) {
	pool := NewPool(testInventory(), zaptest.NewLogger(t))
	pool.Release("never-acquired")
	assert.Equal(t, 2, pool.Available())
}

func TestPoolDoubleReleaseIsNoop(t *testing.T) {
	pool := NewPool(testInventory(), zaptest.NewLogger(t))
	u, err := pool.Acquire("s")
	require.NoError(t, err)

	pool.Release(u.ID)
	pool.Release(u.ID)
	assert.Equal(t, 2, pool.Available())
}

func TestPoolReacquireAfterRelease(t *testing.T) {
	pool := NewPool(testInventory()[:1], zaptest.NewLogger(t))

	u, err := pool.Acquire("first")
	require.NoError(t, err)
	pool.Release(u.ID)

	again, err := pool.Acquire("second")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
}

func TestPoolConcurrentSafety(t *testing.T) {
	defer goleak.VerifyNone(t)

	inventory := make([]User, 20)
	for i := range inventory {
		inventory[i] = User{ID: string(rune('a' + i)), Username: "u", Password: "p"}
	}
	pool := NewPool(inventory, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := pool.Acquire("concurrent")
			if err != nil {
				return
			}
			pool.Release(u.ID)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, pool.Available())
}

func TestPoolIDs(t *testing.T) {
	pool := NewPool(testInventory(), zaptest.NewLogger(t))
	_, err := pool.Acquire("s")
	require.NoError(t, err)
	assert.Equal(t, []string{"qa-1", "qa-2"}, pool.IDs())
}

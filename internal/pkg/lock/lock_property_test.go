// Property-based tests for concurrent ledger safety.
package lock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestConcurrentLedgerSafetyProperty checks that any set of concurrent
// read-modify-write operations on one player's balance, run under the
// player's lock, ends at the same value sequential execution would reach.
func TestConcurrentLedgerSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(1000, 100000).Draw(t, "initial")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")

		amounts := make([]int64, numOps)
		expected := initial
		for i := range amounts {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(t, "amount")
			expected += amounts[i]
		}

		playerID := rapid.Int64Range(1, 1000000).Draw(t, "playerID")

		pl := NewPlayerLock()
		balance := initial

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(amount int64) {
				defer wg.Done()
				pl.Lock(playerID)
				defer pl.Unlock(playerID)
				balance += amount
			}(amount)
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("balance mismatch: expected %d, got %d (initial=%d, numOps=%d)",
				expected, balance, initial, numOps)
		}
	})
}

// TestIndependentPlayersDoNotContend verifies that locks for different
// players can be held at the same time.
func TestIndependentPlayersDoNotContend(t *testing.T) {
	pl := NewPlayerLock()

	pl.Lock(1)
	defer pl.Unlock(1)

	assert.True(t, pl.TryLock(2), "player 2 must not wait on player 1")
	pl.Unlock(2)
}

func TestTryLockOnHeldLock(t *testing.T) {
	pl := NewPlayerLock()

	pl.Lock(42)
	assert.False(t, pl.TryLock(42))
	pl.Unlock(42)

	assert.True(t, pl.TryLock(42))
	pl.Unlock(42)
}

func TestWithLockReleasesOnError(t *testing.T) {
	pl := NewPlayerLock()

	err := pl.WithLock(7, func() error {
		assert.False(t, pl.TryLock(7), "lock must be held inside the callback")
		return nil
	})
	assert.NoError(t, err)

	assert.True(t, pl.TryLock(7), "lock must be released after the callback")
	pl.Unlock(7)
}

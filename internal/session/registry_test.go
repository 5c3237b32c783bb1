package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	r.Register("conn-1", 42)

	userID, ok := r.LookupUser("conn-1")
	require.True(t, ok)
	assert.Equal(t, uint(42), userID)

	connID, ok := r.LookupConnection(42)
	require.True(t, ok)
	assert.Equal(t, "conn-1", connID)

	assert.Equal(t, 1, r.Len())
}

func TestLookupUnknown(t *testing.T) {
	r := NewRegistry()

	_, ok := r.LookupUser("nope")
	assert.False(t, ok)

	_, ok = r.LookupConnection(7)
	assert.False(t, ok)
}

func TestUnregisterRemovesBothDirections(t *testing.T) {
	r := NewRegistry()
	r.Register("conn-1", 42)

	userID, ok := r.Unregister("conn-1")
	require.True(t, ok)
	assert.Equal(t, uint(42), userID)

	_, ok = r.LookupUser("conn-1")
	assert.False(t, ok)
	_, ok = r.LookupConnection(42)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestUnregisterUnknownConnection(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Unregister("ghost")
	assert.False(t, ok)
}

func TestNewestConnectionWinsForUser(t *testing.T) {
	r := NewRegistry()

	r.Register("conn-old", 42)
	r.Register("conn-new", 42)

	connID, ok := r.LookupConnection(42)
	require.True(t, ok)
	assert.Equal(t, "conn-new", connID)

	// Closing the old connection must not evict the newer mapping.
	userID, ok := r.Unregister("conn-old")
	require.True(t, ok)
	assert.Equal(t, uint(42), userID)

	connID, ok = r.LookupConnection(42)
	require.True(t, ok)
	assert.Equal(t, "conn-new", connID)
}

func TestReRegisterSameConnectionNewUser(t *testing.T) {
	r := NewRegistry()

	r.Register("conn-1", 1)
	r.Register("conn-1", 2)

	userID, ok := r.LookupUser("conn-1")
	require.True(t, ok)
	assert.Equal(t, uint(2), userID)

	// The old user's reverse entry is gone.
	_, ok = r.LookupConnection(1)
	assert.False(t, ok)

	connID, ok := r.LookupConnection(2)
	require.True(t, ok)
	assert.Equal(t, "conn-1", connID)
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", n)
			r.Register(connID, uint(n))
			r.LookupUser(connID)
			r.Unregister(connID)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
}

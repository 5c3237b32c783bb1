package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMemberCacheRoundTrip(t *testing.T) {
	c := NewMemoryMemberCache(time.Minute, time.Minute, 100)

	_, ok := c.Members(1)
	assert.False(t, ok)

	c.Store(1, []uint{10, 20, 30})

	ids, ok := c.Members(1)
	require.True(t, ok)
	assert.Equal(t, []uint{10, 20, 30}, ids)

	// Entries are per conversation.
	_, ok = c.Members(2)
	assert.False(t, ok)
}

func TestMemoryMemberCacheInvalidate(t *testing.T) {
	c := NewMemoryMemberCache(time.Minute, time.Minute, 100)

	c.Store(1, []uint{10})
	c.Invalidate(1)

	_, ok := c.Members(1)
	assert.False(t, ok)
}

func TestMemoryMemberCacheExpiry(t *testing.T) {
	c := NewMemoryMemberCache(10*time.Millisecond, time.Minute, 100)

	c.Store(1, []uint{10})
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Members(1)
	assert.False(t, ok)
}

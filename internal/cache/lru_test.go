package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLRU(size int, ttl time.Duration) (*LRU[int], *clock) {
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLRU[int](size, ttl)
	l.now = c.now
	return l, c
}

func TestLRU_GetSet(t *testing.T) {
	l, _ := newTestLRU(2, time.Minute)
	l.Set("a", 1)

	v, ok := l.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = l.Get("missing")
	assert.False(t, ok)

	l.Set("a", 2)
	v, _ = l.Get("a")
	assert.Equal(t, 2, v, "set overwrites")
	assert.Equal(t, 1, l.Size())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	l, _ := newTestLRU(2, time.Minute)
	l.Set("a", 1)
	l.Set("b", 2)
	l.Get("a") // b is now the oldest
	l.Set("c", 3)

	_, ok := l.Get("b")
	assert.False(t, ok)
	_, ok = l.Get("a")
	assert.True(t, ok)
	_, ok = l.Get("c")
	assert.True(t, ok)
}

func TestLRU_Expiry(t *testing.T) {
	l, c := newTestLRU(4, time.Minute)
	l.Set("a", 1)
	l.Set("b", 2)

	c.t = c.t.Add(30 * time.Second)
	l.Set("b", 3) // refreshes b

	c.t = c.t.Add(45 * time.Second)
	_, ok := l.Get("a")
	assert.False(t, ok, "a expired")
	v, ok := l.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	c.t = c.t.Add(time.Hour)
	assert.Equal(t, 1, l.CleanExpired())
	assert.Equal(t, 0, l.Size())
}

func TestLRU_Purge(t *testing.T) {
	l, _ := newTestLRU(4, time.Minute)
	l.Set("a", 1)
	l.Set("b", 2)
	assert.Equal(t, 2, l.Size())

	l.Purge()
	assert.Equal(t, 0, l.Size())
	_, ok := l.Get("b")
	assert.False(t, ok)
}

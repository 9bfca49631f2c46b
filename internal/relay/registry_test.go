package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterLookupUnregister(t *testing.T) {
	reg := NewRegistry()
	c := newMockConn()

	id := reg.Register(c)
	require.NotEmpty(t, id)
	assert.Equal(t, 1, reg.Len())

	meta, ok := reg.Lookup(c)
	require.True(t, ok)
	assert.Equal(t, id, meta.ID)
	assert.Empty(t, meta.Room)
	assert.False(t, meta.ConnectedAt.IsZero())

	gone, ok := reg.Unregister(c)
	require.True(t, ok)
	assert.Equal(t, id, gone.ID)
	assert.Equal(t, 0, reg.Len())

	_, ok = reg.Unregister(c)
	assert.False(t, ok, "second unregister must be a no-op")

	_, ok = reg.Lookup(c)
	assert.False(t, ok)
}

func TestRegistry_IDsUniqueAmongOpenConnections(t *testing.T) {
	reg := NewRegistry()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := reg.Register(newMockConn())
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestRegistry_SetRoom(t *testing.T) {
	reg := NewRegistry()
	c := newMockConn()
	reg.Register(c)

	prev, ok := reg.SetRoom(c, "a@example.com")
	require.True(t, ok)
	assert.Empty(t, prev)

	prev, ok = reg.SetRoom(c, "b@example.com")
	require.True(t, ok)
	assert.Equal(t, "a@example.com", prev)

	meta, _ := reg.Lookup(c)
	assert.Equal(t, "b@example.com", meta.Room)

	_, ok = reg.SetRoom(newMockConn(), "x")
	assert.False(t, ok)
}

func TestRegistry_LookupReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	c := newMockConn()
	reg.Register(c)

	meta, _ := reg.Lookup(c)
	meta.Room = "mutated"

	again, _ := reg.Lookup(c)
	assert.Empty(t, again.Room)
}

package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, alive ...bool) (*Registry, []*fakeTarget) {
	t.Helper()
	r := NewRegistry()
	targets := make([]*fakeTarget, len(alive))
	for i := range alive {
		targets[i] = &fakeTarget{}
		require.Equal(t, i, r.Add(targets[i]))
	}
	for i, a := range alive {
		if !a {
			require.NoError(t, r.Destroy(i))
		}
	}
	return r, targets
}

func TestRegistry_NextAliveSkipsDeadSlots(t *testing.T) {
	r, _ := newRegistry(t, true, false, true, false)

	next, _, ok := r.NextAlive(0)
	require.True(t, ok)
	assert.Equal(t, 2, next)

	_, _, ok = r.NextAlive(2)
	assert.False(t, ok, "search must not wrap around")

	_, _, ok = r.NextAlive(3)
	assert.False(t, ok)
}

func TestRegistry_FirstAlive(t *testing.T) {
	r, _ := newRegistry(t, false, false, true)

	first, _, ok := r.FirstAlive()
	require.True(t, ok)
	assert.Equal(t, 2, first)

	empty := NewRegistry()
	_, _, ok = empty.FirstAlive()
	assert.False(t, ok)
}

func TestRegistry_DestroyKeepsIndices(t *testing.T) {
	r, targets := newRegistry(t, true, true, true)

	require.NoError(t, r.Destroy(1))
	require.NoError(t, r.Destroy(1))

	assert.Equal(t, 3, r.Len())
	assert.False(t, r.Alive(1))
	assert.Equal(t, []int{0, 2}, r.AliveIndices())

	got, ok := r.Get(2)
	require.True(t, ok)
	assert.Same(t, targets[2], got)

	_, ok = r.Get(1)
	assert.False(t, ok)

	assert.Equal(t, 3, r.Add(&fakeTarget{}), "new windows never reuse a dead slot")
}

func TestRegistry_DestroyUnknown(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Destroy(0), ErrUnknownWindow)
	assert.ErrorIs(t, r.Destroy(-1), ErrUnknownWindow)
	assert.False(t, r.Alive(-1))
}

package world

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/agentia/internal/models"
)

func TestGraphConnectedIsSymmetric(t *testing.T) {
	g, err := NewGraph([]models.LocationDef{
		{ID: "a", ConnectedTo: []string{"b"}},
		{ID: "b"},
		{ID: "c", ConnectedTo: []string{"b"}},
	})
	require.NoError(t, err)

	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}, {"b", "c"}, {"c", "b"}} {
		ok, err := g.Connected(pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, ok, "%s-%s", pair[0], pair[1])
	}
	ok, err := g.Connected("a", "c")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := g.Neighbors("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, n)

	_, err = g.Connected("a", "z")
	assert.Equal(t, UnknownLocation, CodeOf(err))
	_, err = g.Neighbors("z")
	assert.Equal(t, UnknownLocation, CodeOf(err))
	assert.Equal(t, []string{"a", "b", "c"}, g.IDs())
}

func TestObjectRegistrySingleContainer(t *testing.T) {
	r := NewObjectRegistry()
	kitchen := models.AtLocation("kitchen")
	alice := models.HeldBy("alice")

	require.NoError(t, r.Place(Object{ID: "cup"}, kitchen))
	require.NoError(t, r.Move("cup", alice))
	assert.Empty(t, r.ObjectsIn(kitchen))
	assert.Equal(t, []string{"cup"}, r.ObjectsIn(alice))

	// Moving to the same container keeps a single listing.
	require.NoError(t, r.Move("cup", alice))
	assert.Equal(t, []string{"cup"}, r.ObjectsIn(alice))

	o, err := r.Get("cup")
	require.NoError(t, err)
	assert.Equal(t, alice, o.Container)

	require.NoError(t, r.Remove("cup"))
	assert.Empty(t, r.ObjectsIn(alice))
	assert.Empty(t, r.byContainer)
	assert.Equal(t, 0, r.Len())

	assert.Equal(t, PreconditionFailed, CodeOf(r.Remove("cup")))
	assert.Equal(t, PreconditionFailed, CodeOf(r.Move("cup", kitchen)))
	_, err = r.Get("cup")
	assert.Equal(t, UnknownObject, CodeOf(err))
}

func TestObjectRegistryCopiesProperties(t *testing.T) {
	r := NewObjectRegistry()
	props := map[string]models.Value{"state": models.String("idle")}
	require.NoError(t, r.Place(Object{ID: "lamp", Properties: props}, models.AtLocation("hall")))

	props["state"] = models.String("on")
	o, _ := r.Get("lamp")
	assert.Equal(t, models.String("idle"), o.Properties["state"])

	o.Properties["state"] = models.String("broken")
	o2, _ := r.Get("lamp")
	assert.Equal(t, models.String("idle"), o2.Properties["state"])
}

func TestObjectRegistryRejectsBadContainer(t *testing.T) {
	r := NewObjectRegistry()
	err := r.Place(Object{ID: "x"}, models.Container{Kind: "shelf", ID: "top"})
	assert.Equal(t, PreconditionFailed, CodeOf(err))
	assert.False(t, r.Exists("x"))
}

func TestMemoryEvictsOldest(t *testing.T) {
	m := NewMemory(3)
	for i := 0; i < 5; i++ {
		evicted := m.Add(models.MemoryEntry{Tick: uint64(i), Text: fmt.Sprint(i)})
		assert.Equal(t, i >= 3, evicted, "entry %d", i)
	}
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 3, m.Cap())

	var texts []string
	for _, e := range m.Entries() {
		texts = append(texts, e.Text)
	}
	assert.Equal(t, []string{"2", "3", "4"}, texts)
}

func TestMemoryDefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultMemoryCapacity, NewMemory(0).Cap())
}

func TestExpireLocksInRegistrationOrder(t *testing.T) {
	g, err := NewGraph([]models.LocationDef{{ID: "a"}})
	require.NoError(t, err)
	r := NewAgentRegistry(g, NewObjectRegistry(), 5)
	for _, id := range []string{"z", "y"} {
		require.NoError(t, r.Add(models.AgentProfile{ID: id}, "a"))
	}
	_, err = r.Lock("y", 1, "", 1)
	require.NoError(t, err)
	_, err = r.Lock("z", 1, "", 1)
	require.NoError(t, err)

	assert.False(t, r.IsLocked("z", 0))
	assert.True(t, r.IsLocked("z", 1))
	assert.Empty(t, r.ExpireLocks(1))
	expired := r.ExpireLocks(2)
	require.Len(t, expired, 2)
	assert.Equal(t, "z", expired[0].Agent)
	assert.Equal(t, "You are free to act again.", expired[1].Lock.Completion)
}

package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

func identity(label string, values ...float64) domain.Identity {
	return domain.Identity{Label: label, Descriptor: domain.Descriptor(values), SourceCount: 1}
}

func TestGallery_AddRejectsDuplicate(t *testing.T) {
	g := New()
	require.NoError(t, g.Add(identity("alice", 1, 2)))

	err := g.Add(identity("alice", 3, 4))

	assert.ErrorIs(t, err, domain.ErrIdentityExists)
	got, ok := g.Get("alice")
	require.True(t, ok)
	assert.Equal(t, domain.Descriptor{1, 2}, got.Descriptor)
}

func TestGallery_PutReplacesInPlace(t *testing.T) {
	g := New()
	require.NoError(t, g.Add(identity("alice", 1, 2)))
	require.NoError(t, g.Add(identity("bob", 3, 4)))

	replaced, err := g.Put(identity("alice", 5, 6))
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, []string{"alice", "bob"}, g.Labels())
	assert.Equal(t, domain.Descriptor{5, 6}, g.At(0).Descriptor)

	replaced, err = g.Put(identity("carol", 7, 8))
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, []string{"alice", "bob", "carol"}, g.Labels())
}

func TestGallery_DimensionMismatch(t *testing.T) {
	g := New()
	require.NoError(t, g.Add(identity("alice", 1, 2, 3)))

	assert.ErrorIs(t, g.Add(identity("bob", 1, 2)), domain.ErrDimensionMismatch)

	_, err := g.Put(identity("alice", 1, 2))
	assert.NoError(t, err, "replacing the only entry may change the dimension")
	assert.Equal(t, 2, g.Dimension())
}

func TestGallery_SentinelEntriesDoNotFixDimension(t *testing.T) {
	g := New()
	require.NoError(t, g.Add(identity("ghost")))
	require.NoError(t, g.Add(identity("alice", 1, 2)))

	assert.Equal(t, 2, g.Dimension())
}

func TestGallery_Remove(t *testing.T) {
	g, err := FromIdentities([]domain.Identity{
		identity("a", 1), identity("b", 2), identity("c", 3),
	})
	require.NoError(t, err)

	assert.True(t, g.Remove("b"))
	assert.False(t, g.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, g.Labels())

	got, ok := g.Get("c")
	require.True(t, ok)
	assert.Equal(t, domain.Descriptor{3}, got.Descriptor)
}

func TestGallery_GetReturnsCopy(t *testing.T) {
	g, err := FromIdentities([]domain.Identity{identity("alice", 1, 2)})
	require.NoError(t, err)

	got, ok := g.Get("alice")
	require.True(t, ok)
	got.Descriptor[0] = 99

	again, _ := g.Get("alice")
	assert.Equal(t, domain.Descriptor{1, 2}, again.Descriptor)
}

func TestGallery_CloneIsIndependent(t *testing.T) {
	g, err := FromIdentities([]domain.Identity{identity("a", 1, 1)})
	require.NoError(t, err)

	c := g.Clone()
	require.NoError(t, c.Add(identity("b", 2, 2)))
	c.Remove("a")

	assert.Equal(t, []string{"a"}, g.Labels())
	assert.Equal(t, []string{"b"}, c.Labels())

	entries := g.Entries()
	entries[0].Descriptor[0] = 42
	assert.Equal(t, 1.0, g.At(0).Descriptor[0])
}

func TestFromIdentities_Duplicate(t *testing.T) {
	_, err := FromIdentities([]domain.Identity{identity("a", 1), identity("a", 2)})
	assert.ErrorIs(t, err, domain.ErrIdentityExists)
}

func TestGallery_NilLen(t *testing.T) {
	var g *Gallery
	assert.Zero(t, g.Len())
}

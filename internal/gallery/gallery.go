package gallery

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// Gallery is an ordered collection of identities, unique by label.
// It is not safe for concurrent mutation; publish a Clone to readers instead.
type Gallery struct {
	entries []domain.Identity
	index   map[string]int
}

func New() *Gallery {
	return &Gallery{index: make(map[string]int)}
}

// FromIdentities builds a gallery in the given order. Duplicate labels are an error.
func FromIdentities(identities []domain.Identity) (*Gallery, error) {
	g := New()
	for _, id := range identities {
		if err := g.Add(id); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Add appends id, rejecting a label that is already enrolled.
func (g *Gallery) Add(id domain.Identity) error {
	if _, ok := g.index[id.Label]; ok {
		return domain.ErrIdentityExists.WithError(fmt.Errorf("label %q", id.Label))
	}
	if err := g.checkDimension(id, -1); err != nil {
		return err
	}
	g.index[id.Label] = len(g.entries)
	g.entries = append(g.entries, cloneIdentity(id))
	return nil
}

// Put replaces the identity with the same label in place, or appends it.
// It reports whether an existing entry was replaced.
func (g *Gallery) Put(id domain.Identity) (bool, error) {
	pos, ok := g.index[id.Label]
	if !ok {
		return false, g.Add(id)
	}
	if err := g.checkDimension(id, pos); err != nil {
		return false, err
	}
	g.entries[pos] = cloneIdentity(id)
	return true, nil
}

// Remove deletes label and reports whether it was present.
func (g *Gallery) Remove(label string) bool {
	pos, ok := g.index[label]
	if !ok {
		return false
	}
	g.entries = append(g.entries[:pos], g.entries[pos+1:]...)
	delete(g.index, label)
	for i := pos; i < len(g.entries); i++ {
		g.index[g.entries[i].Label] = i
	}
	return true
}

func (g *Gallery) Get(label string) (domain.Identity, bool) {
	pos, ok := g.index[label]
	if !ok {
		return domain.Identity{}, false
	}
	return cloneIdentity(g.entries[pos]), true
}

func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// At returns the i-th identity in gallery order. The descriptor must not be modified.
func (g *Gallery) At(i int) domain.Identity {
	return g.entries[i]
}

// Entries returns a copy of the identities in gallery order.
func (g *Gallery) Entries() []domain.Identity {
	out := make([]domain.Identity, len(g.entries))
	for i, id := range g.entries {
		out[i] = cloneIdentity(id)
	}
	return out
}

// Labels returns labels in gallery order.
func (g *Gallery) Labels() []string {
	out := make([]string, len(g.entries))
	for i, id := range g.entries {
		out[i] = id.Label
	}
	return out
}

// Dimension is the descriptor length shared by the usable entries, 0 when there are none.
func (g *Gallery) Dimension() int {
	for _, id := range g.entries {
		if !id.Descriptor.IsSentinel() {
			return len(id.Descriptor)
		}
	}
	return 0
}

func (g *Gallery) Clone() *Gallery {
	c := &Gallery{
		entries: make([]domain.Identity, len(g.entries)),
		index:   make(map[string]int, len(g.index)),
	}
	for i, id := range g.entries {
		c.entries[i] = cloneIdentity(id)
		c.index[id.Label] = i
	}
	return c
}

// checkDimension rejects a descriptor whose length disagrees with the other usable
// entries. skip is the position being replaced, or -1.
func (g *Gallery) checkDimension(id domain.Identity, skip int) error {
	if id.Descriptor.IsSentinel() {
		return nil
	}
	for i, other := range g.entries {
		if i == skip || other.Descriptor.IsSentinel() {
			continue
		}
		if len(other.Descriptor) != len(id.Descriptor) {
			return domain.ErrDimensionMismatch.WithError(
				fmt.Errorf("identity %q has %d values, gallery has %d", id.Label, len(id.Descriptor), len(other.Descriptor)))
		}
		return nil
	}
	return nil
}

func cloneIdentity(id domain.Identity) domain.Identity {
	id.Descriptor = id.Descriptor.Clone()
	return id
}

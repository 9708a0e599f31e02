package matcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/gallery"
)

func newGallery(t *testing.T, ids ...domain.Identity) *gallery.Gallery {
	t.Helper()
	g, err := gallery.FromIdentities(ids)
	require.NoError(t, err)
	return g
}

func id(label string, values ...float64) domain.Identity {
	return domain.Identity{Label: label, Descriptor: domain.Descriptor(values)}
}

func TestMatcher_Match(t *testing.T) {
	alice := id("alice", 0, 0, 0)
	bob := id("bob", 1, 1, 1)

	tests := []struct {
		name         string
		gallery      []domain.Identity
		query        domain.Descriptor
		wantLabel    string
		wantMatched  bool
		wantDistance float64
	}{
		{
			name:         "close query matches",
			gallery:      []domain.Identity{alice},
			query:        domain.Descriptor{0.1, 0.1, 0.1},
			wantLabel:    "alice",
			wantMatched:  true,
			wantDistance: math.Sqrt(0.03),
		},
		{
			name:         "far query is unknown",
			gallery:      []domain.Identity{alice},
			query:        domain.Descriptor{5, 5, 5},
			wantLabel:    domain.Unknown,
			wantDistance: math.Sqrt(75),
		},
		{
			name:         "nearest of two",
			gallery:      []domain.Identity{alice, bob},
			query:        domain.Descriptor{0.9, 1, 1},
			wantLabel:    "bob",
			wantMatched:  true,
			wantDistance: 0.1,
		},
		{
			name:         "sentinel entries are skipped",
			gallery:      []domain.Identity{id("ghost"), bob},
			query:        domain.Descriptor{0.01, 0.01, 0.01},
			wantLabel:    domain.Unknown,
			wantDistance: math.Sqrt(3 * 0.99 * 0.99),
		},
	}

	m := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Match(tt.query, newGallery(t, tt.gallery...))
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantMatched, got.Matched)
			assert.InDelta(t, tt.wantDistance, float64(got.Distance), 1e-9)
		})
	}
}

func TestMatcher_ThresholdIsStrict(t *testing.T) {
	g := newGallery(t, id("alice", 0, 0))
	m := New(WithThreshold(5))

	got, err := m.Match(domain.Descriptor{3, 4}, g)
	require.NoError(t, err)
	assert.Equal(t, domain.Unknown, got.Label, "distance equal to threshold is not accepted")
	assert.Equal(t, 5.0, float64(got.Distance))

	got, err = m.Match(domain.Descriptor{3, 3.9}, g)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Label)
}

func TestMatcher_ZeroVectorsTakePart(t *testing.T) {
	m := New()

	got, err := m.Match(domain.Descriptor{0.1, 0.1, 0.1}, newGallery(t, id("alice", 0, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Label)
	assert.True(t, got.Matched)

	got, err = m.Match(domain.Descriptor{0, 0, 0}, newGallery(t, id("bob", 0.1, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Label)
	assert.InDelta(t, 0.1, float64(got.Distance), 1e-12)

	_, err = m.Match(domain.Descriptor{0, 0}, newGallery(t, id("alice", 0, 0, 0)))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestMatcher_TieGoesToFirstEntry(t *testing.T) {
	g := newGallery(t, id("first", 1, 0), id("second", -1, 0))
	m := New(WithThreshold(2))

	for i := 0; i < 10; i++ {
		got, err := m.Match(domain.Descriptor{0, 0.5}, g)
		require.NoError(t, err)
		assert.Equal(t, "first", got.Label)
		assert.InDelta(t, math.Sqrt(1.25), float64(got.Distance), 1e-12)
	}
}

func TestMatcher_EmptyGalleryIsUnknown(t *testing.T) {
	m := New()

	for _, q := range []domain.Descriptor{{0.1, 0.2}, nil, {math.NaN()}} {
		got, err := m.Match(q, gallery.New())
		require.NoError(t, err)
		assert.Equal(t, domain.Unknown, got.Label)
		assert.False(t, got.Matched)
		assert.False(t, got.Distance.IsFinite())
	}

	got, err := m.Match(domain.Descriptor{1}, nil)
	require.NoError(t, err)
	assert.True(t, got.IsUnknown())
}

func TestMatcher_Errors(t *testing.T) {
	g := newGallery(t, id("alice", 0, 0, 0))

	tests := []struct {
		name    string
		matcher *Matcher
		query   domain.Descriptor
		wantErr error
	}{
		{"length disagreement", New(), domain.Descriptor{1, 2}, domain.ErrDimensionMismatch},
		{"non-finite", New(), domain.Descriptor{1, math.Inf(1), 0}, domain.ErrInvalidDescriptor},
		{"NaN", New(), domain.Descriptor{math.NaN(), 0, 0}, domain.ErrInvalidDescriptor},
		{"empty", New(), domain.Descriptor{}, domain.ErrInvalidDescriptor},
		{"nil query", New(), nil, domain.ErrInvalidDescriptor},
		{"wrong configured length", New(WithDimension(128)), domain.Descriptor{1, 2, 3}, domain.ErrInvalidDescriptor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.matcher.Match(tt.query, g)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDistance(t *testing.T) {
	d := domain.Descriptor{0.3, -0.2, 0.9}

	got, err := Distance(d, d)
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = Distance(domain.Descriptor{0, 0}, domain.Descriptor{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)

	_, err = Distance(domain.Descriptor{1}, domain.Descriptor{1, 2})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestNew_Defaults(t *testing.T) {
	assert.Equal(t, DefaultThreshold, New().Threshold())
	assert.Equal(t, DefaultThreshold, New(WithThreshold(-1)).Threshold())
	assert.Equal(t, 0.6, New(WithThreshold(0.6)).Threshold())
}

// Package matcher classifies a face descriptor against a gallery by Euclidean
// nearest neighbour under a distance threshold.
package matcher

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/gallery"
)

// DefaultThreshold is the acceptance distance calibrated for 128-d dlib descriptors.
const DefaultThreshold = 0.4

type Matcher struct {
	threshold float64
	dimension int
}

type Option func(*Matcher)

// WithThreshold sets the acceptance distance. Values <= 0 are ignored.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 {
			m.threshold = threshold
		}
	}
}

// WithDimension makes queries of any other length fail with InvalidDescriptor.
func WithDimension(dim int) Option {
	return func(m *Matcher) {
		if dim > 0 {
			m.dimension = dim
		}
	}
}

func New(opts ...Option) *Matcher {
	m := &Matcher{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match returns the nearest identity if it is strictly closer than the threshold,
// Unknown otherwise. The first identity in gallery order wins a distance tie.
// An empty gallery always yields Unknown.
func (m *Matcher) Match(d domain.Descriptor, g *gallery.Gallery) (domain.MatchResult, error) {
	unknown := domain.MatchResult{Label: domain.Unknown, Distance: domain.Distance(math.Inf(1))}

	if g.Len() == 0 {
		return unknown, nil
	}

	if err := d.Validate(); err != nil {
		return domain.MatchResult{}, err
	}
	if m.dimension > 0 && len(d) != m.dimension {
		return domain.MatchResult{}, domain.ErrInvalidDescriptor.WithError(
			fmt.Errorf("query has %d values, want %d", len(d), m.dimension))
	}

	best := -1
	bestDistance := math.Inf(1)
	for i := 0; i < g.Len(); i++ {
		id := g.At(i)
		if id.Descriptor.IsSentinel() {
			continue
		}
		if len(id.Descriptor) != len(d) {
			return domain.MatchResult{}, domain.ErrDimensionMismatch.WithError(
				fmt.Errorf("query has %d values, identity %q has %d", len(d), id.Label, len(id.Descriptor)))
		}

		dist := euclidean(d, id.Descriptor)
		if dist < bestDistance {
			best, bestDistance = i, dist
		}
	}

	if best < 0 {
		return unknown, nil
	}
	if bestDistance >= m.threshold {
		unknown.Distance = domain.Distance(bestDistance)
		return unknown, nil
	}

	return domain.MatchResult{
		Label:    g.At(best).Label,
		Matched:  true,
		Distance: domain.Distance(bestDistance),
	}, nil
}

// Distance is the Euclidean distance between two descriptors of equal length.
func Distance(a, b domain.Descriptor) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.ErrDimensionMismatch.WithError(fmt.Errorf("%d vs %d values", len(a), len(b)))
	}
	return euclidean(a, b), nil
}

func euclidean(a, b domain.Descriptor) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

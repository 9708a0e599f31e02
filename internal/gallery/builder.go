// Package gallery builds reference identities from enrollment descriptors and holds
// the ordered, label-unique set of them that the matcher searches.
package gallery

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// BuildIdentity averages the usable descriptors of one person into a reference descriptor.
// Failure sentinels and all-zero vectors are dropped before averaging, so an image where
// no face was found never pulls the mean towards zero.
func BuildIdentity(label string, descriptors []domain.Descriptor) (domain.Identity, error) {
	usable := make([]domain.Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.IsSentinel() || d.IsZero() {
			continue
		}
		usable = append(usable, d)
	}

	if len(usable) == 0 {
		return domain.Identity{}, domain.ErrNoUsableDescriptor
	}

	dim := len(usable[0])
	for i, d := range usable {
		if err := d.Validate(); err != nil {
			return domain.Identity{}, fmt.Errorf("descriptor %d: %w", i, err)
		}
		if len(d) != dim {
			return domain.Identity{}, domain.ErrDimensionMismatch.WithError(
				fmt.Errorf("descriptor %d has %d values, want %d", i, len(d), dim))
		}
	}

	return domain.Identity{
		Label:       label,
		Descriptor:  mean(usable, dim),
		SourceCount: len(usable),
	}, nil
}

// mean is the element-wise arithmetic mean, accumulated incrementally so that averaging
// identical vectors returns exactly that vector.
func mean(descriptors []domain.Descriptor, dim int) domain.Descriptor {
	out := make(domain.Descriptor, dim)
	for k, d := range descriptors {
		n := float64(k + 1)
		for i, v := range d {
			out[i] += (v - out[i]) / n
		}
	}
	return out
}

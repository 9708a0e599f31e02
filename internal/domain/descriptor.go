package domain

import (
	"encoding/json"
	"math"
)

// Descriptor is the fixed-length face embedding produced by a DescriptorSource.
// A nil or empty Descriptor is a failure sentinel: the source could not describe the
// face, and the value must never take part in a match. An all-zero vector is a valid
// point; only enrollment and the persisted text format treat it as a failed extraction.
type Descriptor []float64

// IsSentinel reports whether d marks a failed extraction.
func (d Descriptor) IsSentinel() bool {
	return len(d) == 0
}

// IsZero reports whether every value of a non-empty d is zero.
func (d Descriptor) IsZero() bool {
	if len(d) == 0 {
		return false
	}
	for _, v := range d {
		if v != 0 {
			return false
		}
	}
	return true
}

// Validate checks that d is non-empty and finite. It does not check the length against a
// gallery; that is the caller's DimensionMismatch.
func (d Descriptor) Validate() error {
	if len(d) == 0 {
		return ErrInvalidDescriptor
	}
	for _, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidDescriptor
		}
	}
	return nil
}

func (d Descriptor) Clone() Descriptor {
	if d == nil {
		return nil
	}
	out := make(Descriptor, len(d))
	copy(out, d)
	return out
}

// Float32 converts to the representation pgvector stores.
func (d Descriptor) Float32() []float32 {
	out := make([]float32, len(d))
	for i, v := range d {
		out[i] = float32(v)
	}
	return out
}

func DescriptorFromFloat32(v []float32) Descriptor {
	if v == nil {
		return nil
	}
	out := make(Descriptor, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// Distance is a Euclidean distance. Non-finite values (no candidate) encode as JSON null.
type Distance float64

func (d Distance) IsFinite() bool {
	f := float64(d)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (d Distance) MarshalJSON() ([]byte, error) {
	if !d.IsFinite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(d))
}

func (d *Distance) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Distance(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*d = Distance(f)
	return nil
}

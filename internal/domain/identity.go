package domain

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Unknown is the label reported for faces that match no enrolled identity.
const Unknown = "unknown"

// Identity representa uma pessoa cadastrada: label estável + descriptor de referência (média)
type Identity struct {
	Label       string     `json:"label"`
	Descriptor  Descriptor `json:"-"`
	SourceCount int        `json:"source_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Dimension returns the length of the reference descriptor.
func (i Identity) Dimension() int {
	return len(i.Descriptor)
}

// NormalizeLabel trims surrounding whitespace and applies Unicode NFC so that visually
// identical labels map to the same gallery key.
func NormalizeLabel(label string) (string, error) {
	normalized := norm.NFC.String(strings.TrimSpace(label))
	if normalized == "" {
		return "", ErrInvalidLabel
	}
	if normalized == Unknown {
		return "", ErrInvalidLabel.WithMessage("Label \"unknown\" is reserved")
	}
	if strings.ContainsAny(normalized, "\r\n") {
		return "", ErrInvalidLabel.WithMessage("Label must be a single line")
	}
	return normalized, nil
}

// MatchResult is the Matcher's verdict for one descriptor.
type MatchResult struct {
	Label    string   `json:"label"`
	Matched  bool     `json:"matched"`
	Distance Distance `json:"distance"`
}

// IsUnknown reports whether no identity was accepted.
func (m MatchResult) IsUnknown() bool {
	return !m.Matched
}

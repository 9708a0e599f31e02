package gallery

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// ErrMalformedRow is returned by ReadText for rows that are not label + D numbers.
var ErrMalformedRow = errors.New("malformed gallery row")

// ReadText parses the persisted gallery format: one row per identity, the label followed
// by exactly dim numeric fields. With dim == 0 the width of the first row sets it.
// A label seen twice keeps its first position and the later row's descriptor.
// An all-zero row, or a bare label, is a failed extraction and loads as a sentinel.
func ReadText(r io.Reader, dim int) (*Gallery, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	g := New()
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read gallery line %d: %w", line, err)
		}

		if dim == 0 && len(record) > 1 {
			dim = len(record) - 1
		}
		id, err := parseRow(record, dim)
		if err != nil {
			return nil, fmt.Errorf("gallery line %d: %w", line, err)
		}
		if _, err := g.Put(id); err != nil {
			return nil, fmt.Errorf("gallery line %d: %w", line, err)
		}
	}

	return g, nil
}

func parseRow(record []string, dim int) (domain.Identity, error) {
	if len(record) != 1 && (dim <= 0 || len(record) != dim+1) {
		return domain.Identity{}, fmt.Errorf("%w: %d fields, want label + %d values", ErrMalformedRow, len(record), dim)
	}

	label, err := domain.NormalizeLabel(record[0])
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}

	if len(record) == 1 {
		return domain.Identity{Label: label, SourceCount: 1}, nil
	}

	descriptor := make(domain.Descriptor, dim)
	for i, field := range record[1:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("%w: value %d: %v", ErrMalformedRow, i+1, err)
		}
		descriptor[i] = v
	}
	if err := descriptor.Validate(); err != nil {
		return domain.Identity{}, fmt.Errorf("identity %q: %w", label, err)
	}
	if descriptor.IsZero() {
		descriptor = nil
	}

	return domain.Identity{Label: label, Descriptor: descriptor, SourceCount: 1}, nil
}

// WriteText writes g in the persisted format, in gallery order.
func WriteText(w io.Writer, g *Gallery) error {
	writer := csv.NewWriter(w)

	dim := g.Dimension()
	record := make([]string, 0, dim+1)
	for _, id := range g.entries {
		record = append(record[:0], id.Label)
		if id.Descriptor.IsSentinel() {
			for i := 0; i < dim; i++ {
				record = append(record, "0.0")
			}
		}
		for _, v := range id.Descriptor {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write identity %q: %w", id.Label, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush gallery: %w", err)
	}
	return nil
}

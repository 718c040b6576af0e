// Package similarity provides the precomputed article-to-article similarity
// matrix. The matrix is built offline and treated here as an opaque,
// validated external input; this package never recomputes scores.
package similarity

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned at load time when the matrix is not
// square or its dimension does not equal the catalog size. This is fatal:
// the engine cannot operate on a dimensionally-inconsistent matrix.
var ErrDimensionMismatch = errors.New("similarity: matrix dimension mismatch")

// ErrOutOfRange is returned by Row for an article id outside the catalog.
var ErrOutOfRange = errors.New("similarity: article id out of range")

// ErrCorrupt is returned by Row when the stored row length does not equal
// the matrix dimension.
var ErrCorrupt = errors.New("similarity: corrupt row")

// Matrix is an N×N matrix of pairwise article similarity scores, read-only
// after construction and safe for concurrent use. Row i holds the
// similarity of every article to article i.
type Matrix struct {
	rows [][]float64
	n    int
}

// New validates rows against the expected catalog size and wraps them in a
// Matrix. Every row must have length catalogSize.
func New(rows [][]float64, catalogSize int) (*Matrix, error) {
	if len(rows) != catalogSize {
		return nil, fmt.Errorf("%w: %d rows for %d articles", ErrDimensionMismatch, len(rows), catalogSize)
	}
	for i, row := range rows {
		if len(row) != catalogSize {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), catalogSize)
		}
	}
	return &Matrix{rows: rows, n: catalogSize}, nil
}

// Dim returns the matrix dimension N.
func (m *Matrix) Dim() int {
	return m.n
}

// Row returns the similarity row for articleID. Fails with ErrOutOfRange
// for an invalid id and ErrCorrupt when the stored row length disagrees
// with the matrix dimension.
func (m *Matrix) Row(articleID int) ([]float64, error) {
	if articleID < 0 || articleID >= len(m.rows) {
		return nil, fmt.Errorf("%w: id %d, catalog size %d", ErrOutOfRange, articleID, m.n)
	}
	row := m.rows[articleID]
	if len(row) != m.n {
		return nil, fmt.Errorf("%w: row %d has length %d, want %d", ErrCorrupt, articleID, len(row), m.n)
	}
	return row, nil
}

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrEmpty is returned for a dataset with no rows or no columns.
	ErrEmpty = errors.New("dataset is empty")
	// ErrRagged is returned when rows have different widths.
	ErrRagged = errors.New("dataset rows have different widths")
)

// Matrix is an n-samples by m-features dataset. Rows are never mutated by
// the packages that consume it.
type Matrix [][]float64

// Rows returns the number of samples.
func (m Matrix) Rows() int { return len(m) }

// Cols returns the number of features, or 0 for an empty matrix.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Validate checks that the matrix is non-empty and rectangular.
func (m Matrix) Validate() error {
	if len(m) == 0 || len(m[0]) == 0 {
		return ErrEmpty
	}
	w := len(m[0])
	for i, row := range m {
		if len(row) != w {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrRagged, i, len(row), w)
		}
	}
	return nil
}

// Load reads a CSV file of numeric columns. If header is true the first
// record is skipped.
func Load(path string, header bool) (Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, header)
}

// Read parses CSV records from r.
func Read(r io.Reader, header bool) (Matrix, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	var m Matrix
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if header && line == 1 {
			continue
		}
		row := make([]float64, len(rec))
		for i, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %d: %w", line, i+1, err)
			}
			row[i] = v
		}
		m = append(m, row)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Write emits m as CSV without a header.
func Write(w io.Writer, m Matrix) error {
	cw := csv.NewWriter(w)
	rec := make([]string, m.Cols())
	for _, row := range m {
		for i, v := range row {
			rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// BlobParams describes a synthetic dataset of isotropic Gaussian clusters.
type BlobParams struct {
	Centers    int     `yaml:"centers"`
	PerCluster int     `yaml:"per_cluster"`
	Dim        int     `yaml:"dim"`
	Spread     float64 `yaml:"spread"`     // Standard deviation of each blob
	Separation float64 `yaml:"separation"` // Distance between neighbouring centers
	Seed       int64   `yaml:"seed"`
}

// Blobs generates Centers well-separated Gaussian blobs. Centers are laid
// out on a jittered grid along the first two axes so they stay at least
// Separation apart. It also returns the true label of every row.
func Blobs(p BlobParams) (Matrix, []int) {
	if p.Dim < 1 {
		p.Dim = 2
	}
	if p.Separation <= 0 {
		p.Separation = 10
	}
	if p.Spread <= 0 {
		p.Spread = 1
	}
	r := rand.New(rand.NewSource(p.Seed))

	side := 1
	for side*side < p.Centers {
		side++
	}
	centers := make([][]float64, p.Centers)
	for c := range centers {
		center := make([]float64, p.Dim)
		center[0] = float64(c%side) * p.Separation
		if p.Dim > 1 {
			center[1] = float64(c/side) * p.Separation
		}
		for d := range center {
			center[d] += (r.Float64() - 0.5) * p.Separation * 0.1
		}
		centers[c] = center
	}

	m := make(Matrix, 0, p.Centers*p.PerCluster)
	labels := make([]int, 0, p.Centers*p.PerCluster)
	for c, center := range centers {
		for i := 0; i < p.PerCluster; i++ {
			row := make([]float64, p.Dim)
			for d := range row {
				row[d] = center[d] + r.NormFloat64()*p.Spread
			}
			m = append(m, row)
			labels = append(labels, c)
		}
	}
	return m, labels
}

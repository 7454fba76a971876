// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hessrep

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Sparse is a coordinate-format sparse matrix. Duplicate coordinates
// accumulate. Apply costs O(nnz).
type Sparse struct {
	n          int
	rows, cols []int
	vals       []float64
}

// NewSparse builds an n×n sparse matrix from coordinate triplets.
func NewSparse(n int, rows, cols []int, vals []float64) (*Sparse, error) {
	if n <= 0 {
		return nil, errors.New("hessrep: dimension must be greater than 0")
	}
	if len(rows) != len(vals) || len(cols) != len(vals) {
		return nil, fmt.Errorf("hessrep: triplet lengths disagree: %d rows, %d cols, %d vals",
			len(rows), len(cols), len(vals))
	}
	for k := range vals {
		if rows[k] < 0 || rows[k] >= n || cols[k] < 0 || cols[k] >= n {
			return nil, fmt.Errorf("hessrep: entry %d at (%d,%d) outside %d×%d",
				k, rows[k], cols[k], n, n)
		}
	}
	return &Sparse{n: n, rows: rows, cols: cols, vals: vals}, nil
}

func (s *Sparse) Apply(dst, v []float64) {
	if len(dst) != s.n || len(v) != s.n {
		panic("hessrep: dimension mismatch")
	}
	for i := range dst {
		dst[i] = 0
	}
	for k, val := range s.vals {
		dst[s.rows[k]] += val * v[s.cols[k]]
	}
}

func (s *Sparse) ToDense() *mat.Dense {
	m := mat.NewDense(s.n, s.n, nil)
	for k, val := range s.vals {
		i, j := s.rows[k], s.cols[k]
		m.Set(i, j, m.At(i, j)+val)
	}
	return m
}

func (s *Sparse) ScalarMul(c float64) {
	for k := range s.vals {
		s.vals[k] *= c
	}
}

func (s *Sparse) Size() int { return s.n }

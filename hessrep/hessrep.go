// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hessrep provides starting inverse-Hessian representations for the
// limited-memory quasi-Newton solvers. A representation only needs to apply
// itself to a vector, so structured forms (diagonal, sparse, partitioned)
// avoid materializing an N×N matrix until explicitly asked to.
package hessrep

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a matrix-like starting Hessian. Implementations must keep
// Apply, ToDense and ScalarMul mutually consistent: rescaling through
// ScalarMul rescales both the applied product and the dense form.
type Matrix interface {
	// Apply computes dst = H·v. dst and v must have length Size
	// and must not alias.
	Apply(dst, v []float64)
	// ToDense materializes the representation as a dense matrix.
	ToDense() *mat.Dense
	// ScalarMul rescales the representation in place by c.
	ScalarMul(c float64)
	// Size is the side length of the represented square matrix.
	Size() int
}

// Diagonal is a diagonal matrix with either a full diagonal or a single
// broadcast scalar entry.
type Diagonal struct {
	n    int
	diag []float64
}

// NewDiagonal builds an n×n diagonal matrix. diag must hold either n
// entries or a single broadcast entry.
func NewDiagonal(n int, diag []float64) (*Diagonal, error) {
	if n <= 0 {
		return nil, errors.New("hessrep: dimension must be greater than 0")
	}
	if len(diag) != n && len(diag) != 1 {
		return nil, fmt.Errorf("hessrep: diagonal has %d entries, want %d or 1", len(diag), n)
	}
	return &Diagonal{n: n, diag: diag}, nil
}

// NewScalar builds an n×n scaled identity c·I.
func NewScalar(n int, c float64) *Diagonal {
	return &Diagonal{n: n, diag: []float64{c}}
}

func (d *Diagonal) Apply(dst, v []float64) {
	if len(dst) != d.n || len(v) != d.n {
		panic("hessrep: dimension mismatch")
	}
	if len(d.diag) == 1 {
		c := d.diag[0]
		for i, x := range v {
			dst[i] = c * x
		}
		return
	}
	for i, x := range v {
		dst[i] = d.diag[i] * x
	}
}

func (d *Diagonal) ToDense() *mat.Dense {
	m := mat.NewDense(d.n, d.n, nil)
	for i := 0; i < d.n; i++ {
		if len(d.diag) == 1 {
			m.Set(i, i, d.diag[0])
		} else {
			m.Set(i, i, d.diag[i])
		}
	}
	return m
}

func (d *Diagonal) ScalarMul(c float64) {
	for i := range d.diag {
		d.diag[i] *= c
	}
}

func (d *Diagonal) Size() int { return d.n }

// Dense wraps an explicit dense matrix.
type Dense struct {
	m *mat.Dense
}

// NewDense wraps a square dense matrix.
func NewDense(m *mat.Dense) (*Dense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("hessrep: matrix is %d×%d, want square", r, c)
	}
	return &Dense{m: m}, nil
}

func (d *Dense) Apply(dst, v []float64) {
	n := d.Size()
	if len(dst) != n || len(v) != n {
		panic("hessrep: dimension mismatch")
	}
	out := mat.NewVecDense(n, dst)
	out.MulVec(d.m, mat.NewVecDense(n, v))
}

func (d *Dense) ToDense() *mat.Dense {
	var c mat.Dense
	c.CloneFrom(d.m)
	return &c
}

func (d *Dense) ScalarMul(c float64) {
	d.m.Scale(c, d.m)
}

func (d *Dense) Size() int {
	n, _ := d.m.Dims()
	return n
}

// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hessrep

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Partitioned is a block-diagonal matrix composed of ordered blocks acting
// on contiguous index ranges. Distinct parameter groups (per-antenna gains,
// sky coefficient sets) keep independent starting curvatures this way.
type Partitioned struct {
	n       int
	blocks  []Matrix
	offsets []int
}

// NewPartitioned composes blocks into a block-diagonal matrix.
func NewPartitioned(blocks []Matrix) (*Partitioned, error) {
	if len(blocks) == 0 {
		return nil, errors.New("hessrep: partitioned matrix needs at least one block")
	}
	offsets := make([]int, len(blocks))
	n := 0
	for i, b := range blocks {
		offsets[i] = n
		n += b.Size()
	}
	return &Partitioned{n: n, blocks: blocks, offsets: offsets}, nil
}

func (p *Partitioned) Apply(dst, v []float64) {
	if len(dst) != p.n || len(v) != p.n {
		panic("hessrep: dimension mismatch")
	}
	for i, b := range p.blocks {
		lo, hi := p.offsets[i], p.offsets[i]+b.Size()
		b.Apply(dst[lo:hi], v[lo:hi])
	}
}

func (p *Partitioned) ToDense() *mat.Dense {
	m := mat.NewDense(p.n, p.n, nil)
	for i, b := range p.blocks {
		off := p.offsets[i]
		m.Slice(off, off+b.Size(), off, off+b.Size()).(*mat.Dense).Copy(b.ToDense())
	}
	return m
}

func (p *Partitioned) ScalarMul(c float64) {
	for _, b := range p.blocks {
		b.ScalarMul(c)
	}
}

func (p *Partitioned) Size() int { return p.n }

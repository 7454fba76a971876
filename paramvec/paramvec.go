// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package paramvec maps collections of named parameter tensors onto a single
// contiguous vector and back. The optimizer packages operate on the flattened
// view; forward models keep their native shapes.
package paramvec

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch reports a size disagreement between a flattened vector
// and the parameter collection it is written back into.
var ErrShapeMismatch = errors.New("paramvec: shape mismatch")

// Param is one named parameter tensor. Data holds the live values in
// row-major order and is mutated in place by the optimizer. Grad holds the
// gradient written by the objective closure; a nil Grad reads as zeros.
type Param struct {
	Name  string
	Data  []float64
	Grad  []float64
	Shape []int
}

// NewParam builds a parameter of the given shape backed by data.
func NewParam(name string, data []float64, shape ...int) (*Param, error) {
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("paramvec: non-positive dimension %d in %q", d, name)
		}
		n *= d
	}
	if len(data) != n {
		return nil, fmt.Errorf("%w: %q has %d elements, shape wants %d",
			ErrShapeMismatch, name, len(data), n)
	}
	return &Param{Name: name, Data: data, Shape: shape}, nil
}

// Numel is the scalar element count of the parameter.
func (p *Param) Numel() int {
	n := 1
	for _, d := range p.Shape {
		n *= d
	}
	return n
}

// ZeroGrad allocates (if needed) and clears the gradient storage.
func (p *Param) ZeroGrad() {
	if p.Grad == nil {
		p.Grad = make([]float64, p.Numel())
		return
	}
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}

// Numel is the total scalar element count across the collection.
func Numel(params []*Param) int {
	n := 0
	for _, p := range params {
		n += p.Numel()
	}
	return n
}

// Flatten concatenates the parameter values in input order.
func Flatten(params []*Param) []float64 {
	vec := make([]float64, 0, Numel(params))
	for _, p := range params {
		vec = append(vec, p.Data...)
	}
	return vec
}

// FlattenGrad concatenates the gradients in input order.
// Parameters without gradient storage contribute zeros.
func FlattenGrad(params []*Param) []float64 {
	vec := make([]float64, 0, Numel(params))
	for _, p := range params {
		if p.Grad == nil {
			vec = append(vec, make([]float64, p.Numel())...)
		} else {
			vec = append(vec, p.Grad...)
		}
	}
	return vec
}

// UnflattenInto writes vec back into the parameters at running offsets.
// Element order is preserved; the total element count must match.
func UnflattenInto(vec []float64, params []*Param) error {
	if len(vec) != Numel(params) {
		return fmt.Errorf("%w: vector has %d elements, parameters want %d",
			ErrShapeMismatch, len(vec), Numel(params))
	}
	offset := 0
	for _, p := range params {
		n := p.Numel()
		copy(p.Data, vec[offset:offset+n])
		offset += n
	}
	return nil
}

// AddScaledInto moves the parameters along the flattened direction update
// by the scalar alpha: p.Data += alpha * update[offset:offset+numel].
func AddScaledInto(params []*Param, alpha float64, update []float64) error {
	if len(update) != Numel(params) {
		return fmt.Errorf("%w: update has %d elements, parameters want %d",
			ErrShapeMismatch, len(update), Numel(params))
	}
	offset := 0
	for _, p := range params {
		n := p.Numel()
		seg := update[offset : offset+n]
		for i, u := range seg {
			p.Data[i] += alpha * u
		}
		offset += n
	}
	return nil
}

// CloneData snapshots the parameter values for later rollback.
func CloneData(params []*Param) [][]float64 {
	snap := make([][]float64, len(params))
	for i, p := range params {
		snap[i] = append([]float64(nil), p.Data...)
	}
	return snap
}

// RestoreData writes a CloneData snapshot back into the parameters.
func RestoreData(params []*Param, snap [][]float64) {
	for i, p := range params {
		copy(p.Data, snap[i])
	}
}

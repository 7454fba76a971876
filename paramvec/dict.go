// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package paramvec

// Dict is a keyed alternative to the flat vector: a mapping from group name
// to sub-vector with deterministic (insertion) key order. It backs the
// per-group independent line searches, where antenna gains and sky
// coefficients keep separate step lengths.
type Dict struct {
	keys []string
	vals map[string][]float64
}

// NewDict returns an empty keyed vector collection.
func NewDict() *Dict {
	return &Dict{vals: make(map[string][]float64)}
}

// Set stores a sub-vector under key. A new key is appended to the key order;
// an existing key keeps its position.
func (d *Dict) Set(key string, v []float64) {
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = v
}

// Get returns the sub-vector stored under key, or nil.
func (d *Dict) Get(key string) []float64 {
	return d.vals[key]
}

// Keys returns the group names in insertion order.
// The returned slice is shared; callers must not modify it.
func (d *Dict) Keys() []string {
	return d.keys
}

// Len is the number of groups.
func (d *Dict) Len() int {
	return len(d.keys)
}

// Numel is the total scalar element count across all groups.
func (d *Dict) Numel() int {
	n := 0
	for _, v := range d.vals {
		n += len(v)
	}
	return n
}

// Clone deep-copies the dictionary.
func (d *Dict) Clone() *Dict {
	c := NewDict()
	for _, k := range d.keys {
		c.Set(k, append([]float64(nil), d.vals[k]...))
	}
	return c
}

// Flatten concatenates the sub-vectors in key order.
func (d *Dict) Flatten() []float64 {
	vec := make([]float64, 0, d.Numel())
	for _, k := range d.keys {
		vec = append(vec, d.vals[k]...)
	}
	return vec
}

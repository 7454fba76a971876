// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package paramvec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams(t *testing.T) []*Param {
	t.Helper()
	gains, err := NewParam("gains", []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	sky, err := NewParam("sky", []float64{7, 8, 9, 10}, 4)
	require.NoError(t, err)
	offset, err := NewParam("offset", []float64{11}, 1)
	require.NoError(t, err)
	return []*Param{gains, sky, offset}
}

func TestNewParamShapeMismatch(t *testing.T) {
	_, err := NewParam("bad", []float64{1, 2, 3}, 2, 2)
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewParam("bad", []float64{1, 2}, 2, 0)
	require.Error(t, err)
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	params := testParams(t)
	require.Equal(t, 11, Numel(params))

	vec := Flatten(params)
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, vec)

	// Scramble the live values, then restore from the flattened copy.
	for _, p := range params {
		for i := range p.Data {
			p.Data[i] = -1
		}
	}
	require.NoError(t, UnflattenInto(vec, params))
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, params[0].Data)
	assert.Equal(t, []float64{7, 8, 9, 10}, params[1].Data)
	assert.Equal(t, []float64{11}, params[2].Data)
}

func TestUnflattenShapeMismatch(t *testing.T) {
	params := testParams(t)
	err := UnflattenInto(make([]float64, 5), params)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestFlattenGradZeroFill(t *testing.T) {
	params := testParams(t)
	params[0].Grad = []float64{1, 1, 1, 1, 1, 1}
	// params[1] and params[2] have no gradient storage.
	grad := FlattenGrad(params)
	require.Equal(t, []float64{1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0}, grad)
}

func TestZeroGrad(t *testing.T) {
	p, err := NewParam("p", []float64{1, 2}, 2)
	require.NoError(t, err)
	require.Nil(t, p.Grad)
	p.ZeroGrad()
	require.Equal(t, []float64{0, 0}, p.Grad)
	p.Grad[0] = 3
	p.ZeroGrad()
	require.Equal(t, []float64{0, 0}, p.Grad)
}

func TestAddScaledInto(t *testing.T) {
	params := testParams(t)
	update := make([]float64, Numel(params))
	for i := range update {
		update[i] = float64(i + 1)
	}
	require.NoError(t, AddScaledInto(params, 0.5, update))
	assert.Equal(t, []float64{1.5, 3, 4.5, 6, 7.5, 9}, params[0].Data)
	assert.Equal(t, []float64{10.5, 12, 13.5, 15}, params[1].Data)
	assert.Equal(t, []float64{16.5}, params[2].Data)

	require.ErrorIs(t, AddScaledInto(params, 1, make([]float64, 3)), ErrShapeMismatch)
}

func TestCloneRestore(t *testing.T) {
	params := testParams(t)
	snap := CloneData(params)
	params[0].Data[0] = 99
	params[2].Data[0] = -5
	RestoreData(params, snap)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, params[0].Data)
	assert.Equal(t, []float64{11}, params[2].Data)
}

func TestDictOrderAndClone(t *testing.T) {
	d := NewDict()
	d.Set("gains", []float64{1, 2})
	d.Set("sky", []float64{3})
	d.Set("gains", []float64{4, 5}) // overwrite keeps position

	require.Equal(t, []string{"gains", "sky"}, d.Keys())
	require.Equal(t, 2, d.Len())
	require.Equal(t, 3, d.Numel())
	require.Equal(t, []float64{4, 5}, d.Get("gains"))
	require.Nil(t, d.Get("missing"))
	require.Equal(t, []float64{4, 5, 3}, d.Flatten())

	c := d.Clone()
	c.Get("gains")[0] = -1
	assert.Equal(t, []float64{4, 5}, d.Get("gains"))
	assert.Equal(t, d.Keys(), c.Keys())
}

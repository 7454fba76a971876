// Copyright ©2026 radiocosmo. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quasinewton

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerTraceOutput(t *testing.T) {
	params, closure, _ := quadProbe(t)
	var buf bytes.Buffer
	b, err := NewBFGS(params, nil, Config{MaxIter: 3},
		&Logger{Level: LogTrace, Msg: &buf})
	require.NoError(t, err)

	b.Step(closure)
	require.Equal(t, ExitIterBudget, b.Exit())

	// One iterate line and one line-search line per inner iteration,
	// then the exit line.
	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "At iterate"))
	assert.Equal(t, 3, strings.Count(out, "Line search: alpha="))
	assert.Contains(t, out, "Step finished after 3 iterations: iteration budget exhausted")
}

func TestLoggerLastOnly(t *testing.T) {
	params, closure, _ := quadProbe(t)
	var buf bytes.Buffer
	b, err := NewBFGS(params, nil, Config{MaxIter: 3},
		&Logger{Level: LogLast, Msg: &buf})
	require.NoError(t, err)

	b.Step(closure)

	out := buf.String()
	assert.NotContains(t, out, "At iterate")
	assert.NotContains(t, out, "Line search")
	assert.Contains(t, out, "Step finished after 3 iterations")
}

func TestLoggerNoop(t *testing.T) {
	params, closure, _ := quadProbe(t)
	var buf bytes.Buffer
	b, err := NewBFGS(params, nil, Config{MaxIter: 3},
		&Logger{Level: LogNoop, Msg: &buf})
	require.NoError(t, err)

	b.Step(closure)

	assert.Empty(t, buf.String())
}

func TestLoggerConvergedOnEntry(t *testing.T) {
	params, closure, _ := quadProbe(t)
	var buf bytes.Buffer
	b, err := NewBFGS(params, nil, Config{ToleranceChange: 1e-18},
		&Logger{Level: LogLast, Msg: &buf})
	require.NoError(t, err)

	stepUntil(t, b, closure, ExitOptimal, 10)
	buf.Reset()

	// The converged state is cached; re-entry reports without iterating.
	b.Step(closure)

	assert.Contains(t, buf.String(), "Converged on entry: first-order optimality reached")
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.defaults())
	assert.Equal(t, 1.0, cfg.LR)
	assert.Equal(t, 20, cfg.MaxIter)
	assert.Equal(t, 10, cfg.MaxLineSearchEval)
	assert.Equal(t, 1e-10, cfg.ToleranceGrad)
	assert.Equal(t, 1e-12, cfg.ToleranceChange)
	assert.Equal(t, 100, cfg.HistorySize)
	assert.Equal(t, FixedStep, cfg.LineSearch)
}

// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package test

import (
	"github.com/stretchr/testify/require"
	"testing"
)

type recordingT struct {
	testing.TB
	failed bool
}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.failed = true
}

func TestAssertCmpEqual(t *testing.T) {
	type product struct {
		Id   uint64
		Tags []string
	}

	require.True(t, AssertCmpEqual(t, product{Id: 1, Tags: []string{"a"}}, product{Id: 1, Tags: []string{"a"}}))

	r := &recordingT{TB: t}
	require.False(t, AssertCmpEqual(r, product{Id: 1}, product{Id: 2}))
	require.True(t, r.failed, "a mismatch is reported to the test")
}

func TestEventually(t *testing.T) {
	calls := 0
	require.True(t, Eventually(func() bool {
		calls++
		return calls == 3
	}))
	require.Equal(t, 3, calls)

	require.False(t, Eventually(func() bool { return false }))
}

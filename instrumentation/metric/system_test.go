// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"github.com/orbs-network/scribe/log"
	"github.com/stretchr/testify/require"
	"os"
	"testing"
)

func TestSystemReporter_SkipsWithoutProcfs(t *testing.T) {
	r := newSystemReporter(NewRegistry(), "/no/such/proc")
	r.report(log.DefaultTestingLogger(t))

	require.Zero(t, r.metrics.rssBytes.Value())
	require.Nil(t, r.previous)
}

func TestSystemReporter_ReadsOwnProcess(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("procfs is not available")
	}

	r := newSystemReporter(NewRegistry(), "/proc")
	logger := log.DefaultTestingLogger(t)

	r.report(logger)
	require.NotNil(t, r.previous, "first report keeps a cpu sample")
	require.True(t, r.metrics.rssBytes.Value() > 0)
	require.True(t, r.metrics.threads.Value() > 0)

	r.report(logger)
	require.True(t, r.metrics.cpuUtilization.Value() >= 0)
}

// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"context"
	"github.com/c9s/goprocinfo/linux"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/synchronization"
	"os"
	"path/filepath"
	"time"
)

const SYSTEM_METRICS_INTERVAL = 3 * time.Second
const PAGESIZE = 4096

type systemMetrics struct {
	rssBytes       *Gauge
	cpuUtilization *Gauge
	threads        *Gauge
}

// cpuSample pairs the process cpu ticks with the machine total at the same moment
type cpuSample struct {
	process uint64
	total   uint64
}

type systemReporter struct {
	procRoot string
	pid      uint64
	metrics  systemMetrics
	previous *cpuSample
}

func NewSystemReporter(ctx context.Context, metricFactory Factory, logger log.Logger) govnr.ShutdownWaiter {
	r := newSystemReporter(metricFactory, "/proc")
	return synchronization.NewPeriodicalTrigger(ctx, "system metric reporter", SYSTEM_METRICS_INTERVAL, logger, func() {
		r.report(logger)
	}, nil)
}

func newSystemReporter(metricFactory Factory, procRoot string) *systemReporter {
	return &systemReporter{
		procRoot: procRoot,
		pid:      uint64(os.Getpid()),
		metrics: systemMetrics{
			rssBytes:       metricFactory.NewGauge("OS.Process.Memory.Bytes"),
			cpuUtilization: metricFactory.NewGauge("OS.Process.CPU.PerCent"),
			threads:        metricFactory.NewGauge("OS.Process.Threads.Count"),
		},
	}
}

// utilization is measured between consecutive reports, the first report only takes a sample
func (r *systemReporter) report(logger log.Logger) {
	if _, err := os.Stat(r.procRoot); os.IsNotExist(err) {
		return
	}

	process, err := linux.ReadProcess(r.pid, r.procRoot)
	if err != nil {
		logger.Error("failed to retrieve process stats", log.Error(err))
		return
	}

	r.metrics.rssBytes.Update(int64(process.Statm.Resident * PAGESIZE))
	r.metrics.threads.Update(process.Stat.NumThreads)

	stat, err := linux.ReadStat(filepath.Join(r.procRoot, "stat"))
	if err != nil {
		logger.Error("failed to retrieve cpu stats", log.Error(err))
		return
	}

	all := stat.CPUStatAll
	sample := &cpuSample{
		process: process.Stat.Utime + process.Stat.Stime + uint64(process.Stat.Cutime+process.Stat.Cstime),
		total:   all.User + all.Nice + all.System + all.Idle,
	}

	if r.previous != nil && sample.total > r.previous.total {
		used := float64(sample.process - r.previous.process)
		r.metrics.cpuUtilization.Update(int64(used / float64(sample.total-r.previous.total) * 100))
	}
	r.previous = sample
}

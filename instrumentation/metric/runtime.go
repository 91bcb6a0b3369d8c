// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"context"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/synchronization"
	"runtime"
	"time"
)

type runtimeMetrics struct {
	heapAlloc       *Gauge
	heapSys         *Gauge
	gcCpuPercentage *Gauge
	goroutines      *Gauge
	uptime          *Gauge
}

type runtimeReporter struct {
	metrics runtimeMetrics
	started time.Time
}

const RUNTIME_METRICS_INTERVAL = 5 * time.Second

func NewRuntimeReporter(ctx context.Context, metricFactory Factory, logger log.Logger) govnr.ShutdownWaiter {
	r := newRuntimeReporter(metricFactory)

	return synchronization.NewPeriodicalTrigger(ctx, "runtime metric reporter", RUNTIME_METRICS_INTERVAL, logger, r.reportRuntimeMetrics, nil)
}

func newRuntimeReporter(metricFactory Factory) *runtimeReporter {
	return &runtimeReporter{
		metrics: runtimeMetrics{
			heapAlloc:       metricFactory.NewGauge("Runtime.HeapAlloc"),
			heapSys:         metricFactory.NewGauge("Runtime.HeapSys"),
			gcCpuPercentage: metricFactory.NewGauge("Runtime.GCCPUPercentage"),
			goroutines:      metricFactory.NewGauge("Runtime.Goroutines"),
			uptime:          metricFactory.NewGauge("Runtime.Uptime.Seconds"),
		},
		started: time.Now(),
	}
}

func (r *runtimeReporter) reportRuntimeMetrics() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.metrics.heapSys.UpdateUint64(mem.HeapSys)
	r.metrics.heapAlloc.UpdateUint64(mem.HeapAlloc)
	r.metrics.gcCpuPercentage.Update(int64(mem.GCCPUFraction * 100))
	r.metrics.goroutines.Update(int64(runtime.NumGoroutine()))
	r.metrics.uptime.Update(int64(time.Since(r.started).Seconds()))
}

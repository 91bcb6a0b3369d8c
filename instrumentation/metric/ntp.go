// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"context"
	"github.com/beevik/ntp"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/synchronization"
	"time"
)

type ntpMetrics struct {
	drift *Gauge
}

type ntpReporter struct {
	metrics ntpMetrics
	address string
	query   func(address string) (time.Duration, error)
}

const NTP_QUERY_INTERVAL = 30 * time.Second

// history timestamps are rendered against the local clock, drift makes them misleading
func NewNtpReporter(ctx context.Context, metricFactory Factory, logger log.Logger, ntpServerAddress string) govnr.ShutdownWaiter {
	r := newNtpReporter(metricFactory, ntpServerAddress, queryClockOffset)
	return r.startReporting(ctx, logger, NTP_QUERY_INTERVAL)
}

func newNtpReporter(metricFactory Factory, address string, query func(address string) (time.Duration, error)) *ntpReporter {
	return &ntpReporter{
		metrics: ntpMetrics{
			drift: metricFactory.NewGauge("OS.Time.Drift.Millis"),
		},
		address: address,
		query:   query,
	}
}

func queryClockOffset(address string) (time.Duration, error) {
	response, err := ntp.Query(address)
	if err != nil {
		return 0, err
	}
	return response.ClockOffset, nil
}

func (r *ntpReporter) report(logger log.Logger) {
	offset, err := r.query(r.address)
	if err != nil {
		logger.Info("could not query ntp server", log.String("ntp-server", r.address), log.Error(err))
		return
	}

	r.metrics.drift.Update(offset.Nanoseconds() / int64(time.Millisecond))
}

func (r *ntpReporter) startReporting(ctx context.Context, logger log.Logger, interval time.Duration) govnr.ShutdownWaiter {
	return synchronization.NewPeriodicalTrigger(ctx, "NTP metric reporter", interval, logger, func() {
		r.report(logger)
	}, nil)
}

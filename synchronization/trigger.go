// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package synchronization

import (
	"context"
	"github.com/orbs-network/govnr"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/logfields"
	"sync/atomic"
	"time"
)

// PeriodicalTrigger runs a reporter once on start and then every interval until its context ends.
// A panicking handler is logged and the loop is restarted by govnr.
type PeriodicalTrigger struct {
	govnr.TreeSupervisor
	Closed govnr.ContextEndedChan
	cancel context.CancelFunc
	fired  uint64
}

func NewPeriodicalTrigger(ctx context.Context, name string, interval time.Duration, logger logfields.Errorer, handler func(), onStop func()) *PeriodicalTrigger {
	loopCtx, cancel := context.WithCancel(ctx)
	t := &PeriodicalTrigger{cancel: cancel}

	fire := func() {
		atomic.AddUint64(&t.fired, 1)
		handler()
	}

	started := false
	handle := govnr.Forever(loopCtx, name, logfields.GovnrErrorer(logger), func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// restarts after a panic wait for the next tick
		if !started {
			started = true
			fire()
		}

		for {
			select {
			case <-ticker.C:
				fire()
			case <-loopCtx.Done():
				if onStop != nil {
					go onStop()
				}
				return
			}
		}
	})

	t.Closed = handle.Done()
	t.Supervise(handle)
	return t
}

// Fired is the number of times the handler was invoked
func (t *PeriodicalTrigger) Fired() uint64 {
	return atomic.LoadUint64(&t.fired)
}

func (t *PeriodicalTrigger) Stop() {
	t.cancel()
	<-t.Closed
}

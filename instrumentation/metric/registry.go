// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"context"
	"fmt"
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/synchronization"
	"strings"
	"sync"
	"time"
)

type Factory interface {
	NewLatency(name string, maxDuration time.Duration) *Histogram
	NewHistogram(name string, maxValue int64) *Histogram
	NewGauge(name string) *Gauge
	NewRate(name string) *Rate
	NewText(name string, defaultValue ...string) *Text
}

type Registry interface {
	Factory
	String() string
	ExportAll() map[string]exportedMetric
	ExportPrometheus() string
	WithLabel(key string, value string) Registry
	ReportEvery(ctx context.Context, interval time.Duration, logger log.Logger) *synchronization.PeriodicalTrigger
}

type exportedMetric interface {
	LogRow() []*log.Field
	PrometheusRow() []*prometheusRow
	PrometheusType() string
	PrometheusName() string
}

type metric interface {
	fmt.Stringer
	Name() string
	Export() exportedMetric
}

type namedMetric struct {
	name string
}

func (m *namedMetric) Name() string {
	return m.name
}

func NewRegistry() Registry {
	r := &inMemoryRegistry{}
	r.mu.byName = make(map[string]metric)
	return r
}

type label struct {
	key   string
	value string
}

// metrics are registered once per name, a session reconnecting on the same registry
// gets back the metrics it created before
type inMemoryRegistry struct {
	mu struct {
		sync.RWMutex
		metrics []metric
		byName  map[string]metric
		labels  []label
	}
}

// asking for an existing name with a different metric type panics
func (r *inMemoryRegistry) getOrRegister(name string, create func() metric) metric {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, found := r.mu.byName[name]; found {
		return m
	}

	m := create()
	r.mu.byName[name] = m
	r.mu.metrics = append(r.mu.metrics, m)
	return m
}

// labels apply to every metric in the prometheus export
func (r *inMemoryRegistry) WithLabel(key string, value string) Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mu.labels = append(r.mu.labels, label{key: key, value: value})
	return r
}

func (r *inMemoryRegistry) NewRate(name string) *Rate {
	return r.getOrRegister(name, func() metric { return newRate(name) }).(*Rate)
}

func (r *inMemoryRegistry) NewGauge(name string) *Gauge {
	return r.getOrRegister(name, func() metric { return &Gauge{namedMetric: namedMetric{name: name}} }).(*Gauge)
}

func (r *inMemoryRegistry) NewLatency(name string, maxDuration time.Duration) *Histogram {
	return r.getOrRegister(name, func() metric {
		return newHistogram(name, maxDuration.Nanoseconds(), float64(time.Millisecond))
	}).(*Histogram)
}

func (r *inMemoryRegistry) NewHistogram(name string, maxValue int64) *Histogram {
	return r.getOrRegister(name, func() metric { return newHistogram(name, maxValue, 1) }).(*Histogram)
}

func (r *inMemoryRegistry) NewText(name string, defaultValue ...string) *Text {
	return r.getOrRegister(name, func() metric { return newText(name, defaultValue...) }).(*Text)
}

func (r *inMemoryRegistry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for _, m := range r.mu.metrics {
		b.WriteString(m.String())
	}

	return b.String()
}

func (r *inMemoryRegistry) ExportAll() map[string]exportedMetric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make(map[string]exportedMetric)
	for _, m := range r.mu.metrics {
		all[m.Name()] = m.Export()
	}

	return all
}

func (r *inMemoryRegistry) report(logger log.Logger) {
	for _, value := range r.ExportAll() {
		if logRow := value.LogRow(); logRow != nil {
			logger.Metric(logRow...)
		}
	}
}

func (r *inMemoryRegistry) rotateHistograms() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.mu.metrics {
		if h, ok := m.(*Histogram); ok {
			h.Rotate()
		}
	}
}

func (r *inMemoryRegistry) ReportEvery(ctx context.Context, interval time.Duration, logger log.Logger) *synchronization.PeriodicalTrigger {
	return synchronization.NewPeriodicalTrigger(ctx, "metric registry reporter", interval, logger, func() {
		r.report(logger)
		r.rotateHistograms()
	}, func() {
		r.report(logger)
	})
}

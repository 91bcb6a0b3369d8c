// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"fmt"
	"github.com/codahale/hdrhistogram"
	"github.com/orbs-network/scribe/log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const histogramWindows = 5

type Histogram struct {
	namedMetric
	divisor       float64
	overflowCount int64

	mu    sync.Mutex
	histo *hdrhistogram.WindowedHistogram
}

type histogramExport struct {
	Name      string
	Min       float64
	P50       float64
	P95       float64
	P99       float64
	Max       float64
	Avg       float64
	Samples   int64
	Overflows int64
}

// divisor scales recorded values on export, latencies are recorded in nanos and exported in millis
func newHistogram(name string, max int64, divisor float64) *Histogram {
	return &Histogram{
		namedMetric: namedMetric{name: name},
		divisor:     divisor,
		histo:       hdrhistogram.NewWindowed(histogramWindows, 1, max, 3),
	}
}

func (h *Histogram) Record(value int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.histo.Current.RecordValue(value); err != nil {
		atomic.AddInt64(&h.overflowCount, 1)
	}
}

func (h *Histogram) RecordSince(t time.Time) {
	h.Record(int64(time.Since(t)))
}

func (h *Histogram) Rotate() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.histo.Rotate()
}

func (h *Histogram) scaled(value float64) float64 {
	return value / h.divisor
}

func (h *Histogram) export() histogramExport {
	h.mu.Lock()
	defer h.mu.Unlock()

	histo := h.histo.Merge()

	return histogramExport{
		Name:      h.name,
		Min:       h.scaled(float64(histo.Min())),
		P50:       h.scaled(float64(histo.ValueAtQuantile(50))),
		P95:       h.scaled(float64(histo.ValueAtQuantile(95))),
		P99:       h.scaled(float64(histo.ValueAtQuantile(99))),
		Max:       h.scaled(float64(histo.Max())),
		Avg:       h.scaled(histo.Mean()),
		Samples:   histo.TotalCount(),
		Overflows: atomic.LoadInt64(&h.overflowCount),
	}
}

func (h *Histogram) Export() exportedMetric {
	return h.export()
}

func (h *Histogram) String() string {
	e := h.export()
	return fmt.Sprintf(
		"metric %s: [min=%f, p50=%f, p95=%f, p99=%f, max=%f, avg=%f, samples=%d, overflows=%d]\n",
		e.Name, e.Min, e.P50, e.P95, e.P99, e.Max, e.Avg, e.Samples, e.Overflows)
}

func (h histogramExport) LogRow() []*log.Field {
	if h.Samples == 0 {
		return nil
	}

	return []*log.Field{
		log.String("metric", h.Name),
		log.String("metric-type", "histogram"),
		log.Float64("min", h.Min),
		log.Float64("p50", h.P50),
		log.Float64("p95", h.P95),
		log.Float64("p99", h.P99),
		log.Float64("max", h.Max),
		log.Float64("avg", h.Avg),
		log.Int64("samples", h.Samples),
	}
}

func (h histogramExport) PrometheusRow() []*prometheusRow {
	name := h.PrometheusName()
	return []*prometheusRow{
		{name, aggregation("min"), formatFloat(h.Min)},
		{name, aggregation("median"), formatFloat(h.P50)},
		{name, aggregation("95p"), formatFloat(h.P95)},
		{name, aggregation("99p"), formatFloat(h.P99)},
		{name, aggregation("max"), formatFloat(h.Max)},
		{name, aggregation("avg"), formatFloat(h.Avg)},
		{name, aggregation("count"), strconv.FormatInt(h.Samples, 10)},
	}
}

func (h histogramExport) PrometheusType() string {
	return "histogram"
}

func (h histogramExport) PrometheusName() string {
	return prometheusName(h.Name)
}

// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// label is a single rendered key="value" pair or empty
type prometheusRow struct {
	name  string
	label string
	value string
}

func aggregation(kind string) string {
	return fmt.Sprintf("aggregation=%q", kind)
}

/**
Format reference: https://prometheus.io/docs/instrumenting/exposition_formats/
For info on Prometheus labels, see: https://prometheus.io/docs/practices/naming/#labels
*/
func (r *inMemoryRegistry) ExportPrometheus() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	labels := r.labelsString()

	var rows []string
	for _, m := range r.mu.metrics {
		rows = append(rows, exportPrometheus(m.Export(), labels))
	}

	return strings.Join(rows, "")
}

func (r *inMemoryRegistry) labelsString() string {
	var labels []string
	for _, l := range r.mu.labels {
		labels = append(labels, fmt.Sprintf("%s=%q", l.key, l.value))
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}

func exportPrometheus(m exportedMetric, labels string) string {
	rows := m.PrometheusRow()
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# TYPE %s %s\n", m.PrometheusName(), m.PrometheusType()))

	for _, row := range rows {
		rowLabels := joinLabels(labels, row.label)

		if rowLabels == "" {
			b.WriteString(fmt.Sprintf("%s %s\n", row.name, row.value))
		} else {
			b.WriteString(fmt.Sprintf("%s{%s} %s\n", row.name, rowLabels, row.value))
		}
	}

	return b.String()
}

func joinLabels(labels ...string) string {
	var nonEmpty []string
	for _, l := range labels {
		if l != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}
	return strings.Join(nonEmpty, ",")
}

func prometheusName(name string) string {
	return strings.Replace(name, ".", "_", -1)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

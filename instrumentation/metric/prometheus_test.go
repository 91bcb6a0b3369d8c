// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import (
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

/**
Format reference: https://prometheus.io/docs/instrumenting/exposition_formats/
*/

func TestGauge_ExportPrometheus(t *testing.T) {
	r := NewRegistry()
	status := r.NewGauge("Ledger.Products.Count")

	result := r.ExportPrometheus()

	require.Regexp(t, "# TYPE Ledger_Products_Count gauge", result)
	require.Regexp(t, "Ledger_Products_Count 0", result)

	status.Update(42)
	updatedResult := r.ExportPrometheus()
	require.Regexp(t, "Ledger_Products_Count 42", updatedResult)
}

func TestGauge_ExportPrometheusWithLabels(t *testing.T) {
	r := NewRegistry().WithLabel("network", "amoy").WithLabel("identity", "0xf39F")
	status := r.NewGauge("Ledger.Products.Count")
	status.Update(42)

	resultWithLabels := r.ExportPrometheus()
	require.Contains(t, resultWithLabels, "Ledger_Products_Count{identity=\"0xf39F\",network=\"amoy\"} 42")
}

func TestHistogram_ExportPrometheusAggregations(t *testing.T) {
	r := NewRegistry().WithLabel("network", "amoy")
	histo := r.NewHistogram("Some.Size", 1000)

	for i := 1; i <= 100; i++ {
		histo.Record(int64(i))
	}

	promStr := r.ExportPrometheus()

	require.Regexp(t, "# TYPE Some_Size histogram", promStr)
	require.Equal(t, 7, strings.Count(promStr, "Some_Size{network=\"amoy\",aggregation="))
	require.Contains(t, promStr, "Some_Size{network=\"amoy\",aggregation=\"count\"} 100")
}

func TestText_ExportedAsInfoGauge(t *testing.T) {
	r := NewRegistry().WithLabel("network", "amoy")
	status := r.NewText("Ledger.Node.Sync.Status", "failed")
	status.Update("success")

	promStr := r.ExportPrometheus()

	require.Contains(t, promStr, "# TYPE Ledger_Node_Sync_Status_info gauge")
	require.Contains(t, promStr, "Ledger_Node_Sync_Status_info{network=\"amoy\",value=\"success\"} 1")
}

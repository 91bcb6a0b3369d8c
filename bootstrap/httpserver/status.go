package httpserver

import (
	"encoding/json"
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/config"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"net/http"
)

type StatusResponse struct {
	Uptime int64

	Ledger struct {
		Network        string
		Endpoint       string
		NodeSync       string
		LastBlock      int64
		ContractStatus string
		Rejections     int64
	}

	Registry struct {
		Products      int64
		FailedFetches int64
		FailedActions int64
	}

	Version config.Version
}

func (s *HttpServer) getStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	metrics := s.metricRegistry
	status := StatusResponse{
		Uptime:  metricGetGaugeValue(s.logger, metrics, "Runtime.Uptime.Seconds"),
		Version: config.GetVersion(),
	}

	status.Ledger.Network = metricGetString(s.logger, metrics, "Ledger.Network")
	status.Ledger.Endpoint = metricGetString(s.logger, metrics, "Ledger.Endpoint")
	status.Ledger.NodeSync = metricGetString(s.logger, metrics, "Ledger.Node.Sync.Status")
	status.Ledger.LastBlock = metricGetGaugeValue(s.logger, metrics, "Ledger.Node.LastBlock")
	status.Ledger.ContractStatus = metricGetString(s.logger, metrics, "Ledger.Contract.Status")
	status.Ledger.Rejections = metricGetGaugeValue(s.logger, metrics, "Ledger.Write.Rejections")

	status.Registry.Products = metricGetGaugeValue(s.logger, metrics, "Registry.Products.Count")
	status.Registry.FailedFetches = metricGetGaugeValue(s.logger, metrics, "Registry.LoadAll.FailedFetches.Count")
	status.Registry.FailedActions = metricGetGaugeValue(s.logger, metrics, "Registry.Actions.Failed.Count")

	data, _ := json.MarshalIndent(status, "", "  ")

	_, err := w.Write(data)
	if err != nil {
		s.logger.Info("error writing status response", log.Error(err))
	}
}

func (s *HttpServer) dumpMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	data, _ := json.MarshalIndent(s.metricRegistry.ExportAll(), "", "  ")
	_, err := w.Write(data)
	if err != nil {
		s.logger.Info("error writing metrics response", log.Error(err))
	}
}

func (s *HttpServer) dumpPrometheusMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, err := w.Write([]byte(s.metricRegistry.ExportPrometheus()))
	if err != nil {
		s.logger.Info("error writing prometheus response", log.Error(err))
	}
}

// metrics that a given ledger mode never registers read as zero values
func metricGetGaugeValue(logger log.Logger, metrics metric.Registry, name string) (value int64) {
	exported, found := metrics.ExportAll()[name]
	if !found {
		return 0
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("could not retrieve metric", log.String("metric", name))
		}
	}()

	rows := exported.LogRow()
	value = rows[len(rows)-1].Int
	return value
}

func metricGetString(logger log.Logger, metrics metric.Registry, name string) (value string) {
	exported, found := metrics.ExportAll()[name]
	if !found {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("could not retrieve metric", log.String("metric", name))
		}
	}()

	rows := exported.LogRow()
	value = rows[len(rows)-1].StringVal
	return
}

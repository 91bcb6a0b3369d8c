// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package bootstrap

import (
	"context"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/bootstrap/httpserver"
	"github.com/supplychain-dapp/supplychain-go/config"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/services/registry"
)

// Node serves one registry session over http until it is shut down
type Node struct {
	govnr.TreeSupervisor
	logger         log.Logger
	session        *registry.Session
	httpServer     *httpserver.HttpServer
	ledger         *Ledger
	metricRegistry metric.Registry
	ctxCancel      context.CancelFunc
}

func NewNode(cfg config.ClientConfig, logger log.Logger) (*Node, error) {
	return newNode(cfg, logger, DefaultPrompt())
}

func newNode(cfg config.ClientConfig, logger log.Logger, prompt adapter.PassphrasePrompt) (*Node, error) {
	if err := config.NewValidator(logger).Validate(cfg); err != nil {
		return nil, err
	}

	ctx, ctxCancel := context.WithCancel(context.Background())
	nodeLogger := logger.WithTags(log.String("network", cfg.LedgerNetworkName()))

	metricRegistry := metric.NewRegistry()
	metric.RegisterConfigIndicators(metricRegistry, cfg)

	ledger, err := ConnectLedger(ctx, cfg, nodeLogger, metricRegistry, prompt)
	if err != nil {
		ctxCancel()
		return nil, err
	}

	session := registry.NewSession(ledger.Connection, cfg, nodeLogger, metricRegistry)
	if _, err := session.Start(ctx); err != nil {
		// the session keeps its notice and stays retryable through reload
		nodeLogger.Info("registry session started with errors", log.Error(err))
	}

	httpServer, err := httpserver.NewHttpServer(ctx, cfg, nodeLogger, session, metricRegistry)
	if err != nil {
		ctxCancel()
		ledger.Close()
		return nil, err
	}

	n := &Node{
		logger:         nodeLogger,
		session:        session,
		httpServer:     httpServer,
		ledger:         ledger,
		metricRegistry: metricRegistry,
		ctxCancel:      ctxCancel,
	}

	n.Supervise(httpServer)
	n.Supervise(metric.NewRuntimeReporter(ctx, metricRegistry, nodeLogger))
	n.Supervise(metric.NewSystemReporter(ctx, metricRegistry, nodeLogger))

	if address := cfg.NtpServerAddress(); address != "" {
		n.Supervise(metric.NewNtpReporter(ctx, metricRegistry, nodeLogger, address))
	}

	if interval := cfg.MetricsReportInterval(); interval > 0 {
		n.Supervise(metricRegistry.ReportEvery(ctx, interval, nodeLogger))
	}

	if interval := cfg.LedgerStatusReportInterval(); interval > 0 && ledger.Rpc != nil {
		n.Supervise(ledger.Rpc.ReportConnectionStatus(ctx, metricRegistry, interval))
	}

	return n, nil
}

func (n *Node) Session() *registry.Session {
	return n.session
}

func (n *Node) HttpPort() int {
	return n.httpServer.Port()
}

func (n *Node) GracefulShutdown(shutdownContext context.Context) {
	n.logger.Info("shutting down")
	n.ctxCancel()
	n.httpServer.GracefulShutdown(shutdownContext)
	n.ledger.Close()
}

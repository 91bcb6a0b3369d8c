// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package metric

import "github.com/supplychain-dapp/supplychain-go/config"

func RegisterConfigIndicators(metricRegistry Registry, cfg config.ClientConfig) {
	version := config.GetVersion()

	metricRegistry.NewText("Version.Semantic", version.Semantic)
	metricRegistry.NewText("Version.Commit", version.Commit)
	metricRegistry.NewText("Ledger.Network", cfg.LedgerNetworkName())

	if cfg.LedgerInMemory() {
		metricRegistry.NewText("Ledger.Endpoint", "in-memory")
	} else {
		metricRegistry.NewText("Ledger.Endpoint", cfg.LedgerEndpoint())
	}
}

// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package bootstrap

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"github.com/supplychain-dapp/supplychain-go/config"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/logfields"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter/memory"
	"os"
)

// identity of the in-memory ledger admin when no signer is configured
var DEV_ADMIN_ADDRESS = common.HexToAddress("0x00000000000000000000000000000000000000ad")

// Ledger is the connection a session runs on, Rpc is nil for the in-memory ledger
type Ledger struct {
	Connection adapter.LedgerConnection
	Rpc        *adapter.EthereumRpcConnection
}

func (l *Ledger) Close() {
	if l.Rpc != nil {
		l.Rpc.Close()
	}
}

// ConnectLedger picks the in-memory ledger in dev mode and the configured rpc endpoint otherwise
func ConnectLedger(ctx context.Context, cfg config.ClientConfig, logger log.Logger, metricRegistry metric.Registry, prompt adapter.PassphrasePrompt) (*Ledger, error) {
	signer, err := adapter.LoadSigner(cfg, prompt)
	if err != nil {
		return nil, errors.Wrap(err, "could not load signer")
	}

	if cfg.LedgerInMemory() {
		return connectInMemoryLedger(signer, logger, metricRegistry), nil
	}

	address, err := config.ResolveContractAddress(cfg)
	if err != nil {
		return nil, err
	}

	rpc, err := adapter.DialEthereumLedger(ctx, cfg, address, signer, logger, metricRegistry)
	if err != nil {
		return nil, err
	}

	logger.Info("connected to ledger", log.String("endpoint", cfg.LedgerEndpoint()), logfields.ContractAddress(address))

	return &Ledger{Connection: rpc, Rpc: rpc}, nil
}

// the configured signer deploys the in-memory contract and is therefore its admin
func connectInMemoryLedger(signer *adapter.Signer, logger log.Logger, metricRegistry metric.Registry) *Ledger {
	if signer == nil {
		logger.Info("using in-memory ledger without a wallet", logfields.Address("admin", DEV_ADMIN_ADDRESS))
		return &Ledger{Connection: memory.NewInMemoryLedger(DEV_ADMIN_ADDRESS, logger, metricRegistry).ReadOnly()}
	}

	logger.Info("using in-memory ledger", logfields.Identity(signer.Address()))
	ledger := memory.NewInMemoryLedger(signer.Address(), logger, metricRegistry)
	return &Ledger{Connection: ledger.ConnectAs(signer.Address())}
}

func DefaultPrompt() adapter.PassphrasePrompt {
	return adapter.TerminalPassphrasePrompt(os.Stderr)
}

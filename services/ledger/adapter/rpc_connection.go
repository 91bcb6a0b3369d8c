// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/synchronization"
	"math/big"
	"time"
)

type rpcConfig interface {
	ethereumLedgerConfig
	signerConfig
	LedgerEndpoint() string
}

// ethclient plus the chain head query the deployer polls for confirmations
type rpcBackend struct {
	*ethclient.Client
}

func (b *rpcBackend) ChainHead(ctx context.Context) (uint64, error) {
	header, err := b.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}

	// not supposed to happen since client.HeaderByNumber does not return nil, nil
	if header == nil {
		return 0, errors.New("ledger returned nil header without error")
	}

	return header.Number.Uint64(), nil
}

type EthereumRpcConnection struct {
	*EthereumLedger
	client *rpcBackend
	logger log.Logger
}

func DialEthereumLedger(ctx context.Context, cfg rpcConfig, address common.Address, signer *Signer, logger log.Logger, registry metric.Factory) (*EthereumRpcConnection, error) {
	client, err := ethclient.DialContext(ctx, cfg.LedgerEndpoint())
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to ledger endpoint %s", cfg.LedgerEndpoint())
	}

	if chainId := cfg.LedgerChainId(); chainId > 0 {
		remote, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, errors.Wrap(err, "could not query ledger chain id")
		}
		if remote.Cmp(new(big.Int).SetUint64(uint64(chainId))) != 0 {
			client.Close()
			return nil, errors.Errorf("ledger endpoint serves chain %s, configured for %d", remote.String(), chainId)
		}
	}

	rpcLogger := logger.WithTags(log.String("endpoint", cfg.LedgerEndpoint()))

	return &EthereumRpcConnection{
		EthereumLedger: NewEthereumLedger(client, address, signer, cfg, rpcLogger, registry),
		client:         &rpcBackend{client},
		logger:         rpcLogger,
	}, nil
}

func (c *EthereumRpcConnection) Close() {
	c.client.Close()
}

func (c *EthereumRpcConnection) Backend() DeployBackend {
	return c.client
}

type statusMetrics struct {
	syncStatus *metric.Text
	lastBlock  *metric.Gauge
	contract   *metric.Text
}

const STATUS_FAILED = "failed"
const STATUS_SUCCESS = "success"
const STATUS_IN_PROGRESS = "in-progress"

func (c *EthereumRpcConnection) ReportConnectionStatus(ctx context.Context, registry metric.Factory, interval time.Duration) *synchronization.PeriodicalTrigger {
	metrics := &statusMetrics{
		syncStatus: registry.NewText("Ledger.Node.Sync.Status", STATUS_FAILED),
		lastBlock:  registry.NewGauge("Ledger.Node.LastBlock"),
		contract:   registry.NewText("Ledger.Contract.Status", STATUS_FAILED),
	}

	return synchronization.NewPeriodicalTrigger(ctx, "ledger connection status reporter", interval, c.logger, func() {
		c.updateStatus(ctx, metrics)
	}, nil)
}

func (c *EthereumRpcConnection) updateStatus(ctx context.Context, metrics *statusMetrics) {
	if syncStatus, err := c.client.SyncProgress(ctx); err != nil {
		c.logger.Info("ledger rpc connection status check failed", log.Error(err))
		metrics.syncStatus.Update(STATUS_FAILED)
	} else if syncStatus == nil {
		metrics.syncStatus.Update(STATUS_SUCCESS)
	} else {
		metrics.syncStatus.Update(STATUS_IN_PROGRESS)
	}

	if number, err := c.client.ChainHead(ctx); err != nil {
		c.logger.Info("ledger rpc connection status check failed", log.Error(err))
		metrics.lastBlock.Update(0)
	} else {
		metrics.lastBlock.UpdateUint64(number)
	}

	if code, err := c.client.CodeAt(ctx, c.ContractAddress(), nil); err != nil || len(code) == 0 {
		c.logger.Info("ledger contract status check failed", log.Error(err))
		metrics.contract.Update(STATUS_FAILED)
	} else {
		metrics.contract.Update(STATUS_SUCCESS)
	}
}

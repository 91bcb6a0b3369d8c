// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/logfields"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/contract"
	"io/ioutil"
	"time"
)

type ChainHead interface {
	ChainHead(ctx context.Context) (uint64, error)
}

type DeployBackend interface {
	EthereumCaller
	ChainHead
}

// compiler output as written by hardhat and truffle
type Artifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

func ReadArtifact(path string) (*Artifact, error) {
	contents, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read contract artifact %s", path)
	}

	artifact := &Artifact{}
	if err := json.Unmarshal(contents, artifact); err != nil {
		return nil, errors.Wrapf(err, "could not parse contract artifact %s", path)
	}

	if len(common.FromHex(artifact.Bytecode)) == 0 {
		return nil, errors.Errorf("contract artifact %s has no bytecode", path)
	}

	return artifact, nil
}

type Deployment struct {
	Address     common.Address
	TxHash      common.Hash
	BlockNumber uint64
	Deployer    common.Address
	DeployedAt  time.Time
}

type Deployer struct {
	backend      DeployBackend
	signer       *Signer
	logger       log.Logger
	pollInterval time.Duration
	gasLimit     uint64
}

func NewDeployer(backend DeployBackend, signer *Signer, logger log.Logger, pollInterval time.Duration) *Deployer {
	return &Deployer{
		backend:      backend,
		signer:       signer,
		logger:       logger.WithTags(log.String("adapter", "ethereum-deployer")),
		pollInterval: pollInterval,
	}
}

func (d *Deployer) WithGasLimit(gasLimit uint64) *Deployer {
	d.gasLimit = gasLimit
	return d
}

// returns once the deployment is buried under the requested number of blocks, its own block included
func (d *Deployer) Deploy(ctx context.Context, artifact *Artifact, confirmations uint32) (*Deployment, error) {
	if d.signer == nil {
		return nil, ErrNoSigner
	}

	abiJson := artifact.ABI
	if len(abiJson) == 0 {
		abiJson = json.RawMessage("[]")
	}

	parsedAbi, err := abi.JSON(bytes.NewReader(abiJson))
	if err != nil {
		return nil, errors.Wrap(err, "could not parse contract abi")
	}

	opts := d.signer.TransactOpts(ctx)
	opts.GasLimit = d.gasLimit

	address, tx, _, err := bind.DeployContract(opts, parsedAbi, common.FromHex(artifact.Bytecode), d.backend)
	if err != nil {
		return nil, errors.Wrap(err, "failed submitting contract deployment")
	}

	d.logger.Info("submitted contract deployment", logfields.TxHash(tx.Hash()), logfields.ContractAddress(address), logfields.Identity(opts.From))

	receipt, err := bind.WaitMined(ctx, d.backend, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "gave up waiting for deployment tx %s", tx.Hash().Hex())
	}

	if receipt.Status == types.ReceiptStatusFailed {
		hash := tx.Hash()
		return nil, &RejectedError{Method: "deploy", Reason: "contract creation reverted", TxHash: &hash}
	}

	deployment := &Deployment{
		Address:     address,
		TxHash:      tx.Hash(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		Deployer:    opts.From,
		DeployedAt:  time.Now(),
	}

	if err := d.waitForConfirmations(ctx, deployment.BlockNumber, confirmations); err != nil {
		return nil, err
	}

	if code, err := d.backend.CodeAt(ctx, address, nil); err != nil {
		return nil, errors.Wrap(err, "could not verify deployed code")
	} else if len(code) == 0 {
		return nil, bind.ErrNoCodeAfterDeploy
	}

	admin, err := d.readAdmin(ctx, address, opts.From)
	if err != nil {
		return nil, errors.Wrap(err, "could not read admin of the deployed contract")
	}
	if admin != deployment.Deployer {
		return nil, errors.Errorf("deployed contract reports admin %s, expected the deployer %s", admin.Hex(), deployment.Deployer.Hex())
	}

	d.logger.Info("contract deployment confirmed", logfields.ContractAddress(address), logfields.BlockNumber(deployment.BlockNumber), logfields.Address("admin", admin), log.Uint64("confirmations", uint64(confirmations)))

	return deployment, nil
}

func (d *Deployer) readAdmin(ctx context.Context, address common.Address, from common.Address) (common.Address, error) {
	admin := new(common.Address)
	bound := bind.NewBoundContract(address, contract.ABI(), d.backend, d.backend, d.backend)
	if err := bound.Call(&bind.CallOpts{Context: ctx, From: from}, admin, contract.METHOD_ADMIN); err != nil {
		return common.Address{}, err
	}
	return *admin, nil
}

func (d *Deployer) waitForConfirmations(ctx context.Context, minedIn uint64, confirmations uint32) error {
	if confirmations <= 1 {
		return nil
	}

	target := minedIn + uint64(confirmations) - 1
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		head, err := d.backend.ChainHead(ctx)
		if err != nil {
			d.logger.Info("failed reading chain head while waiting for confirmations", log.Error(err))
		} else if head >= target {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "gave up waiting for %d confirmations", confirmations)
		case <-ticker.C:
		}
	}
}

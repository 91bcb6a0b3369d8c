// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package config

import (
	"encoding/json"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"
)

var ErrContractAddressUnknown = errors.New("contract address is not configured and no deployment descriptor was found")

// written by the deploy command, read by every client at startup
type DeploymentDescriptor struct {
	Network         string `json:"network"`
	ContractAddress string `json:"contractAddress"`
	TransactionHash string `json:"transactionHash"`
	Deployer        string `json:"deployer"`
	Timestamp       string `json:"timestamp"`
	BlockNumber     uint64 `json:"blockNumber"`
}

func NewDeploymentDescriptor(network string, contract common.Address, txHash common.Hash, deployer common.Address, blockNumber uint64, deployedAt time.Time) *DeploymentDescriptor {
	return &DeploymentDescriptor{
		Network:         network,
		ContractAddress: contract.Hex(),
		TransactionHash: txHash.Hex(),
		Deployer:        deployer.Hex(),
		Timestamp:       deployedAt.UTC().Format(time.RFC3339),
		BlockNumber:     blockNumber,
	}
}

func (d *DeploymentDescriptor) Address() (common.Address, error) {
	if !common.IsHexAddress(d.ContractAddress) {
		return common.Address{}, errors.Errorf("deployment descriptor holds an invalid contract address: %q", d.ContractAddress)
	}
	return common.HexToAddress(d.ContractAddress), nil
}

func ReadDeploymentDescriptor(path string) (*DeploymentDescriptor, error) {
	contents, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed reading deployment descriptor %s", path)
	}

	descriptor := &DeploymentDescriptor{}
	if err := json.Unmarshal(contents, descriptor); err != nil {
		return nil, errors.Wrapf(err, "failed parsing deployment descriptor %s", path)
	}

	return descriptor, nil
}

func WriteDeploymentDescriptor(path string, descriptor *DeploymentDescriptor) error {
	contents, err := json.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed encoding deployment descriptor")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed creating directory for deployment descriptor %s", path)
		}
	}

	if err := ioutil.WriteFile(path, append(contents, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "failed writing deployment descriptor %s", path)
	}

	return nil
}

// explicit config wins over the descriptor
func ResolveContractAddress(cfg LedgerConfig) (common.Address, error) {
	if address := cfg.LedgerContractAddress(); address != "" {
		if !common.IsHexAddress(address) {
			return common.Address{}, errors.Errorf("configured contract address is invalid: %q", address)
		}
		return common.HexToAddress(address), nil
	}

	path := ResolvePath(cfg.LedgerDeploymentDescriptorPath())
	if path == "" {
		return common.Address{}, ErrContractAddressUnknown
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return common.Address{}, errors.Wrapf(ErrContractAddressUnknown, "missing %s", path)
	}

	descriptor, err := ReadDeploymentDescriptor(path)
	if err != nil {
		return common.Address{}, err
	}

	return descriptor.Address()
}

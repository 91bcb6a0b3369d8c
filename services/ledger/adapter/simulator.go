// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/backends"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"math/big"
	"sync"
)

const simulatorGasLimit = 900000000000

var simulatorFunding = big.NewInt(1000000000000000000)

// EthereumSimulator is an in-process chain that mines a block for every submitted transaction
// and for every chain head query, so confirmations advance while someone is waiting for them
type EthereumSimulator struct {
	*backends.SimulatedBackend

	mu struct {
		sync.Mutex
		head uint64
	}

	accounts []*Signer
}

func NewEthereumSimulator(fundedAccounts int) *EthereumSimulator {
	if fundedAccounts < 1 {
		fundedAccounts = 1
	}

	genesisAllocation := core.GenesisAlloc{}
	accounts := make([]*Signer, 0, fundedAccounts)
	for i := 0; i < fundedAccounts; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			panic(err)
		}

		// the simulated backend only recovers homestead signatures
		signer := NewSigner(key, 0)
		genesisAllocation[signer.Address()] = core.GenesisAccount{Balance: simulatorFunding}
		accounts = append(accounts, signer)
	}

	return &EthereumSimulator{
		SimulatedBackend: backends.NewSimulatedBackend(genesisAllocation, simulatorGasLimit),
		accounts:         accounts,
	}
}

// this is used for test code, the accounts are never replaced
func (es *EthereumSimulator) Account(i int) *Signer {
	return es.accounts[i]
}

func (es *EthereumSimulator) Commit() {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.SimulatedBackend.Commit()
	es.mu.head++
}

func (es *EthereumSimulator) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := es.SimulatedBackend.SendTransaction(ctx, tx); err != nil {
		return err
	}
	es.Commit()
	return nil
}

func (es *EthereumSimulator) ChainHead(ctx context.Context) (uint64, error) {
	es.Commit()

	es.mu.Lock()
	defer es.mu.Unlock()
	return es.mu.head, nil
}

// this is a helper for tests, deploys raw bytecode without an abi
func (es *EthereumSimulator) DeployBytecode(ctx context.Context, deployer *Signer, bytecode []byte) (common.Address, error) {
	nonce, err := es.PendingNonceAt(ctx, deployer.Address())
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to retrieve account nonce")
	}

	rawTx := types.NewContractCreation(nonce, big.NewInt(0), 3000000, big.NewInt(1), bytecode)
	signedTx, err := types.SignTx(rawTx, types.HomesteadSigner{}, deployer.key)
	if err != nil {
		return common.Address{}, err
	}

	if err := es.SendTransaction(ctx, signedTx); err != nil {
		return common.Address{}, err
	}

	return bind.WaitDeployed(ctx, es, signedTx)
}

// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/test"
	"github.com/supplychain-dapp/supplychain-go/test/with"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// stores the deploying account and answers every call with it, as admin() would
var deployerAdminContractBytecode = common.FromHex("0x33600055600b6010600039600b6000f3" + "60005460005260206000f3")

// answers every call with a fixed address
func fixedAdminContractBytecode(admin common.Address) []byte {
	runtime := append([]byte{0x73}, admin.Bytes()...)
	runtime = append(runtime, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3)

	deploy := []byte{0x60, byte(len(runtime)), 0x60, 0x0c, 0x60, 0x00, 0x39, 0x60, byte(len(runtime)), 0x60, 0x00, 0xf3}
	return append(deploy, runtime...)
}

func writeArtifact(t *testing.T, contents string) string {
	dir, err := ioutil.TempDir("", "artifact")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "SupplyChain.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestReadArtifact(t *testing.T) {
	path := writeArtifact(t, `{"contractName":"SupplyChain","abi":[],"bytecode":"0x6001600c60003960016000f300"}`)

	artifact, err := ReadArtifact(path)
	require.NoError(t, err)
	require.Equal(t, "SupplyChain", artifact.ContractName)
	require.Equal(t, hexutil.Encode(stopContractBytecode), artifact.Bytecode)
}

func TestReadArtifact_WithoutBytecode(t *testing.T) {
	path := writeArtifact(t, `{"contractName":"ISupplyChain","abi":[],"bytecode":"0x"}`)

	_, err := ReadArtifact(path)
	require.Error(t, err)
}

func TestDeployer_WaitsForConfirmations(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContextWithTimeout(10*time.Second, func(ctx context.Context) {
			simulator := NewEthereumSimulator(1)
			deployer := NewDeployer(simulator, simulator.Account(0), h.Logger, time.Millisecond)

			deployment, err := deployer.Deploy(ctx, &Artifact{Bytecode: hexutil.Encode(deployerAdminContractBytecode)}, 4)
			require.NoError(t, err)
			require.Equal(t, simulator.Account(0).Address(), deployment.Deployer)

			head, err := simulator.ChainHead(ctx)
			require.NoError(t, err)
			require.True(t, head >= deployment.BlockNumber+3, "deployment in block %d should be buried under 3 more blocks, head is %d", deployment.BlockNumber, head)

			code, err := simulator.CodeAt(ctx, deployment.Address, nil)
			require.NoError(t, err)
			require.Equal(t, deployerAdminContractBytecode[16:], code)
		})
	})
}

func TestDeployer_ReadsAdminBack(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			simulator := NewEthereumSimulator(1)
			deployer := NewDeployer(simulator, simulator.Account(0), h.Logger, time.Millisecond)

			deployment, err := deployer.Deploy(ctx, &Artifact{Bytecode: hexutil.Encode(deployerAdminContractBytecode)}, 1)
			require.NoError(t, err)

			ledger := NewEthereumLedger(simulator, deployment.Address, nil, &ethereumLedgerConfigForTests{}, h.Logger, metric.NewRegistry())
			admin, err := ledger.Admin(ctx)
			require.NoError(t, err)
			require.Equal(t, simulator.Account(0).Address(), admin)
		})
	})
}

func TestDeployer_FailsWhenAdminIsNotTheDeployer(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			simulator := NewEthereumSimulator(1)
			deployer := NewDeployer(simulator, simulator.Account(0), h.Logger, time.Millisecond)
			someoneElse := common.HexToAddress("0x00000000000000000000000000000000000000a1")

			_, err := deployer.Deploy(ctx, &Artifact{Bytecode: hexutil.Encode(fixedAdminContractBytecode(someoneElse))}, 1)
			require.Error(t, err)
			require.Contains(t, err.Error(), "reports admin "+someoneElse.Hex())
		})
	})
}

func TestDeployer_FailsWhenAdminCannotBeRead(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			simulator := NewEthereumSimulator(1)
			deployer := NewDeployer(simulator, simulator.Account(0), h.Logger, time.Millisecond)

			_, err := deployer.Deploy(ctx, &Artifact{Bytecode: hexutil.Encode(stopContractBytecode)}, 1)
			require.Error(t, err)
			require.Contains(t, err.Error(), "could not read admin")
		})
	})
}

func TestDeployer_RequiresSigner(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			simulator := NewEthereumSimulator(1)
			deployer := NewDeployer(simulator, nil, h.Logger, time.Millisecond)

			_, err := deployer.Deploy(ctx, &Artifact{Bytecode: hexutil.Encode(stopContractBytecode)}, 1)
			require.True(t, IsNoSigner(err))
		})
	})
}

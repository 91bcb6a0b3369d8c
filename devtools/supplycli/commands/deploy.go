// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package commands

import (
	"context"
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/supplychain-dapp/supplychain-go/config"
	"github.com/supplychain-dapp/supplychain-go/instrumentation"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"time"
)

const DEPLOY_POLL_INTERVAL = time.Second

func HandleDeployCommand(args []string, env *Environment) int {
	flagSet, flags := newFlagSet("deploy", env)
	artifactPath := flagSet.String("artifact", "", "compiled contract artifact, defaults to the configured path")
	confirmations := flagSet.Int("confirmations", -1, "blocks to wait on top of the deployment block, defaults to the configured value")
	out := flagSet.String("out", "", "where to write the deployment descriptor, defaults to the configured path")
	if err := flagSet.Parse(args); err != nil {
		return EXIT_USAGE
	}

	cfg, err := flags.clientConfig()
	if err != nil {
		printError(env.Err, "could not read configuration: %s", err)
		return EXIT_USAGE
	}

	if cfg.LedgerInMemory() {
		printError(env.Err, "deploy needs a ledger endpoint, the in-memory ledger deploys itself")
		return EXIT_USAGE
	}

	if *artifactPath == "" {
		*artifactPath = cfg.DeployArtifactPath()
	}
	if *out == "" {
		*out = cfg.LedgerDeploymentDescriptorPath()
	}
	waitFor := cfg.DeployConfirmations()
	if *confirmations >= 0 {
		waitFor = uint32(*confirmations)
	}

	logger := instrumentation.GetCommandLogger(env.Err, cfg)

	artifact, err := adapter.ReadArtifact(config.ResolvePath(*artifactPath))
	if err != nil {
		printError(env.Err, "%s", err)
		return EXIT_USAGE
	}

	signer, err := adapter.LoadSigner(cfg, env.Prompt)
	if err != nil {
		printError(env.Err, "could not load signer: %s", err)
		return EXIT_ERROR
	}
	if signer == nil {
		printBlocked(env.Out, "No wallet connected, configure a signer to deploy")
		return EXIT_NO_WALLET
	}

	// the contract does not exist yet, the connection only serves as a deploy backend
	ctx := context.Background()
	rpc, err := adapter.DialEthereumLedger(ctx, cfg, common.Address{}, signer, logger, metric.NewRegistry())
	if err != nil {
		printError(env.Err, "%s", err)
		return EXIT_ERROR
	}
	defer rpc.Close()

	fmt.Fprintf(env.Out, "Deploying %s from %s to %s\n", artifact.ContractName, signer.Address().Hex(), cfg.LedgerNetworkName())

	deployment, err := adapter.NewDeployer(rpc.Backend(), signer, logger, DEPLOY_POLL_INTERVAL).
		WithGasLimit(uint64(cfg.LedgerGasLimit())).
		Deploy(ctx, artifact, waitFor)
	if err != nil {
		printError(env.Out, "deployment failed: %s", err)
		return EXIT_ERROR
	}

	descriptor := config.NewDeploymentDescriptor(cfg.LedgerNetworkName(), deployment.Address, deployment.TxHash, deployment.Deployer, deployment.BlockNumber, deployment.DeployedAt)

	color.New(color.FgGreen).Fprintf(env.Out, "%s deployed at %s\n", artifact.ContractName, deployment.Address.Hex())
	fmt.Fprintf(env.Out, "Transaction %s in block %d\n", deployment.TxHash.Hex(), deployment.BlockNumber)

	if *out == "" {
		return EXIT_OK
	}

	if err := config.WriteDeploymentDescriptor(*out, descriptor); err != nil {
		printError(env.Err, "contract deployed but the descriptor could not be written: %s", err)
		return EXIT_ERROR
	}
	fmt.Fprintf(env.Out, "Deployment descriptor written to %s\n", *out)

	return EXIT_OK
}

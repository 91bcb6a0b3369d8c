// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package commands

import (
	"context"
	"fmt"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/services/registry"
)

type action func(ctx context.Context, session *registry.Session) (*adapter.Receipt, error)

// runAction performs one write and prints the notice it left on the session
func runAction(env *Environment, common *commonFlags, act action) int {
	ctx := context.Background()
	cmd, exitCode := connect(ctx, env, common)
	if cmd == nil {
		return exitCode
	}
	defer cmd.close()

	receipt, err := act(ctx, cmd.session)
	printNotice(env.Out, cmd.session.Snapshot().Notice)

	if receipt != nil {
		fmt.Fprintf(env.Out, "Confirmed %s\n", receipt)
		if err != nil {
			// the write is on the ledger, only the refresh after it failed
			printError(env.Err, "%s", err)
		}
		return EXIT_OK
	}

	return exitCodeFor(err)
}

func HandleRegisterProductCommand(args []string, env *Environment) int {
	flagSet, common := newFlagSet("register-product", env)
	name := flagSet.String("name", "", "product name")
	description := flagSet.String("description", "", "product description")
	if err := flagSet.Parse(args); err != nil {
		return EXIT_USAGE
	}

	return runAction(env, common, func(ctx context.Context, session *registry.Session) (*adapter.Receipt, error) {
		return session.RegisterProduct(ctx, &registry.RegisterProductRequest{Name: *name, Description: *description})
	})
}

func HandleTransferCommand(args []string, env *Environment) int {
	flagSet, common := newFlagSet("transfer", env)
	id := flagSet.Uint64("id", 0, "product id")
	to := flagSet.String("to", "", "recipient address")
	if err := flagSet.Parse(args); err != nil {
		return EXIT_USAGE
	}

	return runAction(env, common, func(ctx context.Context, session *registry.Session) (*adapter.Receipt, error) {
		return session.Transfer(ctx, &registry.TransferRequest{ProductId: *id, Recipient: *to})
	})
}

func HandleReceiveCommand(args []string, env *Environment) int {
	flagSet, common := newFlagSet("receive", env)
	id := flagSet.Uint64("id", 0, "product id")
	if err := flagSet.Parse(args); err != nil {
		return EXIT_USAGE
	}

	return runAction(env, common, func(ctx context.Context, session *registry.Session) (*adapter.Receipt, error) {
		return session.Receive(ctx, &registry.ReceiveRequest{ProductId: *id})
	})
}

func HandleRegisterUserCommand(args []string, env *Environment) int {
	flagSet, common := newFlagSet("register-user", env)
	address := flagSet.String("address", "", "participant address")
	role := flagSet.String("role", "", "MANUFACTURER, DISTRIBUTOR, RETAILER or CUSTOMER")
	name := flagSet.String("name", "", "participant name")
	if err := flagSet.Parse(args); err != nil {
		return EXIT_USAGE
	}

	return runAction(env, common, func(ctx context.Context, session *registry.Session) (*adapter.Receipt, error) {
		return session.RegisterUser(ctx, &registry.RegisterUserRequest{Address: *address, Role: *role, Name: *name})
	})
}

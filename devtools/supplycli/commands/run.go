// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package commands

import (
	"fmt"
	"github.com/supplychain-dapp/supplychain-go/config"
)

type handler func(args []string, env *Environment) int

var handlers = map[string]handler{
	"whoami":           HandleWhoamiCommand,
	"products":         HandleProductsCommand,
	"history":          HandleHistoryCommand,
	"register-product": HandleRegisterProductCommand,
	"transfer":         HandleTransferCommand,
	"receive":          HandleReceiveCommand,
	"register-user":    HandleRegisterUserCommand,
	"deploy":           HandleDeployCommand,
	"version":          handleVersionCommand,
}

func ShowUsage() string {
	return `Usage: supplycli <command> [-config path/to/config.json] [-dev] [-full-log] [flags]

  whoami                                          account, role and admin status of the configured wallet
  products                                        every registered product with its status
  history <id>                                    ownership history of one product
  register-product -name -description             register a product as a manufacturer
  transfer -id -to                                send a product to the next participant
  receive -id                                     accept a product sent to you
  register-user -address -role -name              admin only, assign a role to an address
  deploy [-artifact] [-confirmations] [-out]      deploy the contract and write its descriptor
  version                                         print the build version
`
}

// Run executes one command and returns the process exit code
func Run(args []string, env *Environment) int {
	if len(args) < 1 {
		fmt.Fprint(env.Out, ShowUsage())
		return EXIT_USAGE
	}

	h, found := handlers[args[0]]
	if !found {
		printError(env.Err, "unknown command %q", args[0])
		fmt.Fprint(env.Err, ShowUsage())
		return EXIT_USAGE
	}

	return h(args[1:], env)
}

func handleVersionCommand(args []string, env *Environment) int {
	fmt.Fprintln(env.Out, config.GetVersion())
	return EXIT_OK
}

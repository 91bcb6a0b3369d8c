// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package commands

import (
	"context"
	"fmt"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/registry"
	"strconv"
	"strings"
	"text/tabwriter"
)

func HandleWhoamiCommand(args []string, env *Environment) int {
	flagSet, common := newFlagSet("whoami", env)
	if err := flagSet.Parse(args); err != nil {
		return EXIT_USAGE
	}

	ctx := context.Background()
	cmd, exitCode := connect(ctx, env, common)
	if cmd == nil {
		return exitCode
	}
	defer cmd.close()

	snapshot := cmd.session.Snapshot()
	fmt.Fprintf(env.Out, "Network: %s\n", cmd.cfg.LedgerNetworkName())
	if snapshot.ReadOnly() {
		printBlocked(env.Out, "No wallet connected, showing the registry read-only")
		return EXIT_NO_WALLET
	}

	fmt.Fprintf(env.Out, "Account: %s\n", snapshot.Identity.Hex())
	if snapshot.Role == protocol.ROLE_NONE {
		fmt.Fprintf(env.Out, "Role: not registered\n")
	} else {
		fmt.Fprintf(env.Out, "Role: %s\n", snapshot.Role.Title())
	}
	if snapshot.IsAdmin {
		fmt.Fprintf(env.Out, "Admin: yes\n")
	}

	return EXIT_OK
}

func HandleProductsCommand(args []string, env *Environment) int {
	flagSet, common := newFlagSet("products", env)
	if err := flagSet.Parse(args); err != nil {
		return EXIT_USAGE
	}

	ctx := context.Background()
	cmd, exitCode := connect(ctx, env, common)
	if cmd == nil {
		return exitCode
	}
	defer cmd.close()

	snapshot := cmd.session.Snapshot()
	if len(snapshot.Products) == 0 {
		fmt.Fprintln(env.Out, "No products registered yet")
	} else {
		writeProductTable(env, snapshot)
	}

	if snapshot.LastLoad != nil && len(snapshot.LastLoad.Failed) > 0 {
		printError(env.Err, "%d of %d products could not be loaded: %v", len(snapshot.LastLoad.Failed), snapshot.LastLoad.Attempted, snapshot.LastLoad.Failed)
		return EXIT_ERROR
	}

	return EXIT_OK
}

func writeProductTable(env *Environment, snapshot *registry.Snapshot) {
	w := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tOWNER\tUPDATED\tACTIONS")
	for i := range snapshot.Products {
		p := &snapshot.Products[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.Id,
			p.Name,
			registry.StatusLabel(int64(p.Status)),
			protocol.ShortAddress(p.CurrentOwner),
			p.Time().Format(registry.HISTORY_TIME_LAYOUT),
			productActions(snapshot, p))
	}
	w.Flush()
}

func productActions(snapshot *registry.Snapshot, product *protocol.Product) string {
	canTransfer, canReceive := registry.ProductActions(snapshot, product)
	var actions []string
	if canTransfer {
		actions = append(actions, "transfer")
	}
	if canReceive {
		actions = append(actions, "receive")
	}
	if len(actions) == 0 {
		return "-"
	}
	return strings.Join(actions, ",")
}

func HandleHistoryCommand(args []string, env *Environment) int {
	flagSet, common := newFlagSet("history", env)
	if err := flagSet.Parse(args); err != nil {
		return EXIT_USAGE
	}

	if flagSet.NArg() != 1 {
		printError(env.Err, "usage: supplycli history [flags] <product-id>")
		return EXIT_USAGE
	}

	id, err := strconv.ParseUint(flagSet.Arg(0), 10, 64)
	if err != nil || id == 0 {
		printError(env.Err, "product id must be a positive number, got %q", flagSet.Arg(0))
		return EXIT_USAGE
	}

	ctx := context.Background()
	cmd, exitCode := connect(ctx, env, common)
	if cmd == nil {
		return exitCode
	}
	defer cmd.close()

	entries, err := cmd.session.History(ctx, id)
	if err != nil {
		printError(env.Out, "could not read history of product %d: %s", id, err)
		return exitCodeFor(err)
	}

	fmt.Fprint(env.Out, registry.FormatHistory(id, entries))
	return EXIT_OK
}

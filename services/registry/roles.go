// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package registry

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/logfields"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
)

type RoleResolution struct {
	Role    protocol.Role `json:"role"`
	IsAdmin bool          `json:"isAdmin"`
}

// The role and admin lookups fail independently: a failed role lookup resolves to NONE and
// the admin check still runs, so an unregistered deployer is recognized as admin.
func ResolveRole(ctx context.Context, ledger adapter.LedgerReader, identity common.Address, logger log.Logger) RoleResolution {
	resolution := RoleResolution{Role: protocol.ROLE_NONE}

	if user, err := ledger.GetUser(ctx, identity); err != nil {
		logger.Info("role lookup failed, treating identity as unregistered", logfields.Identity(identity), log.Error(err))
	} else if user.IsRegistered {
		resolution.Role = user.Role
	}

	if admin, err := ledger.Admin(ctx); err != nil {
		logger.Info("admin lookup failed", logfields.Identity(identity), log.Error(err))
	} else {
		resolution.IsAdmin = admin == identity
	}

	return resolution
}

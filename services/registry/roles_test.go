// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package registry

import (
	"context"
	"github.com/orbs-network/go-mock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/test"
	"github.com/supplychain-dapp/supplychain-go/test/builders"
	"github.com/supplychain-dapp/supplychain-go/test/with"
	"testing"
)

func TestResolveRole_RegisteredUser(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}
			ledger.When("GetUser", mock.Any, builders.DistributorAddress).Return(&protocol.User{Address: builders.DistributorAddress, Role: protocol.ROLE_DISTRIBUTOR, IsRegistered: true}, nil).Times(1)
			ledger.When("Admin", mock.Any).Return(builders.AdminAddress, nil).Times(1)

			resolution := ResolveRole(ctx, ledger, builders.DistributorAddress, h.Logger)
			require.Equal(t, RoleResolution{Role: protocol.ROLE_DISTRIBUTOR, IsAdmin: false}, resolution)

			_, err := ledger.Verify()
			require.NoError(t, err)
		})
	})
}

func TestResolveRole_UnregisteredAdminIsStillAdmin(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}
			ledger.When("GetUser", mock.Any, builders.AdminAddress).Return(nil, &adapter.RejectedError{Method: "getUser", Reason: "User not registered"}).Times(1)
			ledger.When("Admin", mock.Any).Return(builders.AdminAddress, nil).Times(1)

			resolution := ResolveRole(ctx, ledger, builders.AdminAddress, h.Logger)
			require.Equal(t, protocol.ROLE_NONE, resolution.Role)
			require.True(t, resolution.IsAdmin)

			_, err := ledger.Verify()
			require.NoError(t, err)
		})
	})
}

func TestResolveRole_AdminLookupFailure(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}
			ledger.When("GetUser", mock.Any, mock.Any).Return(nil, errors.New("node unavailable"))
			ledger.When("Admin", mock.Any).Return(builders.AdminAddress, errors.New("node unavailable"))

			resolution := ResolveRole(ctx, ledger, builders.AdminAddress, h.Logger)
			require.Equal(t, RoleResolution{Role: protocol.ROLE_NONE, IsAdmin: false}, resolution)
		})
	})
}

func TestResolveRole_UnregisteredRecordResolvesToNone(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}
			ledger.When("GetUser", mock.Any, mock.Any).Return(&protocol.User{Role: protocol.ROLE_RETAILER, IsRegistered: false}, nil)
			ledger.When("Admin", mock.Any).Return(builders.AdminAddress, nil)

			resolution := ResolveRole(ctx, ledger, builders.RetailerAddress, h.Logger)
			require.Equal(t, protocol.ROLE_NONE, resolution.Role)
		})
	})
}

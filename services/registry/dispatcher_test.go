// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package registry

import (
	"context"
	"github.com/orbs-network/go-mock"
	"github.com/stretchr/testify/require"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/contract"
	"github.com/supplychain-dapp/supplychain-go/test"
	"github.com/supplychain-dapp/supplychain-go/test/builders"
	"github.com/supplychain-dapp/supplychain-go/test/with"
	"testing"
)

var allRoles = []protocol.Role{protocol.ROLE_NONE, protocol.ROLE_MANUFACTURER, protocol.ROLE_DISTRIBUTOR, protocol.ROLE_RETAILER, protocol.ROLE_CUSTOMER, protocol.Role(9)}

func TestSelectTransfer_MapsEachSendingRoleToItsNextHop(t *testing.T) {
	expected := map[protocol.Role]string{
		protocol.ROLE_MANUFACTURER: contract.METHOD_TRANSFER_TO_DISTRIBUTOR,
		protocol.ROLE_DISTRIBUTOR:  contract.METHOD_TRANSFER_TO_RETAILER,
		protocol.ROLE_RETAILER:     contract.METHOD_TRANSFER_TO_CUSTOMER,
	}

	for _, role := range allRoles {
		call, ok := SelectTransfer(role)
		name, permitted := expected[role]
		require.Equal(t, permitted, ok, "role %s", role)
		if permitted {
			require.Equal(t, name, call.Name)
		}

		again, _ := SelectTransfer(role)
		require.Equal(t, call.Name, again.Name, "selection must be a pure function of the role")
	}
}

func TestSelectReceive_MapsEachReceivingRole(t *testing.T) {
	expected := map[protocol.Role]string{
		protocol.ROLE_DISTRIBUTOR: contract.METHOD_RECEIVE_BY_DISTRIBUTOR,
		protocol.ROLE_RETAILER:    contract.METHOD_RECEIVE_BY_RETAILER,
		protocol.ROLE_CUSTOMER:    contract.METHOD_RECEIVE_BY_CUSTOMER,
	}

	for _, role := range allRoles {
		call, ok := SelectReceive(role)
		name, permitted := expected[role]
		require.Equal(t, permitted, ok, "role %s", role)
		if permitted {
			require.Equal(t, name, call.Name)
		}
	}
}

func TestCanReceive(t *testing.T) {
	inTransit := builders.Product().WithOwner(builders.ManufacturerAddress).WithStatus(protocol.STAGE_IN_TRANSIT_TO_DISTRIBUTOR).Build()

	require.True(t, CanReceive(protocol.ROLE_DISTRIBUTOR, builders.DistributorAddress, inTransit))
	require.False(t, CanReceive(protocol.ROLE_MANUFACTURER, builders.DistributorAddress, inTransit), "manufacturers never receive")
	require.False(t, CanReceive(protocol.ROLE_DISTRIBUTOR, builders.ManufacturerAddress, inTransit), "owners do not receive their own products")
}

func TestCanTransfer(t *testing.T) {
	for _, role := range allRoles {
		_, sends := SelectTransfer(role)
		require.Equal(t, sends, CanTransfer(role), "role %s", role)
	}
	require.True(t, CanTransfer(protocol.ROLE_RETAILER))
	require.False(t, CanTransfer(protocol.ROLE_CUSTOMER), "customers are the last hop")
	require.False(t, CanTransfer(protocol.ROLE_NONE))
}

func TestProductActions(t *testing.T) {
	inTransit := builders.Product().WithOwner(builders.ManufacturerAddress).WithStatus(protocol.STAGE_IN_TRANSIT_TO_DISTRIBUTOR).Build()
	distributor := builders.DistributorAddress
	manufacturer := builders.ManufacturerAddress

	canTransfer, canReceive := ProductActions(&Snapshot{Identity: &distributor, Role: protocol.ROLE_DISTRIBUTOR}, inTransit)
	require.True(t, canTransfer)
	require.True(t, canReceive)

	canTransfer, canReceive = ProductActions(&Snapshot{Identity: &manufacturer, Role: protocol.ROLE_MANUFACTURER}, inTransit)
	require.True(t, canTransfer)
	require.False(t, canReceive)

	canTransfer, canReceive = ProductActions(&Snapshot{Role: protocol.ROLE_DISTRIBUTOR}, inTransit)
	require.False(t, canTransfer, "read-only sessions are offered nothing")
	require.False(t, canReceive)
}

func TestDispatcher_DistributorTransferSelectsTransferToRetailer(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}
			ledger.When("TransferToRetailer", mock.Any, uint64(4), builders.RetailerAddress).Return(&adapter.Receipt{BlockNumber: 12}, nil).Times(1)
			ledger.Never("TransferToDistributor", mock.Any, mock.Any, mock.Any)
			ledger.Never("TransferToCustomer", mock.Any, mock.Any, mock.Any)

			receipt, err := NewDispatcher(ledger, h.Logger).Transfer(ctx, protocol.ROLE_DISTRIBUTOR, &TransferRequest{ProductId: 4, Recipient: builders.RetailerAddress.Hex()})
			require.NoError(t, err)
			require.EqualValues(t, 12, receipt.BlockNumber)

			_, err = ledger.Verify()
			require.NoError(t, err)
		})
	})
}

func TestDispatcher_CustomerTransferIsAnExplicitRejection(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}
			ledger.Never("TransferToDistributor", mock.Any, mock.Any, mock.Any)
			ledger.Never("TransferToRetailer", mock.Any, mock.Any, mock.Any)
			ledger.Never("TransferToCustomer", mock.Any, mock.Any, mock.Any)

			_, err := NewDispatcher(ledger, h.Logger).Transfer(ctx, protocol.ROLE_CUSTOMER, &TransferRequest{ProductId: 4, Recipient: builders.RetailerAddress.Hex()})
			require.True(t, IsUnsupportedRole(err), "expected unsupported role, got %v", err)

			_, err = ledger.Verify()
			require.NoError(t, err)
		})
	})
}

func TestDispatcher_ManufacturerReceiveIsAnExplicitRejection(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}

			_, err := NewDispatcher(ledger, h.Logger).Receive(ctx, protocol.ROLE_MANUFACTURER, &ReceiveRequest{ProductId: 1})
			require.True(t, IsUnsupportedRole(err), "expected unsupported role, got %v", err)
		})
	})
}

func TestDispatcher_ValidatesBeforeAnyLedgerCall(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}
			ledger.Never("RegisterProduct", mock.Any, mock.Any, mock.Any)
			ledger.Never("TransferToDistributor", mock.Any, mock.Any, mock.Any)
			ledger.Never("ReceiveByCustomer", mock.Any, mock.Any)
			ledger.Never("RegisterUser", mock.Any, mock.Any, mock.Any, mock.Any)
			d := NewDispatcher(ledger, h.Logger)

			_, err := d.RegisterProduct(ctx, &RegisterProductRequest{Name: "", Description: "blue"})
			requireValidationError(t, err, "name")

			_, err = d.Transfer(ctx, protocol.ROLE_MANUFACTURER, &TransferRequest{ProductId: 1, Recipient: "0x1234"})
			requireValidationError(t, err, "recipient")

			_, err = d.Transfer(ctx, protocol.ROLE_MANUFACTURER, &TransferRequest{ProductId: 0, Recipient: builders.DistributorAddress.Hex()})
			requireValidationError(t, err, "productId")

			_, err = d.Receive(ctx, protocol.ROLE_CUSTOMER, &ReceiveRequest{})
			requireValidationError(t, err, "productId")

			_, _, err = d.RegisterUser(ctx, &RegisterUserRequest{Address: builders.CustomerAddress.Hex(), Role: "ADMIN", Name: "Carol"})
			requireValidationError(t, err, "role")

			_, _, err = d.RegisterUser(ctx, &RegisterUserRequest{Address: builders.CustomerAddress.Hex(), Role: "0", Name: "Carol"})
			requireValidationError(t, err, "role")

			_, err = ledger.Verify()
			require.NoError(t, err)
		})
	})
}

func TestDispatcher_RegisterUserLeavesAdminCheckToLedger(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}
			ledger.When("RegisterUser", mock.Any, builders.CustomerAddress, protocol.ROLE_CUSTOMER, "Carol").
				Return(nil, &adapter.RejectedError{Method: contract.METHOD_REGISTER_USER, Reason: "Only admin can perform this action"}).Times(1)

			_, _, err := NewDispatcher(ledger, h.Logger).RegisterUser(ctx, &RegisterUserRequest{Address: builders.CustomerAddress.Hex(), Role: "customer", Name: "Carol"})
			rejected, ok := adapter.IsRejected(err)
			require.True(t, ok, "expected the ledger's rejection, got %v", err)
			require.Equal(t, "Only admin can perform this action", rejected.Reason)

			_, err = ledger.Verify()
			require.NoError(t, err)
		})
	})
}

func TestDispatcher_RegisterProductLeavesRoleCheckToLedger(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}
			ledger.When("RegisterProduct", mock.Any, "Widget", "blue").
				Return(nil, &adapter.RejectedError{Method: contract.METHOD_REGISTER_PRODUCT, Reason: "Only Manufacturer can perform this action"}).Times(1)

			_, err := NewDispatcher(ledger, h.Logger).RegisterProduct(ctx, &RegisterProductRequest{Name: "Widget", Description: "blue"})
			rejected, ok := adapter.IsRejected(err)
			require.True(t, ok, "expected the ledger's rejection, got %v", err)
			require.Equal(t, "Only Manufacturer can perform this action", rejected.Reason)

			_, err = ledger.Verify()
			require.NoError(t, err)
		})
	})
}

func TestDispatcher_RegisterUserAcceptsRoleNamesAndNumbers(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}
			ledger.When("RegisterUser", mock.Any, builders.CustomerAddress, protocol.ROLE_CUSTOMER, "Carol").Return(&adapter.Receipt{}, nil).Times(2)

			d := NewDispatcher(ledger, h.Logger)
			_, registered, err := d.RegisterUser(ctx, &RegisterUserRequest{Address: builders.CustomerAddress.Hex(), Role: "customer", Name: "Carol"})
			require.NoError(t, err)
			require.Equal(t, builders.CustomerAddress, registered)

			_, _, err = d.RegisterUser(ctx, &RegisterUserRequest{Address: builders.CustomerAddress.Hex(), Role: "4", Name: "Carol"})
			require.NoError(t, err)

			_, err = ledger.Verify()
			require.NoError(t, err)
		})
	})
}

func requireValidationError(t *testing.T, err error, field string) {
	validationError, ok := IsValidationError(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	require.Equal(t, field, validationError.Field)
}

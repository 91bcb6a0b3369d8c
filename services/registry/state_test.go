// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package registry

import (
	"github.com/stretchr/testify/require"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/test"
	"github.com/supplychain-dapp/supplychain-go/test/builders"
	"testing"
)

func TestReduce_LeavesCurrentSnapshotUntouched(t *testing.T) {
	identity := builders.ManufacturerAddress
	current := Reduce(nil, Connected{Identity: &identity})
	current = Reduce(current, ProductsLoaded{Products: builders.Products(2), Report: &LoadReport{Count: 2, Attempted: 2}})
	before := *current

	next := Reduce(current, ProductsLoaded{Products: builders.Products(5)})

	test.RequireCmpEqual(t, before, *current)
	require.Len(t, current.Products, 2)
	require.Len(t, next.Products, 5)
	require.Equal(t, current.Version+1, next.Version)
}

func TestReduce_IsDeterministic(t *testing.T) {
	events := []Event{
		Connected{},
		RoleResolved{Resolution: RoleResolution{Role: protocol.ROLE_RETAILER}},
		ActionStarted{Action: ACTION_TRANSFER},
		ActionFailed{Action: ACTION_TRANSFER, Err: &adapter.RejectedError{Method: "transferToCustomer", Reason: "Not the product owner"}},
	}

	var a, b *Snapshot
	for _, e := range events {
		a = Reduce(a, e)
		b = Reduce(b, e)
	}

	test.RequireCmpEqual(t, a, b)
}

func TestReduce_ConnectedWithoutWalletBlocks(t *testing.T) {
	snapshot := Reduce(nil, Connected{})
	require.True(t, snapshot.Connected)
	require.True(t, snapshot.ReadOnly())
	require.Equal(t, NOTICE_BLOCKED, snapshot.Notice.Level)
}

func TestReduce_ActionLifecycle(t *testing.T) {
	snapshot := Reduce(nil, ActionStarted{Action: ACTION_RECEIVE})
	require.True(t, snapshot.Busy)
	require.Equal(t, ACTION_RECEIVE, snapshot.Action)

	failed := Reduce(snapshot, ActionFailed{Action: ACTION_RECEIVE, Err: &adapter.RejectedError{Method: "receiveByRetailer", Reason: "Not the intended recipient"}})
	require.False(t, failed.Busy)
	require.Equal(t, NOTICE_ERROR, failed.Notice.Level)
	require.Equal(t, "receive failed: Not the intended recipient", failed.Notice.Message)

	succeeded := Reduce(snapshot, ActionSucceeded{Action: ACTION_RECEIVE, Message: "Product received successfully!"})
	require.False(t, succeeded.Busy)
	require.Equal(t, NOTICE_SUCCESS, succeeded.Notice.Level)
}

func TestSnapshot_ProductLookup(t *testing.T) {
	snapshot := Reduce(nil, ProductsLoaded{Products: builders.Products(3)})

	p, found := snapshot.Product(2)
	require.True(t, found)
	require.EqualValues(t, 2, p.Id)

	_, found = snapshot.Product(4)
	require.False(t, found)
}

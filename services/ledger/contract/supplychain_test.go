// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package contract

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestABI_ExposesEveryLedgerMethod(t *testing.T) {
	methods := []string{
		METHOD_GET_USER, METHOD_ADMIN, METHOD_GET_PRODUCT_COUNT, METHOD_GET_PRODUCT, METHOD_GET_PRODUCT_HISTORY,
		METHOD_REGISTER_PRODUCT, METHOD_TRANSFER_TO_DISTRIBUTOR, METHOD_TRANSFER_TO_RETAILER, METHOD_TRANSFER_TO_CUSTOMER,
		METHOD_RECEIVE_BY_DISTRIBUTOR, METHOD_RECEIVE_BY_RETAILER, METHOD_RECEIVE_BY_CUSTOMER, METHOD_REGISTER_USER,
	}

	for _, name := range methods {
		_, found := ABI().Methods[name]
		require.True(t, found, "method %s missing from abi", name)
	}
}

func TestABI_ReadMethodsAreConstant(t *testing.T) {
	for _, name := range []string{METHOD_GET_USER, METHOD_ADMIN, METHOD_GET_PRODUCT_COUNT, METHOD_GET_PRODUCT, METHOD_GET_PRODUCT_HISTORY} {
		require.True(t, ABI().Methods[name].Const, "%s should be a view method", name)
	}
}

func TestRevertSelector(t *testing.T) {
	require.Equal(t, crypto.Keccak256([]byte("Error(string)"))[:4], RevertSelector)
	_, found := RevertReasonABI().Methods["Error"]
	require.True(t, found)
}

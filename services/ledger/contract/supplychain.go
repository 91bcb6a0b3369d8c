// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

// Package contract describes the call surface of the deployed supply-chain registry.
package contract

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"strings"
	"sync"
)

const (
	METHOD_GET_USER                = "getUser"
	METHOD_ADMIN                   = "admin"
	METHOD_GET_PRODUCT_COUNT       = "getProductCount"
	METHOD_GET_PRODUCT             = "getProduct"
	METHOD_GET_PRODUCT_HISTORY     = "getProductHistory"
	METHOD_REGISTER_PRODUCT        = "registerProduct"
	METHOD_TRANSFER_TO_DISTRIBUTOR = "transferToDistributor"
	METHOD_TRANSFER_TO_RETAILER    = "transferToRetailer"
	METHOD_TRANSFER_TO_CUSTOMER    = "transferToCustomer"
	METHOD_RECEIVE_BY_DISTRIBUTOR  = "receiveByDistributor"
	METHOD_RECEIVE_BY_RETAILER     = "receiveByRetailer"
	METHOD_RECEIVE_BY_CUSTOMER     = "receiveByCustomer"
	METHOD_REGISTER_USER           = "registerUser"
)

const SupplyChainABI = `[
	{"type":"constructor","inputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"admin","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view","constant":true},
	{"type":"function","name":"getUser","inputs":[{"name":"_userAddress","type":"address"}],"outputs":[{"name":"","type":"tuple","components":[
		{"name":"userAddress","type":"address"},
		{"name":"role","type":"uint8"},
		{"name":"name","type":"string"},
		{"name":"isRegistered","type":"bool"}]}],"stateMutability":"view","constant":true},
	{"type":"function","name":"getProductCount","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","constant":true},
	{"type":"function","name":"getProduct","inputs":[{"name":"_productId","type":"uint256"}],"outputs":[{"name":"","type":"tuple","components":[
		{"name":"id","type":"uint256"},
		{"name":"name","type":"string"},
		{"name":"description","type":"string"},
		{"name":"currentOwner","type":"address"},
		{"name":"status","type":"uint8"},
		{"name":"timestamp","type":"uint256"}]}],"stateMutability":"view","constant":true},
	{"type":"function","name":"getProductHistory","inputs":[{"name":"_productId","type":"uint256"}],"outputs":[{"name":"","type":"tuple[]","components":[
		{"name":"status","type":"uint8"},
		{"name":"owner","type":"address"},
		{"name":"timestamp","type":"uint256"}]}],"stateMutability":"view","constant":true},
	{"type":"function","name":"registerProduct","inputs":[{"name":"_name","type":"string"},{"name":"_description","type":"string"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"transferToDistributor","inputs":[{"name":"_productId","type":"uint256"},{"name":"_distributor","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"transferToRetailer","inputs":[{"name":"_productId","type":"uint256"},{"name":"_retailer","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"transferToCustomer","inputs":[{"name":"_productId","type":"uint256"},{"name":"_customer","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"receiveByDistributor","inputs":[{"name":"_productId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"receiveByRetailer","inputs":[{"name":"_productId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"receiveByCustomer","inputs":[{"name":"_productId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"registerUser","inputs":[{"name":"_userAddress","type":"address"},{"name":"_role","type":"uint8"},{"name":"_name","type":"string"}],"outputs":[],"stateMutability":"nonpayable"}
]`

// solidity encodes require() failures as a call to Error(string)
const RevertABI = `[{"type":"function","name":"Error","inputs":[{"name":"reason","type":"string"}],"outputs":[{"name":"reason","type":"string"}]}]`

// first four bytes of keccak256("Error(string)")
var RevertSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

var parsed struct {
	once   sync.Once
	abi    abi.ABI
	revert abi.ABI
}

func parse() {
	var err error
	if parsed.abi, err = abi.JSON(strings.NewReader(SupplyChainABI)); err != nil {
		panic(err)
	}
	if parsed.revert, err = abi.JSON(strings.NewReader(RevertABI)); err != nil {
		panic(err)
	}
}

func ABI() abi.ABI {
	parsed.once.Do(parse)
	return parsed.abi
}

func RevertReasonABI() abi.ABI {
	parsed.once.Do(parse)
	return parsed.revert
}

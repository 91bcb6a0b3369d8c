// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/go-mock"
	"github.com/supplychain-dapp/supplychain-go/protocol"
)

type MockLedgerConnection struct {
	mock.Mock
}

func receiptOrNil(out interface{}, err error) (*Receipt, error) {
	if out != nil {
		return out.(*Receipt), err
	}
	return nil, err
}

func (m *MockLedgerConnection) Identity() (common.Address, error) {
	ret := m.Called()
	return ret.Get(0).(common.Address), ret.Error(1)
}

func (m *MockLedgerConnection) GetUser(ctx context.Context, address common.Address) (*protocol.User, error) {
	ret := m.Called(ctx, address)
	if out := ret.Get(0); out != nil {
		return out.(*protocol.User), ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *MockLedgerConnection) Admin(ctx context.Context) (common.Address, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(common.Address), ret.Error(1)
}

func (m *MockLedgerConnection) GetProductCount(ctx context.Context) (uint64, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(uint64), ret.Error(1)
}

func (m *MockLedgerConnection) GetProduct(ctx context.Context, id uint64) (*protocol.Product, error) {
	ret := m.Called(ctx, id)
	if out := ret.Get(0); out != nil {
		return out.(*protocol.Product), ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *MockLedgerConnection) GetProductHistory(ctx context.Context, id uint64) ([]*protocol.HistoryEntry, error) {
	ret := m.Called(ctx, id)
	if out := ret.Get(0); out != nil {
		return out.([]*protocol.HistoryEntry), ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *MockLedgerConnection) RegisterProduct(ctx context.Context, name string, description string) (*Receipt, error) {
	ret := m.Called(ctx, name, description)
	return receiptOrNil(ret.Get(0), ret.Error(1))
}

func (m *MockLedgerConnection) TransferToDistributor(ctx context.Context, id uint64, to common.Address) (*Receipt, error) {
	ret := m.Called(ctx, id, to)
	return receiptOrNil(ret.Get(0), ret.Error(1))
}

func (m *MockLedgerConnection) TransferToRetailer(ctx context.Context, id uint64, to common.Address) (*Receipt, error) {
	ret := m.Called(ctx, id, to)
	return receiptOrNil(ret.Get(0), ret.Error(1))
}

func (m *MockLedgerConnection) TransferToCustomer(ctx context.Context, id uint64, to common.Address) (*Receipt, error) {
	ret := m.Called(ctx, id, to)
	return receiptOrNil(ret.Get(0), ret.Error(1))
}

func (m *MockLedgerConnection) ReceiveByDistributor(ctx context.Context, id uint64) (*Receipt, error) {
	ret := m.Called(ctx, id)
	return receiptOrNil(ret.Get(0), ret.Error(1))
}

func (m *MockLedgerConnection) ReceiveByRetailer(ctx context.Context, id uint64) (*Receipt, error) {
	ret := m.Called(ctx, id)
	return receiptOrNil(ret.Get(0), ret.Error(1))
}

func (m *MockLedgerConnection) ReceiveByCustomer(ctx context.Context, id uint64) (*Receipt, error) {
	ret := m.Called(ctx, id)
	return receiptOrNil(ret.Get(0), ret.Error(1))
}

func (m *MockLedgerConnection) RegisterUser(ctx context.Context, address common.Address, role protocol.Role, name string) (*Receipt, error) {
	ret := m.Called(ctx, address, role, name)
	return receiptOrNil(ret.Get(0), ret.Error(1))
}

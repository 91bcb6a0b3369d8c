// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package memory

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/contract"
)

// Connection is one participant's view of an InMemoryLedger
type Connection struct {
	ledger   *InMemoryLedger
	identity *common.Address
}

var _ adapter.LedgerConnection = (*Connection)(nil)

func (c *Connection) Identity() (common.Address, error) {
	if c.identity == nil {
		return common.Address{}, adapter.ErrNoSigner
	}
	return *c.identity, nil
}

func (c *Connection) caller(ctx context.Context) (common.Address, error) {
	if err := isDone(ctx); err != nil {
		return common.Address{}, err
	}
	return c.Identity()
}

func (c *Connection) GetUser(ctx context.Context, address common.Address) (*protocol.User, error) {
	if err := isDone(ctx); err != nil {
		return nil, err
	}
	return c.ledger.getUser(address)
}

func (c *Connection) Admin(ctx context.Context) (common.Address, error) {
	if err := isDone(ctx); err != nil {
		return common.Address{}, err
	}
	return c.ledger.AdminAddress(), nil
}

func (c *Connection) GetProductCount(ctx context.Context) (uint64, error) {
	if err := isDone(ctx); err != nil {
		return 0, err
	}
	return c.ledger.productCount(), nil
}

func (c *Connection) GetProduct(ctx context.Context, id uint64) (*protocol.Product, error) {
	if err := isDone(ctx); err != nil {
		return nil, err
	}
	return c.ledger.getProduct(id)
}

func (c *Connection) GetProductHistory(ctx context.Context, id uint64) ([]*protocol.HistoryEntry, error) {
	if err := isDone(ctx); err != nil {
		return nil, err
	}
	return c.ledger.getProductHistory(id)
}

func (c *Connection) RegisterProduct(ctx context.Context, name string, description string) (*adapter.Receipt, error) {
	caller, err := c.caller(ctx)
	if err != nil {
		return nil, err
	}
	return c.ledger.registerProduct(caller, name, description)
}

func (c *Connection) TransferToDistributor(ctx context.Context, id uint64, to common.Address) (*adapter.Receipt, error) {
	return c.transfer(ctx, contract.METHOD_TRANSFER_TO_DISTRIBUTOR, id, to)
}

func (c *Connection) TransferToRetailer(ctx context.Context, id uint64, to common.Address) (*adapter.Receipt, error) {
	return c.transfer(ctx, contract.METHOD_TRANSFER_TO_RETAILER, id, to)
}

func (c *Connection) TransferToCustomer(ctx context.Context, id uint64, to common.Address) (*adapter.Receipt, error) {
	return c.transfer(ctx, contract.METHOD_TRANSFER_TO_CUSTOMER, id, to)
}

func (c *Connection) transfer(ctx context.Context, method string, id uint64, to common.Address) (*adapter.Receipt, error) {
	caller, err := c.caller(ctx)
	if err != nil {
		return nil, err
	}
	return c.ledger.transfer(method, caller, id, to)
}

func (c *Connection) ReceiveByDistributor(ctx context.Context, id uint64) (*adapter.Receipt, error) {
	return c.receive(ctx, contract.METHOD_RECEIVE_BY_DISTRIBUTOR, id)
}

func (c *Connection) ReceiveByRetailer(ctx context.Context, id uint64) (*adapter.Receipt, error) {
	return c.receive(ctx, contract.METHOD_RECEIVE_BY_RETAILER, id)
}

func (c *Connection) ReceiveByCustomer(ctx context.Context, id uint64) (*adapter.Receipt, error) {
	return c.receive(ctx, contract.METHOD_RECEIVE_BY_CUSTOMER, id)
}

func (c *Connection) receive(ctx context.Context, method string, id uint64) (*adapter.Receipt, error) {
	caller, err := c.caller(ctx)
	if err != nil {
		return nil, err
	}
	return c.ledger.receive(method, caller, id)
}

func (c *Connection) RegisterUser(ctx context.Context, address common.Address, role protocol.Role, name string) (*adapter.Receipt, error) {
	caller, err := c.caller(ctx)
	if err != nil {
		return nil, err
	}
	return c.ledger.registerUser(caller, address, role, name)
}

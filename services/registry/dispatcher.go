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
	"github.com/pkg/errors"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/logfields"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/contract"
)

// ErrUnsupportedRole means the role has no ledger call for the action at all
var ErrUnsupportedRole = errors.New("action not permitted for this role")

func IsUnsupportedRole(err error) bool {
	return errors.Cause(err) == ErrUnsupportedRole
}

type ledgerInvocation func(ctx context.Context, writer adapter.LedgerWriter, id uint64, to common.Address) (*adapter.Receipt, error)

// LedgerCall is the single write a role is allowed to make for an action
type LedgerCall struct {
	Name   string
	invoke ledgerInvocation
}

func (c LedgerCall) Invoke(ctx context.Context, writer adapter.LedgerWriter, id uint64, to common.Address) (*adapter.Receipt, error) {
	return c.invoke(ctx, writer, id, to)
}

var transferCalls = map[protocol.Role]LedgerCall{
	protocol.ROLE_MANUFACTURER: {contract.METHOD_TRANSFER_TO_DISTRIBUTOR, func(ctx context.Context, w adapter.LedgerWriter, id uint64, to common.Address) (*adapter.Receipt, error) {
		return w.TransferToDistributor(ctx, id, to)
	}},
	protocol.ROLE_DISTRIBUTOR: {contract.METHOD_TRANSFER_TO_RETAILER, func(ctx context.Context, w adapter.LedgerWriter, id uint64, to common.Address) (*adapter.Receipt, error) {
		return w.TransferToRetailer(ctx, id, to)
	}},
	protocol.ROLE_RETAILER: {contract.METHOD_TRANSFER_TO_CUSTOMER, func(ctx context.Context, w adapter.LedgerWriter, id uint64, to common.Address) (*adapter.Receipt, error) {
		return w.TransferToCustomer(ctx, id, to)
	}},
}

var receiveCalls = map[protocol.Role]LedgerCall{
	protocol.ROLE_DISTRIBUTOR: {contract.METHOD_RECEIVE_BY_DISTRIBUTOR, func(ctx context.Context, w adapter.LedgerWriter, id uint64, _ common.Address) (*adapter.Receipt, error) {
		return w.ReceiveByDistributor(ctx, id)
	}},
	protocol.ROLE_RETAILER: {contract.METHOD_RECEIVE_BY_RETAILER, func(ctx context.Context, w adapter.LedgerWriter, id uint64, _ common.Address) (*adapter.Receipt, error) {
		return w.ReceiveByRetailer(ctx, id)
	}},
	protocol.ROLE_CUSTOMER: {contract.METHOD_RECEIVE_BY_CUSTOMER, func(ctx context.Context, w adapter.LedgerWriter, id uint64, _ common.Address) (*adapter.Receipt, error) {
		return w.ReceiveByCustomer(ctx, id)
	}},
}

func SelectTransfer(role protocol.Role) (LedgerCall, bool) {
	call, ok := transferCalls[role]
	return call, ok
}

func SelectReceive(role protocol.Role) (LedgerCall, bool) {
	call, ok := receiveCalls[role]
	return call, ok
}

// CanReceive offers receive only to receiving roles on products they do not already own
func CanReceive(role protocol.Role, identity common.Address, product *protocol.Product) bool {
	_, ok := receiveCalls[role]
	return ok && product.CurrentOwner != identity
}

// CanTransfer offers transfer only to sending roles
func CanTransfer(role protocol.Role) bool {
	_, ok := transferCalls[role]
	return ok
}

// ProductActions is what a participant is offered for a product, nothing for a read-only session
func ProductActions(snapshot *Snapshot, product *protocol.Product) (canTransfer bool, canReceive bool) {
	if snapshot.ReadOnly() {
		return false, false
	}
	return CanTransfer(snapshot.Role), CanReceive(snapshot.Role, *snapshot.Identity, product)
}

// Dispatcher validates input, picks the ledger call for the role and submits exactly one confirmed write.
// Permissions are the ledger's to enforce, its refusal comes back as an adapter.RejectedError.
type Dispatcher struct {
	writer    adapter.LedgerWriter
	validator *inputValidator
	logger    log.Logger
}

func NewDispatcher(writer adapter.LedgerWriter, logger log.Logger) *Dispatcher {
	return &Dispatcher{
		writer:    writer,
		validator: newInputValidator(),
		logger:    logger,
	}
}

func (d *Dispatcher) RegisterProduct(ctx context.Context, request *RegisterProductRequest) (*adapter.Receipt, error) {
	if err := d.validator.check(request); err != nil {
		return nil, err
	}

	return d.writer.RegisterProduct(ctx, request.Name, request.Description)
}

func (d *Dispatcher) Transfer(ctx context.Context, role protocol.Role, request *TransferRequest) (*adapter.Receipt, error) {
	if err := d.validator.check(request); err != nil {
		return nil, err
	}

	call, ok := SelectTransfer(role)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedRole, "%s cannot transfer products", role)
	}

	d.logger.Info("dispatching transfer", logfields.Method(call.Name), logfields.ProductId(request.ProductId), logfields.Role(role))
	return call.Invoke(ctx, d.writer, request.ProductId, common.HexToAddress(request.Recipient))
}

func (d *Dispatcher) Receive(ctx context.Context, role protocol.Role, request *ReceiveRequest) (*adapter.Receipt, error) {
	if err := d.validator.check(request); err != nil {
		return nil, err
	}

	call, ok := SelectReceive(role)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedRole, "%s cannot receive products", role)
	}

	d.logger.Info("dispatching receive", logfields.Method(call.Name), logfields.ProductId(request.ProductId), logfields.Role(role))
	return call.Invoke(ctx, d.writer, request.ProductId, common.Address{})
}

func (d *Dispatcher) RegisterUser(ctx context.Context, request *RegisterUserRequest) (*adapter.Receipt, common.Address, error) {
	address, role, err := d.validator.registerUser(request)
	if err != nil {
		return nil, common.Address{}, err
	}

	receipt, err := d.writer.RegisterUser(ctx, address, role, request.Name)
	return receipt, address, err
}

// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package memory

import (
	"context"
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/logfields"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/contract"
	"math/big"
	"sync"
	"time"
)

const (
	REASON_NOT_ADMIN           = "Only admin can perform this action"
	REASON_USER_NOT_REGISTERED = "User not registered"
	REASON_ALREADY_REGISTERED  = "User already registered"
	REASON_INVALID_ROLE        = "Invalid role"
	REASON_INVALID_ADDRESS     = "Invalid address"
	REASON_PRODUCT_NOT_FOUND   = "Product does not exist"
	REASON_NOT_OWNER           = "Not the product owner"
	REASON_INVALID_STATUS      = "Invalid product status"
	REASON_NOT_RECIPIENT       = "Not the intended recipient"
)

func reasonWrongRole(role protocol.Role) string {
	return fmt.Sprintf("Only %s can perform this action", role.Title())
}

func reasonRecipientRole(role protocol.Role) string {
	return fmt.Sprintf("Recipient is not a registered %s", role.Title())
}

// one hop of the supply chain: who may send it, from which stage, and who must take it
type hop struct {
	sender    protocol.Role
	recipient protocol.Role
	from      protocol.Stage
	inTransit protocol.Stage
	arrived   protocol.Stage
}

var transfers = map[string]hop{
	contract.METHOD_TRANSFER_TO_DISTRIBUTOR: {protocol.ROLE_MANUFACTURER, protocol.ROLE_DISTRIBUTOR, protocol.STAGE_MANUFACTURED, protocol.STAGE_IN_TRANSIT_TO_DISTRIBUTOR, protocol.STAGE_WITH_DISTRIBUTOR},
	contract.METHOD_TRANSFER_TO_RETAILER:    {protocol.ROLE_DISTRIBUTOR, protocol.ROLE_RETAILER, protocol.STAGE_WITH_DISTRIBUTOR, protocol.STAGE_IN_TRANSIT_TO_RETAILER, protocol.STAGE_WITH_RETAILER},
	contract.METHOD_TRANSFER_TO_CUSTOMER:    {protocol.ROLE_RETAILER, protocol.ROLE_CUSTOMER, protocol.STAGE_WITH_RETAILER, protocol.STAGE_IN_TRANSIT_TO_CUSTOMER, protocol.STAGE_DELIVERED},
}

var receives = map[string]string{
	contract.METHOD_RECEIVE_BY_DISTRIBUTOR: contract.METHOD_TRANSFER_TO_DISTRIBUTOR,
	contract.METHOD_RECEIVE_BY_RETAILER:    contract.METHOD_TRANSFER_TO_RETAILER,
	contract.METHOD_RECEIVE_BY_CUSTOMER:    contract.METHOD_TRANSFER_TO_CUSTOMER,
}

type memMetrics struct {
	products *metric.Gauge
	users    *metric.Gauge
	writes   *metric.Rate
}

type record struct {
	product protocol.Product
	history []protocol.HistoryEntry
	pending common.Address
}

// InMemoryLedger reproduces the registry contract for dev mode and tests
type InMemoryLedger struct {
	logger  log.Logger
	metrics *memMetrics

	mu struct {
		sync.Mutex
		admin        common.Address
		users        map[common.Address]protocol.User
		products     []*record
		block        uint64
		clock        func() time.Time
		failingReads map[uint64]error
	}
}

func NewInMemoryLedger(admin common.Address, parent log.Logger, metricFactory metric.Factory) *InMemoryLedger {
	l := &InMemoryLedger{
		logger: parent.WithTags(log.String("adapter", "in-memory-ledger")),
		metrics: &memMetrics{
			products: metricFactory.NewGauge("Ledger.InMemory.Products.Count"),
			users:    metricFactory.NewGauge("Ledger.InMemory.Users.Count"),
			writes:   metricFactory.NewRate("Ledger.InMemory.Writes.PerSecond"),
		},
	}

	l.mu.admin = admin
	l.mu.users = make(map[common.Address]protocol.User)
	l.mu.clock = time.Now
	l.mu.failingReads = make(map[uint64]error)

	return l
}

func (l *InMemoryLedger) WithClock(clock func() time.Time) *InMemoryLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mu.clock = clock
	return l
}

// subsequent GetProduct calls for id fail with err until cleared with a nil err
func (l *InMemoryLedger) FailProductFetch(id uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.mu.failingReads, id)
	} else {
		l.mu.failingReads[id] = err
	}
}

func (l *InMemoryLedger) AdminAddress() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mu.admin
}

// a connection signing as identity
func (l *InMemoryLedger) ConnectAs(identity common.Address) *Connection {
	return &Connection{ledger: l, identity: &identity}
}

// a connection without a wallet, reads only
func (l *InMemoryLedger) ReadOnly() *Connection {
	return &Connection{ledger: l}
}

func (l *InMemoryLedger) getUser(address common.Address) (*protocol.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, found := l.mu.users[address]
	if !found {
		return nil, &adapter.RejectedError{Method: contract.METHOD_GET_USER, Reason: REASON_USER_NOT_REGISTERED}
	}
	return &user, nil
}

func (l *InMemoryLedger) productCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(len(l.mu.products))
}

// caller holds the lock
func (l *InMemoryLedger) recordOf(method string, id uint64) (*record, error) {
	if id == 0 || id > uint64(len(l.mu.products)) {
		return nil, &adapter.RejectedError{Method: method, Reason: REASON_PRODUCT_NOT_FOUND}
	}
	return l.mu.products[id-1], nil
}

func (l *InMemoryLedger) getProduct(id uint64) (*protocol.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err, failing := l.mu.failingReads[id]; failing {
		return nil, err
	}

	r, err := l.recordOf(contract.METHOD_GET_PRODUCT, id)
	if err != nil {
		return nil, err
	}
	product := r.product
	return &product, nil
}

func (l *InMemoryLedger) getProductHistory(id uint64) ([]*protocol.HistoryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, err := l.recordOf(contract.METHOD_GET_PRODUCT_HISTORY, id)
	if err != nil {
		return nil, err
	}

	history := make([]*protocol.HistoryEntry, len(r.history))
	for i := range r.history {
		entry := r.history[i]
		history[i] = &entry
	}
	return history, nil
}

// caller holds the lock
func (l *InMemoryLedger) requireRole(method string, caller common.Address, role protocol.Role) error {
	if user, found := l.mu.users[caller]; !found || user.Role != role {
		return &adapter.RejectedError{Method: method, Reason: reasonWrongRole(role)}
	}
	return nil
}

// caller holds the lock
func (l *InMemoryLedger) confirm(method string, caller common.Address, fields ...*log.Field) *adapter.Receipt {
	l.mu.block++
	receipt := &adapter.Receipt{
		TxHash:      crypto.Keccak256Hash([]byte(method), caller.Bytes(), new(big.Int).SetUint64(l.mu.block).Bytes()),
		BlockNumber: l.mu.block,
	}

	l.metrics.writes.Measure(1)
	l.logger.Info("ledger write confirmed", append(fields, logfields.LedgerWrite(), logfields.Method(method), logfields.Identity(caller), logfields.TxHash(receipt.TxHash), logfields.BlockNumber(receipt.BlockNumber))...)

	return receipt
}

// caller holds the lock
func (l *InMemoryLedger) appendHistory(r *record) {
	r.history = append(r.history, protocol.HistoryEntry{
		Status:    r.product.Status,
		Owner:     r.product.CurrentOwner,
		Timestamp: r.product.Timestamp,
	})
}

func (l *InMemoryLedger) registerUser(caller common.Address, address common.Address, role protocol.Role, name string) (*adapter.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	method := contract.METHOD_REGISTER_USER
	switch {
	case caller != l.mu.admin:
		return nil, &adapter.RejectedError{Method: method, Reason: REASON_NOT_ADMIN}
	case address == common.Address{}:
		return nil, &adapter.RejectedError{Method: method, Reason: REASON_INVALID_ADDRESS}
	case !role.Registrable():
		return nil, &adapter.RejectedError{Method: method, Reason: REASON_INVALID_ROLE}
	}

	if _, found := l.mu.users[address]; found {
		return nil, &adapter.RejectedError{Method: method, Reason: REASON_ALREADY_REGISTERED}
	}

	l.mu.users[address] = protocol.User{Address: address, Role: role, Name: name, IsRegistered: true}
	l.metrics.users.Update(int64(len(l.mu.users)))

	return l.confirm(method, caller, logfields.Address("user", address), logfields.Role(role)), nil
}

func (l *InMemoryLedger) registerProduct(caller common.Address, name string, description string) (*adapter.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	method := contract.METHOD_REGISTER_PRODUCT
	if err := l.requireRole(method, caller, protocol.ROLE_MANUFACTURER); err != nil {
		return nil, err
	}

	r := &record{
		product: protocol.Product{
			Id:           uint64(len(l.mu.products)) + 1,
			Name:         name,
			Description:  description,
			CurrentOwner: caller,
			Status:       protocol.STAGE_MANUFACTURED,
			Timestamp:    uint64(l.mu.clock().Unix()),
		},
	}
	l.appendHistory(r)
	l.mu.products = append(l.mu.products, r)
	l.metrics.products.Update(int64(len(l.mu.products)))

	return l.confirm(method, caller, logfields.ProductId(r.product.Id)), nil
}

// ownership stays with the sender until the recipient receives
func (l *InMemoryLedger) transfer(method string, caller common.Address, id uint64, to common.Address) (*adapter.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h := transfers[method]
	if err := l.requireRole(method, caller, h.sender); err != nil {
		return nil, err
	}

	r, err := l.recordOf(method, id)
	if err != nil {
		return nil, err
	}

	switch {
	case r.product.CurrentOwner != caller:
		return nil, &adapter.RejectedError{Method: method, Reason: REASON_NOT_OWNER}
	case r.product.Status != h.from:
		return nil, &adapter.RejectedError{Method: method, Reason: REASON_INVALID_STATUS}
	}

	if recipient, found := l.mu.users[to]; !found || recipient.Role != h.recipient {
		return nil, &adapter.RejectedError{Method: method, Reason: reasonRecipientRole(h.recipient)}
	}

	r.product.Status = h.inTransit
	r.product.Timestamp = uint64(l.mu.clock().Unix())
	r.pending = to
	l.appendHistory(r)

	return l.confirm(method, caller, logfields.ProductId(id), logfields.Address("recipient", to)), nil
}

func (l *InMemoryLedger) receive(method string, caller common.Address, id uint64) (*adapter.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h := transfers[receives[method]]
	if err := l.requireRole(method, caller, h.recipient); err != nil {
		return nil, err
	}

	r, err := l.recordOf(method, id)
	if err != nil {
		return nil, err
	}

	switch {
	case r.product.Status != h.inTransit:
		return nil, &adapter.RejectedError{Method: method, Reason: REASON_INVALID_STATUS}
	case r.pending != caller:
		return nil, &adapter.RejectedError{Method: method, Reason: REASON_NOT_RECIPIENT}
	}

	r.product.CurrentOwner = caller
	r.product.Status = h.arrived
	r.product.Timestamp = uint64(l.mu.clock().Unix())
	r.pending = common.Address{}
	l.appendHistory(r)

	return l.confirm(method, caller, logfields.ProductId(id)), nil
}

func isDone(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

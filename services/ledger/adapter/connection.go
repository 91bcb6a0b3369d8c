// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/supplychain-dapp/supplychain-go/protocol"
)

var ErrNoSigner = errors.New("no wallet: a signer must be configured to identify the participant")

// read-only calls, no side effects on the ledger
type LedgerReader interface {
	GetUser(ctx context.Context, address common.Address) (*protocol.User, error)
	Admin(ctx context.Context) (common.Address, error)
	GetProductCount(ctx context.Context) (uint64, error)
	GetProduct(ctx context.Context, id uint64) (*protocol.Product, error)
	GetProductHistory(ctx context.Context, id uint64) ([]*protocol.HistoryEntry, error)
}

// every write returns only after the transaction is confirmed
type LedgerWriter interface {
	RegisterProduct(ctx context.Context, name string, description string) (*Receipt, error)
	TransferToDistributor(ctx context.Context, id uint64, to common.Address) (*Receipt, error)
	TransferToRetailer(ctx context.Context, id uint64, to common.Address) (*Receipt, error)
	TransferToCustomer(ctx context.Context, id uint64, to common.Address) (*Receipt, error)
	ReceiveByDistributor(ctx context.Context, id uint64) (*Receipt, error)
	ReceiveByRetailer(ctx context.Context, id uint64) (*Receipt, error)
	ReceiveByCustomer(ctx context.Context, id uint64) (*Receipt, error)
	RegisterUser(ctx context.Context, address common.Address, role protocol.Role, name string) (*Receipt, error)
}

type LedgerConnection interface {
	LedgerReader
	LedgerWriter
	Identity() (common.Address, error)
}

type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
}

func (r *Receipt) String() string {
	return fmt.Sprintf("tx %s in block %d", r.TxHash.Hex(), r.BlockNumber)
}

// the ledger refused the call, Reason is what the ledger said
type RejectedError struct {
	Method string
	Reason string
	TxHash *common.Hash
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected by ledger: %s", e.Method, e.Reason)
}

// the write was submitted but its confirmation was not observed, it may still be mined
type UnconfirmedError struct {
	Method string
	TxHash common.Hash
	Err    error
}

func (e *UnconfirmedError) Error() string {
	return fmt.Sprintf("gave up waiting for %s confirmation of tx %s: %s", e.Method, e.TxHash.Hex(), e.Err)
}

func IsUnconfirmed(err error) (*UnconfirmedError, bool) {
	unconfirmed, ok := errors.Cause(err).(*UnconfirmedError)
	return unconfirmed, ok
}

// SubmittedTx reports the transaction a failed write left on the ledger, if any
func SubmittedTx(err error) (common.Hash, bool) {
	if rejected, ok := IsRejected(err); ok && rejected.TxHash != nil {
		return *rejected.TxHash, true
	}
	if unconfirmed, ok := IsUnconfirmed(err); ok {
		return unconfirmed.TxHash, true
	}
	return common.Hash{}, false
}

func IsRejected(err error) (*RejectedError, bool) {
	rejected, ok := errors.Cause(err).(*RejectedError)
	return rejected, ok
}

func IsNoSigner(err error) bool {
	return errors.Cause(err) == ErrNoSigner
}

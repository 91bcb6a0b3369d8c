// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/logfields"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/contract"
	"golang.org/x/time/rate"
	"math/big"
	"time"
)

type EthereumCaller interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type ethereumLedgerConfig interface {
	LedgerReadRateLimit() uint32
	LedgerConfirmationTimeout() time.Duration
	LedgerGasLimit() uint32
}

type ledgerMetrics struct {
	readLatency  *metric.Histogram
	writeLatency *metric.Histogram
	writeRate    *metric.Rate
	rejections   *metric.Gauge
}

// EthereumLedger talks to the deployed registry through any go-ethereum contract backend
type EthereumLedger struct {
	logger   log.Logger
	backend  EthereumCaller
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	signer   *Signer
	limiter  *rate.Limiter
	metrics  *ledgerMetrics

	confirmationTimeout time.Duration
	gasLimit            uint64
}

func NewEthereumLedger(backend EthereumCaller, address common.Address, signer *Signer, config ethereumLedgerConfig, logger log.Logger, metricFactory metric.Factory) *EthereumLedger {
	parsed := contract.ABI()

	l := &EthereumLedger{
		logger:   logger.WithTags(log.String("adapter", "ethereum-ledger"), logfields.ContractAddress(address)),
		backend:  backend,
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		signer:   signer,
		metrics: &ledgerMetrics{
			readLatency:  metricFactory.NewLatency("Ledger.Read.Latency.Millis", 1*time.Minute),
			writeLatency: metricFactory.NewLatency("Ledger.Write.ConfirmationLatency.Millis", 30*time.Minute),
			writeRate:    metricFactory.NewRate("Ledger.Write.PerSecond"),
			rejections:   metricFactory.NewGauge("Ledger.Write.Rejections"),
		},
		confirmationTimeout: config.LedgerConfirmationTimeout(),
		gasLimit:            uint64(config.LedgerGasLimit()),
	}

	if perSecond := config.LedgerReadRateLimit(); perSecond > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(perSecond), int(perSecond))
	}

	return l
}

func (l *EthereumLedger) ContractAddress() common.Address {
	return l.address
}

func (l *EthereumLedger) Identity() (common.Address, error) {
	if l.signer == nil {
		return common.Address{}, ErrNoSigner
	}
	return l.signer.Address(), nil
}

func (l *EthereumLedger) from() common.Address {
	if l.signer == nil {
		return common.Address{}
	}
	return l.signer.Address()
}

func (l *EthereumLedger) throttle(ctx context.Context) error {
	if l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// same shape as bind.BoundContract.Call but keeps the raw output so revert payloads can be decoded
func (l *EthereumLedger) callContract(ctx context.Context, method string, input []byte) ([]byte, error) {
	msg := ethereum.CallMsg{From: l.from(), To: &l.address, Data: input}
	output, err := l.backend.CallContract(ctx, msg, nil)
	if err != nil {
		if isRevertError(err) {
			return nil, &RejectedError{Method: method, Reason: reasonFromError(err)}
		}
		return nil, errors.Wrapf(err, "ledger call %s failed", method)
	}

	if reason, reverted := unpackRevertReason(output); reverted {
		return nil, &RejectedError{Method: method, Reason: reason}
	}

	if len(output) == 0 {
		// make sure we have a contract to operate on, and bail out otherwise
		if code, err := l.backend.CodeAt(ctx, l.address, nil); err != nil {
			return nil, errors.Wrapf(err, "ledger call %s failed", method)
		} else if len(code) == 0 {
			return nil, bind.ErrNoCode
		}
	}

	return output, nil
}

func (l *EthereumLedger) read(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if err := l.throttle(ctx); err != nil {
		return nil, errors.Wrapf(err, "ledger read %s throttled", method)
	}

	start := time.Now()
	defer l.metrics.readLatency.RecordSince(start)

	input, err := l.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed packing %s", method)
	}

	output, err := l.callContract(ctx, method, input)
	if err != nil {
		return nil, err
	}

	values, err := l.abi.Methods[method].Outputs.UnpackValues(output)
	if err != nil {
		return nil, errors.Wrapf(err, "failed unpacking %s output", method)
	}

	if len(values) != 1 {
		return nil, errors.Errorf("expected a single %s return value, got %d", method, len(values))
	}

	return values, nil
}

func (l *EthereumLedger) GetUser(ctx context.Context, address common.Address) (*protocol.User, error) {
	values, err := l.read(ctx, contract.METHOD_GET_USER, address)
	if err != nil {
		return nil, err
	}
	return decodeUser(values[0])
}

func (l *EthereumLedger) Admin(ctx context.Context) (common.Address, error) {
	values, err := l.read(ctx, contract.METHOD_ADMIN)
	if err != nil {
		return common.Address{}, err
	}

	admin, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, errors.Errorf("admin() returned %T", values[0])
	}
	return admin, nil
}

func (l *EthereumLedger) GetProductCount(ctx context.Context) (uint64, error) {
	values, err := l.read(ctx, contract.METHOD_GET_PRODUCT_COUNT)
	if err != nil {
		return 0, err
	}
	return bigToUint64(values[0])
}

func (l *EthereumLedger) GetProduct(ctx context.Context, id uint64) (*protocol.Product, error) {
	values, err := l.read(ctx, contract.METHOD_GET_PRODUCT, new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	return decodeProduct(values[0])
}

func (l *EthereumLedger) GetProductHistory(ctx context.Context, id uint64) ([]*protocol.HistoryEntry, error) {
	values, err := l.read(ctx, contract.METHOD_GET_PRODUCT_HISTORY, new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	return decodeHistory(values[0])
}

func (l *EthereumLedger) reject(method string, reason string, txHash *common.Hash) error {
	l.metrics.rejections.Inc()
	l.logger.Info("ledger rejected write", logfields.LedgerWrite(), logfields.Method(method), log.String("reason", reason))
	return &RejectedError{Method: method, Reason: reason, TxHash: txHash}
}

// pre-flight eth_call, then sign and submit, then wait for the receipt
func (l *EthereumLedger) transact(ctx context.Context, method string, args ...interface{}) (*Receipt, error) {
	if l.signer == nil {
		return nil, ErrNoSigner
	}

	input, err := l.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed packing %s", method)
	}

	if _, err := l.callContract(ctx, method, input); err != nil {
		if rejected, ok := IsRejected(err); ok {
			return nil, l.reject(method, rejected.Reason, nil)
		}
		return nil, err
	}

	opts := l.signer.TransactOpts(ctx)
	opts.GasLimit = l.gasLimit

	start := time.Now()
	tx, err := l.contract.Transact(opts, method, args...)
	if err != nil {
		if isRevertError(err) {
			return nil, l.reject(method, reasonFromError(err), nil)
		}
		return nil, errors.Wrapf(err, "failed submitting %s", method)
	}

	txHash := tx.Hash()
	l.logger.Info("submitted ledger write", logfields.LedgerWrite(), logfields.Method(method), logfields.TxHash(txHash), logfields.Identity(opts.From))

	// a submitted write is waited for even if the caller goes away
	waitCtx := context.WithoutCancel(ctx)
	if l.confirmationTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(waitCtx, l.confirmationTimeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(waitCtx, l.backend, tx)
	if err != nil {
		l.logger.Info("ledger write not confirmed", logfields.LedgerWrite(), logfields.Method(method), logfields.TxHash(txHash), log.Error(err))
		return nil, &UnconfirmedError{Method: method, TxHash: txHash, Err: err}
	}

	l.metrics.writeLatency.RecordSince(start)
	l.metrics.writeRate.Measure(1)

	if receipt.Status == types.ReceiptStatusFailed {
		return nil, l.reject(method, "transaction reverted", &txHash)
	}

	result := &Receipt{
		TxHash:      txHash,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}

	l.logger.Info("ledger write confirmed", logfields.LedgerWrite(), logfields.Method(method), logfields.TxHash(txHash), logfields.BlockNumber(result.BlockNumber))

	return result, nil
}

func (l *EthereumLedger) RegisterProduct(ctx context.Context, name string, description string) (*Receipt, error) {
	return l.transact(ctx, contract.METHOD_REGISTER_PRODUCT, name, description)
}

func (l *EthereumLedger) TransferToDistributor(ctx context.Context, id uint64, to common.Address) (*Receipt, error) {
	return l.transact(ctx, contract.METHOD_TRANSFER_TO_DISTRIBUTOR, new(big.Int).SetUint64(id), to)
}

func (l *EthereumLedger) TransferToRetailer(ctx context.Context, id uint64, to common.Address) (*Receipt, error) {
	return l.transact(ctx, contract.METHOD_TRANSFER_TO_RETAILER, new(big.Int).SetUint64(id), to)
}

func (l *EthereumLedger) TransferToCustomer(ctx context.Context, id uint64, to common.Address) (*Receipt, error) {
	return l.transact(ctx, contract.METHOD_TRANSFER_TO_CUSTOMER, new(big.Int).SetUint64(id), to)
}

func (l *EthereumLedger) ReceiveByDistributor(ctx context.Context, id uint64) (*Receipt, error) {
	return l.transact(ctx, contract.METHOD_RECEIVE_BY_DISTRIBUTOR, new(big.Int).SetUint64(id))
}

func (l *EthereumLedger) ReceiveByRetailer(ctx context.Context, id uint64) (*Receipt, error) {
	return l.transact(ctx, contract.METHOD_RECEIVE_BY_RETAILER, new(big.Int).SetUint64(id))
}

func (l *EthereumLedger) ReceiveByCustomer(ctx context.Context, id uint64) (*Receipt, error) {
	return l.transact(ctx, contract.METHOD_RECEIVE_BY_CUSTOMER, new(big.Int).SetUint64(id))
}

func (l *EthereumLedger) RegisterUser(ctx context.Context, address common.Address, role protocol.Role, name string) (*Receipt, error) {
	return l.transact(ctx, contract.METHOD_REGISTER_USER, address, uint8(role), name)
}

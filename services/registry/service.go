// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package registry

import (
	"context"
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/logfields"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"sync"
	"time"
)

const (
	ACTION_REGISTER_PRODUCT = "register product"
	ACTION_TRANSFER         = "transfer"
	ACTION_RECEIVE          = "receive"
	ACTION_REGISTER_USER    = "register user"
	ACTION_RELOAD           = "reload"
)

var LogTag = log.Service("registry")

type Config interface {
	RegistryLoadMaxProducts() uint32
	RegistryLoadAbortOnFailure() bool
}

type sessionMetrics struct {
	actions  *metric.Rate
	failures *metric.Gauge
}

// Session is one participant's connection to the registry. Ledger calls are serialized and
// the snapshot is only ever replaced by the session's own load and dispatch paths.
type Session struct {
	ledger     adapter.LedgerConnection
	viewModel  *ViewModel
	dispatcher *Dispatcher
	logger     log.Logger
	metrics    *sessionMetrics

	calls sync.Mutex

	state struct {
		sync.RWMutex
		snapshot    *Snapshot
		subscribers map[int]chan *Snapshot
		nextId      int
	}
}

func NewSession(ledger adapter.LedgerConnection, cfg Config, parent log.Logger, metricFactory metric.Factory) *Session {
	logger := parent.WithTags(LogTag)
	s := &Session{
		ledger:     ledger,
		viewModel:  NewViewModel(ledger, LoadPolicyFromConfig(cfg), logger, metricFactory),
		dispatcher: NewDispatcher(ledger, logger),
		logger:     logger,
		metrics: &sessionMetrics{
			actions:  metricFactory.NewRate("Registry.Actions.PerSecond"),
			failures: metricFactory.NewGauge("Registry.Actions.Failed.Count"),
		},
	}
	s.state.snapshot = &Snapshot{}
	s.state.subscribers = make(map[int]chan *Snapshot)
	return s
}

func (s *Session) Snapshot() *Snapshot {
	s.state.RLock()
	defer s.state.RUnlock()
	return s.state.snapshot
}

// Subscribe delivers every new snapshot; a subscriber that falls behind misses intermediate ones
func (s *Session) Subscribe(buffer int) (<-chan *Snapshot, func()) {
	s.state.Lock()
	defer s.state.Unlock()

	id := s.state.nextId
	s.state.nextId++
	ch := make(chan *Snapshot, buffer)
	s.state.subscribers[id] = ch

	return ch, func() {
		s.state.Lock()
		defer s.state.Unlock()
		if _, found := s.state.subscribers[id]; found {
			delete(s.state.subscribers, id)
			close(ch)
		}
	}
}

func (s *Session) dispatch(event Event) *Snapshot {
	s.state.Lock()
	defer s.state.Unlock()

	next := Reduce(s.state.snapshot, event)
	s.state.snapshot = next
	for _, ch := range s.state.subscribers {
		select {
		case ch <- next:
		default:
		}
	}
	return next
}

// Start resolves identity and role once, then loads the products
func (s *Session) Start(ctx context.Context) (*Snapshot, error) {
	s.calls.Lock()
	defer s.calls.Unlock()

	identity, err := s.ledger.Identity()
	if err != nil {
		if !adapter.IsNoSigner(err) {
			return s.Snapshot(), err
		}
		s.logger.Info("no wallet configured, session is read-only")
		s.dispatch(Connected{})
	} else {
		s.dispatch(Connected{Identity: &identity})
		resolution := ResolveRole(ctx, s.ledger, identity, s.logger)
		s.logger.Info("session connected", logfields.Identity(identity), logfields.Role(resolution.Role), log.String("is-admin", fmt.Sprintf("%t", resolution.IsAdmin)))
		s.dispatch(RoleResolved{Resolution: resolution})
	}

	return s.reload(ctx)
}

func (s *Session) Reload(ctx context.Context) (*Snapshot, error) {
	s.calls.Lock()
	defer s.calls.Unlock()
	return s.reload(ctx)
}

// a failed load keeps the previous products
func (s *Session) reload(ctx context.Context) (*Snapshot, error) {
	products, report, err := s.viewModel.LoadAll(ctx)
	if err != nil {
		s.logger.Info("failed loading products", log.Error(err))
		return s.dispatch(NoticeRaised{Notice{Level: NOTICE_ERROR, Message: "loading products failed: " + userMessage(err)}}), err
	}
	return s.dispatch(ProductsLoaded{Products: products, Report: report}), nil
}

func (s *Session) History(ctx context.Context, id uint64) ([]*FormattedHistoryEntry, error) {
	if id == 0 {
		return nil, &ValidationError{Field: "productId", Problem: "must be at least 1"}
	}

	s.calls.Lock()
	defer s.calls.Unlock()
	return s.viewModel.History(ctx, id)
}

func (s *Session) identity() (common.Address, error) {
	snapshot := s.Snapshot()
	if snapshot.Identity == nil {
		return common.Address{}, adapter.ErrNoSigner
	}
	return *snapshot.Identity, nil
}

// reads that follow a submitted write outlive the caller's context, up to this long
const RELOAD_AFTER_WRITE_TIMEOUT = 30 * time.Second

// every submitted write is followed by a full reload, including one the ledger reverted or did not confirm in time
func (s *Session) act(ctx context.Context, action string, write func(snapshot *Snapshot) (*adapter.Receipt, string, error)) (*adapter.Receipt, error) {
	s.calls.Lock()
	defer s.calls.Unlock()

	if _, err := s.identity(); err != nil {
		s.dispatch(ActionFailed{Action: action, Err: err})
		return nil, err
	}

	snapshot := s.dispatch(ActionStarted{Action: action})
	s.metrics.actions.Measure(1)

	receipt, message, err := write(snapshot)
	if err != nil {
		s.metrics.failures.Inc()
		s.logger.Info("action failed", log.String("action", action), log.Error(err))
		s.dispatch(ActionFailed{Action: action, Err: err})
		if txHash, submitted := adapter.SubmittedTx(err); submitted {
			s.refreshAfterFailedWrite(ctx, action, txHash)
		}
		return nil, err
	}

	s.dispatch(ActionSucceeded{Action: action, Message: message, Receipt: receipt})

	if _, err := s.reloadAfterWrite(ctx); err != nil {
		return receipt, errors.Wrapf(err, "%s confirmed in %s but reload failed", action, receipt)
	}

	return receipt, nil
}

func (s *Session) reloadAfterWrite(ctx context.Context) (*Snapshot, error) {
	reloadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RELOAD_AFTER_WRITE_TIMEOUT)
	defer cancel()
	return s.reload(reloadCtx)
}

// keeps the failure notice, a failed load is only logged
func (s *Session) refreshAfterFailedWrite(ctx context.Context, action string, txHash common.Hash) {
	reloadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RELOAD_AFTER_WRITE_TIMEOUT)
	defer cancel()

	products, report, err := s.viewModel.LoadAll(reloadCtx)
	if err != nil {
		s.logger.Info("failed reloading after unsuccessful write", log.String("action", action), logfields.TxHash(txHash), log.Error(err))
		return
	}
	s.dispatch(ProductsLoaded{Products: products, Report: report})
}

func (s *Session) RegisterProduct(ctx context.Context, request *RegisterProductRequest) (*adapter.Receipt, error) {
	return s.act(ctx, ACTION_REGISTER_PRODUCT, func(snapshot *Snapshot) (*adapter.Receipt, string, error) {
		receipt, err := s.dispatcher.RegisterProduct(ctx, request)
		return receipt, "Product registered successfully!", err
	})
}

func (s *Session) Transfer(ctx context.Context, request *TransferRequest) (*adapter.Receipt, error) {
	return s.act(ctx, ACTION_TRANSFER, func(snapshot *Snapshot) (*adapter.Receipt, string, error) {
		receipt, err := s.dispatcher.Transfer(ctx, snapshot.Role, request)
		return receipt, "Product transferred successfully!", err
	})
}

func (s *Session) Receive(ctx context.Context, request *ReceiveRequest) (*adapter.Receipt, error) {
	return s.act(ctx, ACTION_RECEIVE, func(snapshot *Snapshot) (*adapter.Receipt, string, error) {
		receipt, err := s.dispatcher.Receive(ctx, snapshot.Role, request)
		return receipt, "Product received successfully!", err
	})
}

// registering oneself changes the session's own role, so it is resolved again
func (s *Session) RegisterUser(ctx context.Context, request *RegisterUserRequest) (*adapter.Receipt, error) {
	return s.act(ctx, ACTION_REGISTER_USER, func(snapshot *Snapshot) (*adapter.Receipt, string, error) {
		receipt, registered, err := s.dispatcher.RegisterUser(ctx, request)
		if err != nil {
			return nil, "", err
		}

		role, _ := protocol.ParseRole(request.Role)
		if snapshot.Identity != nil && registered == *snapshot.Identity {
			s.dispatch(RoleResolved{Resolution: ResolveRole(context.WithoutCancel(ctx), s.ledger, registered, s.logger)})
		}

		return receipt, fmt.Sprintf("User registered successfully as %s!", role.Title()), nil
	})
}

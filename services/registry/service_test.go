// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package registry

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/supplychain-dapp/supplychain-go/config"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter/memory"
	"github.com/supplychain-dapp/supplychain-go/test"
	"github.com/supplychain-dapp/supplychain-go/test/builders"
	"github.com/supplychain-dapp/supplychain-go/test/with"
	"testing"
)

type harness struct {
	ledger *memory.InMemoryLedger
	h      *with.LoggingHarness
}

func newHarness(h *with.LoggingHarness) *harness {
	return &harness{
		ledger: memory.NewInMemoryLedger(builders.AdminAddress, h.Logger, metric.NewRegistry()),
		h:      h,
	}
}

func (h *harness) sessionAs(ctx context.Context, t testing.TB, identity common.Address) *Session {
	s := NewSession(h.ledger.ConnectAs(identity), config.ForTests(), h.h.Logger, metric.NewRegistry())
	_, err := s.Start(ctx)
	require.NoError(t, err)
	return s
}

func (h *harness) registerParticipants(ctx context.Context, t testing.TB) {
	admin := h.sessionAs(ctx, t, builders.AdminAddress)
	for _, r := range []struct {
		address common.Address
		role    string
	}{
		{builders.ManufacturerAddress, "MANUFACTURER"},
		{builders.DistributorAddress, "DISTRIBUTOR"},
		{builders.RetailerAddress, "RETAILER"},
		{builders.CustomerAddress, "CUSTOMER"},
	} {
		_, err := admin.RegisterUser(ctx, &RegisterUserRequest{Address: r.address.Hex(), Role: r.role, Name: r.role})
		require.NoError(t, err)
	}
}

func TestSession_UnregisteredDeployerIsAdmin(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			s := newHarness(h).sessionAs(ctx, t, builders.AdminAddress)

			snapshot := s.Snapshot()
			require.Equal(t, protocol.ROLE_NONE, snapshot.Role)
			require.True(t, snapshot.IsAdmin)
			require.Equal(t, builders.AdminAddress, *snapshot.Identity)
		})
	})
}

func TestSession_WithoutWalletIsReadOnly(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			harness := newHarness(h)
			harness.registerParticipants(ctx, t)
			_, err := harness.sessionAs(ctx, t, builders.ManufacturerAddress).RegisterProduct(ctx, &RegisterProductRequest{Name: "Widget", Description: "blue"})
			require.NoError(t, err)

			s := NewSession(harness.ledger.ReadOnly(), config.ForTests(), h.Logger, metric.NewRegistry())
			snapshot, err := s.Start(ctx)
			require.NoError(t, err)
			require.True(t, snapshot.ReadOnly())
			require.Len(t, snapshot.Products, 1, "reads still work without a wallet")

			_, err = s.RegisterProduct(ctx, &RegisterProductRequest{Name: "Widget", Description: "blue"})
			require.True(t, adapter.IsNoSigner(err))
			require.Equal(t, NOTICE_BLOCKED, s.Snapshot().Notice.Level)
		})
	})
}

func TestSession_FullJourneyReloadsAfterEveryWrite(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			harness := newHarness(h)
			harness.registerParticipants(ctx, t)

			manufacturer := harness.sessionAs(ctx, t, builders.ManufacturerAddress)
			require.Equal(t, protocol.ROLE_MANUFACTURER, manufacturer.Snapshot().Role)

			_, err := manufacturer.RegisterProduct(ctx, &RegisterProductRequest{Name: "Widget", Description: "blue"})
			require.NoError(t, err)
			require.Len(t, manufacturer.Snapshot().Products, 1, "write must be followed by a reload")

			_, err = manufacturer.Transfer(ctx, &TransferRequest{ProductId: 1, Recipient: builders.DistributorAddress.Hex()})
			require.NoError(t, err)
			requireStage(t, manufacturer, 1, protocol.STAGE_IN_TRANSIT_TO_DISTRIBUTOR)

			distributor := harness.sessionAs(ctx, t, builders.DistributorAddress)
			product, _ := distributor.Snapshot().Product(1)
			require.True(t, CanReceive(distributor.Snapshot().Role, builders.DistributorAddress, &product))

			_, err = distributor.Receive(ctx, &ReceiveRequest{ProductId: 1})
			require.NoError(t, err)
			requireStage(t, distributor, 1, protocol.STAGE_WITH_DISTRIBUTOR)

			_, err = distributor.Transfer(ctx, &TransferRequest{ProductId: 1, Recipient: builders.RetailerAddress.Hex()})
			require.NoError(t, err)

			retailer := harness.sessionAs(ctx, t, builders.RetailerAddress)
			_, err = retailer.Receive(ctx, &ReceiveRequest{ProductId: 1})
			require.NoError(t, err)
			_, err = retailer.Transfer(ctx, &TransferRequest{ProductId: 1, Recipient: builders.CustomerAddress.Hex()})
			require.NoError(t, err)

			customer := harness.sessionAs(ctx, t, builders.CustomerAddress)
			_, err = customer.Transfer(ctx, &TransferRequest{ProductId: 1, Recipient: builders.RetailerAddress.Hex()})
			require.True(t, IsUnsupportedRole(err))

			_, err = customer.Receive(ctx, &ReceiveRequest{ProductId: 1})
			require.NoError(t, err)
			requireStage(t, customer, 1, protocol.STAGE_DELIVERED)

			history, err := customer.History(ctx, 1)
			require.NoError(t, err)
			require.Len(t, history, protocol.NUM_STAGES)
			require.Equal(t, "Delivered", history[len(history)-1].Label)
		})
	})
}

func TestSession_LedgerRejectionIsSurfacedVerbatim(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			harness := newHarness(h)
			harness.registerParticipants(ctx, t)

			manufacturer := harness.sessionAs(ctx, t, builders.ManufacturerAddress)
			_, err := manufacturer.RegisterProduct(ctx, &RegisterProductRequest{Name: "Widget", Description: "blue"})
			require.NoError(t, err)

			// a retailer is not a legal first hop
			_, err = manufacturer.Transfer(ctx, &TransferRequest{ProductId: 1, Recipient: builders.RetailerAddress.Hex()})
			rejected, ok := adapter.IsRejected(err)
			require.True(t, ok, "expected a rejection, got %v", err)
			require.Equal(t, "Recipient is not a registered Distributor", rejected.Reason)

			snapshot := manufacturer.Snapshot()
			require.False(t, snapshot.Busy)
			require.Equal(t, "transfer failed: Recipient is not a registered Distributor", snapshot.Notice.Message)
			requireStage(t, manufacturer, 1, protocol.STAGE_MANUFACTURED)
		})
	})
}

func TestSession_NonManufacturerCannotRegisterProducts(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			harness := newHarness(h)
			harness.registerParticipants(ctx, t)

			retailer := harness.sessionAs(ctx, t, builders.RetailerAddress)
			_, err := retailer.RegisterProduct(ctx, &RegisterProductRequest{Name: "Widget", Description: "blue"})
			rejected, ok := adapter.IsRejected(err)
			require.True(t, ok, "the ledger decides who registers products, got %v", err)
			require.Equal(t, "Only Manufacturer can perform this action", rejected.Reason)
			require.Equal(t, "register product failed: Only Manufacturer can perform this action", retailer.Snapshot().Notice.Message)
		})
	})
}

func TestSession_RoleGrantedAfterStartIsHonouredByLedger(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			harness := newHarness(h)
			early := harness.sessionAs(ctx, t, builders.ManufacturerAddress)
			require.Equal(t, protocol.ROLE_NONE, early.Snapshot().Role)

			harness.registerParticipants(ctx, t)

			_, err := early.RegisterProduct(ctx, &RegisterProductRequest{Name: "Widget", Description: "blue"})
			require.NoError(t, err, "a stale role must not refuse a write the ledger accepts")
			require.Len(t, early.Snapshot().Products, 1)
		})
	})
}

func TestSession_NonAdminRegisterUserIsRejectedByLedger(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			harness := newHarness(h)
			harness.registerParticipants(ctx, t)

			_, err := harness.sessionAs(ctx, t, builders.RetailerAddress).RegisterUser(ctx, &RegisterUserRequest{Address: builders.AddressForTests(42).Hex(), Role: "CUSTOMER", Name: "eve"})
			rejected, ok := adapter.IsRejected(err)
			require.True(t, ok, "expected the ledger's rejection, got %v", err)
			require.Equal(t, memory.REASON_NOT_ADMIN, rejected.Reason)
		})
	})
}

// completes the write, then behaves like a caller that went away before the confirmation arrived
type disconnectingWriter struct {
	adapter.LedgerConnection
	disconnect context.CancelFunc
	outcome    func(receipt *adapter.Receipt) error
}

func (c *disconnectingWriter) RegisterProduct(ctx context.Context, name string, description string) (*adapter.Receipt, error) {
	receipt, err := c.LedgerConnection.RegisterProduct(ctx, name, description)
	c.disconnect()
	if err != nil {
		return nil, err
	}
	if failure := c.outcome(receipt); failure != nil {
		return nil, failure
	}
	return receipt, nil
}

func (h *harness) disconnectingSession(ctx context.Context, t testing.TB, disconnect context.CancelFunc, outcome func(receipt *adapter.Receipt) error) *Session {
	connection := &disconnectingWriter{
		LedgerConnection: h.ledger.ConnectAs(builders.ManufacturerAddress),
		disconnect:       disconnect,
		outcome:          outcome,
	}
	s := NewSession(connection, config.ForTests(), h.h.Logger, metric.NewRegistry())
	_, err := s.Start(ctx)
	require.NoError(t, err)
	return s
}

func TestSession_ReloadsAfterWriteEvenIfCallerWentAway(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			harness := newHarness(h)
			harness.registerParticipants(ctx, t)

			callerCtx, disconnect := context.WithCancel(ctx)
			s := harness.disconnectingSession(ctx, t, disconnect, func(*adapter.Receipt) error { return nil })

			receipt, err := s.RegisterProduct(callerCtx, &RegisterProductRequest{Name: "Widget", Description: "blue"})
			require.NoError(t, err)
			require.NotNil(t, receipt)
			require.Error(t, callerCtx.Err())

			snapshot := s.Snapshot()
			require.Len(t, snapshot.Products, 1, "the reload must not use the caller's context")
			require.Equal(t, NOTICE_SUCCESS, snapshot.Notice.Level)
		})
	})
}

func TestSession_ReloadsAfterUnconfirmedWrite(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			harness := newHarness(h)
			harness.registerParticipants(ctx, t)

			callerCtx, disconnect := context.WithCancel(ctx)
			s := harness.disconnectingSession(ctx, t, disconnect, func(receipt *adapter.Receipt) error {
				return &adapter.UnconfirmedError{Method: "registerProduct", TxHash: receipt.TxHash, Err: context.DeadlineExceeded}
			})

			_, err := s.RegisterProduct(callerCtx, &RegisterProductRequest{Name: "Widget", Description: "blue"})
			_, unconfirmed := adapter.IsUnconfirmed(err)
			require.True(t, unconfirmed, "expected an unconfirmed write, got %v", err)

			snapshot := s.Snapshot()
			require.Len(t, snapshot.Products, 1, "a submitted write is followed by a reload")
			require.Equal(t, NOTICE_ERROR, snapshot.Notice.Level, "the failure notice survives the reload")
			require.Contains(t, snapshot.Notice.Message, "register product failed: gave up waiting")
			require.False(t, snapshot.Busy)
		})
	})
}

func TestSession_AdminRegisteringItselfIsResolvedAgain(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			admin := newHarness(h).sessionAs(ctx, t, builders.AdminAddress)

			_, err := admin.RegisterUser(ctx, &RegisterUserRequest{Address: builders.AdminAddress.Hex(), Role: "1", Name: "Admin"})
			require.NoError(t, err)

			snapshot := admin.Snapshot()
			require.Equal(t, protocol.ROLE_MANUFACTURER, snapshot.Role)
			require.True(t, snapshot.IsAdmin)
			require.Equal(t, "User registered successfully as Manufacturer!", snapshot.Notice.Message)
		})
	})
}

func TestSession_FailedFetchIsSkipped(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		h.AllowErrorsMatching("failed loading product, skipping it")
		test.WithContext(func(ctx context.Context) {
			harness := newHarness(h)
			harness.registerParticipants(ctx, t)
			manufacturer := harness.sessionAs(ctx, t, builders.ManufacturerAddress)
			for i := 0; i < 3; i++ {
				_, err := manufacturer.RegisterProduct(ctx, &RegisterProductRequest{Name: "Widget", Description: "blue"})
				require.NoError(t, err)
			}

			harness.ledger.FailProductFetch(2, errors.New("node unavailable"))
			snapshot, err := manufacturer.Reload(ctx)
			require.NoError(t, err)
			require.Len(t, snapshot.Products, 2)
			require.EqualValues(t, 1, snapshot.Products[0].Id)
			require.EqualValues(t, 3, snapshot.Products[1].Id)
			require.Equal(t, []uint64{2}, snapshot.LastLoad.Failed)
		})
	})
}

func TestSession_SubscribersSeeNewSnapshots(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			harness := newHarness(h)
			harness.registerParticipants(ctx, t)
			manufacturer := harness.sessionAs(ctx, t, builders.ManufacturerAddress)

			updates, unsubscribe := manufacturer.Subscribe(16)
			defer unsubscribe()

			_, err := manufacturer.RegisterProduct(ctx, &RegisterProductRequest{Name: "Widget", Description: "blue"})
			require.NoError(t, err)

			var last *Snapshot
			require.True(t, test.Eventually(func() bool {
				select {
				case last = <-updates:
				default:
				}
				return last != nil && len(last.Products) == 1
			}), "subscriber should eventually see the reloaded products")
		})
	})
}

func requireStage(t *testing.T, s *Session, id uint64, stage protocol.Stage) {
	product, found := s.Snapshot().Product(id)
	require.True(t, found, "product %d missing from snapshot", id)
	require.Equal(t, stage, product.Status, "product %d is %s", id, StatusLabel(int64(product.Status)))
}

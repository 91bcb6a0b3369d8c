// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package registry

import (
	"context"
	"github.com/orbs-network/go-mock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/test"
	"github.com/supplychain-dapp/supplychain-go/test/builders"
	"github.com/supplychain-dapp/supplychain-go/test/with"
	"strings"
	"testing"
	"time"
)

func ledgerWithProducts(count int, failing ...uint64) *adapter.MockLedgerConnection {
	ledger := &adapter.MockLedgerConnection{}
	ledger.When("GetProductCount", mock.Any).Return(uint64(count), nil)

	isFailing := make(map[uint64]bool)
	for _, id := range failing {
		isFailing[id] = true
	}

	for _, p := range builders.Products(count) {
		if isFailing[p.Id] {
			ledger.When("GetProduct", mock.Any, p.Id).Return(nil, errors.Errorf("product %d unavailable", p.Id))
		} else {
			ledger.When("GetProduct", mock.Any, p.Id).Return(p, nil)
		}
	}

	return ledger
}

func ids(products []*protocol.Product) []uint64 {
	result := make([]uint64, 0, len(products))
	for _, p := range products {
		result = append(result, p.Id)
	}
	return result
}

func TestLoadAll_SkipsFailedProductAndKeepsOrder(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		h.AllowErrorsMatching("failed loading product, skipping it")
		test.WithContext(func(ctx context.Context) {
			ledger := ledgerWithProducts(3, 2)
			vm := NewViewModel(ledger, LoadPolicy{}, h.Logger, metric.NewRegistry())

			products, report, err := vm.LoadAll(ctx)
			require.NoError(t, err)
			require.Equal(t, []uint64{1, 3}, ids(products))
			require.Equal(t, &LoadReport{Count: 3, Attempted: 3, Failed: []uint64{2}}, report)
		})
	})
}

func TestLoadAll_IssuesExactlyOneFetchPerProduct(t *testing.T) {
	for _, n := range []int{0, 1, 5, 17} {
		with.Logging(t, func(h *with.LoggingHarness) {
			test.WithContext(func(ctx context.Context) {
				ledger := &adapter.MockLedgerConnection{}
				ledger.When("GetProductCount", mock.Any).Return(uint64(n), nil).Times(1)
				for _, p := range builders.Products(n) {
					ledger.When("GetProduct", mock.Any, p.Id).Return(p, nil).Times(1)
				}
				ledger.Never("GetProduct", mock.Any, uint64(n+1))

				products, report, err := NewViewModel(ledger, LoadPolicy{}, h.Logger, metric.NewRegistry()).LoadAll(ctx)
				require.NoError(t, err)
				require.Len(t, products, n)
				require.EqualValues(t, n, report.Attempted)

				_, err = ledger.Verify()
				require.NoError(t, err, "with %d products", n)
			})
		})
	}
}

func TestLoadAll_IsIdempotentWithoutWrites(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			vm := NewViewModel(ledgerWithProducts(4), LoadPolicy{}, h.Logger, metric.NewRegistry())

			first, _, err := vm.LoadAll(ctx)
			require.NoError(t, err)
			second, _, err := vm.LoadAll(ctx)
			require.NoError(t, err)

			test.RequireCmpEqual(t, first, second)
		})
	})
}

func TestLoadAll_RespectsMaxProducts(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := ledgerWithProducts(10)
			ledger.Never("GetProduct", mock.Any, uint64(4))

			products, report, err := NewViewModel(ledger, LoadPolicy{MaxProducts: 3}, h.Logger, metric.NewRegistry()).LoadAll(ctx)
			require.NoError(t, err)
			require.Equal(t, []uint64{1, 2, 3}, ids(products))
			require.EqualValues(t, 10, report.Count)
			require.EqualValues(t, 3, report.Attempted)
		})
	})
}

func TestLoadAll_AbortPolicyStopsAtFirstFailure(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := ledgerWithProducts(5, 2)
			ledger.Never("GetProduct", mock.Any, uint64(3))

			products, report, err := NewViewModel(ledger, LoadPolicy{OnItemFailure: ABORT_ON_FAILED_ITEM}, h.Logger, metric.NewRegistry()).LoadAll(ctx)
			require.Error(t, err)
			require.Nil(t, products)
			require.Equal(t, []uint64{2}, report.Failed)
		})
	})
}

func TestLoadAll_CountFailureIsAnError(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}
			ledger.When("GetProductCount", mock.Any).Return(uint64(0), errors.New("node unavailable"))
			ledger.Never("GetProduct", mock.Any, mock.Any)

			_, _, err := NewViewModel(ledger, LoadPolicy{}, h.Logger, metric.NewRegistry()).LoadAll(ctx)
			require.Error(t, err)
		})
	})
}

func TestHistory_FormatsEveryEntry(t *testing.T) {
	with.Logging(t, func(h *with.LoggingHarness) {
		test.WithContext(func(ctx context.Context) {
			ledger := &adapter.MockLedgerConnection{}
			ledger.When("GetProductHistory", mock.Any, uint64(7)).Return(builders.HistoryUpTo(protocol.STAGE_WITH_DISTRIBUTOR, builders.ManufacturerAddress), nil)

			entries, err := NewViewModel(ledger, LoadPolicy{}, h.Logger, metric.NewRegistry()).History(ctx, 7)
			require.NoError(t, err)
			require.Len(t, entries, 3)
			require.Equal(t, 1, entries[0].Index)
			require.Equal(t, "In Transit to Distributor", entries[1].Label)
			require.Equal(t, time.Unix(int64(builders.DEFAULT_TEST_TIMESTAMP)+120, 0).UTC(), entries[2].Time)

			text := FormatHistory(7, entries)
			require.True(t, strings.HasPrefix(text, "Product #7 History:\n\n"))
			require.Contains(t, text, "1. Manufactured\n")
			require.Contains(t, text, "3. With Distributor\n")
			require.Contains(t, text, "   Owner: "+builders.ManufacturerAddress.Hex()+"\n")
			require.Contains(t, text, "   Time: 2023-11-14 22:13:20 UTC\n")
		})
	})
}

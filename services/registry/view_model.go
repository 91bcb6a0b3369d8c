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
	"strings"
	"time"
)

const HISTORY_TIME_LAYOUT = "2006-01-02 15:04:05 MST"

type ItemFailurePolicy int

const (
	SKIP_FAILED_ITEMS ItemFailurePolicy = iota
	ABORT_ON_FAILED_ITEM
)

func (p ItemFailurePolicy) String() string {
	if p == ABORT_ON_FAILED_ITEM {
		return "abort"
	}
	return "skip"
}

// LoadPolicy bounds LoadAll, MaxProducts 0 means every product the ledger counts
type LoadPolicy struct {
	MaxProducts   uint64
	OnItemFailure ItemFailurePolicy
}

type loadPolicyConfig interface {
	RegistryLoadMaxProducts() uint32
	RegistryLoadAbortOnFailure() bool
}

func LoadPolicyFromConfig(cfg loadPolicyConfig) LoadPolicy {
	policy := LoadPolicy{MaxProducts: uint64(cfg.RegistryLoadMaxProducts())}
	if cfg.RegistryLoadAbortOnFailure() {
		policy.OnItemFailure = ABORT_ON_FAILED_ITEM
	}
	return policy
}

type LoadReport struct {
	Count     uint64   `json:"count"`
	Attempted uint64   `json:"attempted"`
	Failed    []uint64 `json:"failed"`
}

type FormattedHistoryEntry struct {
	Index     int            `json:"index"`
	Status    protocol.Stage `json:"status"`
	Label     string         `json:"label"`
	Owner     common.Address `json:"owner"`
	Timestamp uint64         `json:"timestamp"`
	Time      time.Time      `json:"time"`
}

type viewModelMetrics struct {
	loadTime       *metric.Histogram
	productCount   *metric.Gauge
	failedFetches  *metric.Gauge
	lastLoadFailed *metric.Gauge
}

// ViewModel is a read-through view of the registry: nothing it returns outlives the next write
type ViewModel struct {
	reader  adapter.LedgerReader
	policy  LoadPolicy
	logger  log.Logger
	metrics *viewModelMetrics
}

func NewViewModel(reader adapter.LedgerReader, policy LoadPolicy, logger log.Logger, metricFactory metric.Factory) *ViewModel {
	return &ViewModel{
		reader: reader,
		policy: policy,
		logger: logger,
		metrics: &viewModelMetrics{
			loadTime:       metricFactory.NewLatency("Registry.LoadAll.Duration.Millis", 10*time.Minute),
			productCount:   metricFactory.NewGauge("Registry.Products.Count"),
			failedFetches:  metricFactory.NewGauge("Registry.LoadAll.FailedFetches.Count"),
			lastLoadFailed: metricFactory.NewGauge("Registry.LoadAll.LastFailed"),
		},
	}
}

func (vm *ViewModel) Policy() LoadPolicy {
	return vm.policy
}

// LoadAll fetches ids 1..count one at a time, in ascending order
func (vm *ViewModel) LoadAll(ctx context.Context) ([]*protocol.Product, *LoadReport, error) {
	start := time.Now()
	defer vm.metrics.loadTime.RecordSince(start)

	count, err := vm.reader.GetProductCount(ctx)
	if err != nil {
		vm.metrics.lastLoadFailed.Update(1)
		return nil, nil, errors.Wrap(err, "failed reading product count")
	}

	upTo := count
	if vm.policy.MaxProducts > 0 && upTo > vm.policy.MaxProducts {
		upTo = vm.policy.MaxProducts
	}

	report := &LoadReport{Count: count}
	products := make([]*protocol.Product, 0, upTo)
	for id := uint64(1); id <= upTo; id++ {
		report.Attempted++
		product, err := vm.reader.GetProduct(ctx, id)
		if err != nil {
			report.Failed = append(report.Failed, id)
			vm.metrics.failedFetches.Inc()
			if vm.policy.OnItemFailure == ABORT_ON_FAILED_ITEM {
				vm.metrics.lastLoadFailed.Update(1)
				return nil, report, errors.Wrapf(err, "failed loading product %d", id)
			}
			vm.logger.Error("failed loading product, skipping it", logfields.ProductId(id), log.Error(err))
			continue
		}
		products = append(products, product)
	}

	vm.metrics.productCount.UpdateUint64(uint64(len(products)))
	vm.metrics.lastLoadFailed.Update(0)

	return products, report, nil
}

func (vm *ViewModel) History(ctx context.Context, id uint64) ([]*FormattedHistoryEntry, error) {
	entries, err := vm.reader.GetProductHistory(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed reading history of product %d", id)
	}

	formatted := make([]*FormattedHistoryEntry, len(entries))
	for i, entry := range entries {
		formatted[i] = &FormattedHistoryEntry{
			Index:     i + 1,
			Status:    entry.Status,
			Label:     StatusLabel(int64(entry.Status)),
			Owner:     entry.Owner,
			Timestamp: entry.Timestamp,
			Time:      entry.Time(),
		}
	}

	return formatted, nil
}

func FormatHistory(id uint64, entries []*FormattedHistoryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product #%d History:\n\n", id)
	for _, entry := range entries {
		fmt.Fprintf(&b, "%d. %s\n", entry.Index, entry.Label)
		fmt.Fprintf(&b, "   Owner: %s\n", entry.Owner.Hex())
		fmt.Fprintf(&b, "   Time: %s\n\n", entry.Time.Format(HISTORY_TIME_LAYOUT))
	}
	return b.String()
}

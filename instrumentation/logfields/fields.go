// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package logfields

import (
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/protocol"
)

// rows carrying this tag survive the errors-only filter
const LedgerLogTag = "ledger-write"

func LedgerWrite() *log.Field {
	return log.String("flow", LedgerLogTag)
}

func Identity(address common.Address) *log.Field {
	return log.String("identity", address.Hex())
}

func Address(key string, address common.Address) *log.Field {
	return log.String(key, address.Hex())
}

func ContractAddress(address common.Address) *log.Field {
	return log.String("contract-address", address.Hex())
}

func ProductId(id uint64) *log.Field {
	return log.Uint64("product-id", id)
}

func TxHash(hash common.Hash) *log.Field {
	return log.String("tx-hash", hash.Hex())
}

func BlockNumber(number uint64) *log.Field {
	return log.Uint64("block-number", number)
}

func Role(role protocol.Role) *log.Field {
	return log.Stringable("role", role)
}

func Method(name string) *log.Field {
	return log.String("method", name)
}

func ContextStringValue(ctx context.Context, key string) *log.Field {
	val := "not-found-in-context"
	if v := ctx.Value(key); v != nil {
		if vString, ok := v.(string); ok {
			val = vString
		} else {
			val = "found-in-context-but-not-string"
		}
	}
	return log.String(key, val)
}

type Errorer interface {
	Error(message string, fields ...*log.Field)
}

type govnrErrorer struct {
	logger Errorer
}

func (h *govnrErrorer) Error(err error) {
	h.logger.Error("recovered panic", log.Error(err), log.String("panic", "true"))
}

func GovnrErrorer(logger Errorer) *govnrErrorer {
	return &govnrErrorer{logger: logger}
}

// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package builders

import (
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/supplychain-dapp/supplychain-go/protocol"
)

const DEFAULT_TEST_TIMESTAMP = uint64(1700000000)

// protocol.Product

type product struct {
	p protocol.Product
}

func Product() *product {
	return &product{
		p: protocol.Product{
			Id:           1,
			Name:         "Widget",
			Description:  "a test widget",
			CurrentOwner: ManufacturerAddress,
			Status:       protocol.STAGE_MANUFACTURED,
			Timestamp:    DEFAULT_TEST_TIMESTAMP,
		},
	}
}

func (b *product) WithId(id uint64) *product {
	b.p.Id = id
	b.p.Name = fmt.Sprintf("Widget %d", id)
	return b
}

func (b *product) WithOwner(owner common.Address) *product {
	b.p.CurrentOwner = owner
	return b
}

func (b *product) WithStatus(status protocol.Stage) *product {
	b.p.Status = status
	return b
}

func (b *product) Build() *protocol.Product {
	built := b.p
	return &built
}

// ids 1..n in ascending order
func Products(n int) []*protocol.Product {
	products := make([]*protocol.Product, 0, n)
	for i := 1; i <= n; i++ {
		products = append(products, Product().WithId(uint64(i)).Build())
	}
	return products
}

// one entry per stage reached, timestamps a minute apart
func HistoryUpTo(stage protocol.Stage, owner common.Address) []*protocol.HistoryEntry {
	history := make([]*protocol.HistoryEntry, 0, int(stage)+1)
	for s := protocol.STAGE_MANUFACTURED; s <= stage; s++ {
		history = append(history, &protocol.HistoryEntry{
			Status:    s,
			Owner:     owner,
			Timestamp: DEFAULT_TEST_TIMESTAMP + 60*uint64(s),
		})
	}
	return history
}

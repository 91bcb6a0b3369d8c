// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package registry

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
)

type NoticeLevel string

const (
	NOTICE_INFO    NoticeLevel = "info"
	NOTICE_SUCCESS NoticeLevel = "success"
	NOTICE_ERROR   NoticeLevel = "error"
	NOTICE_BLOCKED NoticeLevel = "blocked"
)

type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Snapshot is never mutated once published, Reduce always builds a new one
type Snapshot struct {
	Version   uint64             `json:"version"`
	Connected bool               `json:"connected"`
	Identity  *common.Address    `json:"identity,omitempty"`
	Role      protocol.Role      `json:"role"`
	IsAdmin   bool               `json:"isAdmin"`
	Products  []protocol.Product `json:"products"`
	LastLoad  *LoadReport        `json:"lastLoad,omitempty"`
	Busy      bool               `json:"busy"`
	Action    string             `json:"action,omitempty"`
	Notice    *Notice            `json:"notice,omitempty"`
}

func (s *Snapshot) ReadOnly() bool {
	return s.Identity == nil
}

func (s *Snapshot) Product(id uint64) (protocol.Product, bool) {
	for _, p := range s.Products {
		if p.Id == id {
			return p, true
		}
	}
	return protocol.Product{}, false
}

type Event interface {
	apply(next *Snapshot)
}

type Connected struct {
	Identity *common.Address
}

type RoleResolved struct {
	Resolution RoleResolution
}

type ProductsLoaded struct {
	Products []*protocol.Product
	Report   *LoadReport
}

type ActionStarted struct {
	Action string
}

type ActionSucceeded struct {
	Action  string
	Message string
	Receipt *adapter.Receipt
}

type ActionFailed struct {
	Action string
	Err    error
}

type NoticeRaised struct {
	Notice Notice
}

func (e Connected) apply(next *Snapshot) {
	next.Connected = true
	next.Identity = nil
	if e.Identity != nil {
		identity := *e.Identity
		next.Identity = &identity
		return
	}
	next.Role = protocol.ROLE_NONE
	next.IsAdmin = false
	next.Notice = &Notice{Level: NOTICE_BLOCKED, Message: adapter.ErrNoSigner.Error()}
}

func (e RoleResolved) apply(next *Snapshot) {
	next.Role = e.Resolution.Role
	next.IsAdmin = e.Resolution.IsAdmin
}

func (e ProductsLoaded) apply(next *Snapshot) {
	products := make([]protocol.Product, 0, len(e.Products))
	for _, p := range e.Products {
		products = append(products, *p)
	}
	next.Products = products
	next.LastLoad = e.Report
}

func (e ActionStarted) apply(next *Snapshot) {
	next.Busy = true
	next.Action = e.Action
	next.Notice = nil
}

func (e ActionSucceeded) apply(next *Snapshot) {
	next.Busy = false
	next.Action = ""
	next.Notice = &Notice{Level: NOTICE_SUCCESS, Message: e.Message}
}

func (e ActionFailed) apply(next *Snapshot) {
	next.Busy = false
	next.Action = ""
	level := NOTICE_ERROR
	if adapter.IsNoSigner(e.Err) {
		level = NOTICE_BLOCKED
	}
	next.Notice = &Notice{Level: level, Message: e.Action + " failed: " + userMessage(e.Err)}
}

func (e NoticeRaised) apply(next *Snapshot) {
	notice := e.Notice
	next.Notice = &notice
}

// Reduce is pure: the current snapshot is left untouched
func Reduce(current *Snapshot, event Event) *Snapshot {
	next := &Snapshot{}
	if current != nil {
		*next = *current
	}
	next.Version++
	event.apply(next)
	return next
}

// the ledger's own words for rejections, the error text otherwise
func userMessage(err error) string {
	if rejected, ok := adapter.IsRejected(err); ok {
		return rejected.Reason
	}
	if validationError, ok := IsValidationError(err); ok {
		return validationError.Error()
	}
	return err.Error()
}

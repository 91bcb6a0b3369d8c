// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

// Package protocol holds the value types exchanged with the supply-chain contract.
package protocol

import (
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"strconv"
	"strings"
	"time"
)

// Role is the permission class of a participant, numbered as the contract enum.
type Role uint8

const (
	ROLE_NONE Role = iota
	ROLE_MANUFACTURER
	ROLE_DISTRIBUTOR
	ROLE_RETAILER
	ROLE_CUSTOMER
)

var roleNames = []string{"NONE", "MANUFACTURER", "DISTRIBUTOR", "RETAILER", "CUSTOMER"}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("ROLE(%d)", uint8(r))
}

// Title is the display form used in registration notices ("Manufacturer").
func (r Role) Title() string {
	if r == ROLE_NONE || int(r) >= len(roleNames) {
		return ""
	}
	name := roleNames[r]
	return name[:1] + strings.ToLower(name[1:])
}

// Registrable reports whether an admin may assign this role.
func (r Role) Registrable() bool {
	return r >= ROLE_MANUFACTURER && r <= ROLE_CUSTOMER
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// ParseRole accepts the numeric contract value or the role name in any case.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		if int(n) >= len(roleNames) {
			return ROLE_NONE, errors.Errorf("unknown role value %d", n)
		}
		return Role(n), nil
	}

	for i, name := range roleNames {
		if strings.EqualFold(name, s) {
			return Role(i), nil
		}
	}

	return ROLE_NONE, errors.Errorf("unknown role %q", s)
}

// Stage is the lifecycle status of a product as stored by the contract.
type Stage uint8

const (
	STAGE_MANUFACTURED Stage = iota
	STAGE_IN_TRANSIT_TO_DISTRIBUTOR
	STAGE_WITH_DISTRIBUTOR
	STAGE_IN_TRANSIT_TO_RETAILER
	STAGE_WITH_RETAILER
	STAGE_IN_TRANSIT_TO_CUSTOMER
	STAGE_DELIVERED
)

const NUM_STAGES = 7

type User struct {
	Address      common.Address `json:"address"`
	Role         Role           `json:"role"`
	Name         string         `json:"name"`
	IsRegistered bool           `json:"isRegistered"`
}

type Product struct {
	Id           uint64         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	CurrentOwner common.Address `json:"currentOwner"`
	Status       Stage          `json:"status"`
	Timestamp    uint64         `json:"timestamp"`
}

func (p *Product) Time() time.Time {
	return time.Unix(int64(p.Timestamp), 0).UTC()
}

type HistoryEntry struct {
	Status    Stage          `json:"status"`
	Owner     common.Address `json:"owner"`
	Timestamp uint64         `json:"timestamp"`
}

func (h *HistoryEntry) Time() time.Time {
	return time.Unix(int64(h.Timestamp), 0).UTC()
}

// ShortAddress renders an address the way the dapp did: 0x1234...abcd.
func ShortAddress(address common.Address) string {
	hex := address.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}

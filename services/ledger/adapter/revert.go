// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"bytes"
	"github.com/ethereum/go-ethereum/common"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/contract"
	"strings"
)

const executionReverted = "execution reverted"

// newer nodes attach the revert payload to the rpc error
type dataError interface {
	ErrorData() interface{}
}

func isRevertPayload(output []byte) bool {
	return len(output) >= 4+32+32 && len(output)%32 == 4 && bytes.Equal(output[:4], contract.RevertSelector)
}

// decodes Error(string) payloads, ok is false for anything else
func unpackRevertReason(output []byte) (reason string, ok bool) {
	if !isRevertPayload(output) {
		return "", false
	}

	if err := contract.RevertReasonABI().Unpack(&reason, "Error", output[4:]); err != nil {
		return "", false
	}

	return reason, true
}

// reason from an rpc error, falling back to the node's text
func reasonFromError(err error) string {
	if de, ok := err.(dataError); ok {
		if hexData, ok := de.ErrorData().(string); ok {
			if reason, ok := unpackRevertReason(common.FromHex(hexData)); ok {
				return reason
			}
		}
	}

	message := err.Error()
	if idx := strings.Index(message, executionReverted); idx >= 0 {
		if reason := strings.TrimSpace(strings.TrimPrefix(message[idx+len(executionReverted):], ":")); reason != "" {
			return reason
		}
	}

	return message
}

func isRevertError(err error) bool {
	if _, ok := err.(dataError); ok {
		return true
	}
	return strings.Contains(err.Error(), executionReverted)
}

// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package test

import "time"

const EVENTUALLY_TIMEOUT = 2 * time.Second
const POLL_INTERVAL = 5 * time.Millisecond

// Eventually polls f until it holds or EVENTUALLY_TIMEOUT passes
func Eventually(f func() bool) bool {
	deadline := time.Now().Add(EVENTUALLY_TIMEOUT)
	for {
		if f() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(POLL_INTERVAL)
	}
}

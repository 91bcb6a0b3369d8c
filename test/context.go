// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package test

import (
	"context"
	"time"
)

// no test should wait on the ledger for longer than this
const DEFAULT_TEST_TIMEOUT = 30 * time.Second

func WithContext(f func(ctx context.Context)) {
	WithContextWithTimeout(DEFAULT_TEST_TIMEOUT, f)
}

func WithContextWithTimeout(d time.Duration, f func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	f(ctx)
}

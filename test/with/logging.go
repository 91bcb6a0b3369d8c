// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package with

import (
	"github.com/orbs-network/scribe/log"
	"testing"
)

// LoggingHarness fails the test on any error row that was not explicitly allowed
type LoggingHarness struct {
	Logger log.Logger
	output *log.TestOutput
}

// AllowErrorsMatching whitelists error rows such as expected ledger rejections
func (h *LoggingHarness) AllowErrorsMatching(patterns ...string) {
	for _, pattern := range patterns {
		h.output.AllowErrorsMatching(pattern)
	}
}

func Logging(tb testing.TB, f func(harness *LoggingHarness)) {
	output := log.NewTestOutput(tb, log.NewHumanReadableFormatter())
	defer output.TestTerminated()

	h := &LoggingHarness{
		Logger: log.GetLogger().WithOutput(output).WithTags(log.String("test", tb.Name())),
		output: output,
	}
	f(h)

	if output.HasErrors() {
		tb.Fatal("test logged errors that were not allowed")
	}
}

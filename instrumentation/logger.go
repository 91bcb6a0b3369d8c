// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package instrumentation

import (
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/config"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/logfields"
	"io"
	"os"
)

func GetBootstrapCrashLogger() log.Logger {
	path := "./supplychain-bootstrap.log"

	logFile, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		panic(err)
	}

	fileWriter := log.NewTruncatingFileWriter(logFile)
	outputs := []log.Output{
		log.NewFormattingOutput(fileWriter, log.NewHumanReadableFormatter()),
		log.NewFormattingOutput(os.Stderr, log.NewHumanReadableFormatter()),
	}

	return log.GetLogger().WithOutput(outputs...)
}

// node logger: json to stdout unless silent, plus an optional truncating log file
func GetLogger(path string, silent bool, cfg config.LoggerConfig) log.Logger {
	outputs := make([]log.Output, 0, 2)

	if !silent {
		outputs = append(outputs, log.NewFormattingOutput(os.Stdout, log.NewJsonFormatter()))
	}

	if path != "" {
		logFile, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			panic(err)
		}

		fileWriter := log.NewTruncatingFileWriter(logFile, cfg.LoggerFileTruncationInterval())
		outputs = append(outputs, log.NewFormattingOutput(fileWriter, log.NewJsonFormatter()))
	}

	logger := log.GetLogger().WithOutput(outputs...)

	return logger.WithFilters(levelFilter(cfg))
}

// one-shot commands log human readable rows to stderr so stdout stays clean for command output
func GetCommandLogger(w io.Writer, cfg config.LoggerConfig) log.Logger {
	return log.GetLogger().
		WithOutput(log.NewFormattingOutput(w, log.NewHumanReadableFormatter())).
		WithFilters(levelFilter(cfg))
}

func levelFilter(cfg config.LoggerConfig) log.Filter {
	if cfg.LoggerFullLog() {
		return log.NewConditionalFilter(false, nil)
	}

	return log.NewConditionalFilter(true, log.Or(log.OnlyErrors(), log.MatchField(logfields.LedgerWrite())))
}

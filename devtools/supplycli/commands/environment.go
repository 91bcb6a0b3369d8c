// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package commands

import (
	"context"
	"flag"
	"fmt"
	"github.com/fatih/color"
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/bootstrap"
	"github.com/supplychain-dapp/supplychain-go/config"
	"github.com/supplychain-dapp/supplychain-go/instrumentation"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/services/registry"
	"io"
	"os"
)

const (
	EXIT_OK        = 0
	EXIT_ERROR     = 1
	EXIT_USAGE     = 2
	EXIT_NO_WALLET = 3
)

// Environment is where a command reads secrets from and writes to
type Environment struct {
	Out    io.Writer
	Err    io.Writer
	Prompt adapter.PassphrasePrompt
}

func StdEnvironment() *Environment {
	return &Environment{
		Out:    os.Stdout,
		Err:    os.Stderr,
		Prompt: bootstrap.DefaultPrompt(),
	}
}

type commonFlags struct {
	configFiles config.FilesPaths
	dev         *bool
	fullLog     *bool
}

func newFlagSet(name string, env *Environment) (*flag.FlagSet, *commonFlags) {
	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(env.Err)

	common := &commonFlags{}
	flagSet.Var(&common.configFiles, "config", "path/to/config.json, may be repeated")
	common.dev = flagSet.Bool("dev", false, "use a fresh in-memory ledger")
	common.fullLog = flagSet.Bool("full-log", false, "log every row instead of errors and ledger writes only")

	return flagSet, common
}

func (f *commonFlags) clientConfig() (config.ClientConfig, error) {
	base := config.ForProduction()
	if *f.dev {
		base = config.ForInMemoryLedger()
	}

	cfg, err := config.GetClientConfigFromFiles(base, f.configFiles)
	if err != nil {
		return nil, err
	}

	if *f.fullLog {
		cfg.SetBool(config.LOGGER_FULL_LOG, true)
	}

	return cfg, nil
}

// command is a started session on the configured ledger
type command struct {
	env     *Environment
	cfg     config.ClientConfig
	logger  log.Logger
	ledger  *bootstrap.Ledger
	session *registry.Session
}

func (c *command) close() {
	c.ledger.Close()
}

func connect(ctx context.Context, env *Environment, flags *commonFlags) (*command, int) {
	cfg, err := flags.clientConfig()
	if err != nil {
		printError(env.Err, "could not read configuration: %s", err)
		return nil, EXIT_USAGE
	}

	logger := instrumentation.GetCommandLogger(env.Err, cfg)
	if err := config.NewValidator(logger).Validate(cfg); err != nil {
		return nil, EXIT_USAGE
	}

	metricRegistry := metric.NewRegistry()
	ledger, err := bootstrap.ConnectLedger(ctx, cfg, logger, metricRegistry, env.Prompt)
	if err != nil {
		printError(env.Err, "could not connect to ledger: %s", err)
		return nil, EXIT_ERROR
	}

	session := registry.NewSession(ledger.Connection, cfg, logger, metricRegistry)
	snapshot, err := session.Start(ctx)
	if err != nil {
		printNotice(env.Out, snapshot.Notice)
		printError(env.Err, "could not start session: %s", err)
		ledger.Close()
		return nil, EXIT_ERROR
	}

	return &command{env: env, cfg: cfg, logger: logger, ledger: ledger, session: session}, EXIT_OK
}

var noticeColors = map[registry.NoticeLevel]color.Attribute{
	registry.NOTICE_SUCCESS: color.FgGreen,
	registry.NOTICE_ERROR:   color.FgRed,
	registry.NOTICE_BLOCKED: color.FgYellow,
	registry.NOTICE_INFO:    color.FgCyan,
}

func printNotice(out io.Writer, notice *registry.Notice) {
	if notice == nil {
		return
	}
	attribute, found := noticeColors[notice.Level]
	if !found {
		attribute = color.Reset
	}
	color.New(attribute).Fprintln(out, notice.Message)
}

func printError(out io.Writer, format string, args ...interface{}) {
	color.New(color.FgRed).Fprintln(out, fmt.Sprintf(format, args...))
}

func printBlocked(out io.Writer, message string) {
	color.New(color.FgYellow).Fprintln(out, message)
}

// exitCodeFor maps a session error to the process exit code
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return EXIT_OK
	case adapter.IsNoSigner(err):
		return EXIT_NO_WALLET
	}
	if _, ok := registry.IsValidationError(err); ok {
		return EXIT_USAGE
	}
	return EXIT_ERROR
}

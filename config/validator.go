package config

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"reflect"
	"runtime"
	"strings"
	"time"
)

type validator struct {
	logger log.Logger
}

func NewValidator(logger log.Logger) *validator {
	return &validator{logger: logger}
}

func (v *validator) Validate(cfg ClientConfig) error {
	if !cfg.LedgerInMemory() && cfg.LedgerEndpoint() == "" {
		return v.fail("ledger endpoint is required unless the in-memory ledger is enabled", log.String("key", LEDGER_ENDPOINT))
	}

	if address := cfg.LedgerContractAddress(); address != "" && !common.IsHexAddress(address) {
		return v.fail("contract address is not a valid hex address", log.String("contract-address", address))
	}

	if cfg.SignerPrivateKey() != "" && cfg.SignerKeystorePath() != "" {
		return v.fail("configure either a signer private key or a keystore, not both")
	}

	if err := v.requireGTE(cfg.LedgerStatusReportInterval, cfg.LedgerConfirmationTimeout, "status report interval must not be shorter than the confirmation timeout"); err != nil {
		return err
	}

	if err := v.requireGTE(cfg.MetricsReportInterval, cfg.LedgerStatusReportInterval, "metrics report interval must not be shorter than the status report interval"); err != nil {
		return err
	}

	return nil
}

// zero on either side means the feature is off
func (v *validator) requireGTE(d1 func() time.Duration, d2 func() time.Duration, msg string) error {
	if d1() == 0 || d2() == 0 {
		return nil
	}

	if d1() < d2() {
		return v.fail(msg, log.Stringable(funcName(d1), d1()), log.Stringable(funcName(d2), d2()))
	}

	return nil
}

func (v *validator) fail(msg string, fields ...*log.Field) error {
	v.logger.Error(msg, fields...)
	return errors.New(msg)
}

func funcName(i interface{}) string {
	fullName := runtime.FuncForPC(reflect.ValueOf(i).Pointer()).Name()
	lastDot := strings.LastIndex(fullName, ".")
	return strings.TrimSuffix(fullName[lastDot+1:], "-fm")
}

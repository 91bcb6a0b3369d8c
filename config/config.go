// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package config

import (
	"time"
)

type ClientConfig interface {
	// ledger
	LedgerEndpoint() string
	LedgerChainId() uint32
	LedgerNetworkName() string
	LedgerContractAddress() string
	LedgerDeploymentDescriptorPath() string
	LedgerInMemory() bool
	LedgerReadRateLimit() uint32
	LedgerConfirmationTimeout() time.Duration
	LedgerGasLimit() uint32
	LedgerStatusReportInterval() time.Duration

	// signer
	SignerKeystorePath() string
	SignerKeystorePassphrase() string
	SignerPrivateKey() string

	// registry
	RegistryLoadMaxProducts() uint32
	RegistryLoadAbortOnFailure() bool

	// deploy
	DeployConfirmations() uint32
	DeployArtifactPath() string

	// http
	HttpAddress() string
	HttpMaxConnections() uint32

	// instrumentation
	MetricsReportInterval() time.Duration
	NtpServerAddress() string
	LoggerFullLog() bool
	LoggerFileTruncationInterval() time.Duration
	Profiling() bool
}

type mutableClientConfig interface {
	ClientConfig
	Set(key string, value ClientConfigValue) mutableClientConfig
	SetDuration(key string, value time.Duration) mutableClientConfig
	SetUint32(key string, value uint32) mutableClientConfig
	SetString(key string, value string) mutableClientConfig
	SetBool(key string, value bool) mutableClientConfig
	Modify(newValues ...ClientConfigKeyValue)
	Clone() mutableClientConfig
}

type LedgerConfig interface {
	LedgerEndpoint() string
	LedgerChainId() uint32
	LedgerNetworkName() string
	LedgerContractAddress() string
	LedgerDeploymentDescriptorPath() string
	LedgerInMemory() bool
	LedgerReadRateLimit() uint32
	LedgerConfirmationTimeout() time.Duration
	LedgerGasLimit() uint32
	SignerKeystorePath() string
	SignerKeystorePassphrase() string
	SignerPrivateKey() string
}

type RegistryConfig interface {
	RegistryLoadMaxProducts() uint32
	RegistryLoadAbortOnFailure() bool
}

type HttpServerConfig interface {
	HttpAddress() string
	HttpMaxConnections() uint32
	Profiling() bool
}

type LoggerConfig interface {
	LoggerFullLog() bool
	LoggerFileTruncationInterval() time.Duration
}

type ClientConfigKeyValue struct {
	Key   string
	Value ClientConfigValue
}

type ClientConfigValue struct {
	Uint32Value   uint32
	DurationValue time.Duration
	StringValue   string
	BoolValue     bool
}

const (
	LEDGER_ENDPOINT                   = "LEDGER_ENDPOINT"
	LEDGER_CHAIN_ID                   = "LEDGER_CHAIN_ID"
	LEDGER_NETWORK_NAME               = "LEDGER_NETWORK_NAME"
	LEDGER_CONTRACT_ADDRESS           = "LEDGER_CONTRACT_ADDRESS"
	LEDGER_DEPLOYMENT_DESCRIPTOR_PATH = "LEDGER_DEPLOYMENT_DESCRIPTOR_PATH"
	LEDGER_IN_MEMORY                  = "LEDGER_IN_MEMORY"
	LEDGER_READ_RATE_LIMIT            = "LEDGER_READ_RATE_LIMIT"
	LEDGER_CONFIRMATION_TIMEOUT       = "LEDGER_CONFIRMATION_TIMEOUT"
	LEDGER_GAS_LIMIT                  = "LEDGER_GAS_LIMIT"
	LEDGER_STATUS_REPORT_INTERVAL     = "LEDGER_STATUS_REPORT_INTERVAL"

	SIGNER_KEYSTORE_PATH       = "SIGNER_KEYSTORE_PATH"
	SIGNER_KEYSTORE_PASSPHRASE = "SIGNER_KEYSTORE_PASSPHRASE"
	SIGNER_PRIVATE_KEY         = "SIGNER_PRIVATE_KEY"

	REGISTRY_LOAD_MAX_PRODUCTS     = "REGISTRY_LOAD_MAX_PRODUCTS"
	REGISTRY_LOAD_ABORT_ON_FAILURE = "REGISTRY_LOAD_ABORT_ON_FAILURE"

	DEPLOY_CONFIRMATIONS = "DEPLOY_CONFIRMATIONS"
	DEPLOY_ARTIFACT_PATH = "DEPLOY_ARTIFACT_PATH"

	HTTP_ADDRESS         = "HTTP_ADDRESS"
	HTTP_MAX_CONNECTIONS = "HTTP_MAX_CONNECTIONS"

	METRICS_REPORT_INTERVAL         = "METRICS_REPORT_INTERVAL"
	NTP_SERVER_ADDRESS              = "NTP_SERVER_ADDRESS"
	LOGGER_FULL_LOG                 = "LOGGER_FULL_LOG"
	LOGGER_FILE_TRUNCATION_INTERVAL = "LOGGER_FILE_TRUNCATION_INTERVAL"
	PROFILING                       = "PROFILING"
)

// values of these keys are never interpreted as durations or numbers
var stringKeys = map[string]bool{
	LEDGER_ENDPOINT:                   true,
	LEDGER_NETWORK_NAME:               true,
	LEDGER_CONTRACT_ADDRESS:           true,
	LEDGER_DEPLOYMENT_DESCRIPTOR_PATH: true,
	SIGNER_KEYSTORE_PATH:              true,
	SIGNER_KEYSTORE_PASSPHRASE:        true,
	SIGNER_PRIVATE_KEY:                true,
	DEPLOY_ARTIFACT_PATH:              true,
	HTTP_ADDRESS:                      true,
	NTP_SERVER_ADDRESS:                true,
}

type config struct {
	kv map[string]ClientConfigValue
}

func emptyConfig() mutableClientConfig {
	return &config{
		kv: make(map[string]ClientConfigValue),
	}
}

func EmptyConfig() mutableClientConfig {
	return emptyConfig()
}

func (c *config) Set(key string, value ClientConfigValue) mutableClientConfig {
	c.kv[key] = value
	return c
}

func (c *config) SetDuration(key string, value time.Duration) mutableClientConfig {
	c.kv[key] = ClientConfigValue{DurationValue: value}
	return c
}

func (c *config) SetUint32(key string, value uint32) mutableClientConfig {
	c.kv[key] = ClientConfigValue{Uint32Value: value}
	return c
}

func (c *config) SetString(key string, value string) mutableClientConfig {
	c.kv[key] = ClientConfigValue{StringValue: value}
	return c
}

func (c *config) SetBool(key string, value bool) mutableClientConfig {
	c.kv[key] = ClientConfigValue{BoolValue: value}
	return c
}

func (c *config) Clone() mutableClientConfig {
	cloned := &config{kv: make(map[string]ClientConfigValue, len(c.kv))}
	for key, value := range c.kv {
		cloned.kv[key] = value
	}
	return cloned
}

func (c *config) LedgerEndpoint() string {
	return c.kv[LEDGER_ENDPOINT].StringValue
}

func (c *config) LedgerChainId() uint32 {
	return c.kv[LEDGER_CHAIN_ID].Uint32Value
}

func (c *config) LedgerNetworkName() string {
	return c.kv[LEDGER_NETWORK_NAME].StringValue
}

func (c *config) LedgerContractAddress() string {
	return c.kv[LEDGER_CONTRACT_ADDRESS].StringValue
}

func (c *config) LedgerDeploymentDescriptorPath() string {
	return c.kv[LEDGER_DEPLOYMENT_DESCRIPTOR_PATH].StringValue
}

func (c *config) LedgerInMemory() bool {
	return c.kv[LEDGER_IN_MEMORY].BoolValue
}

func (c *config) LedgerReadRateLimit() uint32 {
	return c.kv[LEDGER_READ_RATE_LIMIT].Uint32Value
}

func (c *config) LedgerConfirmationTimeout() time.Duration {
	return c.kv[LEDGER_CONFIRMATION_TIMEOUT].DurationValue
}

func (c *config) LedgerGasLimit() uint32 {
	return c.kv[LEDGER_GAS_LIMIT].Uint32Value
}

func (c *config) LedgerStatusReportInterval() time.Duration {
	return c.kv[LEDGER_STATUS_REPORT_INTERVAL].DurationValue
}

func (c *config) SignerKeystorePath() string {
	return c.kv[SIGNER_KEYSTORE_PATH].StringValue
}

func (c *config) SignerKeystorePassphrase() string {
	return c.kv[SIGNER_KEYSTORE_PASSPHRASE].StringValue
}

func (c *config) SignerPrivateKey() string {
	return c.kv[SIGNER_PRIVATE_KEY].StringValue
}

func (c *config) RegistryLoadMaxProducts() uint32 {
	return c.kv[REGISTRY_LOAD_MAX_PRODUCTS].Uint32Value
}

func (c *config) RegistryLoadAbortOnFailure() bool {
	return c.kv[REGISTRY_LOAD_ABORT_ON_FAILURE].BoolValue
}

func (c *config) DeployConfirmations() uint32 {
	return c.kv[DEPLOY_CONFIRMATIONS].Uint32Value
}

func (c *config) DeployArtifactPath() string {
	return c.kv[DEPLOY_ARTIFACT_PATH].StringValue
}

func (c *config) HttpAddress() string {
	return c.kv[HTTP_ADDRESS].StringValue
}

func (c *config) HttpMaxConnections() uint32 {
	return c.kv[HTTP_MAX_CONNECTIONS].Uint32Value
}

func (c *config) MetricsReportInterval() time.Duration {
	return c.kv[METRICS_REPORT_INTERVAL].DurationValue
}

func (c *config) NtpServerAddress() string {
	return c.kv[NTP_SERVER_ADDRESS].StringValue
}

func (c *config) LoggerFullLog() bool {
	return c.kv[LOGGER_FULL_LOG].BoolValue
}

func (c *config) LoggerFileTruncationInterval() time.Duration {
	return c.kv[LOGGER_FILE_TRUNCATION_INTERVAL].DurationValue
}

func (c *config) Profiling() bool {
	return c.kv[PROFILING].BoolValue
}

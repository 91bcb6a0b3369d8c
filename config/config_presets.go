// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package config

import (
	"time"
)

// all other configs are variations from the production one
func defaultProductionConfig() mutableClientConfig {
	cfg := emptyConfig()

	cfg.SetString(LEDGER_ENDPOINT, "https://rpc-amoy.polygon.technology")
	cfg.SetUint32(LEDGER_CHAIN_ID, 80002)
	cfg.SetString(LEDGER_NETWORK_NAME, "amoy")
	cfg.SetString(LEDGER_DEPLOYMENT_DESCRIPTOR_PATH, "./deployment.json")

	// public endpoints throttle at around 25 requests per second
	cfg.SetUint32(LEDGER_READ_RATE_LIMIT, 10)

	// zero means wait for the receipt for as long as the context lives
	cfg.SetDuration(LEDGER_CONFIRMATION_TIMEOUT, 0)
	cfg.SetDuration(LEDGER_STATUS_REPORT_INTERVAL, 30*time.Second)

	cfg.SetUint32(REGISTRY_LOAD_MAX_PRODUCTS, 0)
	cfg.SetBool(REGISTRY_LOAD_ABORT_ON_FAILURE, false)

	cfg.SetUint32(DEPLOY_CONFIRMATIONS, 5)
	cfg.SetString(DEPLOY_ARTIFACT_PATH, "./artifacts/SupplyChain.json")

	cfg.SetString(HTTP_ADDRESS, ":8080")
	cfg.SetUint32(HTTP_MAX_CONNECTIONS, 256)

	cfg.SetDuration(METRICS_REPORT_INTERVAL, 30*time.Second)
	cfg.SetString(NTP_SERVER_ADDRESS, "pool.ntp.org")
	cfg.SetDuration(LOGGER_FILE_TRUNCATION_INTERVAL, 24*time.Hour)
	cfg.SetBool(LOGGER_FULL_LOG, false)
	cfg.SetBool(PROFILING, false)

	return cfg
}

func ForProduction() mutableClientConfig {
	return defaultProductionConfig()
}

// local hardhat / ganache node with instant mining
func ForDevelopment() mutableClientConfig {
	cfg := defaultProductionConfig()

	cfg.SetString(LEDGER_ENDPOINT, "http://localhost:8545")
	cfg.SetUint32(LEDGER_CHAIN_ID, 31337)
	cfg.SetString(LEDGER_NETWORK_NAME, "localhost")
	cfg.SetUint32(LEDGER_READ_RATE_LIMIT, 0)
	cfg.SetUint32(DEPLOY_CONFIRMATIONS, 1)
	cfg.SetString(NTP_SERVER_ADDRESS, "")
	cfg.SetBool(LOGGER_FULL_LOG, true)

	return cfg
}

// in-process ledger, nothing leaves the machine
func ForInMemoryLedger() mutableClientConfig {
	cfg := ForDevelopment()

	cfg.SetBool(LEDGER_IN_MEMORY, true)
	cfg.SetString(LEDGER_ENDPOINT, "")
	cfg.SetDuration(LEDGER_STATUS_REPORT_INTERVAL, 0)

	return cfg
}

func ForTests() mutableClientConfig {
	cfg := ForInMemoryLedger()

	cfg.SetString(HTTP_ADDRESS, "127.0.0.1:0")
	cfg.SetDuration(METRICS_REPORT_INTERVAL, 0)
	cfg.SetString(LEDGER_DEPLOYMENT_DESCRIPTOR_PATH, "")

	return cfg
}

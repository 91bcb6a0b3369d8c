// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package config

import (
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"time"
)

const ENV_PREFIX = "SUPPLYCHAIN_"

// Mutate
func (c *config) Modify(newValues ...ClientConfigKeyValue) {
	for _, kv := range newValues {
		c.kv[kv.Key] = kv.Value
	}
}

func modifyFromJson(cfg mutableClientConfig, source string) error {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(source), &data); err != nil {
		return err
	}

	if err := populateConfig(cfg, data); err != nil {
		return err
	}

	return nil
}

func convertKeyName(key string) string {
	return strings.ToUpper(strings.Replace(key, "-", "_", -1))
}

func populateConfig(cfg mutableClientConfig, data map[string]interface{}) error {
	for key, value := range data {
		name := convertKeyName(key)

		switch value.(type) {
		case bool:
			cfg.SetBool(name, value.(bool))
		case float64:
			f := value.(float64)
			if f < 0 || f > float64(^uint32(0)) {
				return fmt.Errorf("could not decode value for config key %s: %v is out of range", key, f)
			}
			cfg.SetUint32(name, uint32(f))
		case string:
			setFromString(cfg, name, value.(string))
		default:
			return fmt.Errorf("could not decode value for config key %s: unsupported type %T", key, value)
		}
	}

	return nil
}

func setFromString(cfg mutableClientConfig, name string, value string) {
	if stringKeys[name] {
		cfg.SetString(name, value)
		return
	}

	if duration, decodeError := time.ParseDuration(value); decodeError == nil {
		cfg.SetDuration(name, duration)
	} else if b, decodeError := strconv.ParseBool(value); decodeError == nil {
		cfg.SetBool(name, b)
	} else if n, decodeError := strconv.ParseUint(value, 10, 32); decodeError == nil {
		cfg.SetUint32(name, uint32(n))
	} else {
		cfg.SetString(name, value)
	}
}

// SUPPLYCHAIN_<KEY> variables override file values, mostly for signer secrets
func modifyFromEnvironment(cfg mutableClientConfig, environ []string) {
	for _, entry := range environ {
		if !strings.HasPrefix(entry, ENV_PREFIX) {
			continue
		}

		parts := strings.SplitN(strings.TrimPrefix(entry, ENV_PREFIX), "=", 2)
		if len(parts) != 2 || parts[1] == "" {
			continue
		}

		setFromString(cfg, parts[0], parts[1])
	}
}

// For main reading several files into one config

type FilesPaths []string

func (i *FilesPaths) String() string {
	return strings.Join(*i, ",")
}

func (i *FilesPaths) Set(value string) error {
	*i = append(*i, value)
	return nil
}

func GetClientConfigFromFiles(base mutableClientConfig, configFiles FilesPaths) (mutableClientConfig, error) {
	cfg := base.Clone()

	for _, configFile := range configFiles {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, errors.Errorf("could not open config file: %s", err)
		}

		contents, err := ioutil.ReadFile(configFile)
		if err != nil {
			return nil, err
		}

		if err := modifyFromJson(cfg, string(contents)); err != nil {
			return nil, errors.Wrapf(err, "failed parsing config file %s", configFile)
		}
	}

	modifyFromEnvironment(cfg, os.Environ())

	return cfg, nil
}

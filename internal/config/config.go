// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blinklabs-io/snapcat/cat"
	"github.com/blinklabs-io/snapcat/clvm"
	"github.com/blinklabs-io/snapcat/rpc"
	"github.com/blinklabs-io/snapcat/types"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "snapcat.config"

const (
	DefaultRpcUrl       = "https://localhost:8555"
	DefaultRpcTimeout   = "30s"
	DefaultPollInterval = "10s"
)

// ErrNoTailHash is returned when an operation needs the token identity but
// no tail hash is configured
var ErrNoTailHash = errors.New("no tail hash configured")

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	TailHash               string `yaml:"tailHash"               split_words:"true"`
	HiddenPuzzleHash       string `yaml:"hiddenPuzzleHash"       split_words:"true"`
	CatModHash             string `yaml:"catModHash"             split_words:"true"`
	RevocationLayerModHash string `yaml:"revocationLayerModHash" split_words:"true"`
	DatabaseFile           string `yaml:"databaseFile"           split_words:"true"`
	// RpcUrl may hold several endpoints separated by commas
	RpcUrl                string `yaml:"rpcUrl"                split_words:"true"`
	RpcCertFile           string `yaml:"rpcCertFile"           split_words:"true"`
	RpcKeyFile            string `yaml:"rpcKeyFile"            split_words:"true"`
	RpcCaFile             string `yaml:"rpcCaFile"             split_words:"true"`
	RpcInsecureSkipVerify bool   `yaml:"rpcInsecureSkipVerify" split_words:"true"`
	RpcTimeout            string `yaml:"rpcTimeout"            split_words:"true"`
	StartHeight           uint64 `yaml:"startHeight"           split_words:"true"`
	PollInterval          string `yaml:"pollInterval"          split_words:"true"`
	MaxCost               uint64 `yaml:"maxCost"               split_words:"true"`
	MetricsListen         string `yaml:"metricsListen"         split_words:"true"`
	Tracing               bool   `yaml:"tracing"`
	TracingStdout         bool   `yaml:"tracingStdout"         split_words:"true"`
}

func defaultConfig() *Config {
	return &Config{
		CatModHash:   cat.Cat2ModHash.String(),
		RpcUrl:       DefaultRpcUrl,
		RpcTimeout:   DefaultRpcTimeout,
		PollInterval: DefaultPollInterval,
		MaxCost:      clvm.DefaultMaxCost,
	}
}

var globalConfig = defaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.snapcat/snapcat.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".snapcat", "snapcat.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/snapcat/snapcat.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/snapcat/snapcat.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process environment variables
	err := envconfig.Process("snapcat", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Validate checks hash and duration values
func (c *Config) Validate() error {
	hashes := []struct {
		name  string
		value string
	}{
		{"tailHash", c.TailHash},
		{"hiddenPuzzleHash", c.HiddenPuzzleHash},
		{"catModHash", c.CatModHash},
		{"revocationLayerModHash", c.RevocationLayerModHash},
	}
	for _, h := range hashes {
		if h.value == "" {
			continue
		}
		if _, err := types.Bytes32FromHex(h.value); err != nil {
			return fmt.Errorf("invalid %s: %w", h.name, err)
		}
	}
	if c.CatModHash == "" {
		return errors.New("catModHash must not be empty")
	}
	if c.HiddenPuzzleHash != "" && c.RevocationLayerModHash == "" {
		return errors.New("revocationLayerModHash is required for a revocable token")
	}
	if _, err := c.RpcTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.PollIntervalDuration(); err != nil {
		return err
	}
	return nil
}

// Identity returns the tracked token
func (c *Config) Identity() (cat.TokenIdentity, error) {
	if c.TailHash == "" {
		return cat.TokenIdentity{}, ErrNoTailHash
	}
	tail, err := types.Bytes32FromHex(c.TailHash)
	if err != nil {
		return cat.TokenIdentity{}, fmt.Errorf("invalid tailHash: %w", err)
	}
	ret := cat.TokenIdentity{TailHash: tail}
	if c.HiddenPuzzleHash != "" {
		hidden, err := types.Bytes32FromHex(c.HiddenPuzzleHash)
		if err != nil {
			return cat.TokenIdentity{}, fmt.Errorf("invalid hiddenPuzzleHash: %w", err)
		}
		ret.HiddenPuzzleHash = &hidden
	}
	return ret, nil
}

// Templates returns the puzzle templates used for matching
func (c *Config) Templates() (cat.Templates, error) {
	ret := cat.DefaultTemplates()
	if c.CatModHash != "" {
		modHash, err := types.Bytes32FromHex(c.CatModHash)
		if err != nil {
			return cat.Templates{}, fmt.Errorf("invalid catModHash: %w", err)
		}
		ret.CatModHash = modHash
	}
	if c.RevocationLayerModHash != "" {
		revHash, err := types.Bytes32FromHex(c.RevocationLayerModHash)
		if err != nil {
			return cat.Templates{}, fmt.Errorf("invalid revocationLayerModHash: %w", err)
		}
		ret.RevocationLayerModHash = &revHash
	}
	return ret, nil
}

// DatabasePath returns the configured database file, defaulting to
// <tailHash>.db
func (c *Config) DatabasePath() (string, error) {
	if c.DatabaseFile != "" {
		return c.DatabaseFile, nil
	}
	if c.TailHash == "" {
		return "", fmt.Errorf("%w: a database file name is required", ErrNoTailHash)
	}
	tail, err := types.Bytes32FromHex(c.TailHash)
	if err != nil {
		return "", fmt.Errorf("invalid tailHash: %w", err)
	}
	return tail.String() + ".db", nil
}

// TLSOptions returns the node client TLS settings
func (c *Config) TLSOptions() rpc.TLSOptions {
	return rpc.TLSOptions{
		CertFile:           c.RpcCertFile,
		KeyFile:            c.RpcKeyFile,
		CAFile:             c.RpcCaFile,
		InsecureSkipVerify: c.RpcInsecureSkipVerify,
	}
}

func (c *Config) RpcTimeoutDuration() (time.Duration, error) {
	return parseDuration("rpcTimeout", c.RpcTimeout, DefaultRpcTimeout)
}

func (c *Config) PollIntervalDuration() (time.Duration, error) {
	return parseDuration("pollInterval", c.PollInterval, DefaultPollInterval)
}

func parseDuration(name string, value string, fallback string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	ret, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if ret <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return ret, nil
}

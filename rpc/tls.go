// Copyright 2026 Blink Labs Software
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

package rpc

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// TLSOptions describes the client side of a mutual TLS connection to a
// full node. Full nodes usually present a certificate signed by their own
// private CA
type TLSOptions struct {
	CertFile           string
	KeyFile            string
	CAFile             string
	InsecureSkipVerify bool
}

// Enabled reports whether any TLS setting was provided
func (o TLSOptions) Enabled() bool {
	return o.CertFile != "" || o.KeyFile != "" || o.CAFile != "" ||
		o.InsecureSkipVerify
}

// NewTLSConfig builds a client TLS config. It returns nil when no TLS
// settings are present
func NewTLSConfig(opts TLSOptions) (*tls.Config, error) {
	if !opts.Enabled() {
		return nil, nil
	}
	ret := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // operator opt-in for self-signed node certificates
	}
	if (opts.CertFile == "") != (opts.KeyFile == "") {
		return nil, errors.New("TLS certificate and key must be provided together")
	}
	if opts.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		ret.Certificates = []tls.Certificate{cert}
	}
	if opts.CAFile != "" {
		caPEM, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no certificates found in CA file %s", opts.CAFile)
		}
		ret.RootCAs = pool
	}
	return ret, nil
}

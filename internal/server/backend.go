// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/space-signup/internal/config"
)

// backendHTTPClient returns the client the pages use for API calls. When
// the pages call this server's own API behind a certificate no public CA
// signed, that certificate is trusted in addition to the system roots.
func backendHTTPClient(cfg config.BackendConfig, setup *TLSSetup) (*http.Client, error) {
	if !cfg.Local || setup == nil || setup.Config == nil {
		return &http.Client{Timeout: cfg.Timeout}, nil
	}
	switch setup.Mode {
	case TLSModeSelfSigned, TLSModeManual:
		return ownCertClient(setup.Config, cfg.Timeout)
	default:
		return &http.Client{Timeout: cfg.Timeout}, nil
	}
}

// ownCertClient trusts the leaf certificate served by tlsConfig.
func ownCertClient(tlsConfig *tls.Config, timeout time.Duration) (*http.Client, error) {
	if len(tlsConfig.Certificates) == 0 || len(tlsConfig.Certificates[0].Certificate) == 0 {
		return nil, errors.New("no server certificate to trust")
	}
	leaf, err := x509.ParseCertificate(tlsConfig.Certificates[0].Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parsing server certificate: %w", err)
	}

	roots, err := x509.SystemCertPool()
	if err != nil {
		roots = x509.NewCertPool()
	}
	roots.AddCert(leaf)

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		RootCAs:    roots,
		MinVersion: tls.VersionTLS12,
	}
	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// Package tls builds the client TLS configuration used for SMTP connections.
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
)

// ClientConfig returns a tls.Config for connecting to serverName. When
// caFile is set its PEM certificates are trusted in addition to the system
// pool, which lets courier talk to internal relays with a private CA.
// insecureSkipVerify disables verification entirely and is logged loudly.
func ClientConfig(serverName, caFile string, insecureSkipVerify bool) (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
	}

	if caFile != "" {
		pemData, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}

		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pemData) {
			return nil, fmt.Errorf("no certificates found in CA file %s", caFile)
		}
		cfg.RootCAs = pool
	}

	if insecureSkipVerify {
		slog.Warn("TLS certificate verification disabled", "server", serverName)
		cfg.InsecureSkipVerify = true
	}

	return cfg, nil
}

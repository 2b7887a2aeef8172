// Package smtp implements a Provider that delivers messages to an SMTP
// server over implicit TLS with username/secret authentication.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
	"golang.org/x/net/idna"

	"github.com/shineum/courier/internal/email"
	"github.com/shineum/courier/internal/render"
)

// DefaultPort is the implicit-TLS submission port (SMTPS).
const DefaultPort = 465

// ProviderConfig holds the configuration for creating an SMTP Provider.
type ProviderConfig struct {
	Host     string
	Port     int
	Username string

	// Password is the mailbox authorization code, not the account password.
	Password string

	// Timeout bounds dial and each protocol step. Zero keeps the library default.
	Timeout time.Duration

	// TLSConfig overrides server verification. If nil, the system roots
	// are used and the server name is Host.
	TLSConfig *tls.Config
}

// Sender is the subset of the go-mail client used by the provider.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Provider sends email through an SMTP relay.
type Provider struct {
	client Sender
	host   string
}

// New validates cfg and creates the underlying client. No connection is
// made until Send.
func New(cfg ProviderConfig) (*Provider, error) {
	host, err := ValidateHost(cfg.Host)
	if err != nil {
		return nil, err
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}

	opts := []gomail.Option{
		gomail.WithSSL(),
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(cfg.Timeout))
	}
	if cfg.TLSConfig != nil {
		opts = append(opts, gomail.WithTLSConfig(cfg.TLSConfig))
	}

	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client for %s: %w", host, err)
	}

	return &Provider{client: client, host: host}, nil
}

// ValidateHost checks that host is an IP literal or a DNS name made of
// letters, digits and inner hyphens, and returns its ASCII form.
// Internationalized names are converted to punycode.
func ValidateHost(host string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("smtp host is required")
	}
	if net.ParseIP(host) != nil {
		return host, nil
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid smtp host %q: %w", host, err)
	}
	name := strings.TrimSuffix(ascii, ".")
	if name == "" || len(name) > 253 {
		return "", fmt.Errorf("invalid smtp host %q: bad length", host)
	}

	for _, label := range strings.Split(name, ".") {
		if label == "" || len(label) > 63 {
			return "", fmt.Errorf("invalid smtp host %q: bad label length", host)
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return "", fmt.Errorf("invalid smtp host %q: label %q starts or ends with a hyphen", host, label)
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if !isHostChar(c) {
				return "", fmt.Errorf("invalid smtp host %q: unexpected character %q", host, c)
			}
		}
	}
	return name, nil
}

func isHostChar(c byte) bool {
	return c == '-' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}

// NewWithSender creates a Provider around an existing sender, used for testing.
func NewWithSender(host string, s Sender) *Provider {
	return &Provider{client: s, host: host}
}

// Send renders msg and transmits it in a single dial-and-send round trip.
func (p *Provider) Send(ctx context.Context, msg *email.Message) error {
	m, err := render.Build(msg)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	if err := p.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp delivery to %s failed: %w", p.host, err)
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "smtp"
}

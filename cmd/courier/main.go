// Package main is the entry point for the courier report mailer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shineum/courier/internal/archive"
	"github.com/shineum/courier/internal/config"
	"github.com/shineum/courier/internal/courier"
	"github.com/shineum/courier/internal/outcome"
	"github.com/shineum/courier/internal/provider"
	"github.com/shineum/courier/internal/provider/ses"
	smtpprovider "github.com/shineum/courier/internal/provider/smtp"
	"github.com/shineum/courier/internal/provider/stdout"
	couriertls "github.com/shineum/courier/internal/tls"
)

const version = "0.2"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// Delivery failures were already echoed and logged by the courier.
		if !errors.Is(err, courier.ErrDeliveryFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

// sendOptions holds the raw flag values for the send command.
type sendOptions struct {
	configPath string
	user       string
	key        string
	to         string
	report     string
	server     string
	cc         string
	bcc        string
	port       int
	provider   string
}

func newRootCmd() *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:     "courier",
		Short:   "courier | 信使: email an HTML report",
		Version: version,
		Long: `courier sends a generated HTML report (for example an incident-response
report) as both the message body and a text/html attachment over
SMTP with implicit TLS, then appends the result to output/courier.log.

Example:
  courier -u me@example.com -k AUTHCODE -s smtp.example.com -t ops@example.com -r output.html
  courier inspect output/archive/20240309-140507-*.eml`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSend(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.user, "user", "u", "", "sender address, also the SMTP username (xxx@xxx.com)")
	f.StringVarP(&opts.key, "key", "k", "", "SMTP authorization code, not the account password")
	f.StringVarP(&opts.to, "to", "t", "", "recipient address (xxx@xxx.com)")
	f.StringVarP(&opts.report, "report", "r", "", "path to the HTML report (output.html)")
	f.StringVarP(&opts.server, "server", "s", "", "SMTP server host (xxx.com)")
	f.StringVarP(&opts.cc, "cc", "c", "", "carbon-copy address (optional)")
	f.StringVarP(&opts.bcc, "bcc", "b", "", "blind-carbon-copy address (optional)")
	f.IntVarP(&opts.port, "port", "p", 0, "SMTP port (default 465, implicit TLS)")
	f.StringVar(&opts.provider, "provider", "", "delivery provider: smtp, ses or stdout")
	f.StringVar(&opts.configPath, "config", "", "path to YAML configuration file (optional)")

	cmd.AddCommand(newInspectCmd())
	return cmd
}

func runSend(cmd *cobra.Command, opts *sendOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, opts)

	setupLogger(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		return err
	}

	req := courier.Request{
		Sender:        cfg.SMTP.Username,
		Key:           cfg.SMTP.Password,
		Recipient:     opts.to,
		Cc:            opts.cc,
		Bcc:           opts.bcc,
		ReportPath:    opts.report,
		Server:        cfg.SMTP.Server,
		SubjectPrefix: cfg.Report.SubjectPrefix,
	}
	if err := req.Validate(cfg.Provider == "smtp"); err != nil {
		return err
	}

	// Arguments are valid from here on; later failures are not usage errors.
	cmd.SilenceUsage = true

	prov, err := selectProvider(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	log, err := outcome.Open(cfg.Output.Dir, cfg.Output.LogFile)
	if err != nil {
		return err
	}

	var courierOpts []courier.Option
	if cfg.Output.ArchiveDir != "" {
		courierOpts = append(courierOpts, courier.WithArchive(archive.New(cfg.Output.ArchiveDir)))
	}

	runErr := courier.New(prov, log, courierOpts...).Run(cmd.Context(), req)
	return closeLog(log, runErr)
}

// closeLog closes the outcome log. A close error is reported only when the
// run itself succeeded.
func closeLog(c io.Closer, runErr error) error {
	if err := c.Close(); err != nil && runErr == nil {
		return fmt.Errorf("failed to close outcome log: %w", err)
	}
	return runErr
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// applyFlags layers non-empty flag values over the loaded configuration.
func applyFlags(cfg *config.Config, opts *sendOptions) {
	if opts.provider != "" {
		cfg.Provider = strings.ToLower(opts.provider)
	}
	if opts.user != "" {
		cfg.SMTP.Username = opts.user
	}
	if opts.key != "" {
		cfg.SMTP.Password = opts.key
	}
	if opts.server != "" {
		cfg.SMTP.Server = opts.server
	}
	if opts.port != 0 {
		cfg.SMTP.Port = opts.port
	}
}

// setupLogger configures the global slog logger with text output on stderr
// and the specified log level. Stdout is left for the send confirmation.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectProvider builds the delivery backend named by cfg.Provider. A bad
// SMTP host or TLS setting fails here, before anything is sent.
func selectProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "smtp":
		host, err := smtpprovider.ValidateHost(cfg.SMTP.Server)
		if err != nil {
			return nil, err
		}
		tlsConfig, err := couriertls.ClientConfig(host, cfg.SMTP.CAFile, cfg.SMTP.InsecureSkipVerify)
		if err != nil {
			return nil, fmt.Errorf("failed to setup TLS: %w", err)
		}
		slog.Debug("using SMTP provider",
			"server", cfg.SMTP.Server,
			"port", cfg.SMTP.Port,
			"username", cfg.SMTP.Username,
		)
		p, err := smtpprovider.New(smtpprovider.ProviderConfig{
			Host:      host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			Timeout:   cfg.SMTP.Timeout,
			TLSConfig: tlsConfig,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	case "ses":
		slog.Debug("using AWS SES provider", "region", cfg.SES.Region)
		p, err := ses.New(ctx, ses.SESProviderConfig{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SES provider: %w", err)
		}
		return p, nil

	case "stdout":
		slog.Debug("using stdout provider")
		return stdout.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

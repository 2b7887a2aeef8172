package courier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shineum/courier/internal/email"
	"github.com/shineum/courier/internal/outcome"
	"github.com/shineum/courier/internal/provider"
	"github.com/shineum/courier/internal/report"
)

// ErrDeliveryFailed marks a run whose message was rejected by the provider.
// The failure has already been written to the outcome log when it is returned.
var ErrDeliveryFailed = errors.New("delivery failed")

// Archiver stores a copy of a delivered message.
type Archiver interface {
	Save(msg *email.Message, sentAt time.Time) (string, error)
}

// Courier runs one report delivery: load, compose, send, log.
type Courier struct {
	provider provider.Provider
	log      *outcome.Logger
	archive  Archiver
	now      func() time.Time
	stdout   io.Writer
	stderr   io.Writer
}

// Option configures a Courier.
type Option func(*Courier)

// WithArchive keeps a copy of every delivered message.
func WithArchive(a Archiver) Option {
	return func(c *Courier) { c.archive = a }
}

// WithClock replaces time.Now, used for testing.
func WithClock(now func() time.Time) Option {
	return func(c *Courier) { c.now = now }
}

// WithConsole redirects the user-facing confirmation and failure lines.
func WithConsole(stdout, stderr io.Writer) Option {
	return func(c *Courier) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// New creates a Courier that delivers through p and records outcomes in log.
func New(p provider.Provider, log *outcome.Logger, opts ...Option) *Courier {
	c := &Courier{
		provider: p,
		log:      log,
		now:      time.Now,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run performs the delivery described by req. Errors before the provider is
// called (unreadable report, bad address) are returned without touching the
// outcome log. A provider failure is logged and returned wrapped in
// ErrDeliveryFailed. Outcome log write errors are always returned.
func (c *Courier) Run(ctx context.Context, req Request) error {
	content, err := report.Load(req.ReportPath)
	if err != nil {
		return err
	}
	slog.Debug("report loaded", "path", req.ReportPath, "bytes", len(content.Raw))

	now := c.now()
	msg, err := Compose(req, content, now)
	if err != nil {
		return err
	}

	to := strings.Join(email.Addresses(msg.To), ", ")
	cc := strings.Join(email.Addresses(msg.Cc), ", ")

	slog.Info("sending report",
		"provider", c.provider.Name(),
		"to", to,
		"cc", cc,
		"bcc", len(msg.Bcc) > 0,
		"attachment", content.Name,
	)

	if sendErr := c.provider.Send(ctx, msg); sendErr != nil {
		fmt.Fprintf(c.stderr, "发送邮件失败: %v\n", sendErr)
		failure := fmt.Errorf("%w: %w", ErrDeliveryFailed, sendErr)
		if err := c.log.Failure(now, sendErr); err != nil {
			return errors.Join(failure, err)
		}
		return failure
	}

	fmt.Fprintf(c.stdout, "[+] %s 邮件发送成功!\n", now.Format(outcome.TimeLayout))
	if err := c.log.Success(now, to, cc); err != nil {
		return err
	}

	if c.archive != nil {
		path, err := c.archive.Save(msg, now)
		if err != nil {
			slog.Warn("failed to archive sent message", "error", err)
		} else {
			slog.Info("archived sent message", "path", path)
		}
	}

	return nil
}

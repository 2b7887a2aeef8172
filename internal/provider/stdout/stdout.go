// Package stdout implements a dry-run Provider that prints a message summary
// instead of delivering it.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/courier/internal/email"
	"github.com/shineum/courier/internal/outcome"
)

const separator = "========================================\n"

// Provider prints email messages in a human-readable format.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send prints the message summary. Write errors are returned so a dry run
// into a closed pipe is reported like any other delivery failure.
func (p *Provider) Send(_ context.Context, msg *email.Message) error {
	return Print(p.writer, msg)
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}

// Print writes a summary of msg to w: headers, the body (HTML when there is
// no text part) and a line listing attachments with their sizes.
func Print(w io.Writer, msg *email.Message) error {
	var b strings.Builder

	b.WriteString(separator)
	fmt.Fprintf(&b, "From: %s\n", msg.FromAddress())
	fmt.Fprintf(&b, "To: %s\n", strings.Join(email.Addresses(msg.To), ", "))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\n", strings.Join(email.Addresses(msg.Cc), ", "))
	}
	if len(msg.Bcc) > 0 {
		fmt.Fprintf(&b, "Bcc: %s\n", strings.Join(email.Addresses(msg.Bcc), ", "))
	}
	if !msg.Date.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", msg.Date.Local().Format(outcome.TimeLayout))
	}
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Body:\n")

	body := msg.TextBody
	if body == "" {
		body = msg.HTMLBody
	}
	b.WriteString(body + "\n")

	if len(msg.Attachments) > 0 {
		attachments := make([]string, 0, len(msg.Attachments))
		for _, att := range msg.Attachments {
			attachments = append(attachments, fmt.Sprintf("%s (%s, %s)", att.Filename, att.ContentType, formatSize(len(att.Content))))
		}
		fmt.Fprintf(&b, "Attachments: %s\n", strings.Join(attachments, ", "))
	}

	b.WriteString(separator)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write message summary: %w", err)
	}
	return nil
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

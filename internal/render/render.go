// Package render converts an email.Message into a go-mail message or raw
// RFC 5322 bytes. The SMTP and SES providers and the archive all use it, so
// every backend sees the same MIME structure.
package render

import (
	"bytes"
	"fmt"
	"net/mail"

	gomail "github.com/wneessen/go-mail"

	"github.com/shineum/courier/internal/email"
)

// Build creates a go-mail message from msg. The body becomes the first part
// of a multipart/mixed container and attachments follow in order.
func Build(msg *email.Message) (*gomail.Msg, error) {
	if msg.From == nil {
		return nil, fmt.Errorf("message has no sender")
	}
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("message has no recipients")
	}

	m := gomail.NewMsg()

	if err := m.From(msg.From.String()); err != nil {
		return nil, fmt.Errorf("failed to set from address: %w", err)
	}
	if err := m.To(formatList(msg.To)...); err != nil {
		return nil, fmt.Errorf("failed to set to address: %w", err)
	}
	if len(msg.Cc) > 0 {
		if err := m.Cc(formatList(msg.Cc)...); err != nil {
			return nil, fmt.Errorf("failed to set cc address: %w", err)
		}
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(formatList(msg.Bcc)...); err != nil {
			return nil, fmt.Errorf("failed to set bcc address: %w", err)
		}
	}

	m.Subject(msg.Subject)

	if !msg.Date.IsZero() {
		m.SetDateWithValue(msg.Date)
	} else {
		m.SetDate()
	}
	if msg.MessageID != "" {
		m.SetMessageIDWithValue(msg.MessageID)
	} else {
		m.SetMessageID()
	}

	// An empty HTML body still gets its own part so a report message keeps
	// the inline part ahead of the attachment.
	if msg.HTMLBody == "" && msg.TextBody != "" {
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	} else {
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	}

	for _, att := range msg.Attachments {
		opts := []gomail.FileOption{}
		if att.ContentType != "" {
			opts = append(opts, gomail.WithFileContentType(gomail.ContentType(att.ContentType)))
		}
		if err := m.AttachReader(att.Filename, bytes.NewReader(att.Content), opts...); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", att.Filename, err)
		}
	}

	return m, nil
}

// Raw renders msg as a complete RFC 5322 message.
func Raw(msg *email.Message) ([]byte, error) {
	m, err := Build(msg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write message: %w", err)
	}
	return buf.Bytes(), nil
}

func formatList(list []*mail.Address) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.String())
	}
	return out
}

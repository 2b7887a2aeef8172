package courier

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shineum/courier/internal/email"
	"github.com/shineum/courier/internal/outcome"
	"github.com/shineum/courier/internal/report"
)

// ReportContentType is the media type of the report attachment.
const ReportContentType = "text/html"

// AddressError reports an address flag that could not be parsed.
type AddressError struct {
	Field string
	Value string
	Err   error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid %s address %q: %v", e.Field, e.Value, e.Err)
}

func (e *AddressError) Unwrap() error {
	return e.Err
}

// Subject returns "<prefix> - YYYY-MM-DD HH:MM:SS" with now in local time.
func Subject(prefix string, now time.Time) string {
	return fmt.Sprintf("%s - %s", prefix, now.Local().Format(outcome.TimeLayout))
}

// Compose builds the report message: the decoded HTML inline, followed by
// the exact report bytes as a text/html attachment. Cc and Bcc are left
// out when empty. It has no side effects.
func Compose(req Request, content *report.Content, now time.Time) (*email.Message, error) {
	from, err := parseAddress("from", req.Sender)
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", req.Recipient)
	if err != nil {
		return nil, err
	}

	msg := &email.Message{
		From:     from,
		To:       []*mail.Address{to},
		Subject:  Subject(req.SubjectPrefix, now),
		HTMLBody: content.HTML,
		Attachments: []email.Attachment{
			{
				Filename:    content.Name,
				ContentType: ReportContentType,
				Content:     content.Raw,
			},
		},
		Date:      now,
		MessageID: messageID(from),
	}

	if req.Cc != "" {
		cc, err := parseAddress("cc", req.Cc)
		if err != nil {
			return nil, err
		}
		msg.Cc = []*mail.Address{cc}
	}
	if req.Bcc != "" {
		bcc, err := parseAddress("bcc", req.Bcc)
		if err != nil {
			return nil, err
		}
		msg.Bcc = []*mail.Address{bcc}
	}

	return msg, nil
}

func parseAddress(field, value string) (*mail.Address, error) {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return nil, &AddressError{Field: field, Value: value, Err: err}
	}
	return addr, nil
}

// messageID returns "<uuid>@<sender domain>" without angle brackets.
func messageID(from *mail.Address) string {
	domain := "localhost"
	if _, d, ok := strings.Cut(from.Address, "@"); ok && d != "" {
		domain = d
	}
	return uuid.NewString() + "@" + domain
}

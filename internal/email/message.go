// Package email defines the core email data model used throughout courier.
package email

import (
	"net/mail"
	"time"
)

// Message represents an email message with all its components. Messages are
// built by the composer for delivery and by the parser when reading archived
// .eml files back.
type Message struct {
	From        *mail.Address
	To          []*mail.Address
	Cc          []*mail.Address
	Bcc         []*mail.Address
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
	Date        time.Time
	MessageID   string
	RawHeaders  map[string][]string
}

// Attachment represents a file attached to an email message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Addresses returns the bare addr-spec of each address, dropping display names.
func Addresses(list []*mail.Address) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		if a != nil {
			out = append(out, a.Address)
		}
	}
	return out
}

// FromAddress returns the sender's addr-spec, or an empty string when unset.
func (m *Message) FromAddress() string {
	if m.From == nil {
		return ""
	}
	return m.From.Address
}

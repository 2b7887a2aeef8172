// Package parser reads archived RFC 5322 messages back into email.Message
// values, including MIME multipart bodies and attachments.
package parser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/shineum/courier/internal/email"
)

// Parse parses a raw RFC 5322 message. It handles single-part text and HTML
// bodies, nested multipart containers and attachments. Unrecognized MIME
// parts are logged and skipped.
func Parse(raw []byte) (*email.Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	dec := new(mime.WordDecoder)
	result := &email.Message{
		RawHeaders: make(map[string][]string, len(msg.Header)),
	}
	for key, values := range msg.Header {
		result.RawHeaders[key] = values
	}

	result.From = parseAddress(msg.Header.Get("From"))
	result.To = parseAddressList(msg.Header.Get("To"))
	result.Cc = parseAddressList(msg.Header.Get("Cc"))
	result.Bcc = parseAddressList(msg.Header.Get("Bcc"))
	result.MessageID = strings.Trim(msg.Header.Get("Message-Id"), "<>")

	subject := msg.Header.Get("Subject")
	if decoded, err := dec.DecodeHeader(subject); err == nil {
		subject = decoded
	}
	result.Subject = subject

	if date, err := msg.Header.Date(); err == nil {
		result.Date = date
	}

	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		slog.Warn("failed to parse content type, treating as plain text",
			"content_type", contentType,
			"error", err,
		)
		body, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read message body: %w", readErr)
		}
		result.TextBody = string(body)
		return result, nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("multipart message missing boundary")
		}
		if err := parseMultipart(msg.Body, boundary, result); err != nil {
			return nil, fmt.Errorf("failed to parse multipart message: %w", err)
		}
		return result, nil
	}

	body, err := decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	if mediaType == "text/html" {
		result.HTMLBody = string(body)
	} else {
		result.TextBody = string(body)
	}

	return result, nil
}

// parseMultipart walks a multipart body, filling the first text and HTML
// bodies it meets and collecting every attachment.
func parseMultipart(body io.Reader, boundary string, result *email.Message) error {
	reader := multipart.NewReader(body, boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read next part: %w", err)
		}

		partContentType := part.Header.Get("Content-Type")
		if partContentType == "" {
			partContentType = "text/plain"
		}

		mediaType, params, err := mime.ParseMediaType(partContentType)
		if err != nil {
			slog.Warn("failed to parse part content type, skipping",
				"content_type", partContentType,
				"error", err,
			)
			continue
		}

		if strings.HasPrefix(mediaType, "multipart/") {
			nested := params["boundary"]
			if nested == "" {
				slog.Warn("nested multipart missing boundary, skipping")
				continue
			}
			if err := parseMultipart(part, nested, result); err != nil {
				slog.Warn("failed to parse nested multipart", "error", err)
			}
			continue
		}

		// multipart.Reader strips the header after decoding quoted-printable,
		// so only base64 is left for us.
		content, err := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			slog.Warn("failed to read part content",
				"content_type", mediaType,
				"error", err,
			)
			continue
		}

		disposition := part.Header.Get("Content-Disposition")
		if strings.HasPrefix(strings.ToLower(disposition), "attachment") {
			result.Attachments = append(result.Attachments, email.Attachment{
				Filename:    filename(part, mediaType, params),
				ContentType: mediaType,
				Content:     content,
			})
			continue
		}

		switch mediaType {
		case "text/plain":
			if result.TextBody == "" {
				result.TextBody = string(content)
			}
		case "text/html":
			if result.HTMLBody == "" {
				result.HTMLBody = string(content)
			}
		default:
			if part.FileName() == "" && params["name"] == "" {
				slog.Warn("unrecognized MIME part, skipping",
					"content_type", mediaType,
					"disposition", disposition,
				)
				continue
			}
			result.Attachments = append(result.Attachments, email.Attachment{
				Filename:    filename(part, mediaType, params),
				ContentType: mediaType,
				Content:     content,
			})
		}
	}
}

// decodeBody reads r fully and reverses a base64 transfer encoding.
func decodeBody(r io.Reader, encoding string) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if strings.ToLower(strings.TrimSpace(encoding)) != "base64" {
		return raw, nil
	}

	cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(string(raw))
	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 content: %w", err)
		}
	}
	return decoded, nil
}

// filename prefers Content-Disposition, then the Content-Type name
// parameter, then a name derived from the media type.
func filename(part *multipart.Part, mediaType string, params map[string]string) string {
	if fn := part.FileName(); fn != "" {
		return fn
	}
	if name := params["name"]; name != "" {
		return name
	}
	if _, sub, ok := strings.Cut(mediaType, "/"); ok {
		return "attachment." + sub
	}
	return "attachment"
}

func parseAddress(raw string) *mail.Address {
	if raw == "" {
		return nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return &mail.Address{Address: strings.TrimSpace(raw)}
	}
	return addr
}

// parseAddressList splits a comma-separated address list, falling back to
// a plain split when the header is not valid RFC 5322.
func parseAddressList(raw string) []*mail.Address {
	if raw == "" {
		return nil
	}

	addresses, err := mail.ParseAddressList(raw)
	if err == nil {
		return addresses
	}

	var result []*mail.Address
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, &mail.Address{Address: trimmed})
		}
	}
	return result
}

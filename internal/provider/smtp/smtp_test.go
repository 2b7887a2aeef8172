package smtp

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"testing"

	gomail "github.com/wneessen/go-mail"

	"github.com/shineum/courier/internal/email"
)

// mockSender implements Sender for testing.
type mockSender struct {
	err       error
	callCount int
	lastMsgs  []*gomail.Msg
}

func (m *mockSender) DialAndSendWithContext(_ context.Context, messages ...*gomail.Msg) error {
	m.callCount++
	m.lastMsgs = messages
	return m.err
}

func testMessage() *email.Message {
	return &email.Message{
		From:     &mail.Address{Address: "a@x.com"},
		To:       []*mail.Address{{Address: "b@x.com"}},
		Subject:  "report",
		HTMLBody: "<h1>ok</h1>",
		Attachments: []email.Attachment{
			{Filename: "report.html", ContentType: "text/html", Content: []byte("<h1>ok</h1>")},
		},
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	p := NewWithSender("smtp.x.com", &mockSender{})
	if got := p.Name(); got != "smtp" {
		t.Errorf("Name(): got %q, want %q", got, "smtp")
	}
}

func TestSend_SingleAttempt(t *testing.T) {
	t.Parallel()

	mock := &mockSender{}
	p := NewWithSender("smtp.x.com", mock)

	if err := p.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.callCount != 1 {
		t.Errorf("call count: got %d, want 1", mock.callCount)
	}
	if len(mock.lastMsgs) != 1 {
		t.Fatalf("messages per call: got %d, want 1", len(mock.lastMsgs))
	}

	from, err := mock.lastMsgs[0].GetSender(false)
	if err != nil {
		t.Fatalf("GetSender: %v", err)
	}
	if from != "a@x.com" {
		t.Errorf("sender: got %q, want %q", from, "a@x.com")
	}
}

func TestSend_TransportErrorNotRetried(t *testing.T) {
	t.Parallel()

	mock := &mockSender{err: errors.New("535 5.7.8 authentication failed")}
	p := NewWithSender("smtp.x.com", mock)

	err := p.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "535 5.7.8 authentication failed") {
		t.Errorf("error should carry the transport text, got %v", err)
	}
	if !errors.Is(err, mock.err) {
		t.Error("transport error should be wrapped")
	}
	if mock.callCount != 1 {
		t.Errorf("call count: got %d, want 1 (no retries)", mock.callCount)
	}
}

func TestSend_InvalidMessageNeverDials(t *testing.T) {
	t.Parallel()

	mock := &mockSender{}
	p := NewWithSender("smtp.x.com", mock)

	msg := testMessage()
	msg.To = nil

	if err := p.Send(context.Background(), msg); err == nil {
		t.Fatal("expected error for message without recipients, got nil")
	}
	if mock.callCount != 0 {
		t.Errorf("call count: got %d, want 0", mock.callCount)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("empty host", func(t *testing.T) {
		t.Parallel()
		if _, err := New(ProviderConfig{Username: "a@x.com", Password: "code"}); err == nil {
			t.Error("expected error for empty host, got nil")
		}
	})

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		p, err := New(ProviderConfig{
			Host:     "smtp.x.com",
			Username: "a@x.com",
			Password: "code",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.host != "smtp.x.com" {
			t.Errorf("host: got %q, want %q", p.host, "smtp.x.com")
		}
	})

	t.Run("malformed host", func(t *testing.T) {
		t.Parallel()
		if _, err := New(ProviderConfig{Host: "smtp..x.com"}); err == nil {
			t.Error("expected error for malformed host, got nil")
		}
	})
}

func TestValidateHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		host    string
		want    string
		wantErr bool
	}{
		{name: "plain name", host: "smtp.qq.com", want: "smtp.qq.com"},
		{name: "single label", host: "localhost", want: "localhost"},
		{name: "trailing dot", host: "smtp.x.com.", want: "smtp.x.com"},
		{name: "inner hyphen", host: "mail-relay.x.com", want: "mail-relay.x.com"},
		{name: "ipv4 literal", host: "192.0.2.10", want: "192.0.2.10"},
		{name: "ipv6 literal", host: "2001:db8::1", want: "2001:db8::1"},
		{name: "internationalized", host: "bücher.example", want: "xn--bcher-kva.example"},
		{name: "empty", host: "", wantErr: true},
		{name: "space and bang", host: "not a host!", wantErr: true},
		{name: "empty label", host: "smtp..x.com", wantErr: true},
		{name: "leading hyphen", host: "-bad-", wantErr: true},
		{name: "trailing hyphen label", host: "smtp.bad-.com", wantErr: true},
		{name: "underscore", host: "smtp_relay.x.com", wantErr: true},
		{name: "only dot", host: ".", wantErr: true},
		{name: "long label", host: strings.Repeat("a", 64) + ".com", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateHost(tt.host)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ValidateHost(%q): expected error, got %q", tt.host, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateHost(%q): unexpected error: %v", tt.host, err)
			}
			if got != tt.want {
				t.Errorf("ValidateHost(%q): got %q, want %q", tt.host, got, tt.want)
			}
		})
	}
}

package main

import (
	"bytes"
	"errors"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shineum/courier/internal/archive"
	"github.com/shineum/courier/internal/config"
	"github.com/shineum/courier/internal/courier"
	"github.com/shineum/courier/internal/email"
)

// isolate clears configuration env vars and points the outcome log at a
// temporary directory.
func isolate(t *testing.T) string {
	t.Helper()
	for _, env := range []string{
		"PROVIDER", "SMTP_SERVER", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD",
		"SMTP_TIMEOUT", "SMTP_CA_FILE", "SMTP_INSECURE_SKIP_VERIFY",
		"SES_REGION", "SES_ACCESS_KEY_ID", "SES_SECRET_ACCESS_KEY",
		"SUBJECT_PREFIX", "ARCHIVE_DIR", "LOG_LEVEL",
	} {
		t.Setenv(env, "")
	}
	out := filepath.Join(t.TempDir(), "output")
	t.Setenv("OUTPUT_DIR", out)
	return out
}

func writeReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.html")
	if err := os.WriteFile(path, []byte("<h1>ok</h1>"), 0o600); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}
	return path
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSend_MissingRequiredFlags(t *testing.T) {
	out := isolate(t)

	output, err := execute("-u", "a@x.com", "-k", "code")
	if err == nil {
		t.Fatal("expected error for missing flags, got nil")
	}
	for _, flag := range []string{"to", "report", "server"} {
		if !strings.Contains(err.Error(), flag) {
			t.Errorf("error %q should mention %q", err, flag)
		}
	}
	if !strings.Contains(output, "Usage:") {
		t.Error("usage should be printed for missing flags")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output directory should not be created when arguments are invalid")
	}
}

func TestSend_StdoutProviderWritesLog(t *testing.T) {
	out := isolate(t)
	report := writeReport(t)

	if _, err := execute("--provider", "stdout", "-u", "a@x.com", "-t", "b@x.com", "-c", "c@x.com", "-r", report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "courier.log"))
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	line := string(data)
	if !strings.HasPrefix(line, "[+] ") {
		t.Errorf("log line should start with success marker, got %q", line)
	}
	if !strings.Contains(line, "收信人：b@x.com, 抄送人：c@x.com") {
		t.Errorf("log line missing recipients, got %q", line)
	}
}

func TestSend_InvalidRecipientWritesNoLogLine(t *testing.T) {
	out := isolate(t)
	report := writeReport(t)

	_, err := execute("--provider", "stdout", "-u", "a@x.com", "-t", "not-an-address", "-r", report)
	var addrErr *courier.AddressError
	if !errors.As(err, &addrErr) {
		t.Fatalf("expected *courier.AddressError, got %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "courier.log"))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("failed to read log: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected no log line, got %q", data)
	}
}

func TestSend_MalformedServerWritesNoLogLine(t *testing.T) {
	out := isolate(t)
	report := writeReport(t)

	for _, host := range []string{"not a host!", "smtp..x.com", "-bad-"} {
		_, err := execute("-u", "a@x.com", "-k", "code", "-t", "b@x.com", "-r", report, "--server="+host)
		if err == nil {
			t.Fatalf("server %q: expected error, got nil", host)
		}
		if errors.Is(err, courier.ErrDeliveryFailed) {
			t.Errorf("server %q: should fail before delivery, got %v", host, err)
		}
	}

	if _, err := os.Stat(filepath.Join(out, "courier.log")); !os.IsNotExist(err) {
		t.Error("log file should not be created for a malformed server")
	}
}

func TestSend_UnknownProvider(t *testing.T) {
	isolate(t)

	if _, err := execute("--provider", "carrier-pigeon", "-u", "a@x.com", "-t", "b@x.com", "-r", "x.html"); err == nil {
		t.Error("expected error for unknown provider, got nil")
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestCloseLog(t *testing.T) {
	t.Parallel()

	closeErr := errors.New("disk full")
	runErr := errors.New("send failed")
	failing := closerFunc(func() error { return closeErr })
	ok := closerFunc(func() error { return nil })

	tests := []struct {
		name   string
		closer closerFunc
		runErr error
		want   error
	}{
		{name: "both succeed", closer: ok, runErr: nil, want: nil},
		{name: "close error surfaces", closer: failing, runErr: nil, want: closeErr},
		{name: "run error wins", closer: failing, runErr: runErr, want: runErr},
		{name: "run error kept", closer: ok, runErr: runErr, want: runErr},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := closeLog(tt.closer, tt.runErr)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Provider: "smtp", SMTP: config.SMTPConfig{Server: "from-config", Port: 465, Username: "cfg@x.com"}}
	applyFlags(cfg, &sendOptions{provider: "STDOUT", server: "smtp.x.com", port: 2465, key: "code"})

	if cfg.Provider != "stdout" {
		t.Errorf("Provider: got %q, want %q", cfg.Provider, "stdout")
	}
	if cfg.SMTP.Server != "smtp.x.com" {
		t.Errorf("Server: got %q, want %q", cfg.SMTP.Server, "smtp.x.com")
	}
	if cfg.SMTP.Port != 2465 {
		t.Errorf("Port: got %d, want %d", cfg.SMTP.Port, 2465)
	}
	if cfg.SMTP.Username != "cfg@x.com" {
		t.Errorf("Username: empty flag should keep config value, got %q", cfg.SMTP.Username)
	}
	if cfg.SMTP.Password != "code" {
		t.Errorf("Password: got %q, want %q", cfg.SMTP.Password, "code")
	}
}

func TestInspect(t *testing.T) {
	t.Parallel()

	msg := &email.Message{
		From:     &mail.Address{Address: "a@x.com"},
		To:       []*mail.Address{{Address: "b@x.com"}},
		Subject:  "Linux应急响应报告 - 2024-03-09 14:05:07",
		HTMLBody: "<h1>ok</h1>",
		Attachments: []email.Attachment{
			{Filename: "report.html", ContentType: "text/html", Content: []byte("<h1>ok</h1>")},
		},
	}
	path, err := archive.New(t.TempDir()).Save(msg, time.Now())
	if err != nil {
		t.Fatalf("failed to archive message: %v", err)
	}

	output, err := execute("inspect", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"From: a@x.com", "To: b@x.com", "Linux应急响应报告", "report.html (text/html, 11 B)"} {
		if !strings.Contains(output, want) {
			t.Errorf("inspect output missing %q:\n%s", want, output)
		}
	}
}

func TestInspect_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := execute("inspect", filepath.Join(t.TempDir(), "nope.eml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

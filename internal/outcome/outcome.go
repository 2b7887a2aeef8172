// Package outcome records the result of each send attempt in an append-only
// log file.
package outcome

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// TimeLayout is the timestamp format used in log lines and message subjects.
const TimeLayout = "2006-01-02 15:04:05"

// DefaultDir and DefaultFile locate the log file relative to the working directory.
const (
	DefaultDir  = "output"
	DefaultFile = "courier.log"
)

// Logger writes one line per delivery attempt to its sink.
type Logger struct {
	w      io.Writer
	closer io.Closer
}

// New creates a Logger that writes to w. Closing the Logger does not close w.
func New(w io.Writer) *Logger {
	return &Logger{w: w}
}

// Open creates dir if needed and opens file inside it for appending.
// The returned Logger owns the file handle and must be closed.
func Open(dir, file string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, file), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{w: f, closer: f}, nil
}

// Success records an accepted message. The cc field is only written when
// cc is non-empty.
func (l *Logger) Success(at time.Time, to, cc string) error {
	ts := at.Format(TimeLayout)
	var err error
	if cc != "" {
		_, err = fmt.Fprintf(l.w, "[+] %s 邮件发送成功！收信人：%s, 抄送人：%s\n", ts, to, cc)
	} else {
		_, err = fmt.Fprintf(l.w, "[+] %s 邮件发送成功！收信人：%s\n", ts, to)
	}
	if err != nil {
		return fmt.Errorf("failed to write log record: %w", err)
	}
	return nil
}

// Failure records a rejected or failed delivery with the transport's error text.
func (l *Logger) Failure(at time.Time, cause error) error {
	if _, err := fmt.Fprintf(l.w, "[!] %s 邮件发送失败: %v\n", at.Format(TimeLayout), cause); err != nil {
		return fmt.Errorf("failed to write log record: %w", err)
	}
	return nil
}

// Close releases the underlying file, if the Logger opened one.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

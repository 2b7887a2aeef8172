// Package courier composes a report email and runs the single
// load, compose, send and log pass that makes up one invocation.
package courier

import (
	"fmt"
	"strings"
)

// Request is the resolved input for one run. It is built once at startup
// and not modified afterwards.
type Request struct {
	Sender     string
	Key        string
	Recipient  string
	Cc         string
	Bcc        string
	ReportPath string
	Server     string

	// SubjectPrefix is the fixed text placed before the timestamp.
	SubjectPrefix string
}

// Validate reports every missing required field at once. Server and Key are
// only required when the message goes out over SMTP.
func (r Request) Validate(needsSMTP bool) error {
	var missing []string
	if r.Sender == "" {
		missing = append(missing, "user")
	}
	if needsSMTP && r.Key == "" {
		missing = append(missing, "key")
	}
	if r.Recipient == "" {
		missing = append(missing, "to")
	}
	if r.ReportPath == "" {
		missing = append(missing, "report")
	}
	if needsSMTP && r.Server == "" {
		missing = append(missing, "server")
	}

	if len(missing) > 0 {
		return fmt.Errorf(`required flag(s) "%s" not set`, strings.Join(missing, `", "`))
	}
	return nil
}

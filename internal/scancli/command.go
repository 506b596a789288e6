// Package scancli runs the Black Duck scan CLI and interprets what it printed.
package scancli

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

const (
	DefaultMemory = 256

	passwordFlag = "--password"
	redacted     = "********"
)

// Invocation describes one run of the scan CLI.
type Invocation struct {
	Java      string
	CLI       string
	Memory    int
	ServerURL string
	Username  string
	Password  string
	DryRun    bool
	Targets   []string
}

// Host returns the host part of the server URL.
func (inv Invocation) Host() (string, error) {
	u, err := parseServerURL(inv.ServerURL)
	if err != nil {
		return "", err
	}
	return u.Hostname(), nil
}

func parseServerURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("no server URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", raw)
	}
	return u, nil
}

// BuildCommand returns the CLI command line. The argument order is the one
// the CLI's parser expects and must not change.
func BuildCommand(inv Invocation) ([]string, error) {
	u, err := parseServerURL(inv.ServerURL)
	if err != nil {
		return nil, err
	}

	memory := inv.Memory
	if memory <= 0 {
		memory = DefaultMemory
	}

	cmd := []string{
		inv.Java,
		"-Done-jar.silent=true",
		"-jar",
		"-Xmx" + strconv.Itoa(memory) + "m",
		inv.CLI,
		"--host", u.Hostname(),
		"--username", inv.Username,
		passwordFlag, inv.Password,
	}
	if port := u.Port(); port != "" {
		cmd = append(cmd, "--port", port)
	}
	if inv.DryRun {
		cmd = append(cmd, "--dryRun")
	}
	cmd = append(cmd, inv.Targets...)
	return cmd, nil
}

// Redact returns a copy of cmd that is safe to log.
func Redact(cmd []string) []string {
	out := make([]string, len(cmd))
	copy(out, cmd)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == passwordFlag {
			out[i+1] = redacted
		}
	}
	return out
}

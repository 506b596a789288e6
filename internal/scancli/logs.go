package scancli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	// "-" + timestamp + "-" + four digit zone + ".log"
	logSuffixLen = 31
	// "-" + four digit zone + ".log"
	logZoneLen = 9

	logTimeLayout = "2006-01-02T150405.000"
)

// LogCorrelator finds the log file the CLI wrote for a scan target. The CLI
// names them <host>-<target>-<yyyy-MM-ddTHHmmss.SSS>-<zone>.log.
type LogCorrelator struct {
	fs       afero.Fs
	hostname func() (string, error)
}

func NewLogCorrelator(fs afero.Fs) *LogCorrelator {
	return &LogCorrelator{fs: fs, hostname: os.Hostname}
}

// LogDir returns the log directory next to the CLI jar: the last directory in
// cliDir whose name contains "log".
func (c *LogCorrelator) LogDir(cliDir string) (string, bool, error) {
	entries, err := afero.ReadDir(c.fs, cliDir)
	if err != nil {
		return "", false, fmt.Errorf("could not list the CLI directory %s: %w", cliDir, err)
	}

	var dir string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.Contains(e.Name(), "log") {
			dir = filepath.Join(cliDir, e.Name())
		}
	}
	return dir, dir != "", nil
}

// Latest returns the most recent log file in logDir written on this host for
// the target file name. Names that do not follow the CLI's convention are
// ignored, so a change in that convention shows up as "not found".
func (c *LogCorrelator) Latest(logDir, fileName string) (string, bool, error) {
	host, err := c.hostname()
	if err != nil {
		return "", false, fmt.Errorf("could not determine the host name: %w", err)
	}

	entries, err := afero.ReadDir(c.fs, logDir)
	if err != nil {
		return "", false, fmt.Errorf("could not list the log directory %s: %w", logDir, err)
	}

	var latest string
	var latestTime time.Time
	for _, e := range entries {
		name := e.Name()
		if !strings.Contains(name, fileName) || !strings.Contains(name, host) {
			continue
		}

		name = strings.ReplaceAll(name, host+"-", "")
		end := len(name) - logSuffixLen
		if end < 0 || name[:end] != fileName {
			continue
		}

		name = strings.ReplaceAll(name, fileName+"-", "")
		if len(name) < logZoneLen {
			continue
		}
		ts, err := time.Parse(logTimeLayout, name[:len(name)-logZoneLen])
		if err != nil {
			return "", false, fmt.Errorf("could not read the time of log file %s: %w", e.Name(), err)
		}

		if latest == "" || ts.After(latestTime) {
			latest = filepath.Join(logDir, e.Name())
			latestTime = ts
		}
	}
	return latest, latest != "", nil
}

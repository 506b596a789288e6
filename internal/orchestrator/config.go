// Package orchestrator runs the Hub scan and failure-condition steps of a
// build end to end.
package orchestrator

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/credentials"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/mapping"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/policy"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/scancli"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/scantool"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/workspace"
)

var (
	ErrNoServerURL   = errors.New("no Hub URL was provided")
	ErrNoCredentials = errors.New("no credentials could be found to connect to the Hub")
	ErrNoTargets     = errors.New("could not find any targets to scan")
)

// ScanConfig configures the scan step.
type ScanConfig struct {
	ServerURL     string
	CredentialsID string
	Installation  string
	JavaHome      string
	Jobs          []workspace.ScanJob
	Memory        int
	DryRun        bool

	// ProjectName and ProjectRelease select the release the scans are
	// mapped to. Mapping is skipped unless both are set.
	ProjectName    string
	ProjectRelease string

	IndexingPoll mapping.Poll
	BOMPoll      mapping.Poll
}

// GateConfig configures the failure-condition step.
type GateConfig struct {
	ServerURL        string
	CredentialsID    string
	FailOnViolations bool
	Steps            []build.Step
}

// HubClient is a Hub session.
type HubClient interface {
	mapping.Hub
	policy.Hub
	Login(ctx context.Context, username, password string) error
}

// Deps are the collaborators a run works with.
type Deps struct {
	Fs            afero.Fs
	Installations []scantool.Installation
	Credentials   credentials.Resolver
	Executor      scancli.Executor
	// NewHub creates a client for one run against serverURL.
	NewHub func(serverURL string) (HubClient, error)
	Logger *zerolog.Logger
	// OutputDir holds the live CLI output while a scan runs.
	OutputDir string
}

func (c ScanConfig) validate(deps Deps) error {
	var err error
	if c.ServerURL == "" {
		err = multierr.Append(err, ErrNoServerURL)
	}
	if c.CredentialsID == "" || deps.Credentials == nil {
		err = multierr.Append(err, ErrNoCredentials)
	}
	if len(c.Jobs) == 0 {
		err = multierr.Append(err, ErrNoTargets)
	}
	if len(deps.Installations) == 0 {
		err = multierr.Append(err, scantool.ErrNoInstallation)
	}
	return err
}

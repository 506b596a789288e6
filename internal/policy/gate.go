// Package policy decides whether a build fails on the policy status of the
// Hub release its scans were mapped to.
package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-version"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/buildlog"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/hubclient"
)

// MinimumHubVersion is the first Hub version that evaluates policies.
const MinimumHubVersion = "2.0.1"

var ErrInvalidStatus = errors.New("invalid policy status from the Hub")

// Hub is the part of the Hub API the gate needs.
type Hub interface {
	Version(ctx context.Context) (string, error)
	PolicyStatus(ctx context.Context, statusURL string) (*hubclient.PolicyStatus, error)
}

type Config struct {
	FailOnViolations bool
	// Steps is the configured step order of the build.
	Steps []build.Step
}

type Gate struct {
	hub        Hub
	console    buildlog.Logger
	minVersion *version.Version
}

func NewGate(hub Hub, console buildlog.Logger) *Gate {
	return &Gate{
		hub:        hub,
		console:    console,
		minVersion: version.Must(version.NewVersion(MinimumHubVersion)),
	}
}

// Check returns the build result once the failure conditions have been
// evaluated. It never returns a better result than current. An error means
// the Hub could not be asked; the caller decides what that does to the build.
func (g *Gate) Check(ctx context.Context, cfg Config, current build.Result, markers build.Markers) (build.Result, error) {
	if current != build.Success {
		g.console.Info(ctx, "The Build did not run successfully, will not check the Hub Failure Conditions.")
		return current, nil
	}

	steps := cfg.Steps
	if len(steps) == 0 {
		steps = build.DefaultSteps
	}
	if !build.ScanRunsBefore(steps, build.StepFailureConditions) || !markers.ScanFinished || markers.BomUpToDate == nil {
		g.console.Error(ctx, "The Hub scan must be configured to run before the Failure Conditions.")
		return build.Unstable, nil
	}

	if !cfg.FailOnViolations {
		g.console.Info(ctx, "The Hub failure condition step has not been configured to do anything.")
		return current, nil
	}

	supported, err := g.supportsPolicies(ctx)
	if err != nil {
		return current, err
	}
	if !supported {
		g.console.Error(ctx, "This version of the Hub does not have support for Policies.")
		return build.Unstable, nil
	}

	bom := markers.BomUpToDate
	if bom.DryRun {
		g.console.Warn(ctx, "Will not run the Failure conditions because this was a dry run scan.")
		return current, nil
	}
	if !bom.HasBomBeenUpdated {
		g.console.Warn(ctx, "The Hub has not finished updating the BOM, will not check the Hub Failure Conditions.")
		return current, nil
	}
	if bom.PolicyStatusURL == "" {
		g.console.Error(ctx, "Can not check policy violations, could not find the policy status URL for this Version.")
		return build.Unstable, nil
	}

	status, err := g.hub.PolicyStatus(ctx, bom.PolicyStatusURL)
	if err != nil {
		return current, err
	}

	inViolation, err := g.report(ctx, status)
	if err != nil {
		return current, err
	}
	if inViolation > 0 {
		return current.Combine(build.Failure), nil
	}
	return current, nil
}

func (g *Gate) supportsPolicies(ctx context.Context) (bool, error) {
	raw, err := g.hub.Version(ctx)
	if err != nil {
		return false, err
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return false, fmt.Errorf("could not read the Hub version %q: %w", raw, err)
	}
	return v.GreaterThanOrEqual(g.minVersion), nil
}

type category struct {
	name    string
	found   string
	missing string
}

var categories = []category{
	{
		name:    hubclient.StatusInViolation,
		found:   "Found %d bom entries to be In Violation of a defined Policy.",
		missing: "Could not find the number of bom entries In Violation of a Policy.",
	},
	{
		name:    hubclient.StatusInViolationOverridden,
		found:   "Found %d bom entries to be In Violation of a defined Policy, but they have been overridden.",
		missing: "Could not find the number of bom entries In Violation Overridden of a Policy.",
	},
	{
		name:    hubclient.StatusNotInViolation,
		found:   "Found %d bom entries to be Not In Violation of a defined Policy.",
		missing: "Could not find the number of bom entries Not In Violation of a Policy.",
	},
}

// report echoes every count to the console and returns the number of entries
// in violation. Missing counts are reported but do not fail the build.
func (g *Gate) report(ctx context.Context, status *hubclient.PolicyStatus) (int, error) {
	inViolation := 0
	for _, c := range categories {
		n, ok := status.Count(c.name)
		if !ok {
			g.console.Error(ctx, c.missing)
			continue
		}
		if n < 0 {
			return 0, fmt.Errorf("%w: negative %s count %d", ErrInvalidStatus, c.name, n)
		}
		g.console.Info(ctx, fmt.Sprintf(c.found, n))
		if c.name == hubclient.StatusInViolation {
			inViolation = n
		}
	}
	return inViolation, nil
}

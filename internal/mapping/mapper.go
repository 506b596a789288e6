package mapping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/buildlog"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/hubclient"
)

// ErrIndexingTimeout means the Hub did not record the scans in time. It is
// distinct from the scans being found but already mapped.
var ErrIndexingTimeout = errors.New("timed out waiting for the Hub to record the scans")

var (
	errNotIndexed    = errors.New("scans not indexed yet")
	errBOMNotUpdated = errors.New("BOM not updated yet")
)

// Poll bounds a wait on the Hub.
type Poll struct {
	Interval time.Duration
	Timeout  time.Duration
}

func DefaultIndexingPoll() Poll {
	return Poll{Interval: time.Second, Timeout: 2 * time.Minute}
}

func DefaultBOMPoll() Poll {
	return Poll{Interval: 2 * time.Second, Timeout: 5 * time.Minute}
}

// backOff makes a single attempt when no timeout is set.
func (p Poll) backOff(ctx context.Context) backoff.BackOffContext {
	if p.Timeout <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	b := backoff.NewExponentialBackOff()
	if p.Interval > 0 {
		b.InitialInterval = p.Interval
	}
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = p.Timeout
	return backoff.WithContext(b, ctx)
}

func (p Poll) wait(ctx context.Context, op backoff.Operation) error {
	return backoff.Retry(op, p.backOff(ctx))
}

// Mapper links scan locations to a release.
type Mapper struct {
	hub      Hub
	console  buildlog.Logger
	indexing Poll
	bom      Poll
}

func NewMapper(hub Hub, console buildlog.Logger, indexing, bom Poll) *Mapper {
	return &Mapper{hub: hub, console: console, indexing: indexing, bom: bom}
}

// WaitForIndexing polls until the Hub has a scan location for every target.
func (m *Mapper) WaitForIndexing(ctx context.Context, targets []string) ([]hubclient.ScanLocation, error) {
	m.console.Info(ctx, "Waiting for the scans to be recognized by the Hub server.")

	var locations []hubclient.ScanLocation
	err := m.indexing.wait(ctx, func() error {
		found, err := m.hub.FindScanLocations(ctx, targets, "")
		if err != nil {
			return backoff.Permanent(err)
		}
		if missing := missingPaths(targets, found); len(missing) > 0 {
			return fmt.Errorf("%w: %s", errNotIndexed, strings.Join(missing, ", "))
		}
		locations = found
		return nil
	})
	if errors.Is(err, errNotIndexed) {
		return nil, fmt.Errorf("%w: %w", ErrIndexingTimeout, err)
	}
	if err != nil {
		return nil, err
	}
	return locations, nil
}

// Map links every target's scan location that is not yet mapped to ref.
func (m *Mapper) Map(ctx context.Context, targets []string, ref *ReleaseRef) error {
	if _, err := m.WaitForIndexing(ctx, targets); err != nil {
		return err
	}

	unmapped, err := m.hub.FindScanLocations(ctx, targets, ref.ReleaseID)
	if err != nil {
		return err
	}
	if len(unmapped) == 0 {
		m.console.Debug(ctx, fmt.Sprintf(
			"These scans are already mapped to Project : '%s', Release : '%s'. OR there was an issue getting the Id's for the defined scan targets.",
			ref.ProjectName, ref.ReleaseName))
		return nil
	}

	ids := make([]string, 0, len(unmapped))
	for _, loc := range unmapped {
		ids = append(ids, loc.ID)
	}
	m.console.Debug(ctx, "These scan Id's were found for the scan targets.", buildlog.Attr("ids", strings.Join(ids, ",")))
	m.console.Debug(ctx, fmt.Sprintf("Linking the scan Id's to the Hub Project: '%s', and Release: '%s'.",
		ref.ProjectName, ref.ReleaseName))
	return m.hub.LinkScans(ctx, ref.ReleaseID, ids)
}

// WaitForBOM polls until the Hub has finished processing every target's
// scan, and reports whether it did so in time. Running out of time is not an
// error.
func (m *Mapper) WaitForBOM(ctx context.Context, targets []string) (bool, error) {
	err := m.bom.wait(ctx, func() error {
		found, err := m.hub.FindScanLocations(ctx, targets, "")
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(missingPaths(targets, found)) > 0 {
			return errBOMNotUpdated
		}
		for _, loc := range found {
			if loc.Status != hubclient.ScanStatusComplete {
				return errBOMNotUpdated
			}
		}
		return nil
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errBOMNotUpdated):
		m.console.Warn(ctx, "The Hub did not finish updating the BOM in time.")
		return false, nil
	default:
		return false, err
	}
}

func missingPaths(targets []string, found []hubclient.ScanLocation) []string {
	seen := make(map[string]bool, len(found))
	for _, loc := range found {
		seen[loc.Path] = true
	}
	var missing []string
	for _, t := range targets {
		if !seen[t] {
			missing = append(missing, t)
		}
	}
	return missing
}

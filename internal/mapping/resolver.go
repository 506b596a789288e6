// Package mapping finds the Hub project release a build maps to and links the
// build's scans to it.
package mapping

import (
	"context"
	"errors"
	"fmt"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/buildlog"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/hubclient"
)

var (
	ErrProjectNotFound  = errors.New("the specified Project could not be found")
	ErrProjectAmbiguous = errors.New("more than one Project was found with the same name")
	ErrReleaseNotFound  = errors.New("the specified Release could not be found in the Project")
)

// Hub is the part of the Hub API mapping needs.
type Hub interface {
	FindProjects(ctx context.Context, name string) ([]hubclient.Project, error)
	FindReleases(ctx context.Context, projectID string) ([]hubclient.Release, error)
	FindScanLocations(ctx context.Context, paths []string, excludeReleaseID string) ([]hubclient.ScanLocation, error)
	LinkScans(ctx context.Context, releaseID string, scanIDs []string) error
}

// ReleaseRef identifies a release on the Hub.
type ReleaseRef struct {
	ProjectName     string
	ProjectID       string
	ReleaseName     string
	ReleaseID       string
	PolicyStatusURL string
}

type Resolver struct {
	hub     Hub
	console buildlog.Logger
}

func NewResolver(hub Hub, console buildlog.Logger) *Resolver {
	return &Resolver{hub: hub, console: console}
}

// Resolve finds the release called releaseName in the project called
// projectName. The project name must match exactly one project.
func (r *Resolver) Resolve(ctx context.Context, projectName, releaseName string) (*ReleaseRef, error) {
	found, err := r.hub.FindProjects(ctx, projectName)
	if err != nil {
		return nil, err
	}
	// The Hub matches names loosely.
	var projects []hubclient.Project
	for _, p := range found {
		if p.Name == projectName {
			projects = append(projects, p)
		}
	}
	switch {
	case len(projects) == 0:
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectName)
	case len(projects) > 1:
		return nil, fmt.Errorf("%w: %s", ErrProjectAmbiguous, projectName)
	}
	project := projects[0]
	r.console.Debug(ctx, fmt.Sprintf("Project Id: '%s'", project.ID))

	releases, err := r.hub.FindReleases(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	for _, rel := range releases {
		if rel.Name != releaseName {
			continue
		}
		r.console.Debug(ctx, fmt.Sprintf("Release Id: '%s'", rel.ID))
		return &ReleaseRef{
			ProjectName:     project.Name,
			ProjectID:       project.ID,
			ReleaseName:     rel.Name,
			ReleaseID:       rel.ID,
			PolicyStatusURL: rel.PolicyStatusURL,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrReleaseNotFound, releaseName)
}

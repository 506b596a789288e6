package hubclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const pageLimit = "100"

// Login starts a session. Later requests carry the session cookie.
func (c *HubClient) Login(ctx context.Context, username, password string) error {
	form := url.Values{
		"j_username": []string{username},
		"j_password": []string{password},
	}
	resp, err := c.do(ctx, "login", http.MethodPost, c.endpoint(nil, "j_spring_security_check").String(),
		strings.NewReader(form.Encode()), MIMETypeForm)
	if err != nil {
		return err
	}
	//nolint:errcheck // draining the body is best effort
	io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Version returns the server version, e.g. "2.1.4".
func (c *HubClient) Version(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, "get server version", http.MethodGet, c.endpoint(nil, "api", "v1", "current-version").String(), nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck // errors in deferred close are not critical

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("get server version: %w", err)
	}

	var version string
	if err := json.Unmarshal(body, &version); err != nil {
		version = strings.Trim(strings.TrimSpace(string(body)), `"`)
	}
	if version == "" {
		return "", fmt.Errorf("get server version: %w: empty version", ErrInvalidResponse)
	}
	return version, nil
}

// FindProjects returns the projects whose name matches name exactly.
func (c *HubClient) FindProjects(ctx context.Context, name string) ([]Project, error) {
	query := url.Values{
		"q":     []string{"name:" + name},
		"limit": []string{pageLimit},
	}
	var list projectList
	if err := c.getJSON(ctx, "find projects", c.endpoint(query, "api", "projects").String(), &list); err != nil {
		return nil, err
	}

	projects := []Project{}
	for _, item := range list.Items {
		if item.Name != name {
			continue
		}
		projects = append(projects, Project{
			ID:   idFromHref(item.Meta.Href),
			Name: item.Name,
			Href: item.Meta.Href,
		})
	}
	return projects, nil
}

// FindReleases returns the releases of a project.
func (c *HubClient) FindReleases(ctx context.Context, projectID string) ([]Release, error) {
	query := url.Values{"limit": []string{pageLimit}}
	var list releaseList
	if err := c.getJSON(ctx, "find releases", c.endpoint(query, "api", "projects", projectID, "versions").String(), &list); err != nil {
		return nil, err
	}

	releases := make([]Release, 0, len(list.Items))
	for _, item := range list.Items {
		releases = append(releases, Release{
			ID:              idFromHref(item.Meta.Href),
			Name:            item.VersionName,
			Href:            item.Meta.Href,
			PolicyStatusURL: item.Meta.link(policyStatusRel),
		})
	}
	return releases, nil
}

// FindScanLocations returns the scan locations recorded for paths. When
// excludeReleaseID is set, locations already mapped to that release are left
// out.
func (c *HubClient) FindScanLocations(ctx context.Context, paths []string, excludeReleaseID string) ([]ScanLocation, error) {
	query := url.Values{"path": paths}
	if excludeReleaseID != "" {
		query.Set("excludeVersion", excludeReleaseID)
	}
	var list scanLocationList
	if err := c.getJSON(ctx, "find scan locations", c.endpoint(query, "api", "v1", "scanlocations").String(), &list); err != nil {
		return nil, err
	}
	if list.Items == nil {
		return []ScanLocation{}, nil
	}
	return list.Items, nil
}

// LinkScans maps the scan locations to a release.
func (c *HubClient) LinkScans(ctx context.Context, releaseID string, scanIDs []string) error {
	body, err := json.Marshal(linkScansRequest{ScanLocationIDs: scanIDs})
	if err != nil {
		return fmt.Errorf("link scans: %w", err)
	}
	resp, err := c.do(ctx, "link scans", http.MethodPost,
		c.endpoint(nil, "api", "v1", "versions", releaseID, "scanlocations").String(),
		bytes.NewReader(body), MIMETypeJSON)
	if err != nil {
		return err
	}
	//nolint:errcheck // draining the body is best effort
	io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// PolicyStatus fetches the policy status at statusURL, as advertised by a
// release.
func (c *HubClient) PolicyStatus(ctx context.Context, statusURL string) (*PolicyStatus, error) {
	target, err := c.baseURL.Parse(statusURL)
	if err != nil {
		return nil, fmt.Errorf("get policy status: invalid URL %q: %w", statusURL, err)
	}

	var raw policyStatusResponse
	if err := c.getJSON(ctx, "get policy status", target.String(), &raw); err != nil {
		return nil, err
	}

	status := &PolicyStatus{OverallStatus: raw.OverallStatus, Counts: map[string]int{}}
	for _, count := range raw.Counts {
		status.Counts[count.Name] = count.Value
	}
	return status, nil
}

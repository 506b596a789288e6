package mocks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
)

const sessionCookie = "JSESSIONID"

type MockProject struct {
	ID       string
	Name     string
	Releases []MockRelease
}

type MockRelease struct {
	ID   string
	Name string
	// Policy is served at the release's policy-status link. Nil means the
	// release advertises no such link.
	Policy *MockPolicy
}

type MockPolicy struct {
	OverallStatus string
	Counts        map[string]int
}

type MockScanLocation struct {
	ID            string
	Path          string
	MappedRelease string
	// Status overrides the computed scan summary status.
	Status string
}

// MockHub is an in-memory Hub server. Configure the exported fields before
// calling Start.
type MockHub struct {
	Username string
	Password string
	Version  string

	Projects  []MockProject
	Locations []MockScanLocation

	// IndexingDelay is the number of scan location lookups that find
	// nothing, as if the server had not indexed the scans yet.
	IndexingDelay int
	// BOMDelay is the number of further lookups that report the scans as
	// still being processed.
	BOMDelay int
	// Failures answers requests to a path with a status code.
	Failures map[string]int

	mu          sync.Mutex
	scanLookups int
	linked      map[string][]string
	requests    []string
}

func (h *MockHub) Start() *httptest.Server {
	h.linked = map[string][]string{}
	return httptest.NewServer(http.HandlerFunc(h.serve))
}

// Linked returns the scan location ids linked to a release.
func (h *MockHub) Linked(releaseID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.linked[releaseID])
}

// Requests returns "METHOD path" for every request served.
func (h *MockHub) Requests() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.requests)
}

func (h *MockHub) serve(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, r.Method+" "+r.URL.Path)

	if code, ok := h.Failures[r.URL.Path]; ok {
		w.WriteHeader(code)
		return
	}

	if r.URL.Path == "/j_spring_security_check" {
		h.login(w, r)
		return
	}
	if c, err := r.Cookie(sessionCookie); err != nil || c.Value != "mock-session" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	base := "http://" + r.Host
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/current-version":
		writeJSON(w, h.Version)
	case r.Method == http.MethodGet && r.URL.Path == "/api/projects":
		h.projects(w, r, base)
	case r.Method == http.MethodGet && len(parts) == 4 && parts[0] == "api" && parts[1] == "projects" && parts[3] == "versions":
		h.releases(w, parts[2], base)
	case r.Method == http.MethodGet && len(parts) == 6 && parts[0] == "api" && parts[5] == "policy-status":
		h.policyStatus(w, parts[2], parts[4])
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/scanlocations":
		h.scanLocations(w, r)
	case r.Method == http.MethodPost && len(parts) == 5 && parts[2] == "versions" && parts[4] == "scanlocations":
		h.link(w, r, parts[3])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *MockHub) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.ParseForm() != nil ||
		r.PostForm.Get("j_username") != h.Username || r.PostForm.Get("j_password") != h.Password {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "mock-session", Path: "/"})
	w.WriteHeader(http.StatusNoContent)
}

func (h *MockHub) projects(w http.ResponseWriter, r *http.Request, base string) {
	name := strings.TrimPrefix(r.URL.Query().Get("q"), "name:")
	items := []map[string]any{}
	for _, p := range h.Projects {
		if !strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			continue
		}
		items = append(items, map[string]any{
			"name":  p.Name,
			"_meta": map[string]any{"href": base + "/api/projects/" + p.ID},
		})
	}
	writeJSON(w, map[string]any{"totalCount": len(items), "items": items})
}

func (h *MockHub) releases(w http.ResponseWriter, projectID, base string) {
	for _, p := range h.Projects {
		if p.ID != projectID {
			continue
		}
		items := []map[string]any{}
		for _, rel := range p.Releases {
			href := base + "/api/projects/" + p.ID + "/versions/" + rel.ID
			links := []map[string]string{}
			if rel.Policy != nil {
				links = append(links, map[string]string{"rel": "policy-status", "href": href + "/policy-status"})
			}
			items = append(items, map[string]any{
				"versionName": rel.Name,
				"_meta":       map[string]any{"href": href, "links": links},
			})
		}
		writeJSON(w, map[string]any{"totalCount": len(items), "items": items})
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *MockHub) policyStatus(w http.ResponseWriter, projectID, releaseID string) {
	for _, p := range h.Projects {
		for _, rel := range p.Releases {
			if p.ID != projectID || rel.ID != releaseID || rel.Policy == nil {
				continue
			}
			counts := []map[string]any{}
			for name, value := range rel.Policy.Counts {
				counts = append(counts, map[string]any{"name": name, "value": value})
			}
			writeJSON(w, map[string]any{
				"overallStatus":                rel.Policy.OverallStatus,
				"componentVersionStatusCounts": counts,
			})
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *MockHub) scanLocations(w http.ResponseWriter, r *http.Request) {
	h.scanLookups++
	items := []map[string]string{}
	if h.scanLookups > h.IndexingDelay {
		status := "COMPLETE"
		if h.scanLookups <= h.IndexingDelay+h.BOMDelay {
			status = "IN_PROGRESS"
		}
		paths := r.URL.Query()["path"]
		exclude := r.URL.Query().Get("excludeVersion")
		for _, loc := range h.Locations {
			if !slices.Contains(paths, loc.Path) || (exclude != "" && loc.MappedRelease == exclude) {
				continue
			}
			s := status
			if loc.Status != "" {
				s = loc.Status
			}
			items = append(items, map[string]string{
				"id":                   loc.ID,
				"path":                 loc.Path,
				"mappedProjectVersion": loc.MappedRelease,
				"status":               s,
			})
		}
	}
	writeJSON(w, map[string]any{"items": items})
}

func (h *MockHub) link(w http.ResponseWriter, r *http.Request, releaseID string) {
	var body struct {
		ScanLocationIDs []string `json:"scanLocationIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.linked[releaseID] = append(h.linked[releaseID], body.ScanLocationIDs...)
	for i := range h.Locations {
		if slices.Contains(body.ScanLocationIDs, h.Locations[i].ID) {
			h.Locations[i].MappedRelease = releaseID
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // test server
	json.NewEncoder(w).Encode(v)
}

package hubclient

// Policy status categories the Hub counts BOM entries in.
const (
	StatusInViolation           = "IN_VIOLATION"
	StatusInViolationOverridden = "IN_VIOLATION_OVERRIDDEN"
	StatusNotInViolation        = "NOT_IN_VIOLATION"
)

// Scan summary status of a scan location once its BOM is built.
const ScanStatusComplete = "COMPLETE"

const policyStatusRel = "policy-status"

type Project struct {
	ID   string
	Name string
	Href string
}

type Release struct {
	ID              string
	Name            string
	Href            string
	PolicyStatusURL string
}

// ScanLocation is the server-side record of a scanned path.
type ScanLocation struct {
	ID                   string `json:"id"`
	Path                 string `json:"path"`
	MappedProjectVersion string `json:"mappedProjectVersion,omitempty"`
	Status               string `json:"status,omitempty"`
}

// PolicyStatus is a release's policy status. Counts only holds the
// categories the server reported.
type PolicyStatus struct {
	OverallStatus string
	Counts        map[string]int
}

// Count returns the number of BOM entries in a category, and whether the
// server reported that category.
func (p *PolicyStatus) Count(category string) (int, bool) {
	n, ok := p.Counts[category]
	return n, ok
}

type (
	link struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	}

	meta struct {
		Href  string `json:"href"`
		Links []link `json:"links,omitempty"`
	}

	projectItem struct {
		Name string `json:"name"`
		Meta meta   `json:"_meta"`
	}

	projectList struct {
		TotalCount int           `json:"totalCount"`
		Items      []projectItem `json:"items"`
	}

	releaseItem struct {
		VersionName string `json:"versionName"`
		Meta        meta   `json:"_meta"`
	}

	releaseList struct {
		TotalCount int           `json:"totalCount"`
		Items      []releaseItem `json:"items"`
	}

	scanLocationList struct {
		Items []ScanLocation `json:"items"`
	}

	linkScansRequest struct {
		ScanLocationIDs []string `json:"scanLocationIds"`
	}

	statusCount struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	policyStatusResponse struct {
		OverallStatus string        `json:"overallStatus"`
		Counts        []statusCount `json:"componentVersionStatusCounts"`
	}
)

func (m meta) link(rel string) string {
	for _, l := range m.Links {
		if l.Rel == rel {
			return l.Href
		}
	}
	return ""
}

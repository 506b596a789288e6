package build

// Step names a configured build step, in the order the host runs them.
type Step string

const (
	StepScan              Step = "hub-scan"
	StepFailureConditions Step = "hub-failure-conditions"
)

// DefaultSteps is the step sequence used when the host does not report one.
var DefaultSteps = []Step{StepScan, StepFailureConditions}

// ScanRunsBefore reports whether the scan step is configured to run before
// step. A step missing from the sequence is treated as running last.
func ScanRunsBefore(steps []Step, step Step) bool {
	scanAt, stepAt := -1, len(steps)
	for i, s := range steps {
		if s == StepScan && scanAt < 0 {
			scanAt = i
		}
		if s == step && step != StepScan {
			stepAt = i
		}
	}
	return scanAt >= 0 && scanAt < stepAt
}

// BomUpToDate is left by the scan step once the release has been reconciled.
type BomUpToDate struct {
	HasBomBeenUpdated bool   `json:"hasBomBeenUpdated"`
	DryRun            bool   `json:"dryRun"`
	PolicyStatusURL   string `json:"policyStatusUrl,omitempty"`
}

// Markers are what the scan step records on the build for later steps.
type Markers struct {
	ScanFinished bool         `json:"scanFinished"`
	BomUpToDate  *BomUpToDate `json:"bomUpToDate,omitempty"`
}

package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
)

// ScanReport is what the scan step hands to the steps after it.
type ScanReport struct {
	Result build.Result `json:"result"`
	RunID  string       `json:"runId,omitempty"`
	build.Markers
	Targets []string `json:"targets,omitempty"`
	// LogFiles maps a target to the CLI log written for it.
	LogFiles map[string]string `json:"logFiles,omitempty"`
}

func (r *ScanReport) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scan report: %w", err)
	}
	return data, nil
}

func UnmarshalScanReport(data []byte) (*ScanReport, error) {
	var r ScanReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode scan report: %w", err)
	}
	return &r, nil
}

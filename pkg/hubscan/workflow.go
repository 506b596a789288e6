package hubscan

import (
	"fmt"

	"github.com/snyk/go-application-framework/pkg/workflow"
)

const (
	scanWorkflowIDStr              = "hub scan"
	failureConditionsWorkflowIDStr = "hub failure-conditions"

	contentTypeScanReport = "application/vnd.hub-scan-report+json"
	contentTypeJSON       = "application/json"
)

var (
	// ScanWorkflowID runs the scan CLI and maps the scans to a Hub release.
	ScanWorkflowID workflow.Identifier = workflow.NewWorkflowIdentifier(scanWorkflowIDStr)

	// FailureConditionsWorkflowID checks the policy status of the release the
	// scans were mapped to. Its input is the output of ScanWorkflowID.
	FailureConditionsWorkflowID workflow.Identifier = workflow.NewWorkflowIdentifier(failureConditionsWorkflowIDStr)

	// ScanReportTypeID identifies the report the scan hands to later steps.
	ScanReportTypeID workflow.Identifier = workflow.NewTypeIdentifier(ScanWorkflowID, "hub-scan-report")

	// ResultTypeID identifies the build result the failure conditions produce.
	ResultTypeID workflow.Identifier = workflow.NewTypeIdentifier(FailureConditionsWorkflowID, "hub-build-result")
)

// Init registers the Hub workflows.
func Init(engine workflow.Engine) error {
	_, err := engine.Register(
		ScanWorkflowID,
		workflow.ConfigurationOptionsFromFlagset(getScanFlagSet()),
		scanCallback)
	if err != nil {
		return fmt.Errorf("failed to register workflow: %w", err)
	}

	_, err = engine.Register(
		FailureConditionsWorkflowID,
		workflow.ConfigurationOptionsFromFlagset(getFailureConditionsFlagSet()),
		failureConditionsCallback)
	if err != nil {
		return fmt.Errorf("failed to register workflow: %w", err)
	}

	return nil
}

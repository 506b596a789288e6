package scancli

import (
	"strings"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
)

const (
	finishedMarker = "Finished in"
	successMarker  = "with status SUCCESS"
	errorMarker    = "ERROR"
)

// Classify decides the build result from the CLI output. The first matching
// rule wins.
func Classify(output string) build.Result {
	if !strings.Contains(output, finishedMarker) || !strings.Contains(output, successMarker) {
		return build.Unstable
	}
	if strings.Contains(output, errorMarker) {
		return build.Unstable
	}
	return build.Success
}

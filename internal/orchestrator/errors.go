package orchestrator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/multierr"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/hubclient"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/scantool"
)

// consoleText is how configuration problems read on the build console.
var consoleText = []struct {
	err  error
	text string
}{
	{ErrNoServerURL, "No Hub URL was provided."},
	{ErrNoCredentials, "No credentials could be found to connect to the Hub."},
	{ErrNoTargets, "Could not find any targets to scan."},
	{scantool.ErrNoInstallationSelected, "You need to select which BlackDuck Scan installation to use."},
	{scantool.ErrJavaNotConfigured, "Need to define a JAVA_HOME or select an installed JDK."},
}

// userMessages turns an error into the lines shown on the build console.
// Known Hub failures get a friendlier wording.
func userMessages(err error, serverURL string) []string {
	errs := multierr.Errors(err)
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, userMessage(e, serverURL))
	}
	return msgs
}

func userMessage(err error, serverURL string) string {
	for _, ct := range consoleText {
		if errors.Is(err, ct.err) {
			return ct.text
		}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case hubclient.IsStatus(err, http.StatusServiceUnavailable), strings.Contains(lower, "service unavailable"):
		return fmt.Sprintf("Can not reach this server : %s", serverURL)
	case hubclient.IsStatus(err, http.StatusPreconditionFailed), strings.Contains(lower, "precondition failed"):
		return msg + ", Check your configuration."
	}
	return msg
}

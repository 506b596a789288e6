package hubscan

import (
	"github.com/spf13/pflag"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
)

const (
	FlagURL                = "hub-url"
	FlagCredentialsID      = "hub-credentials-id"
	FlagCredentialsFile    = "hub-credentials-file"
	FlagTimeout            = "hub-timeout"
	FlagProxyHost          = "hub-proxy-host"
	FlagProxyPort          = "hub-proxy-port"
	FlagNoProxyHosts       = "hub-no-proxy-hosts"
	FlagInstallations      = "hub-scan-installations"
	FlagInstallation       = "hub-scan-installation"
	FlagNode               = "hub-node"
	FlagJavaHome           = "java-home"
	FlagWorkspace          = "hub-workspace"
	FlagBuildResult        = "hub-build-result"
	FlagScanTargets        = "hub-scan-targets"
	FlagProjectName        = "hub-project-name"
	FlagProjectRelease     = "hub-project-release"
	FlagScanMemory         = "hub-scan-memory"
	FlagDryRun             = "hub-dry-run"
	FlagIndexTimeout       = "hub-index-timeout"
	FlagBOMTimeout         = "hub-bom-timeout"
	FlagBuildSteps         = "hub-build-steps"
	FlagFailOnPolicyIssues = "hub-fail-on-policy-violations"
)

const (
	defaultTimeoutSeconds      = 120
	defaultIndexTimeoutSeconds = 120
	defaultBOMTimeoutSeconds   = 300
)

func addConnectionFlags(flagSet *pflag.FlagSet) {
	flagSet.String(FlagURL, "", "URL of the Hub server.")
	flagSet.String(FlagCredentialsID, "", "Id of the credentials used to connect to the Hub.")
	flagSet.String(FlagCredentialsFile, "", "YAML file holding the credentials by id.")
	flagSet.Int(FlagTimeout, defaultTimeoutSeconds, "Timeout in seconds for requests to the Hub.")
	flagSet.String(FlagProxyHost, "", "HTTP proxy host.")
	flagSet.Int(FlagProxyPort, 0, "HTTP proxy port.")
	flagSet.String(FlagNoProxyHosts, "", "Comma separated host patterns that bypass the proxy.")
	flagSet.String(FlagWorkspace, "", "Workspace of the build. Defaults to the input directory.")
	flagSet.String(FlagBuildResult, build.Success.String(), "Result of the build so far.")
}

func getScanFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("hub-scan", pflag.ExitOnError)
	addConnectionFlags(flagSet)

	flagSet.String(FlagInstallations, "", "YAML file listing the BlackDuck Scan installations.")
	flagSet.String(FlagInstallation, "", "Name of the BlackDuck Scan installation to use.")
	flagSet.String(FlagNode, "", "Name of the node the build runs on. Empty for the controller.")
	flagSet.String(FlagJavaHome, "", "Java installation used to run the scan. Defaults to JAVA_HOME.")
	flagSet.StringSlice(FlagScanTargets, nil, "Paths to scan, relative to the workspace. Defaults to the whole workspace.")
	flagSet.String(FlagProjectName, "", "Hub project the scans are mapped to.")
	flagSet.String(FlagProjectRelease, "", "Release of the Hub project the scans are mapped to.")
	flagSet.Int(FlagScanMemory, 0, "Memory in MB for the scan. Defaults to 256.")
	flagSet.Bool(FlagDryRun, false, "Run the scan without sending results to the Hub.")
	flagSet.Int(FlagIndexTimeout, defaultIndexTimeoutSeconds, "Seconds to wait for the Hub to record the scans.")
	flagSet.Int(FlagBOMTimeout, defaultBOMTimeoutSeconds, "Seconds to wait for the Hub to update the BOM.")

	return flagSet
}

func getFailureConditionsFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("hub-failure-conditions", pflag.ExitOnError)
	addConnectionFlags(flagSet)

	flagSet.StringSlice(FlagBuildSteps, stepNames(build.DefaultSteps), "Configured build steps, in the order they run.")
	flagSet.Bool(FlagFailOnPolicyIssues, false, "Fail the build when BOM entries are in violation of a policy.")

	return flagSet
}

// FlagSet returns every flag of both workflows, for drivers that bind them
// to a command line.
func FlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("hub", pflag.ExitOnError)
	flagSet.AddFlagSet(getScanFlagSet())
	flagSet.AddFlagSet(getFailureConditionsFlagSet())
	return flagSet
}

func stepNames(steps []build.Step) []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, string(s))
	}
	return names
}

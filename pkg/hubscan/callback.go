package hubscan

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/snyk/go-application-framework/pkg/configuration"
	"github.com/snyk/go-application-framework/pkg/workflow"
	"github.com/spf13/afero"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/buildlog"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/credentials"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/hubclient"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/mapping"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/orchestrator"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/scancli"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/scantool"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/workspace"
)

// environment is what the callbacks take from the process they run in.
type environment struct {
	fs       afero.Fs
	executor scancli.Executor
	stdout   io.Writer
	environ  func() []string
}

func defaultEnvironment() environment {
	return environment{
		fs:       afero.NewOsFs(),
		executor: scancli.NewExecutor(),
		stdout:   os.Stdout,
		environ:  os.Environ,
	}
}

func scanCallback(ictx workflow.InvocationContext, input []workflow.Data) ([]workflow.Data, error) {
	return scanCallbackWithDI(ictx, input, defaultEnvironment())
}

func scanCallbackWithDI(ictx workflow.InvocationContext, _ []workflow.Data, env environment) ([]workflow.Data, error) {
	ctx := context.Background()
	config := ictx.GetConfiguration()
	logger := ictx.GetEnhancedLogger()

	logger.Debug().Msg("Hub scan workflow start")

	bctx, err := newBuildContext(config, logger, env)
	if err != nil {
		return nil, err
	}

	deps := newDeps(ctx, ictx, bctx, env)
	report := orchestrator.RunScan(ctx, bctx, scanConfig(config), deps)

	payload, err := report.Marshal()
	if err != nil {
		return nil, newSCAFailure(err)
	}
	return []workflow.Data{workflow.NewData(ScanReportTypeID, contentTypeScanReport, payload)}, nil
}

func failureConditionsCallback(ictx workflow.InvocationContext, input []workflow.Data) ([]workflow.Data, error) {
	return failureConditionsCallbackWithDI(ictx, input, defaultEnvironment())
}

func failureConditionsCallbackWithDI(ictx workflow.InvocationContext, input []workflow.Data, env environment) ([]workflow.Data, error) {
	ctx := context.Background()
	config := ictx.GetConfiguration()
	logger := ictx.GetEnhancedLogger()

	logger.Debug().Msg("Hub failure conditions workflow start")

	bctx, err := newBuildContext(config, logger, env)
	if err != nil {
		return nil, err
	}

	report, err := scanReportFromInput(input)
	if err != nil {
		return nil, newSCAFailure(err)
	}
	if report != nil {
		bctx.Result = bctx.Result.Combine(report.Result)
	}

	steps, err := buildSteps(config.GetStringSlice(FlagBuildSteps))
	if err != nil {
		return nil, newSCAFailure(err)
	}

	deps := newDeps(ctx, ictx, bctx, env)
	result := orchestrator.CheckFailureConditions(ctx, bctx, orchestrator.GateConfig{
		ServerURL:        config.GetString(FlagURL),
		CredentialsID:    config.GetString(FlagCredentialsID),
		FailOnViolations: config.GetBool(FlagFailOnPolicyIssues),
		Steps:            steps,
	}, report, deps)

	output := []workflow.Data{workflow.NewData(ResultTypeID, contentTypeJSON, []byte(fmt.Sprintf("%q", result.String())))}
	if result == build.Failure {
		return output, newExitCodeError(exitCodeFailure, "The Hub failure conditions failed the build.", nil)
	}
	return output, nil
}

func newBuildContext(config configuration.Configuration, logger *zerolog.Logger, env environment) (build.Context, error) {
	result, err := build.ParseResult(config.GetString(FlagBuildResult))
	if err != nil {
		return build.Context{}, newSCAFailure(err)
	}

	root, err := workspaceRoot(config)
	if err != nil {
		return build.Context{}, newSCAFailure(err)
	}

	return build.Context{
		Workspace: root,
		Env:       envMap(env.environ()),
		Node:      build.Node{Name: config.GetString(FlagNode)},
		Result:    result,
		Console:   buildlog.Tee(buildlog.NewConsole(env.stdout), buildlog.NewFromZerolog(logger)),
	}, nil
}

func workspaceRoot(config configuration.Configuration) (string, error) {
	root := config.GetString(FlagWorkspace)
	if root == "" {
		root = config.GetString(configuration.INPUT_DIRECTORY)
	}
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace %s: %w", root, err)
	}
	return abs, nil
}

func envMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

func scanConfig(config configuration.Configuration) orchestrator.ScanConfig {
	return orchestrator.ScanConfig{
		ServerURL:      config.GetString(FlagURL),
		CredentialsID:  config.GetString(FlagCredentialsID),
		Installation:   config.GetString(FlagInstallation),
		JavaHome:       config.GetString(FlagJavaHome),
		Jobs:           scanJobs(config.GetStringSlice(FlagScanTargets)),
		Memory:         config.GetInt(FlagScanMemory),
		DryRun:         config.GetBool(FlagDryRun),
		ProjectName:    strings.TrimSpace(config.GetString(FlagProjectName)),
		ProjectRelease: strings.TrimSpace(config.GetString(FlagProjectRelease)),
		IndexingPoll:   withTimeout(mapping.DefaultIndexingPoll(), config.GetInt(FlagIndexTimeout)),
		BOMPoll:        withTimeout(mapping.DefaultBOMPoll(), config.GetInt(FlagBOMTimeout)),
	}
}

// scanJobs scans the whole workspace when no target is configured.
func scanJobs(targets []string) []workspace.ScanJob {
	if len(targets) == 0 {
		return []workspace.ScanJob{{}}
	}
	jobs := make([]workspace.ScanJob, 0, len(targets))
	for _, t := range targets {
		jobs = append(jobs, workspace.ScanJob{Target: strings.TrimSpace(t)})
	}
	return jobs
}

func withTimeout(p mapping.Poll, seconds int) mapping.Poll {
	if seconds > 0 {
		p.Timeout = time.Duration(seconds) * time.Second
	}
	return p
}

func buildSteps(names []string) ([]build.Step, error) {
	if len(names) == 0 {
		return build.DefaultSteps, nil
	}
	steps := make([]build.Step, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, fmt.Errorf("invalid %s: empty step name", FlagBuildSteps)
		}
		steps = append(steps, build.Step(n))
	}
	return steps, nil
}

// newDeps wires the collaborators of a run. Registry and credential files
// that cannot be read are reported on the console; the run then fails its
// own validation and leaves the build unstable.
func newDeps(ctx context.Context, ictx workflow.InvocationContext, bctx build.Context, env environment) orchestrator.Deps {
	config := ictx.GetConfiguration()
	logger := ictx.GetEnhancedLogger()

	deps := orchestrator.Deps{
		Fs:       env.fs,
		Executor: env.executor,
		Logger:   logger,
	}

	if path := config.GetString(FlagInstallations); path != "" {
		installations, err := scantool.LoadInstallations(env.fs, path)
		if err != nil {
			bctx.Console.Error(ctx, err.Error())
		}
		deps.Installations = installations
	}

	if path := config.GetString(FlagCredentialsFile); path != "" {
		store, err := credentials.LoadFileStore(env.fs, path)
		if err != nil {
			bctx.Console.Error(ctx, err.Error())
		} else {
			deps.Credentials = store
		}
	}

	network := ictx.GetNetworkAccess()
	opts := hubOptions(config, network)
	deps.NewHub = func(serverURL string) (orchestrator.HubClient, error) {
		client, err := hubclient.NewHubClient(network.GetHttpClient(), serverURL, opts, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	return deps
}

// requestDecorator is the part of the framework's network access that adds
// its headers to a request.
type requestDecorator interface {
	AddHeaders(request *http.Request) error
}

func hubOptions(config configuration.Configuration, network any) hubclient.Options {
	opts := hubclient.Options{
		Proxy: hubclient.ProxyConfig{
			Host:         config.GetString(FlagProxyHost),
			Port:         config.GetInt(FlagProxyPort),
			NoProxyHosts: hubclient.ParseNoProxyHosts(config.GetString(FlagNoProxyHosts)),
		},
		Timeout: time.Duration(config.GetInt(FlagTimeout)) * time.Second,
		//nolint:gosec // honours the framework's insecure setting
		TLS: &tls.Config{InsecureSkipVerify: config.GetBool(configuration.INSECURE_HTTPS)},
	}
	if d, ok := network.(requestDecorator); ok {
		opts.Decorate = d.AddHeaders
	}
	return opts
}

func scanReportFromInput(input []workflow.Data) (*orchestrator.ScanReport, error) {
	for _, d := range input {
		if d.GetContentType() != contentTypeScanReport {
			continue
		}
		payload, ok := d.GetPayload().([]byte)
		if !ok {
			return nil, fmt.Errorf("unexpected scan report payload %T", d.GetPayload())
		}
		return orchestrator.UnmarshalScanReport(payload)
	}
	return nil, nil
}

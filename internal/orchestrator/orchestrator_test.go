package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/buildlog"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/credentials"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/hubclient"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/mapping"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/mocks"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/scancli"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/scantool"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/workspace"
)

const cliSuccess = "INFO: Scanning /ws\nINFO: Finished in 7 seconds with status SUCCESS\n"

type testEnv struct {
	bctx     build.Context
	console  *bytes.Buffer
	cfg      ScanConfig
	gate     GateConfig
	deps     Deps
	hub      *mocks.MockHub
	server   *httptest.Server
	executor *mocks.MockExecutor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/ws/sub", 0o755))
	require.NoError(t, fs.MkdirAll("/usr/lib/jvm/jdk8", 0o755))
	require.NoError(t, fs.MkdirAll("/opt/scan/lib/log", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/opt/scan/lib/scan.cli-2.1.2.jar", []byte("jar"), 0o644))

	hub := &mocks.MockHub{
		Username: "sysadmin",
		Password: "blackduck",
		Version:  "2.1.4",
		Projects: []mocks.MockProject{
			{ID: "p-1", Name: "webapp", Releases: []mocks.MockRelease{
				{ID: "v-1", Name: "1.0", Policy: &mocks.MockPolicy{
					OverallStatus: "IN_VIOLATION",
					Counts: map[string]int{
						hubclient.StatusInViolation:           3,
						hubclient.StatusInViolationOverridden: 1,
						hubclient.StatusNotInViolation:        12,
					},
				}},
			}},
		},
		Locations: []mocks.MockScanLocation{
			{ID: "s-1", Path: "/ws"},
			{ID: "s-2", Path: "/ws/sub"},
		},
		IndexingDelay: 1,
		BOMDelay:      1,
	}
	server := hub.Start()
	t.Cleanup(server.Close)

	logger := zerolog.Nop()
	executor := &mocks.MockExecutor{Output: cliSuccess}
	console := &bytes.Buffer{}
	poll := mapping.Poll{Interval: time.Millisecond, Timeout: time.Second}

	return &testEnv{
		bctx: build.Context{
			Workspace: "/ws",
			Env:       map[string]string{"JAVA_HOME": "/usr/lib/jvm/jdk8"},
			Result:    build.Success,
			Console:   buildlog.NewConsole(console),
		},
		console: console,
		cfg: ScanConfig{
			ServerURL:      server.URL,
			CredentialsID:  "hub",
			Installation:   "scan-cli",
			Jobs:           []workspace.ScanJob{{Target: ""}, {Target: "sub/"}},
			ProjectName:    "webapp",
			ProjectRelease: "1.0",
			IndexingPoll:   poll,
			BOMPoll:        poll,
		},
		gate: GateConfig{
			ServerURL:        server.URL,
			CredentialsID:    "hub",
			FailOnViolations: true,
		},
		deps: Deps{
			Fs:            fs,
			Installations: []scantool.Installation{{Name: "scan-cli", Home: "/opt/scan"}},
			Credentials:   credentials.Static{Username: "sysadmin", Password: "blackduck"},
			Executor:      executor,
			NewHub: func(serverURL string) (HubClient, error) {
				return hubclient.NewHubClient(server.Client(), serverURL, hubclient.Options{}, &logger)
			},
			Logger:    &logger,
			OutputDir: t.TempDir(),
		},
		hub:      hub,
		server:   server,
		executor: executor,
	}
}

func TestRunScan_MapsScansToRelease(t *testing.T) {
	env := newTestEnv(t)

	report := RunScan(context.Background(), env.bctx, env.cfg, env.deps)

	assert.Equal(t, build.Success, report.Result, env.console.String())
	assert.Equal(t, []string{"/ws", "/ws/sub"}, report.Targets)
	assert.True(t, report.ScanFinished)
	require.NotNil(t, report.BomUpToDate)
	assert.True(t, report.BomUpToDate.HasBomBeenUpdated)
	assert.Equal(t, env.server.URL+"/api/projects/p-1/versions/v-1/policy-status", report.BomUpToDate.PolicyStatusURL)
	assert.ElementsMatch(t, []string{"s-1", "s-2"}, env.hub.Linked("v-1"))

	commands := env.executor.Commands()
	require.Len(t, commands, 1)
	args := commands[0].Args
	assert.Equal(t, "/usr/lib/jvm/jdk8/bin/java", args[0])
	assert.Equal(t, "/opt/scan/lib/scan.cli-2.1.2.jar", args[4])
	assert.Equal(t, []string{"/ws", "/ws/sub"}, args[len(args)-2:])
	assert.Equal(t, "/ws", commands[0].Dir)
	assert.Contains(t, commands[0].Env, "JAVA_HOME=/usr/lib/jvm/jdk8")

	out := env.console.String()
	assert.True(t, strings.HasPrefix(out, "Starting BlackDuck Scans...\n"))
	assert.True(t, strings.HasSuffix(out, "Finished running Black Duck Scans.\n"))
	assert.Contains(t, out, "[DEBUG] Running on : master")
	assert.NotContains(t, out, "blackduck")
}

func TestRunScan_BuildNotSuccessful(t *testing.T) {
	env := newTestEnv(t)
	env.bctx.Result = build.Failure

	report := RunScan(context.Background(), env.bctx, env.cfg, env.deps)

	assert.Equal(t, build.Failure, report.Result)
	assert.False(t, report.ScanFinished)
	assert.Empty(t, env.executor.Commands())
	assert.Equal(t, "Build was not successful. Will not run Black Duck Scans.\nFinished running Black Duck Scans.\n", env.console.String())
}

func TestRunScan_ReportsEveryConfigurationProblem(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Installations = nil

	report := RunScan(context.Background(), env.bctx, ScanConfig{}, env.deps)

	assert.Equal(t, build.Unstable, report.Result)
	out := env.console.String()
	assert.Contains(t, out, "[ERROR] No Hub URL was provided.")
	assert.Contains(t, out, "[ERROR] No credentials could be found to connect to the Hub.")
	assert.Contains(t, out, "[ERROR] Could not find any targets to scan.")
	assert.Contains(t, out, "[ERROR] could not find a BlackDuck Scan installation to use")
	assert.Empty(t, env.executor.Commands())
}

func TestRunScan_Failures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(env *testEnv)
		expected string
		scanned  bool
	}{
		{
			name: "target outside the workspace",
			mutate: func(env *testEnv) {
				env.cfg.Jobs = []workspace.ScanJob{{Target: "../etc"}}
			},
			expected: "outside",
		},
		{
			name: "target missing",
			mutate: func(env *testEnv) {
				env.cfg.Jobs = []workspace.ScanJob{{Target: "missing"}}
			},
			expected: "/ws/missing",
		},
		{
			name: "no installation selected",
			mutate: func(env *testEnv) {
				env.cfg.Installation = "other"
			},
			expected: "You need to select which BlackDuck Scan installation to use.",
		},
		{
			name: "no java",
			mutate: func(env *testEnv) {
				env.bctx.Env = map[string]string{}
			},
			expected: "Need to define a JAVA_HOME or select an installed JDK.",
		},
		{
			name: "unknown credentials",
			mutate: func(env *testEnv) {
				env.deps.Credentials = credentials.Static{}
			},
			expected: "credentials need both a username and a password",
		},
		{
			name: "process cannot start",
			mutate: func(env *testEnv) {
				env.executor.Err = errors.Join(scancli.ErrProcessStart, errors.New("exec: no such file"))
			},
			expected: "could not start the scan process",
			scanned:  true,
		},
		{
			name: "project not found",
			mutate: func(env *testEnv) {
				env.cfg.ProjectName = "missing"
			},
			expected: "the specified Project could not be found: missing",
			scanned:  true,
		},
		{
			name: "release not found",
			mutate: func(env *testEnv) {
				env.cfg.ProjectRelease = "9.9"
			},
			expected: "the specified Release could not be found in the Project: 9.9",
			scanned:  true,
		},
		{
			name: "hub unavailable",
			mutate: func(env *testEnv) {
				env.hub.Failures = map[string]int{"/api/projects": http.StatusServiceUnavailable}
			},
			expected: "Can not reach this server : ",
			scanned:  true,
		},
		{
			name: "precondition failed",
			mutate: func(env *testEnv) {
				env.hub.Failures = map[string]int{"/api/v1/versions/v-1/scanlocations": http.StatusPreconditionFailed}
			},
			expected: "Precondition Failed, Check your configuration.",
			scanned:  true,
		},
		{
			name: "scans never indexed",
			mutate: func(env *testEnv) {
				env.hub.IndexingDelay = 1 << 20
				env.cfg.IndexingPoll = mapping.Poll{Interval: time.Millisecond, Timeout: 20 * time.Millisecond}
			},
			expected: "timed out waiting for the Hub to record the scans",
			scanned:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.mutate(env)

			report := RunScan(context.Background(), env.bctx, env.cfg, env.deps)

			assert.Equal(t, build.Unstable, report.Result)
			assert.Contains(t, env.console.String(), tt.expected)
			assert.Equal(t, tt.scanned, len(env.executor.Commands()) > 0)
			assert.Contains(t, env.console.String(), "Finished running Black Duck Scans.")
		})
	}
}

func TestRunScan_UnsuccessfulScanSkipsMapping(t *testing.T) {
	env := newTestEnv(t)
	env.executor.Output = "ERROR: Could not upload\n"

	report := RunScan(context.Background(), env.bctx, env.cfg, env.deps)

	assert.Equal(t, build.Unstable, report.Result)
	assert.True(t, report.ScanFinished)
	assert.Empty(t, env.hub.Requests())
}

func TestRunScan_DryRun(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.DryRun = true

	report := RunScan(context.Background(), env.bctx, env.cfg, env.deps)

	assert.Equal(t, build.Success, report.Result)
	require.NotNil(t, report.BomUpToDate)
	assert.True(t, report.BomUpToDate.DryRun)
	assert.Contains(t, env.executor.Commands()[0].Args, "--dryRun")
	assert.Empty(t, env.hub.Requests())
}

func TestRunScan_WithoutProject(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.ProjectName = ""

	report := RunScan(context.Background(), env.bctx, env.cfg, env.deps)

	assert.Equal(t, build.Success, report.Result)
	assert.False(t, report.BomUpToDate.HasBomBeenUpdated)
	assert.Empty(t, env.hub.Requests())
}

func TestCheckFailureConditions(t *testing.T) {
	t.Run("violations fail the build", func(t *testing.T) {
		env := newTestEnv(t)
		report := RunScan(context.Background(), env.bctx, env.cfg, env.deps)
		require.Equal(t, build.Success, report.Result)

		data, err := report.Marshal()
		require.NoError(t, err)
		handedOver, err := UnmarshalScanReport(data)
		require.NoError(t, err)

		result := CheckFailureConditions(context.Background(), env.bctx, env.gate, handedOver, env.deps)

		assert.Equal(t, build.Failure, result)
		assert.Contains(t, env.console.String(), "Found 3 bom entries to be In Violation of a defined Policy.")
		assert.Contains(t, env.console.String(), "Found 12 bom entries to be Not In Violation of a defined Policy.")
	})

	t.Run("no violations", func(t *testing.T) {
		env := newTestEnv(t)
		env.hub.Projects[0].Releases[0].Policy.Counts[hubclient.StatusInViolation] = 0
		report := RunScan(context.Background(), env.bctx, env.cfg, env.deps)

		result := CheckFailureConditions(context.Background(), env.bctx, env.gate, report, env.deps)

		assert.Equal(t, build.Success, result)
	})

	t.Run("not configured to fail", func(t *testing.T) {
		env := newTestEnv(t)
		report := RunScan(context.Background(), env.bctx, env.cfg, env.deps)
		env.gate.FailOnViolations = false

		result := CheckFailureConditions(context.Background(), env.bctx, env.gate, report, env.deps)

		assert.Equal(t, build.Success, result)
	})

	t.Run("build already failed", func(t *testing.T) {
		env := newTestEnv(t)
		env.bctx.Result = build.Failure

		result := CheckFailureConditions(context.Background(), env.bctx, env.gate, &ScanReport{}, env.deps)

		assert.Equal(t, build.Failure, result)
		assert.Empty(t, env.hub.Requests())
	})

	t.Run("no scan report", func(t *testing.T) {
		env := newTestEnv(t)

		result := CheckFailureConditions(context.Background(), env.bctx, env.gate, nil, env.deps)

		assert.Equal(t, build.Unstable, result)
		assert.Contains(t, env.console.String(), "The Hub scan must be configured to run before the Failure Conditions.")
	})

	t.Run("hub unavailable", func(t *testing.T) {
		env := newTestEnv(t)
		report := RunScan(context.Background(), env.bctx, env.cfg, env.deps)
		env.hub.Failures = map[string]int{"/api/v1/current-version": http.StatusServiceUnavailable}

		result := CheckFailureConditions(context.Background(), env.bctx, env.gate, report, env.deps)

		assert.Equal(t, build.Unstable, result)
		assert.Contains(t, env.console.String(), "Can not reach this server : "+env.server.URL)
	})

	t.Run("missing server configuration", func(t *testing.T) {
		env := newTestEnv(t)
		report := RunScan(context.Background(), env.bctx, env.cfg, env.deps)

		result := CheckFailureConditions(context.Background(), env.bctx, GateConfig{FailOnViolations: true}, report, env.deps)

		assert.Equal(t, build.Unstable, result)
		assert.Contains(t, env.console.String(), "No Hub URL was provided.")
	})
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Can not reach this server : https://hub",
		userMessage(errors.New("find projects: 503 Service Unavailable"), "https://hub"))
	assert.Equal(t, "link scans: 412 Precondition Failed, Check your configuration.",
		userMessage(errors.New("link scans: 412 Precondition Failed"), "https://hub"))
	assert.Equal(t, "No Hub URL was provided.", userMessage(ErrNoServerURL, ""))
	assert.Equal(t, "boom", userMessage(errors.New("boom"), ""))
}

func TestUserMessage_StatusCodes(t *testing.T) {
	unavailable := &hubclient.StatusError{Op: "login", StatusCode: http.StatusServiceUnavailable, Status: "503 Down for maintenance"}
	assert.Equal(t, "Can not reach this server : https://hub", userMessage(unavailable, "https://hub"))

	precondition := &hubclient.StatusError{Op: "link scans", StatusCode: http.StatusPreconditionFailed, Status: "412"}
	assert.Equal(t, "link scans: 412, Check your configuration.", userMessage(precondition, "https://hub"))
}

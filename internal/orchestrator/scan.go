package orchestrator

import (
	"context"
	"fmt"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/mapping"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/scancli"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/scantool"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/workspace"
)

// RunScan runs the scan step. It always returns a report; failures are
// logged to the build console and degrade the report's result.
func RunScan(ctx context.Context, bctx build.Context, cfg ScanConfig, deps Deps) *ScanReport {
	console := bctx.Console
	report := &ScanReport{Result: bctx.Result}
	if bctx.Result != build.Success {
		console.Info(ctx, "Build was not successful. Will not run Black Duck Scans.")
		console.Info(ctx, "Finished running Black Duck Scans.")
		return report
	}

	console.Info(ctx, "Starting BlackDuck Scans...")
	outcome := build.NewOutcome(bctx.Result)
	if err := runScan(ctx, bctx, cfg, deps, report, outcome); err != nil {
		for _, msg := range userMessages(err, cfg.ServerURL) {
			console.Error(ctx, msg)
		}
		deps.Logger.Error().Err(err).Msg("hub scan failed")
		outcome.Degrade(build.Unstable)
	}
	console.Info(ctx, "Finished running Black Duck Scans.")

	report.Result = outcome.Result()
	return report
}

func runScan(ctx context.Context, bctx build.Context, cfg ScanConfig, deps Deps, report *ScanReport, outcome *build.Outcome) error {
	console := bctx.Console
	if err := cfg.validate(deps); err != nil {
		return err
	}
	creds, err := deps.Credentials.Resolve(cfg.CredentialsID)
	if err != nil {
		return err
	}

	targets := workspace.Resolve(bctx.Workspace, cfg.Jobs)
	if err := workspace.NewValidator(deps.Fs).Validate(bctx.Workspace, targets); err != nil {
		return err
	}
	report.Targets = workspace.Paths(targets)

	locator := scantool.NewLocator(deps.Fs)
	java, err := locator.LocateJava(cfg.JavaHome, bctx.Env)
	if err != nil {
		return err
	}
	console.Debug(ctx, fmt.Sprintf("Using this java installation : %s : %s", java.Name, java.Home))

	console.Debug(ctx, fmt.Sprintf("Running on : %s", bctx.Node))
	cli, err := locator.Locate(deps.Installations, bctx.Node, cfg.Installation)
	if err != nil {
		return err
	}
	console.Debug(ctx, fmt.Sprintf("Using this BlackDuck Scan CLI at : '%s'", cli.Path))

	runner := scancli.NewRunner(deps.Executor, scancli.NewLogCorrelator(deps.Fs), console, deps.Logger,
		runnerOptions(deps)...)
	res, err := runner.Run(ctx, scancli.Invocation{
		Java:      java.Executable(),
		CLI:       cli.Path,
		Memory:    cfg.Memory,
		ServerURL: cfg.ServerURL,
		Username:  creds.Username,
		Password:  creds.Password,
		DryRun:    cfg.DryRun,
		Targets:   report.Targets,
	}, bctx.EnvSlice(), bctx.Workspace)
	if err != nil {
		return err
	}

	report.RunID = res.RunID
	report.LogFiles = res.LogFiles
	report.ScanFinished = true
	report.BomUpToDate = &build.BomUpToDate{DryRun: cfg.DryRun}
	outcome.Degrade(res.Result)

	if outcome.Result() != build.Success || cfg.ProjectName == "" || cfg.ProjectRelease == "" {
		return nil
	}
	if cfg.DryRun {
		console.Info(ctx, "Dry run scan, will not map the scans to a Project Release.")
		return nil
	}
	return mapScans(ctx, bctx, cfg, deps, creds.Username, creds.Password, report)
}

func mapScans(ctx context.Context, bctx build.Context, cfg ScanConfig, deps Deps, username, password string, report *ScanReport) error {
	hub, err := connect(ctx, cfg.ServerURL, deps, username, password)
	if err != nil {
		return err
	}

	ref, err := mapping.NewResolver(hub, bctx.Console).Resolve(ctx, cfg.ProjectName, cfg.ProjectRelease)
	if err != nil {
		return err
	}
	report.BomUpToDate.PolicyStatusURL = ref.PolicyStatusURL

	mapper := mapping.NewMapper(hub, bctx.Console, cfg.IndexingPoll, cfg.BOMPoll)
	if err := mapper.Map(ctx, report.Targets, ref); err != nil {
		return err
	}

	updated, err := mapper.WaitForBOM(ctx, report.Targets)
	if err != nil {
		return err
	}
	report.BomUpToDate.HasBomBeenUpdated = updated
	return nil
}

func connect(ctx context.Context, serverURL string, deps Deps, username, password string) (HubClient, error) {
	hub, err := deps.NewHub(serverURL)
	if err != nil {
		return nil, err
	}
	if err := hub.Login(ctx, username, password); err != nil {
		return nil, err
	}
	return hub, nil
}

func runnerOptions(deps Deps) []scancli.RunnerOption {
	if deps.OutputDir == "" {
		return nil
	}
	return []scancli.RunnerOption{scancli.WithOutputDir(deps.OutputDir)}
}

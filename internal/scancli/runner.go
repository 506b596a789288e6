package scancli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/buildlog"
)

// RunResult is what a CLI run produced.
type RunResult struct {
	RunID    string
	Result   build.Result
	ExitCode int
	Output   string
	// LogFiles maps each target to the CLI log file written for it.
	LogFiles map[string]string
}

// Runner runs the scan CLI and classifies its output.
type Runner struct {
	executor  Executor
	logs      *LogCorrelator
	console   buildlog.Logger
	logger    *zerolog.Logger
	outputDir string
}

type RunnerOption func(*Runner)

// WithOutputDir sets where the live CLI output file is written.
func WithOutputDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.outputDir = dir
	}
}

func NewRunner(executor Executor, logs *LogCorrelator, console buildlog.Logger, logger *zerolog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		executor:  executor,
		logs:      logs,
		console:   console,
		logger:    logger,
		outputDir: os.TempDir(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run launches the CLI with env in workDir and waits for it. An error is only
// returned when the process could not be run at all; anything the CLI itself
// reports is folded into the result.
func (r *Runner) Run(ctx context.Context, inv Invocation, env []string, workDir string) (*RunResult, error) {
	args, err := BuildCommand(inv)
	if err != nil {
		return nil, err
	}
	host, err := inv.Host()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := r.logger.With().Str("run_id", runID).Logger()
	r.console.Debug(ctx, fmt.Sprintf("Using this Hub Url : '%s'", host))
	log.Debug().Strs("cmd", Redact(args)).Msg("running scan CLI")

	outPath := filepath.Join(r.outputDir, "hub-scan-"+runID+".out")
	outFile, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("could not create the CLI output file: %w", err)
	}
	defer os.Remove(outPath)

	var buf bytes.Buffer
	out := io.MultiWriter(&buf, outFile)
	tailer := NewTailer(r.console)
	done := make(chan struct{})
	exitCode := -1

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)
		code, runErr := r.executor.Run(gctx, Command{Args: args, Env: env, Dir: workDir}, out)
		exitCode = code
		return runErr
	})
	g.Go(func() error {
		if tailErr := tailer.Follow(gctx, outPath, done); tailErr != nil {
			r.console.Error(ctx, "Could not read the CLI output file.", buildlog.Err(tailErr))
		}
		return nil
	})
	err = g.Wait()
	outFile.Close()
	if err != nil {
		return nil, err
	}

	res := &RunResult{
		RunID:    runID,
		ExitCode: exitCode,
		Output:   buf.String(),
		LogFiles: map[string]string{},
	}
	log.Debug().Int("exit_code", exitCode).Str("output", res.Output).Msg("scan CLI finished")
	if exitCode != 0 {
		r.console.Warn(ctx, fmt.Sprintf("The scan CLI exited with status %d.", exitCode))
	}

	res.Result = Classify(res.Output)
	if res.Result != build.Success {
		r.console.Info(ctx, res.Output)
		return res, nil
	}

	res.Result = r.correlateLogs(ctx, inv, res.LogFiles)
	return res, nil
}

func (r *Runner) correlateLogs(ctx context.Context, inv Invocation, found map[string]string) build.Result {
	logDir, ok, err := r.logs.LogDir(filepath.Dir(inv.CLI))
	if err != nil {
		r.console.Error(ctx, err.Error())
		return build.Unstable
	}

	for _, target := range inv.Targets {
		var file string
		if ok {
			file, _, err = r.logs.Latest(logDir, filepath.Base(target))
			if err != nil {
				r.console.Error(ctx, err.Error())
				return build.Unstable
			}
		}

		if file == "" {
			r.console.Info(ctx, fmt.Sprintf("For scan target : '%s', could not find the log file!", target))
			continue
		}
		found[target] = file
		r.console.Info(ctx, fmt.Sprintf("For scan target : '%s', you can view the BlackDuck Scan CLI logs at : '%s'", target, file))
	}
	return build.Success
}

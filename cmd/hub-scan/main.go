// Command hub-scan runs the Hub scan and failure-condition workflows the way a
// build host would: the scan first, then the failure conditions on its report.
//
// It exits 0 when the build stays successful, 1 when it fails and 2 when it is
// left unstable.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/snyk/go-application-framework/pkg/configuration"
	"github.com/snyk/go-application-framework/pkg/workflow"
	"github.com/spf13/cobra"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
	"github.com/blackducksoftware/cli-extension-hub-scan/pkg/hubscan"
)

const (
	exitSuccess  = 0
	exitFailure  = 1
	exitUnstable = 2

	flagDebug = "debug"
)

func main() {
	exitCode := exitFailure
	cmd := newRootCommand(&exitCode)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
	os.Exit(exitCode)
}

func newRootCommand(exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hub-scan",
		Short:         "Scan a build workspace with the BlackDuck Scan CLI and check Hub policies",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := run(cmd)
			*exitCode = code
			return err
		},
	}
	cmd.Flags().AddFlagSet(hubscan.FlagSet())
	cmd.Flags().Bool(flagDebug, false, "Log diagnostics to stderr.")
	return cmd
}

func run(cmd *cobra.Command) (int, error) {
	config := configuration.New()
	engine := workflow.NewWorkFlowEngine(config)

	level := zerolog.WarnLevel
	if debug, _ := cmd.Flags().GetBool(flagDebug); debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	engine.SetLogger(&logger)

	if err := hubscan.Init(engine); err != nil {
		return exitFailure, err
	}
	if err := engine.Init(); err != nil {
		return exitFailure, fmt.Errorf("failed to initialize workflow engine: %w", err)
	}
	// Bound after the workflows register their defaults, so values from the
	// command line win.
	if err := config.AddFlagSet(cmd.Flags()); err != nil {
		return exitFailure, fmt.Errorf("failed to read flags: %w", err)
	}

	report, err := engine.Invoke(hubscan.ScanWorkflowID)
	if err != nil {
		return exitCodeOf(err), err
	}

	output, err := engine.InvokeWithInput(hubscan.FailureConditionsWorkflowID, report)
	if err != nil {
		var ec interface{ ExitCode() int }
		if errors.As(err, &ec) {
			return ec.ExitCode(), nil
		}
		return exitFailure, err
	}

	result, err := resultOf(output)
	if err != nil {
		return exitFailure, err
	}
	logger.Debug().Str("result", result.String()).Msg("hub-scan finished")
	return exitCodeFor(result), nil
}

func resultOf(output []workflow.Data) (build.Result, error) {
	if len(output) == 0 {
		return build.Failure, errors.New("the failure conditions returned no result")
	}
	payload, ok := output[0].GetPayload().([]byte)
	if !ok {
		return build.Failure, fmt.Errorf("unexpected result payload %T", output[0].GetPayload())
	}
	var result build.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return build.Failure, fmt.Errorf("failed to decode build result: %w", err)
	}
	return result, nil
}

func exitCodeFor(result build.Result) int {
	switch result {
	case build.Success:
		return exitSuccess
	case build.Unstable:
		return exitUnstable
	default:
		return exitFailure
	}
}

func exitCodeOf(err error) int {
	var ec interface{ ExitCode() int }
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return exitFailure
}

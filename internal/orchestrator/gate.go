package orchestrator

import (
	"context"
	"sync"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/hubclient"
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/policy"
)

// CheckFailureConditions runs the failure-condition step against what the
// scan step reported, and returns the resulting build result.
func CheckFailureConditions(ctx context.Context, bctx build.Context, cfg GateConfig, report *ScanReport, deps Deps) build.Result {
	var markers build.Markers
	if report != nil {
		markers = report.Markers
	}

	hub := &lazyHub{connect: func(ctx context.Context) (HubClient, error) {
		if cfg.ServerURL == "" {
			return nil, ErrNoServerURL
		}
		if cfg.CredentialsID == "" || deps.Credentials == nil {
			return nil, ErrNoCredentials
		}
		creds, err := deps.Credentials.Resolve(cfg.CredentialsID)
		if err != nil {
			return nil, err
		}
		return connect(ctx, cfg.ServerURL, deps, creds.Username, creds.Password)
	}}

	outcome := build.NewOutcome(bctx.Result)
	result, err := policy.NewGate(hub, bctx.Console).Check(ctx, policy.Config{
		FailOnViolations: cfg.FailOnViolations,
		Steps:            cfg.Steps,
	}, bctx.Result, markers)
	if err != nil {
		for _, msg := range userMessages(err, cfg.ServerURL) {
			bctx.Console.Error(ctx, msg)
		}
		deps.Logger.Error().Err(err).Msg("hub failure conditions failed")
		outcome.Degrade(build.Unstable)
		return outcome.Result()
	}

	outcome.Degrade(result)
	return outcome.Result()
}

// lazyHub logs in on first use, so a gate that never talks to the Hub never
// needs it to be reachable.
type lazyHub struct {
	connect func(ctx context.Context) (HubClient, error)

	once   sync.Once
	client HubClient
	err    error
}

func (h *lazyHub) get(ctx context.Context) (HubClient, error) {
	h.once.Do(func() {
		h.client, h.err = h.connect(ctx)
	})
	return h.client, h.err
}

func (h *lazyHub) Version(ctx context.Context) (string, error) {
	c, err := h.get(ctx)
	if err != nil {
		return "", err
	}
	return c.Version(ctx)
}

func (h *lazyHub) PolicyStatus(ctx context.Context, statusURL string) (*hubclient.PolicyStatus, error) {
	c, err := h.get(ctx)
	if err != nil {
		return nil, err
	}
	return c.PolicyStatus(ctx, statusURL)
}

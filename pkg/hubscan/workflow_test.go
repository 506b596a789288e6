package hubscan

import (
	"testing"

	"github.com/snyk/go-application-framework/pkg/configuration"
	"github.com/snyk/go-application-framework/pkg/workflow"
	"github.com/stretchr/testify/assert"
)

func Test_HubScan_Init(t *testing.T) {
	config := configuration.New()
	engine := workflow.NewWorkFlowEngine(config)

	err := Init(engine)
	assert.Nil(t, err)

	assert.Equal(t, false, config.Get(FlagDryRun))
	assert.Equal(t, "", config.Get(FlagURL))
	assert.Equal(t, "SUCCESS", config.GetString(FlagBuildResult))
	assert.Equal(t, defaultTimeoutSeconds, config.GetInt(FlagTimeout))
	assert.Equal(t, defaultBOMTimeoutSeconds, config.GetInt(FlagBOMTimeout))
	assert.Equal(t, false, config.Get(FlagFailOnPolicyIssues))
	assert.Equal(t, []string{"hub-scan", "hub-failure-conditions"}, config.GetStringSlice(FlagBuildSteps))
}

func Test_FlagSet_HasEveryFlagOnce(t *testing.T) {
	flags := FlagSet()

	for _, name := range []string{FlagURL, FlagScanTargets, FlagBuildSteps, FlagFailOnPolicyIssues, FlagBuildResult} {
		assert.NotNil(t, flags.Lookup(name), name)
	}
}

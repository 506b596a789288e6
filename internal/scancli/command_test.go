package scancli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInvocation() Invocation {
	return Invocation{
		Java:      "/usr/lib/jvm/jdk8/bin/java",
		CLI:       "/opt/scan/lib/scan.cli-2.1.2.jar",
		ServerURL: "https://hub.example.com",
		Username:  "sysadmin",
		Password:  "blackduck",
		Targets:   []string{"/ws", "/ws/sub"},
	}
}

func TestBuildCommand(t *testing.T) {
	t.Run("argument order", func(t *testing.T) {
		cmd, err := BuildCommand(baseInvocation())

		require.NoError(t, err)
		assert.Equal(t, []string{
			"/usr/lib/jvm/jdk8/bin/java",
			"-Done-jar.silent=true",
			"-jar",
			"-Xmx256m",
			"/opt/scan/lib/scan.cli-2.1.2.jar",
			"--host", "hub.example.com",
			"--username", "sysadmin",
			"--password", "blackduck",
			"/ws", "/ws/sub",
		}, cmd)
	})

	t.Run("memory", func(t *testing.T) {
		tests := []struct {
			memory   int
			expected string
		}{
			{0, "-Xmx256m"},
			{256, "-Xmx256m"},
			{512, "-Xmx512m"},
			{-1, "-Xmx256m"},
		}
		for _, tt := range tests {
			inv := baseInvocation()
			inv.Memory = tt.memory

			cmd, err := BuildCommand(inv)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, cmd[3])
		}
	})

	t.Run("explicit port and dry run", func(t *testing.T) {
		inv := baseInvocation()
		inv.ServerURL = "http://hub.example.com:8080/"
		inv.DryRun = true
		inv.Targets = []string{"/ws"}

		cmd, err := BuildCommand(inv)

		require.NoError(t, err)
		assert.Equal(t, []string{
			"--host", "hub.example.com",
			"--username", "sysadmin",
			"--password", "blackduck",
			"--port", "8080",
			"--dryRun",
			"/ws",
		}, cmd[5:])
	})

	t.Run("invalid server URL", func(t *testing.T) {
		inv := baseInvocation()
		inv.ServerURL = "not a url"

		_, err := BuildCommand(inv)

		assert.Error(t, err)
	})
}

func TestRedact(t *testing.T) {
	cmd, err := BuildCommand(baseInvocation())
	require.NoError(t, err)

	safe := Redact(cmd)

	assert.NotContains(t, safe, "blackduck")
	assert.Contains(t, safe, "sysadmin")
	assert.Contains(t, cmd, "blackduck", "Redact must not modify its input")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected string
	}{
		{"finished with success", "INFO: Finished in 10 seconds with status SUCCESS", "SUCCESS"},
		{"missing finished marker", "INFO: scan with status SUCCESS", "UNSTABLE"},
		{"missing status marker", "INFO: Finished in 10 seconds with status FAILURE", "UNSTABLE"},
		{"error despite markers", "ERROR: upload failed\nFinished in 3 seconds with status SUCCESS", "UNSTABLE"},
		{"empty", "", "UNSTABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.output).String())
		})
	}
}

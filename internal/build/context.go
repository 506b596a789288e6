package build

import (
	"github.com/blackducksoftware/cli-extension-hub-scan/internal/buildlog"
)

// Node is the execution node a build runs on. The controller has no name.
type Node struct {
	Name string
}

func (n Node) IsController() bool {
	return n.Name == ""
}

func (n Node) String() string {
	if n.IsController() {
		return "master"
	}
	return n.Name
}

// Context is what the host hands a step when it runs: where the workspace is,
// which environment the build sees, and where console output goes.
type Context struct {
	Workspace string
	Env       map[string]string
	Node      Node
	Result    Result
	Console   buildlog.Logger
}

// EnvSlice returns the environment in KEY=VALUE form.
func (c Context) EnvSlice() []string {
	env := make([]string, 0, len(c.Env))
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	return env
}

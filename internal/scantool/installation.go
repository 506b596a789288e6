// Package scantool finds the scan CLI installation and the Java runtime used to
// launch it on the node a build runs on.
package scantool

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
)

// Installation is a registered scan CLI installation. Nodes maps a node name
// to the home the installation has on that node.
type Installation struct {
	Name  string            `yaml:"name"`
	Home  string            `yaml:"home"`
	Nodes map[string]string `yaml:"nodes,omitempty"`
}

// ForNode returns the installation as seen from node.
func (i Installation) ForNode(node build.Node) Installation {
	if node.IsController() {
		return i
	}
	if home, ok := i.Nodes[node.Name]; ok && home != "" {
		i.Home = home
	}
	return i
}

type registryFile struct {
	Installations []Installation `yaml:"installations"`
}

// LoadInstallations reads the installation registry file at path.
func LoadInstallations(fs afero.Fs, path string) ([]Installation, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan installations: %w", err)
	}

	var reg registryFile
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse scan installations %s: %w", path, err)
	}
	return reg.Installations, nil
}

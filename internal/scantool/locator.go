package scantool

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/build"
)

const cliPattern = "scan.cli*.jar"

var (
	// ErrNoInstallation means no scan installation is registered at all.
	ErrNoInstallation = errors.New("could not find a BlackDuck Scan installation to use")
	// ErrNoInstallationSelected means none of the registered installations
	// carries the configured name.
	ErrNoInstallationSelected = errors.New("you need to select which BlackDuck Scan installation to use")
	// ErrToolMissing means the selected installation has no CLI in it.
	ErrToolMissing = errors.New("could not find the CLI file to execute")

	ErrJavaNotConfigured = errors.New("need to define a JAVA_HOME or select an installed JDK")
	ErrJavaNotFound      = errors.New("could not find the specified Java installation")
)

// Executable is the scan CLI of an installation, adapted to a node.
type Executable struct {
	Installation Installation
	Path         string
}

// Java is the runtime the CLI is launched with.
type Java struct {
	Name string
	Home string
}

// Executable returns the path of the java binary.
func (j *Java) Executable() string {
	return filepath.Join(j.Home, "bin", "java")
}

// Locator looks installations up on a file system.
type Locator struct {
	fs afero.Fs
}

func NewLocator(fs afero.Fs) *Locator {
	return &Locator{fs: fs}
}

// Locate returns the CLI of the installation called name on node.
func (l *Locator) Locate(installations []Installation, node build.Node, name string) (*Executable, error) {
	if len(installations) == 0 {
		return nil, ErrNoInstallation
	}

	for _, inst := range installations {
		inst = inst.ForNode(node)
		if inst.Name != name {
			continue
		}

		cli, err := l.findCLI(inst.Home)
		if err != nil {
			return nil, err
		}
		if cli == "" {
			return nil, fmt.Errorf("%w at : '%s'", ErrToolMissing, inst.Home)
		}
		return &Executable{Installation: inst, Path: cli}, nil
	}

	return nil, ErrNoInstallationSelected
}

func (l *Locator) findCLI(home string) (string, error) {
	if home == "" {
		return "", nil
	}
	matches, err := afero.Glob(l.fs, filepath.Join(home, "lib", cliPattern))
	if err != nil {
		return "", fmt.Errorf("failed to look for the CLI in %s: %w", home, err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[0], nil
}

// LocateJava picks the configured Java home, falling back to JAVA_HOME from
// the build environment.
func (l *Locator) LocateJava(configuredHome string, env map[string]string) (*Java, error) {
	java := &Java{Name: "Configured Java", Home: configuredHome}
	if java.Home == "" {
		java = &Java{Name: "Default Java", Home: env["JAVA_HOME"]}
	}
	if java.Home == "" {
		return nil, ErrJavaNotConfigured
	}

	exists, err := afero.DirExists(l.fs, java.Home)
	if err != nil {
		return nil, fmt.Errorf("failed to check the Java installation at %s: %w", java.Home, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w at: %s", ErrJavaNotFound, java.Home)
	}
	return java, nil
}

package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var (
	// ErrOutsideWorkspace means a target resolves to a path outside the
	// workspace. It is a configuration problem and never just a warning.
	ErrOutsideWorkspace = errors.New("can not scan targets outside of the workspace")
	// ErrTargetNotFound means a target does not exist on the execution node.
	ErrTargetNotFound = errors.New("scan target could not be found")
)

// Validator checks resolved targets against the workspace on a file system.
type Validator struct {
	fs           afero.Fs
	canonicalize func(string) (string, error)
}

// NewValidator returns a Validator backed by fs. Symlinks are only followed
// when fs is the real operating system file system.
func NewValidator(fs afero.Fs) *Validator {
	v := &Validator{fs: fs, canonicalize: cleanAbs}
	if _, ok := fs.(*afero.OsFs); ok {
		v.canonicalize = evalSymlinks
	}
	return v
}

// Validate fails on the first target that is outside root or missing.
func (v *Validator) Validate(root string, targets []Target) error {
	canonicalRoot, err := v.canonicalize(root)
	if err != nil {
		return fmt.Errorf("failed to resolve workspace %s: %w", root, err)
	}

	for _, t := range targets {
		canonical, err := v.canonicalize(t.Path)
		if err != nil {
			return fmt.Errorf("failed to resolve scan target %s: %w", t.Path, err)
		}

		if !within(canonicalRoot, canonical) {
			return fmt.Errorf("%w: %s", ErrOutsideWorkspace, t.Path)
		}

		exists, err := afero.Exists(v.fs, canonical)
		if err != nil {
			return fmt.Errorf("failed to check scan target %s: %w", canonical, err)
		}
		if !exists {
			return fmt.Errorf("%w : %s", ErrTargetNotFound, canonical)
		}
	}
	return nil
}

// within reports whether path is root itself or lies below it.
func within(root, path string) bool {
	if path == root {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func cleanAbs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func evalSymlinks(path string) (string, error) {
	abs, err := cleanAbs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if errors.Is(err, os.ErrNotExist) {
		return abs, nil
	}
	if err != nil {
		return "", err
	}
	return resolved, nil
}

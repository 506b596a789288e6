package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFs(t *testing.T, dirs ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, d := range dirs {
		require.NoError(t, fs.MkdirAll(d, 0o755))
	}
	return fs
}

func TestValidator_Validate(t *testing.T) {
	fs := memFs(t, "/ws/sub", "/etc", "/ws-other")
	v := NewValidator(fs)

	tests := []struct {
		name    string
		target  string
		wantErr error
	}{
		{name: "workspace root", target: "/ws"},
		{name: "existing sub directory", target: "/ws/sub"},
		{name: "dot dot escape", target: "/ws/../etc", wantErr: ErrOutsideWorkspace},
		{name: "deep dot dot escape", target: "/ws/sub/../../etc/passwd/long/enough/path", wantErr: ErrOutsideWorkspace},
		{name: "sibling with common prefix", target: "/ws-other", wantErr: ErrOutsideWorkspace},
		{name: "missing target", target: "/ws/missing", wantErr: ErrTargetNotFound},
		{name: "dot dot staying inside", target: "/ws/sub/../sub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate("/ws", []Target{{Path: tt.target}})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidator_ResolvedTargetsStayInWorkspace(t *testing.T) {
	fs := memFs(t, "/ws/a/b", "/ws/c")
	v := NewValidator(fs)

	jobs := []ScanJob{{}, {Target: "a"}, {Target: "/a/b/"}, {Target: " c "}}
	targets := Resolve("/ws", jobs)

	require.NoError(t, v.Validate("/ws", targets))
	for _, target := range targets {
		assert.True(t, within("/ws", filepath.Clean(target.Path)), target.Path)
	}
}

func TestValidator_Symlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	ws := filepath.Join(root, "ws")
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "src"), 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(ws, "escape")))

	v := NewValidator(afero.NewOsFs())

	t.Run("plain directory is accepted", func(t *testing.T) {
		assert.NoError(t, v.Validate(ws, Resolve(ws, []ScanJob{{Target: "src"}})))
	})

	t.Run("symlink leaving the workspace is rejected", func(t *testing.T) {
		err := v.Validate(ws, Resolve(ws, []ScanJob{{Target: "escape"}}))
		assert.ErrorIs(t, err, ErrOutsideWorkspace)
	})
}

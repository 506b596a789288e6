package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "empty target scans the workspace", target: "", want: "/ws"},
		{name: "blank target scans the workspace", target: "   ", want: "/ws"},
		{name: "relative target", target: "sub", want: "/ws/sub"},
		{name: "trailing separator is stripped", target: "sub/", want: "/ws/sub"},
		{name: "leading separator is kept", target: "/abs", want: "/ws/abs"},
		{name: "backslash prefix", target: `\win`, want: `/ws\win`},
		{name: "surrounding whitespace is trimmed", target: "  nested/dir/  ", want: "/ws/nested/dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets := Resolve("/ws", []ScanJob{{Target: tt.target}})

			assert.Len(t, targets, 1)
			assert.Equal(t, tt.want, targets[0].Path)
			assert.Equal(t, tt.target, targets[0].Job.Target)
		})
	}
}

func TestResolve_KeepsJobOrder(t *testing.T) {
	targets := Resolve("/ws", []ScanJob{{Target: "b"}, {}, {Target: "a"}})

	assert.Equal(t, []string{"/ws/b", "/ws", "/ws/a"}, Paths(targets))
}

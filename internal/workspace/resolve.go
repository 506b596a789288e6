// Package workspace turns configured scan jobs into absolute scan targets and
// makes sure none of them leave the build workspace.
package workspace

import (
	"path/filepath"
	"strings"
)

// ScanJob is one configured scan. An empty Target scans the whole workspace.
type ScanJob struct {
	Target string `json:"target,omitempty"`
}

// Target is a scan job resolved against a workspace root.
type Target struct {
	Path string  `json:"path"`
	Job  ScanJob `json:"job"`
}

// Resolve produces one target per job, rooted at root and in job order.
func Resolve(root string, jobs []ScanJob) []Target {
	targets := make([]Target, 0, len(jobs))
	for _, job := range jobs {
		targets = append(targets, Target{
			Path: resolvePath(root, job.Target),
			Job:  job,
		})
	}
	return targets
}

// Paths returns the target paths in order.
func Paths(targets []Target) []string {
	paths := make([]string, 0, len(targets))
	for _, t := range targets {
		paths = append(paths, t.Path)
	}
	return paths
}

func resolvePath(root, target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return root
	}

	if isSeparator(target[0]) {
		target = root + target
	} else {
		target = root + string(filepath.Separator) + target
	}

	if isSeparator(target[len(target)-1]) {
		target = target[:len(target)-1]
	}
	return target
}

func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}

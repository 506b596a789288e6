// Package build models the host build a step runs in: its result, the node it
// runs on, and the markers a step leaves behind for the steps that follow it.
package build

import (
	"fmt"
	"strings"
)

// Result is the outcome of a build. Values are ordered from best to worst, so
// a larger value is always a worse result.
type Result int

const (
	Success Result = iota
	Unstable
	Failure
	NotBuilt
	Aborted
)

var resultNames = map[Result]string{
	Success:  "SUCCESS",
	Unstable: "UNSTABLE",
	Failure:  "FAILURE",
	NotBuilt: "NOT_BUILT",
	Aborted:  "ABORTED",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// ParseResult parses the name of a result, case-insensitively.
func ParseResult(s string) (Result, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for r, n := range resultNames {
		if n == name {
			return r, nil
		}
	}
	return Success, fmt.Errorf("unknown build result %q", s)
}

// IsWorseThan reports whether r is a worse result than other.
func (r Result) IsWorseThan(other Result) bool {
	return r > other
}

// Combine returns the worse of the two results.
func (r Result) Combine(other Result) Result {
	if other.IsWorseThan(r) {
		return other
	}
	return r
}

func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Result) UnmarshalText(text []byte) error {
	parsed, err := ParseResult(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Outcome tracks the result of a build while a step runs. It only ever
// degrades: once Unstable or Failure has been recorded, later steps cannot
// bring it back to Success.
type Outcome struct {
	result Result
}

func NewOutcome(initial Result) *Outcome {
	return &Outcome{result: initial}
}

// Degrade records r, keeping whichever of r and the current result is worse.
func (o *Outcome) Degrade(r Result) {
	o.result = o.result.Combine(r)
}

func (o *Outcome) Result() Result {
	return o.result
}

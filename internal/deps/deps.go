// Package deps checks the external programs metafix shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external binary and what metafix uses it for.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the result of checking one Requirement. Detail explains an
// unavailable binary, or carries version information for an available one.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// Check resolves req.Command on PATH (or as a path) without running it.
func Check(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	switch {
	case req.Command == "":
		status.Detail = "command not configured"
	default:
		if _, err := exec.LookPath(req.Command); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		} else {
			status.Available = true
		}
	}
	return status
}

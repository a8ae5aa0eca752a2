package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external executable and why it is needed.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports whether a requirement resolved. Path is the executable
// found on PATH, empty when unavailable.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Available   bool
	Detail      string
}

// CheckBinaries resolves each requirement with exec.LookPath.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, checkBinary(req))
	}
	return results
}

func checkBinary(req Requirement) Status {
	command := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     command,
		Description: strings.TrimSpace(req.Description),
	}
	if command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", command)
		if status.Description != "" {
			status.Detail += ": " + strings.ToLower(status.Description[:1]) + status.Description[1:]
		}
		return status
	}
	status.Path = path
	status.Available = true
	return status
}

package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"seedkeeper/internal/services"
)

// Requirement defines an external dependency seedkeeper relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// RemoteName extracts the rclone remote name from a destination such as
// "b2:bucket/path". Local paths have no remote name.
func RemoteName(destination string) string {
	name, _, ok := strings.Cut(strings.TrimSpace(destination), ":")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}

// CheckRcloneRemote confirms that the remote named in destination is defined
// in rclone's configuration, using `rclone listremotes`.
func CheckRcloneRemote(ctx context.Context, executor services.Executor, binary, destination string) Status {
	status := Status{
		Name:        "rclone remote",
		Command:     binary,
		Description: "Destination for uploads",
	}
	name := RemoteName(destination)
	if name == "" {
		status.Detail = fmt.Sprintf("%q is not an rclone remote destination", destination)
		return status
	}
	var remotes []string
	err := executor.Run(ctx, binary, []string{"listremotes"}, func(line string) {
		remotes = append(remotes, strings.TrimSuffix(strings.TrimSpace(line), ":"))
	})
	if err != nil {
		status.Detail = fmt.Sprintf("listremotes failed: %v", err)
		return status
	}
	for _, remote := range remotes {
		if remote == name {
			status.Available = true
			status.Detail = name + ": configured"
			return status
		}
	}
	status.Detail = fmt.Sprintf("remote %q not found in rclone config", name)
	return status
}

package preflight

import (
	"fmt"
	"os/exec"
	"strings"

	"matinee/internal/config"
)

// Requirement defines an external binary matinee shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// ToolStatus reports the availability of an external binary.
type ToolStatus struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckTools evaluates the external binaries matinee depends on. The status
// command renders these alongside the preflight results.
func CheckTools(cfg *config.Config) []ToolStatus {
	requirements := []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.YtdlpBinary(),
			Description: "Required for Vimeo and other stream downloads",
		},
		{
			Name:        "ffprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for screener audits",
		},
	}
	return CheckBinaries(requirements)
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []ToolStatus {
	results := make([]ToolStatus, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := ToolStatus{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

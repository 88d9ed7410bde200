package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"quaver/internal/config"
)

// Requirement defines an external tool quaver can call.
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

// ForConfig lists the external tools the current configuration can reach
// for. Every adapter has a built-in fallback or is best effort, so all
// requirements are optional.
func ForConfig(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "separator",
			Command:     cfg.Separation.Binary,
			Description: "neural source separation backend",
			Optional:    true,
		},
		{
			Name:        "pitch tracker",
			Command:     cfg.Pitch.Binary,
			Description: "external pitch model (built-in tracker used when absent)",
			Optional:    true,
		},
		{
			Name:        "musescore",
			Command:     cfg.Render.MuseScoreBinary,
			Description: "PDF score renderer",
			Optional:    true,
		},
		{
			Name:        "verovio",
			Command:     cfg.Render.VerovioBinary,
			Description: "SVG score renderer",
			Optional:    true,
		},
	}
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

package qualitygate

import (
	"fmt"

	"github.com/efebarandurmaz/ontograph/internal/config"
)

// ParseSeverity maps a configured severity name, defaulting to def when empty.
func ParseSeverity(s string, def GateSeverity) (GateSeverity, error) {
	switch GateSeverity(s) {
	case "":
		return def, nil
	case SeverityCritical, SeverityRequired, SeverityAdvisory:
		return GateSeverity(s), nil
	default:
		return "", fmt.Errorf("unknown gate severity %q", s)
	}
}

// BuildPipeline creates the gate pipeline described by cfg. The components
// gate is only added when MaxComponents is positive.
func BuildPipeline(cfg config.GatesConfig) (*Pipeline, error) {
	dangling, err := ParseSeverity(cfg.DanglingSeverity, SeverityCritical)
	if err != nil {
		return nil, fmt.Errorf("dangling: %w", err)
	}
	acyclic, err := ParseSeverity(cfg.AcyclicSeverity, SeverityRequired)
	if err != nil {
		return nil, fmt.Errorf("acyclic: %w", err)
	}
	consistency, err := ParseSeverity(cfg.ConsistencySeverity, SeverityAdvisory)
	if err != nil {
		return nil, fmt.Errorf("consistency: %w", err)
	}

	p := NewPipeline(
		NewDanglingGate(dangling),
		NewAcyclicGate(acyclic),
		NewConsistencyGate(consistency, cfg.ConsistencyThreshold),
	)
	if cfg.MaxComponents > 0 {
		components, err := ParseSeverity(cfg.ComponentsSeverity, SeverityAdvisory)
		if err != nil {
			return nil, fmt.Errorf("components: %w", err)
		}
		p.AddGate(NewComponentsGate(components, cfg.MaxComponents))
	}
	return p, nil
}

// FormatReport renders a pipeline result as a text box.
func FormatReport(result *PipelineResult) string {
	var s string
	s += "╔══════════════════════════════════════════╗\n"
	s += "║        Dataset Quality Gates             ║\n"
	s += "╠══════════════════════════════════════════╣\n"

	for _, gr := range result.Gates {
		icon := "✓"
		switch gr.Status {
		case GateFailed:
			icon = "✗"
		case GateSkipped:
			icon = "○"
		case GateWarning:
			icon = "⚠"
		}
		s += fmt.Sprintf("║ %s %-12s %-11s %s\n", icon, gr.Name, "["+string(gr.Severity)+"]", gr.Message)
		for _, d := range gr.Details {
			s += fmt.Sprintf("║   → %s\n", d)
		}
	}

	s += "╠══════════════════════════════════════════╣\n"
	status := "PASSED"
	if result.Status == GateFailed {
		status = "FAILED"
	}
	s += fmt.Sprintf("║ Result: %s\n", status)
	s += fmt.Sprintf("║ %s\n", result.Summary)
	s += "╚══════════════════════════════════════════╝\n"
	return s
}

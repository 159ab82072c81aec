package brain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AiWaldoh/a-i-d-a/internal/prompts"
)

// Report is the outcome of an orchestration run. Body holds the
// planner-written report; when report generation itself failed, Body is
// a raw render of the accumulated state and Degraded is set.
type Report struct {
	Target     string       `json:"target"`
	Goal       string       `json:"goal"`
	Iterations int          `json:"iterations"`
	Phase      Phase        `json:"phase"`
	Body       string       `json:"body"`
	Degraded   bool         `json:"degraded"`
	FinishedAt time.Time    `json:"finished_at"`
	State      *TargetState `json:"state"`
}

// Text renders the report for display.
func (r *Report) Text() string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "ASSESSMENT REPORT\n")
	fmt.Fprintf(&sb, "Target: %s\n", r.Target)
	fmt.Fprintf(&sb, "Goal: %s\n", r.Goal)
	fmt.Fprintf(&sb, "Iterations: %d\n", r.Iterations)
	fmt.Fprintf(&sb, "Final Phase: %s\n", r.Phase)
	fmt.Fprintf(&sb, "Finished: %s\n", r.FinishedAt.Format("2006-01-02 15:04:05"))
	if r.Degraded {
		sb.WriteString("NOTE: report generation failed; raw state follows\n")
	}
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")
	sb.WriteString(r.Body)
	return sb.String()
}

// finalReport asks the planner to write the report over the full state.
// Always returns a usable report: if the planner call fails, the raw
// state render stands in as a degraded body.
func (o *Orchestrator) finalReport(ctx context.Context) *Report {
	report := &Report{
		Target:     o.cfg.Target,
		Goal:       o.cfg.Goal,
		Iterations: o.state.Iterations,
		Phase:      o.state.Phase,
		FinishedAt: time.Now(),
		State:      o.state,
	}

	prompt := prompts.Render(o.registry.MustContent("operator-report"), map[string]string{
		"target":     o.cfg.Target,
		"goal":       o.cfg.Goal,
		"iterations": strconv.Itoa(o.state.Iterations),
		"context":    o.state.Render(o.cfg.MaxIterations),
	})

	body, _, err := o.planner.Ask(ctx, prompt)
	if err != nil || strings.TrimSpace(body) == "" {
		if err != nil {
			o.logger.Printf("brain: report generation failed, returning raw state: %v", err)
		}
		report.Body = o.degradedBody()
		report.Degraded = true
		return report
	}

	report.Body = body
	return report
}

// degradedBody renders everything accumulated so far without any
// reasoning-service involvement.
func (o *Orchestrator) degradedBody() string {
	var sb strings.Builder
	sb.WriteString(o.state.Render(o.cfg.MaxIterations))
	if len(o.state.Findings) > 0 {
		sb.WriteString("\n\nAll Findings:\n")
		for i, f := range o.state.Findings {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, f)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

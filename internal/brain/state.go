// Package brain coordinates two agent sessions - a planner that decides
// and a worker that executes - around a shared target state, driving an
// assessment from reconnaissance through exploitation without per-step
// human input.
package brain

import (
	"fmt"
	"sort"
	"strings"
)

// Phase is the assessment stage. Phases form a total order and never
// regress within one run.
type Phase int

const (
	PhaseRecon Phase = iota
	PhaseEnumeration
	PhaseExploitation
)

func (p Phase) String() string {
	switch p {
	case PhaseRecon:
		return "RECONNAISSANCE"
	case PhaseEnumeration:
		return "ENUMERATION"
	case PhaseExploitation:
		return "EXPLOITATION"
	default:
		return fmt.Sprintf("PHASE(%d)", int(p))
	}
}

// MarshalText makes phases readable in persisted snapshots.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText accepts the strings produced by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "RECONNAISSANCE":
		*p = PhaseRecon
	case "ENUMERATION":
		*p = PhaseEnumeration
	case "EXPLOITATION":
		*p = PhaseExploitation
	default:
		return fmt.Errorf("unknown phase: %s", text)
	}
	return nil
}

// TargetState is the shared record of assessment progress. It is owned
// by the orchestrator: sessions only ever see a rendered snapshot in
// their prompts, never the record itself.
type TargetState struct {
	Target          string         `json:"target"`
	Goal            string         `json:"goal"`
	Phase           Phase          `json:"phase"`
	OpenPorts       []int          `json:"open_ports"`
	Services        map[int]string `json:"services"`
	Vulnerabilities []string       `json:"vulnerabilities"`
	Findings        []string       `json:"findings"`
	Iterations      int            `json:"iterations"`

	seenPorts map[int]bool
	seenVulns map[string]bool
}

// NewTargetState creates a fresh state in the reconnaissance phase.
func NewTargetState(target, goal string) *TargetState {
	return &TargetState{
		Target:    target,
		Goal:      goal,
		Phase:     PhaseRecon,
		Services:  make(map[int]string),
		seenPorts: make(map[int]bool),
		seenVulns: make(map[string]bool),
	}
}

// Reindex rebuilds the dedup indexes from the exported fields. Call after
// deserializing a snapshot before mutating it further.
func (s *TargetState) Reindex() {
	s.seenPorts = make(map[int]bool, len(s.OpenPorts))
	for _, p := range s.OpenPorts {
		s.seenPorts[p] = true
	}
	s.seenVulns = make(map[string]bool, len(s.Vulnerabilities))
	for _, v := range s.Vulnerabilities {
		s.seenVulns[v] = true
	}
	if s.Services == nil {
		s.Services = make(map[int]string)
	}
}

// AddPort records an open port, reporting whether it was new.
func (s *TargetState) AddPort(port int) bool {
	if s.seenPorts[port] {
		return false
	}
	s.seenPorts[port] = true
	s.OpenPorts = append(s.OpenPorts, port)
	return true
}

// SetService names the service behind a port. Later observations win.
func (s *TargetState) SetService(port int, name string) {
	if name == "" {
		return
	}
	s.Services[port] = name
}

// AddVulnerability records a vulnerability identifier once.
func (s *TargetState) AddVulnerability(v string) bool {
	if s.seenVulns[v] {
		return false
	}
	s.seenVulns[v] = true
	s.Vulnerabilities = append(s.Vulnerabilities, v)
	return true
}

// AddFinding appends a free-text finding in arrival order.
func (s *TargetState) AddFinding(f string) {
	s.Findings = append(s.Findings, f)
}

// Observe runs the extractors over a worker transcript in order and then
// advances the phase. This is the only mutation path the orchestrator
// uses after an iteration.
func (s *TargetState) Observe(transcript string, extractors []Extractor) {
	for _, ex := range extractors {
		ex.Apply(s, transcript)
	}
	s.progressPhase()
}

// progressPhase moves the phase forward when accumulated discoveries
// cross the policy thresholds: any open port ends reconnaissance, any
// recorded vulnerability ends enumeration. At most one step per call, so
// a run always passes through every phase it reaches. Never regresses.
func (s *TargetState) progressPhase() {
	switch {
	case s.Phase == PhaseRecon && len(s.OpenPorts) > 0:
		s.Phase = PhaseEnumeration
	case s.Phase == PhaseEnumeration && len(s.Vulnerabilities) > 0:
		s.Phase = PhaseExploitation
	}
}

const recentFindings = 3

// Render serializes the state into the plain-text block the planner sees
// each iteration. Sections with nothing to say are omitted.
func (s *TargetState) Render(maxIterations int) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Target: %s", s.Target))
	parts = append(parts, fmt.Sprintf("Goal: %s", s.Goal))
	parts = append(parts, fmt.Sprintf("Phase: %s", s.Phase))
	parts = append(parts, fmt.Sprintf("Iteration: %d/%d", s.Iterations, maxIterations))

	if len(s.OpenPorts) > 0 {
		ports := make([]string, len(s.OpenPorts))
		for i, p := range s.OpenPorts {
			ports[i] = fmt.Sprintf("%d", p)
		}
		parts = append(parts, "Open Ports: "+strings.Join(ports, ", "))
	}
	if len(s.Services) > 0 {
		ports := make([]int, 0, len(s.Services))
		for p := range s.Services {
			ports = append(ports, p)
		}
		sort.Ints(ports)
		svcs := make([]string, len(ports))
		for i, p := range ports {
			svcs[i] = fmt.Sprintf("%d:%s", p, s.Services[p])
		}
		parts = append(parts, "Services: "+strings.Join(svcs, ", "))
	}
	if len(s.Vulnerabilities) > 0 {
		parts = append(parts, "Vulnerabilities: "+strings.Join(s.Vulnerabilities, ", "))
	}
	if len(s.Findings) > 0 {
		recent := s.Findings
		if len(recent) > recentFindings {
			recent = recent[len(recent)-recentFindings:]
		}
		parts = append(parts, "Recent Findings: "+strings.Join(recent, "; "))
	}

	return strings.Join(parts, "\n")
}

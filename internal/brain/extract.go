package brain

import (
	"regexp"
	"strconv"
)

// Extractor pulls structured facts out of free-text worker transcripts.
// Extraction is best-effort pattern matching over tool output: it enriches
// the target state but is never its sole source of truth, and an extractor
// that matches nothing is not an error. Extractors run in registration
// order so later ones can see state left by earlier ones.
type Extractor struct {
	Name  string
	Apply func(s *TargetState, transcript string)
}

var (
	portPattern = regexp.MustCompile(`(\d+)/tcp\s+open(?:\s+(\S+))?`)
	cvePattern  = regexp.MustCompile(`CVE-\d{4}-\d{4,}`)
	urlPattern  = regexp.MustCompile(`https?://[^\s"'<>]+`)
)

// PortExtractor reads nmap-style service lines ("22/tcp open ssh") into
// open ports and service names. Repeated lines dedup to one port.
func PortExtractor() Extractor {
	return Extractor{
		Name: "ports",
		Apply: func(s *TargetState, transcript string) {
			for _, m := range portPattern.FindAllStringSubmatch(transcript, -1) {
				port, err := strconv.Atoi(m[1])
				if err != nil {
					continue
				}
				s.AddPort(port)
				s.SetService(port, m[2])
			}
		},
	}
}

// CVEExtractor records CVE identifiers as vulnerabilities, deduplicated.
func CVEExtractor() Extractor {
	return Extractor{
		Name: "cves",
		Apply: func(s *TargetState, transcript string) {
			for _, id := range cvePattern.FindAllString(transcript, -1) {
				if s.AddVulnerability(id) {
					s.AddFinding("vulnerability identified: " + id)
				}
			}
		},
	}
}

// URLExtractor notes discovered URLs as findings, capped per transcript
// so a crawler dump cannot flood the state.
func URLExtractor() Extractor {
	const maxURLs = 5
	return Extractor{
		Name: "urls",
		Apply: func(s *TargetState, transcript string) {
			urls := urlPattern.FindAllString(transcript, maxURLs)
			for _, u := range urls {
				s.AddFinding("url discovered: " + u)
			}
		},
	}
}

// DefaultExtractors is the standard extraction pipeline.
func DefaultExtractors() []Extractor {
	return []Extractor{
		PortExtractor(),
		CVEExtractor(),
	}
}

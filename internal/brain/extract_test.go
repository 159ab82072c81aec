package brain

import (
	"reflect"
	"testing"
)

func TestPortExtractor(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		wantPorts  []int
		wantSvcs   map[int]string
	}{
		{
			name:       "nmap service lines",
			transcript: "PORT   STATE SERVICE\n22/tcp open  ssh\n80/tcp open  http",
			wantPorts:  []int{22, 80},
			wantSvcs:   map[int]string{22: "ssh", 80: "http"},
		},
		{
			name:       "duplicate line recorded once",
			transcript: "22/tcp open ssh\n22/tcp open ssh",
			wantPorts:  []int{22},
			wantSvcs:   map[int]string{22: "ssh"},
		},
		{
			name:       "open port without service name",
			transcript: "8080/tcp open",
			wantPorts:  []int{8080},
			wantSvcs:   map[int]string{},
		},
		{
			name:       "closed ports ignored",
			transcript: "22/tcp closed ssh\n443/tcp filtered https",
			wantPorts:  nil,
			wantSvcs:   map[int]string{},
		},
		{
			name:       "prose without scan output",
			transcript: "the target did not respond to ping",
			wantPorts:  nil,
			wantSvcs:   map[int]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTargetState("t", "g")
			PortExtractor().Apply(s, tt.transcript)
			if !reflect.DeepEqual(s.OpenPorts, tt.wantPorts) {
				t.Errorf("OpenPorts = %v, want %v", s.OpenPorts, tt.wantPorts)
			}
			if !reflect.DeepEqual(s.Services, tt.wantSvcs) {
				t.Errorf("Services = %v, want %v", s.Services, tt.wantSvcs)
			}
		})
	}
}

func TestPortExtractorDedupAcrossTranscripts(t *testing.T) {
	s := NewTargetState("t", "g")
	ex := PortExtractor()
	ex.Apply(s, "22/tcp open ssh")
	ex.Apply(s, "22/tcp open ssh\n80/tcp open http")

	if !reflect.DeepEqual(s.OpenPorts, []int{22, 80}) {
		t.Errorf("OpenPorts = %v, want [22 80]", s.OpenPorts)
	}
}

func TestCVEExtractor(t *testing.T) {
	s := NewTargetState("t", "g")
	CVEExtractor().Apply(s, "Apache 2.4.49 is vulnerable to CVE-2021-41773 (path traversal). See CVE-2021-41773 advisory. Also CVE-2021-42013.")

	want := []string{"CVE-2021-41773", "CVE-2021-42013"}
	if !reflect.DeepEqual(s.Vulnerabilities, want) {
		t.Errorf("Vulnerabilities = %v, want %v", s.Vulnerabilities, want)
	}
	if len(s.Findings) != 2 {
		t.Errorf("findings = %v, want one per new vulnerability", s.Findings)
	}
}

func TestURLExtractorCapsPerTranscript(t *testing.T) {
	s := NewTargetState("t", "g")
	transcript := ""
	for i := 0; i < 20; i++ {
		transcript += "http://10.10.10.5/page" + string(rune('a'+i)) + "\n"
	}
	URLExtractor().Apply(s, transcript)

	if len(s.Findings) != 5 {
		t.Errorf("findings = %d, want capped at 5", len(s.Findings))
	}
}

func TestExtractorsRunInOrder(t *testing.T) {
	var order []string
	extractors := []Extractor{
		{Name: "first", Apply: func(*TargetState, string) { order = append(order, "first") }},
		{Name: "second", Apply: func(*TargetState, string) { order = append(order, "second") }},
	}

	s := NewTargetState("t", "g")
	s.Observe("anything", extractors)
	if !reflect.DeepEqual(order, []string{"first", "second"}) {
		t.Errorf("order = %v, want [first second]", order)
	}
}

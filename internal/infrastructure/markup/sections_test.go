package markup

import (
	"strings"
	"testing"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

func TestSectionsSplitsOnHeadings(t *testing.T) {
	sections, err := Sections([]byte(sampleProxy))
	if err != nil {
		t.Fatalf("Sections() error = %v", err)
	}
	if len(sections) == 0 {
		t.Fatalf("expected sections from sample proxy")
	}

	var comp *Section
	for i := range sections {
		if strings.Contains(sections[i].Heading, "EXECUTIVE COMPENSATION") {
			comp = &sections[i]
		}
	}
	if comp == nil {
		t.Fatalf("expected an EXECUTIVE COMPENSATION section, got %+v", headingsOf(sections))
	}
	if !strings.Contains(comp.Text, "Summary Compensation Table") {
		t.Fatalf("compensation section missing body text: %q", comp.Text)
	}
	if strings.Contains(comp.Text, "beneficial stock ownership") {
		t.Fatalf("compensation section leaked into next section")
	}
}

func TestSectionsDropsTrivialContent(t *testing.T) {
	body := `<html><body><h1>SHORT SECTION</h1><p>tiny</p></body></html>`
	sections, err := Sections([]byte(body))
	if err != nil {
		t.Fatalf("Sections() error = %v", err)
	}
	if len(sections) != 0 {
		t.Fatalf("expected no sections below the content floor, got %+v", headingsOf(sections))
	}
}

func TestSectionsFindsStyledHeadings(t *testing.T) {
	body := `<html><body>
<div style="font-weight: bold">Compensation Discussion and Analysis</div>
<p>` + strings.Repeat("Named executive officer pay rationale. ", 20) + `</p>
</body></html>`
	sections, err := Sections([]byte(body))
	if err != nil {
		t.Fatalf("Sections() error = %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected styled heading to produce a section, got %+v", headingsOf(sections))
	}
}

func TestTopicFor(t *testing.T) {
	cases := []struct {
		heading string
		text    string
		want    domain.SectionTopic
	}{
		{"SUMMARY COMPENSATION TABLE", "", domain.TopicCompensation},
		{"Information About Our Executive Officers", "", domain.TopicBiography},
		{"BACKGROUND", "holds an MBA; education includes Harvard", domain.TopicEducation},
		{"Anything Else", "general meeting logistics", domain.TopicBiography},
	}
	for _, tc := range cases {
		if got := TopicFor(tc.heading, tc.text); got != tc.want {
			t.Fatalf("TopicFor(%q) = %q, want %q", tc.heading, got, tc.want)
		}
	}
}

func headingsOf(sections []Section) []string {
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		out = append(out, s.Heading)
	}
	return out
}

package markup

import (
	"strings"
	"testing"
)

const sampleProxy = `<html><body>
<h1>NOTICE OF ANNUAL MEETING AND PROXY STATEMENT</h1>
<p>This proxy statement is furnished in connection with the solicitation of proxies
by the Board of Directors for the annual meeting of shareholders.</p>
<h2>EXECUTIVE COMPENSATION</h2>
<p>The following Summary Compensation Table sets forth the compensation of our named
executive officers for the last completed fiscal year, including base salary, stock
awards and all other compensation paid by the company.</p>
<table><tr><td>John Smith</td><td>Chief Executive Officer</td><td>$1,000,000</td></tr></table>
<h2>STOCK OWNERSHIP</h2>
<p>The table below shows beneficial stock ownership of directors and executive
officers as of the record date, together with corporate governance highlights.</p>
</body></html>`

func TestValidateAcceptsWellFormedProxyStatement(t *testing.T) {
	v := NewValidator()
	result := v.Validate([]byte(sampleProxy), "DEF 14A")
	if !result.OK {
		t.Fatalf("expected acceptance, got reason %q", result.Reason)
	}
}

func TestValidateRejectsEmptyInput(t *testing.T) {
	v := NewValidator()
	for _, raw := range [][]byte{nil, []byte(""), []byte("<html></html>")} {
		result := v.Validate(raw, "DEF 14A")
		if result.OK {
			t.Fatalf("expected rejection of %q", raw)
		}
		if result.Reason == "" {
			t.Fatalf("expected a human-readable reason")
		}
	}
}

func TestValidateRejectsMissingMarkers(t *testing.T) {
	body := "<html><body><p>" + strings.Repeat("Quarterly revenue discussion. ", 50) + "</p></body></html>"
	v := NewValidator()
	result := v.Validate([]byte(body), "DEF 14A")
	if result.OK {
		t.Fatalf("expected rejection of marker-free document")
	}
	if !strings.Contains(result.Reason, "markers") {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
}

func TestValidateRelaxedMarkersRescueBorderlineDocument(t *testing.T) {
	body := "<html><body><p>" + strings.Repeat("Pay details follow. ", 40) +
		"Compensation of officers is described herein.</p></body></html>"

	strict := NewValidator()
	if strict.Validate([]byte(body), "DEF 14A").OK {
		t.Fatalf("expected strict rejection")
	}

	relaxed := NewValidator(WithRelaxedMarkers([]string{"compensation of officers"}))
	if result := relaxed.Validate([]byte(body), "DEF 14A"); !result.OK {
		t.Fatalf("expected relaxed acceptance, got %q", result.Reason)
	}
}

func TestValidateTreatsMalformedMarkupAsResultNotError(t *testing.T) {
	// Truncated markup still parses leniently; missing markers reject it.
	body := "<html><body><h1>PROXY" + strings.Repeat(" filler", 100)
	v := NewValidator()
	result := v.Validate([]byte(body), "DEF 14A")
	if result.OK {
		t.Fatalf("expected rejection")
	}
}

package edgar

import "testing"

func TestAccessionFromHrefFallsBackToCIKAndDate(t *testing.T) {
	got := accessionFromHref("/Archives/edgar/data/320193/unnumbered-index.htm", "0000320193", "2024/01/05")
	if got != "0000320193-2024-01-05" {
		t.Fatalf("accession = %q", got)
	}
}

func TestParseIndexForDocumentPrefersDirectLink(t *testing.T) {
	raw := []byte(`<html><body>
<a href="/docs/other.htm">DEF 14A cover page</a>
<a href="/docs/DEF14A.htm">main document</a>
</body></html>`)

	got, err := parseIndexForDocument(raw)
	if err != nil {
		t.Fatalf("parseIndexForDocument: %v", err)
	}
	if got != "/docs/DEF14A.htm" {
		t.Fatalf("link = %q, want the def14a href over the labelled fallback", got)
	}
}

func TestParseIndexForDocumentLabelledFallback(t *testing.T) {
	raw := []byte(`<html><body>
<a href="/docs/proxy2024.htm">DEF 14A</a>
<a href="/docs/logo.jpg">graphic</a>
</body></html>`)

	got, err := parseIndexForDocument(raw)
	if err != nil {
		t.Fatalf("parseIndexForDocument: %v", err)
	}
	if got != "/docs/proxy2024.htm" {
		t.Fatalf("link = %q", got)
	}
}

func TestParseIndexForDocumentNoCandidate(t *testing.T) {
	raw := []byte(`<html><body><a href="/docs/logo.jpg">graphic</a></body></html>`)
	if _, err := parseIndexForDocument(raw); err == nil {
		t.Fatal("expected an error for an index without a proxy link")
	}
}

func TestParseListingRowMissingDate(t *testing.T) {
	raw := []byte(`<html><body><table class="tableFile2">
<tr><td>DEF 14A</td><td><a href="/idx.htm">Documents</a></td><td>desc</td><td></td></tr>
</table></body></html>`)

	if _, err := parseListing(raw, "0000000001", "DEF 14A", "https://www.sec.gov"); err == nil {
		t.Fatal("expected an error for a row without a filing date")
	}
}

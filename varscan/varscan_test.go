package varscan

import (
	"testing"
)

func compiled(t *testing.T) []Pattern {
	t.Helper()
	pats, err := Compile(BuiltinPatterns())
	if err != nil {
		t.Fatal(err)
	}
	return pats
}

func TestScanBuiltins(t *testing.T) {
	text := "Dear <<client_name>>, your invoice {{invoice_no}} totals ${amount}."

	matches := Scan(text, compiled(t))
	if len(matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(matches))
	}

	want := []Match{
		{Name: "client_name", Kind: "<<>>", Raw: "<<client_name>>"},
		{Name: "invoice_no", Kind: "{{}}", Raw: "{{invoice_no}}"},
		{Name: "amount", Kind: "${}", Raw: "${amount}"},
	}
	for i, m := range matches {
		if m != want[i] {
			t.Errorf("match %d = %+v, want %+v", i, m, want[i])
		}
	}
}

func TestScanSameNameDifferentKinds(t *testing.T) {
	text := "Both <<client_name>> and {{client_name}} appear here."

	matches := Scan(text, compiled(t))
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].Name != matches[1].Name {
		t.Errorf("names differ: %q vs %q", matches[0].Name, matches[1].Name)
	}
	if matches[0].Kind == matches[1].Kind {
		t.Errorf("kinds should differ, both %q", matches[0].Kind)
	}
}

func TestScanRepeatedOccurrences(t *testing.T) {
	// Every occurrence is reported; dedup happens at persistence time.
	text := "<<date>> on page one, <<date>> on page two."

	matches := Scan(text, compiled(t))
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
}

func TestScanTrimsAndDropsEmpty(t *testing.T) {
	text := "padded <<  spaced_name  >> and empty <<   >> capture"

	matches := Scan(text, compiled(t))
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if matches[0].Name != "spaced_name" {
		t.Errorf("name = %q, want spaced_name", matches[0].Name)
	}
}

func TestScanNoMatches(t *testing.T) {
	if got := Scan("plain text with < no > placeholders", compiled(t)); len(got) != 0 {
		t.Fatalf("matches = %d, want 0", len(got))
	}
}

func TestCompileRejectsBadPatterns(t *testing.T) {
	if _, err := Compile([]Pattern{{Kind: "", Regexp: `x(y)`}}); err == nil {
		t.Error("expected error for missing kind")
	}
	if _, err := Compile([]Pattern{{Kind: "[]", Regexp: `([`}}); err == nil {
		t.Error("expected error for invalid regexp")
	}
	if _, err := Compile([]Pattern{{Kind: "##", Regexp: `#\w+#`}}); err == nil {
		t.Error("expected error for pattern without capture group")
	}
}

func TestCustomPattern(t *testing.T) {
	pats, err := Compile([]Pattern{{Kind: "[[]]", Regexp: `\[\[([^\]]+)\]\]`}})
	if err != nil {
		t.Fatal(err)
	}
	matches := Scan("see [[appendix_ref]] for details", pats)
	if len(matches) != 1 || matches[0].Name != "appendix_ref" || matches[0].Kind != "[[]]" {
		t.Fatalf("matches = %+v", matches)
	}
}

package extract

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		typ  FileType
	}{
		{"doc.pdf", TypePDF},
		{"doc.PDF", TypePDF},
		{"doc.docx", TypeDocx},
		{"a/b/report.docx", TypeDocx},
	}

	for _, tt := range tests {
		ft, err := Detect(tt.path)
		if err != nil {
			t.Errorf("Detect(%q): %v", tt.path, err)
			continue
		}
		if ft != tt.typ {
			t.Errorf("Detect(%q) = %q, want %q", tt.path, ft, tt.typ)
		}
	}

	if _, err := Detect("file.txt"); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Detect(file.txt) error = %v, want ErrUnsupportedType", err)
	}
}

func writeDocx(t *testing.T, path, docXML string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	fw, _ := w.Create("word/document.xml")
	fw.Write([]byte(docXML))
	w.Close()
	f.Close()
}

func TestExtractDocx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.docx")

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Engagement Letter</w:t></w:r></w:p>
<w:p><w:r><w:t></w:t></w:r></w:p>
<w:p><w:r><w:t>Dear </w:t></w:r><w:r><w:t>client, this letter confirms our engagement.</w:t></w:r></w:p>
<w:p><w:r><w:t>Fees are payable within thirty days.</w:t></w:r></w:p>
</w:body>
</w:document>`
	writeDocx(t, path, docXML)

	ex := New(Config{})
	res, err := ex.Extract(context.Background(), path, TypeDocx)
	if err != nil {
		t.Fatal(err)
	}

	// Empty paragraph is skipped; three retained.
	if len(res.Layout.Paragraphs) != 3 {
		t.Fatalf("retained paragraphs = %d, want 3", len(res.Layout.Paragraphs))
	}

	// Runs within one paragraph are concatenated.
	second := res.Layout.Paragraphs[1]
	if second.Text != "Dear client, this letter confirms our engagement." {
		t.Errorf("second paragraph = %q", second.Text)
	}

	// ParaNum counts all source paragraphs, including the skipped empty one.
	if second.ParaNum != 3 {
		t.Errorf("second paragraph ParaNum = %d, want 3", second.ParaNum)
	}

	// Style falls through to Normal for unstyled paragraphs.
	if second.Style != "Normal" {
		t.Errorf("style = %q, want Normal", second.Style)
	}
	if res.Layout.Paragraphs[0].Style != "Heading1" {
		t.Errorf("heading style = %q, want Heading1", res.Layout.Paragraphs[0].Style)
	}

	// Paragraphs are blank-line separated in the full text.
	if !strings.Contains(res.FullText, "engagement.\n\nFees") {
		t.Errorf("full text missing blank-line separator: %q", res.FullText)
	}

	// Short document estimates to one page.
	if res.PageCount != 1 {
		t.Errorf("page count = %d, want 1", res.PageCount)
	}
	if res.Layout.PageCount != res.PageCount {
		t.Errorf("layout page count %d != result page count %d", res.Layout.PageCount, res.PageCount)
	}
}

func TestExtractDocxPageEstimate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "long.docx")

	// ~5000 characters of body text → 2 estimated pages.
	para := strings.Repeat("lorem ipsum dolor sit amet ", 40)
	var body strings.Builder
	for range 5 {
		body.WriteString("<w:p><w:r><w:t>" + para + "</w:t></w:r></w:p>\n")
	}
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
` + body.String() + `</w:body>
</w:document>`
	writeDocx(t, path, docXML)

	ex := New(Config{})
	res, err := ex.Extract(context.Background(), path, TypeDocx)
	if err != nil {
		t.Fatal(err)
	}
	if res.PageCount != 2 {
		t.Errorf("page count = %d, want 2", res.PageCount)
	}
}

func TestExtractCorruptDocx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.docx")
	os.WriteFile(path, []byte("this is not a zip archive"), 0644)

	ex := New(Config{})
	if _, err := ex.Extract(context.Background(), path, TypeDocx); err == nil {
		t.Fatal("expected error for corrupt docx")
	}
}

func TestExtractMissingFile(t *testing.T) {
	ex := New(Config{})
	if _, err := ex.Extract(context.Background(), "/nonexistent/file.pdf", TypePDF); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.xyz")
	os.WriteFile(path, []byte("data"), 0644)

	ex := New(Config{})
	_, err := ex.Extract(context.Background(), path, FileType("xyz"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestExtractFileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.docx")
	os.WriteFile(path, make([]byte, 2048), 0644)

	ex := New(Config{MaxFileSize: 1024})
	if _, err := ex.Extract(context.Background(), path, TypeDocx); err == nil {
		t.Fatal("expected error for oversized file")
	}
}

func TestParseContentBlocks(t *testing.T) {
	stream := []byte(`BT
/F1 12 Tf
72 720 Td
(Hello world from page one.) Tj
ET
BT
/F1 12 Tf
72 650 Td
(Second block of text.) Tj
ET`)

	blocks := parseContentBlocks(stream)
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if blocks[0].Text != "Hello world from page one." {
		t.Errorf("block 1 text = %q", blocks[0].Text)
	}
	if blocks[0].X0 != 72 || blocks[0].Y0 != 720 {
		t.Errorf("block 1 origin = (%v,%v), want (72,720)", blocks[0].X0, blocks[0].Y0)
	}
	if blocks[1].Y0 != 650 {
		t.Errorf("block 2 y0 = %v, want 650", blocks[1].Y0)
	}
	if blocks[0].BlockNum != 1 || blocks[1].BlockNum != 2 {
		t.Errorf("block numbering = %d,%d, want 1,2", blocks[0].BlockNum, blocks[1].BlockNum)
	}
	if blocks[0].X1 <= blocks[0].X0 || blocks[0].Y1 <= blocks[0].Y0 {
		t.Errorf("block 1 extent not positive: %+v", blocks[0])
	}
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`with \(parens\)`, "with (parens)"},
		{`tab\there`, "tab\there"},
		{`octal\040space`, "octal space"},
		{`back\\slash`, `back\slash`},
	}
	for _, tt := range tests {
		if got := decodePDFString([]byte(tt.in)); got != tt.want {
			t.Errorf("decodePDFString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

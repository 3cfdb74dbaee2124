package queue

import (
	"archive/zip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docsift/docsift/extract"
	"github.com/docsift/docsift/filestore"
	"github.com/docsift/docsift/store"
	"github.com/docsift/docsift/varscan"
)

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

func testPipeline(t *testing.T) (*Pipeline, *store.Store, *filestore.Store) {
	t.Helper()
	s := store.OpenMemory(t)
	files, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	patterns, err := varscan.Compile(varscan.BuiltinPatterns())
	if err != nil {
		t.Fatal(err)
	}
	p := &Pipeline{
		Store:     s,
		Files:     files,
		Extractor: extract.New(extract.Config{}),
		Patterns:  patterns,
	}
	return p, s, files
}

func TestPipelineProcess(t *testing.T) {
	p, s, files := testPipeline(t)
	ctx := context.Background()

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Dear &lt;&lt;client_name&gt;&gt;, this letter confirms our engagement.</w:t></w:r></w:p>
<w:p><w:r><w:t>Fees of ${amount} are payable within thirty days.</w:t></w:r></w:p>
<w:p><w:r><w:t>Sincerely, &lt;&lt;client_name&gt;&gt; account manager.</w:t></w:r></w:p>
</w:body>
</w:document>`
	tmp := filepath.Join(t.TempDir(), "letter.docx")
	writeDocx(t, tmp, docXML)

	src, err := os.Open(tmp)
	if err != nil {
		t.Fatal(err)
	}
	stored, size, err := files.Save("letter.docx", src)
	src.Close()
	if err != nil {
		t.Fatal(err)
	}

	doc := &store.Document{
		OriginalName: "letter.docx",
		StoredName:   stored,
		FileType:     "docx",
		FileSize:     size,
	}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	if err := p.Process(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != store.StatusProcessed {
		t.Fatalf("status = %q, error = %q", got.Status, got.Error)
	}
	if !strings.Contains(got.FullText, "confirms our engagement") {
		t.Errorf("full text missing content: %q", got.FullText)
	}
	if got.PageCount != 1 {
		t.Errorf("page count = %d, want 1", got.PageCount)
	}

	var layout extract.Layout
	if err := json.Unmarshal([]byte(got.Layout), &layout); err != nil {
		t.Fatalf("layout not valid JSON: %v", err)
	}
	if len(layout.Paragraphs) != 3 {
		t.Errorf("layout paragraphs = %d, want 3", len(layout.Paragraphs))
	}

	paras, err := s.DocumentParagraphs(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(paras) != 3 {
		t.Fatalf("stored paragraphs = %d, want 3", len(paras))
	}

	vars, err := s.DocumentVariables(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(vars) != 2 {
		t.Fatalf("variables = %+v, want client_name and amount", vars)
	}
	if vars[0].Name != "client_name" || vars[0].Count != 2 {
		t.Errorf("top variable = %+v, want client_name with count 2", vars[0])
	}
}

func TestPipelineMissingFile(t *testing.T) {
	p, s, _ := testPipeline(t)
	ctx := context.Background()

	doc := &store.Document{
		OriginalName: "ghost.pdf",
		StoredName:   "20260101000000_ghost.pdf",
		FileType:     "pdf",
	}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	if err := p.Process(ctx, doc.ID); err == nil {
		t.Fatal("expected error for missing backing file")
	}

	got, err := s.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != store.StatusError || got.Error == "" {
		t.Fatalf("status = %q, error = %q", got.Status, got.Error)
	}
}

func TestPipelineCorruptFile(t *testing.T) {
	p, s, files := testPipeline(t)
	ctx := context.Background()

	stored, _, err := files.Save("bad.docx", strings.NewReader("not a zip archive"))
	if err != nil {
		t.Fatal(err)
	}
	doc := &store.Document{
		OriginalName: "bad.docx",
		StoredName:   stored,
		FileType:     "docx",
	}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	if err := p.Process(ctx, doc.ID); err == nil {
		t.Fatal("expected error for corrupt file")
	}
	got, err := s.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != store.StatusError {
		t.Fatalf("status = %q, want error", got.Status)
	}
}

func TestPipelineReprocessIdempotent(t *testing.T) {
	p, s, files := testPipeline(t)
	ctx := context.Background()

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Repeatable paragraph content for idempotency.</w:t></w:r></w:p>
</w:body>
</w:document>`
	tmp := filepath.Join(t.TempDir(), "r.docx")
	writeDocx(t, tmp, docXML)
	src, err := os.Open(tmp)
	if err != nil {
		t.Fatal(err)
	}
	stored, _, err := files.Save("r.docx", src)
	src.Close()
	if err != nil {
		t.Fatal(err)
	}

	doc := &store.Document{OriginalName: "r.docx", StoredName: stored, FileType: "docx"}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	if err := p.Process(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.ResetDocument(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}
	if err := p.Process(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}

	paras, err := s.DocumentParagraphs(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(paras) != 1 {
		t.Fatalf("paragraphs after reprocess = %d, want 1", len(paras))
	}
}

package extract

// FileType identifies a supported document format.
type FileType string

const (
	TypePDF  FileType = "pdf"
	TypeDocx FileType = "docx"
)

// Block is one positioned text block on a PDF page. Coordinates are derived
// from text-positioning operators in the content stream and are advisory.
type Block struct {
	BlockNum int     `json:"block_num"`
	X0       float64 `json:"x0"`
	Y0       float64 `json:"y0"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	Text     string  `json:"text"`
}

// Page holds the layout of a single PDF page.
type Page struct {
	PageNum int     `json:"page_num"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Blocks  []Block `json:"blocks"`
}

// DocxParagraph is one retained paragraph of a DOCX body.
// ParaNum is the 1-based index among all paragraphs, including skipped
// empty ones, so it stays stable against the source document.
type DocxParagraph struct {
	ParaNum int    `json:"para_num"`
	Text    string `json:"text"`
	Style   string `json:"style"`
}

// Layout is the serializable layout metadata for an extracted document.
// Field names are a contract consumed by downstream viewers and exports.
type Layout struct {
	Pages      []Page          `json:"pages"`
	PageCount  int             `json:"page_count"`
	Paragraphs []DocxParagraph `json:"paragraphs,omitempty"`
}

// Result is the outcome of extracting one document.
type Result struct {
	FullText  string
	Layout    Layout
	PageCount int
}

package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// docxCharsPerPage is the character count used to estimate page counts.
// DOCX has no native page concept; this matches a dense A4 text page.
const docxCharsPerPage = 2000

// extractDocx parses a .docx file by reading word/document.xml from the ZIP
// archive. Paragraphs whose trimmed text is empty are skipped; the rest are
// accumulated with blank-line separators and recorded in the layout with
// their 1-based source index and style name.
func extractDocx(path string) (*Result, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var fullText strings.Builder
	var paragraphs []DocxParagraph
	var currentText strings.Builder
	var inParagraph, inRun bool
	var style string
	paraNum := 0

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "p":
				inParagraph = true
				paraNum++
				currentText.Reset()
				style = ""
			case t.Name.Local == "pStyle" && inParagraph:
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						style = attr.Value
					}
				}
			case t.Name.Local == "t" && inParagraph:
				inRun = true
			case t.Name.Local == "tab" && inParagraph:
				currentText.WriteByte('\t')
			case t.Name.Local == "br" && inParagraph:
				currentText.WriteByte('\n')
			}

		case xml.CharData:
			if inRun {
				currentText.Write(t)
			}

		case xml.EndElement:
			switch {
			case t.Name.Local == "t":
				inRun = false
			case t.Name.Local == "p" && inParagraph:
				inParagraph = false
				text := currentText.String()
				if strings.TrimSpace(text) == "" {
					continue
				}
				if style == "" {
					style = "Normal"
				}
				paragraphs = append(paragraphs, DocxParagraph{
					ParaNum: paraNum,
					Text:    text,
					Style:   style,
				})
				fullText.WriteString(text)
				fullText.WriteString("\n\n")
			}
		}
	}

	text := fullText.String()
	pageCount := len(text) / docxCharsPerPage
	if pageCount < 1 {
		pageCount = 1
	}

	return &Result{
		FullText: text,
		Layout: Layout{
			Pages:      nil,
			PageCount:  pageCount,
			Paragraphs: paragraphs,
		},
		PageCount: pageCount,
	}, nil
}

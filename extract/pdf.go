package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// letterWidth and letterHeight are the fallback page dimensions (US Letter,
// PDF points) used when the page tree carries no MediaBox.
const (
	letterWidth  = 612.0
	letterHeight = 792.0
)

// extractPDF extracts text and block layout from a PDF file. Page texts are
// accumulated with blank-line separators; each page contributes its text
// blocks with bounding coordinates.
func extractPDF(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	dims, err := pctx.PageDims()
	if err != nil {
		dims = nil
	}

	var fullText strings.Builder
	layout := Layout{PageCount: pctx.PageCount}

	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		width, height := letterWidth, letterHeight
		if pageNr-1 < len(dims) {
			width, height = dims[pageNr-1].Width, dims[pageNr-1].Height
		}

		blocks := extractPageBlocks(pctx, pageNr)
		page := Page{
			PageNum: pageNr,
			Width:   width,
			Height:  height,
			Blocks:  blocks,
		}
		layout.Pages = append(layout.Pages, page)

		for _, b := range blocks {
			if b.Text == "" {
				continue
			}
			fullText.WriteString(b.Text)
			fullText.WriteString("\n\n")
		}
	}

	if fullText.Len() == 0 {
		if hasImageStreams(pctx) {
			return nil, fmt.Errorf("no text content found in PDF (image-only pages, OCR required)")
		}
		return nil, fmt.Errorf("no text content found in PDF")
	}

	return &Result{
		FullText:  fullText.String(),
		Layout:    layout,
		PageCount: pctx.PageCount,
	}, nil
}

// extractPageBlocks parses a page content stream into positioned text blocks.
func extractPageBlocks(pctx *model.Context, pageNr int) []Block {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return nil
	}
	return parseContentBlocks(data)
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// parseContentBlocks walks text operators in a content stream. Each BT..ET
// text object becomes one block; Tm/Td operands supply the block origin and
// the current font size approximates its extent.
func parseContentBlocks(data []byte) []Block {
	var blocks []Block
	var sb strings.Builder
	var x, y, fontSize float64
	var blockX, blockY float64
	inText := false
	fontSize = 12

	flush := func() {
		text := cleanStreamText(sb.String())
		sb.Reset()
		if text == "" {
			return
		}
		// Rough extent: half the font size per rune, one line tall.
		w := 0.5 * fontSize * float64(len([]rune(text)))
		blocks = append(blocks, Block{
			BlockNum: len(blocks) + 1,
			X0:       blockX,
			Y0:       blockY,
			X1:       blockX + w,
			Y1:       blockY + fontSize,
			Text:     text,
		})
	}

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.Equal(line, []byte("BT")):
			inText = true
			blockX, blockY = x, y

		case bytes.Equal(line, []byte("ET")):
			inText = false
			flush()

		case bytes.HasSuffix(line, []byte("Tf")):
			if size, ok := lastOperand(line, 1); ok {
				fontSize = size
			}

		case bytes.HasSuffix(line, []byte("Tm")):
			// a b c d e f Tm — e,f carry the origin.
			if ty, ok := lastOperand(line, 1); ok {
				if tx, ok := lastOperand(line, 2); ok {
					x, y = tx, ty
					if sb.Len() == 0 {
						blockX, blockY = x, y
					}
				}
			}

		case bytes.HasSuffix(line, []byte("Td")) || bytes.HasSuffix(line, []byte("TD")):
			if ty, ok := lastOperand(line, 1); ok {
				if tx, ok := lastOperand(line, 2); ok {
					x += tx
					y += ty
					if sb.Len() == 0 {
						blockX, blockY = x, y
					}
				}
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}

		case bytes.Equal(line, []byte("T*")):
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}

		case bytes.HasSuffix(line, []byte("Tj")) || bytes.HasSuffix(line, []byte("TJ")):
			if inText {
				for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
					sb.WriteString(decodePDFString(m[1]))
				}
			}

		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			if inText {
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
					sb.WriteString(decodePDFString(m[1]))
				}
			}
		}
	}

	// Stream ended without a closing ET.
	flush()
	return blocks
}

// lastOperand parses the n-th numeric operand counting back from the
// operator at the end of the line (n=1 is the operand just before it).
func lastOperand(line []byte, n int) (float64, bool) {
	fields := strings.Fields(string(line))
	idx := len(fields) - 1 - n
	if idx < 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				// Octal escape (e.g. \040 for space).
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

// cleanStreamText collapses whitespace runs and drops non-printable runes.
func cleanStreamText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// hasImageStreams checks if the PDF contains image XObjects. Image-only
// pages extract no text; callers can use this to explain empty results.
func hasImageStreams(pctx *model.Context) bool {
	if pctx.Optimize != nil {
		for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(pctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range pctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

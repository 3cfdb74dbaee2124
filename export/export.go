// Package export renders documents, variables, and analysis results as
// Excel workbooks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/docsift/docsift/analyze"
	"github.com/docsift/docsift/store"
)

// Service builds workbooks from the store.
type Service struct {
	store  *store.Store
	engine *analyze.Engine
	log    *slog.Logger
}

// New creates an export service. engine is used to compute similar
// pairs for per-document analysis workbooks.
func New(s *store.Store, engine *analyze.Engine, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: s, engine: engine, log: log}
}

// DocumentsSummary lists every document with its entity counts.
func (s *Service) DocumentsSummary(ctx context.Context) (*excelize.File, error) {
	docs, err := s.store.ListDocuments(ctx, store.ListFilter{})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Documents"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := setRow(f, sheet, 1, "Name", "Type", "Status", "Pages", "Size (bytes)", "Paragraphs", "Variables", "Uploaded"); err != nil {
		return nil, err
	}

	for i, d := range docs {
		paras, err := s.store.DocumentParagraphs(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		vars, err := s.store.DocumentVariables(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		err = setRow(f, sheet, i+2,
			d.OriginalName, d.FileType, d.Status, d.PageCount, d.FileSize,
			len(paras), len(vars), d.CreatedAt.Format(time.RFC3339))
		if err != nil {
			return nil, err
		}
	}
	s.log.Info("export: documents summary", "documents", len(docs))
	return f, nil
}

// DocumentAnalysis builds the per-document workbook: info, paragraphs
// with sharing counts, variables, and similar paragraph pairs.
func (s *Service) DocumentAnalysis(ctx context.Context, docID string) (*excelize.File, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	paras, err := s.store.DocumentParagraphs(ctx, docID)
	if err != nil {
		return nil, err
	}
	vars, err := s.store.DocumentVariables(ctx, docID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	const infoSheet = "Document Info"
	if err := f.SetSheetName("Sheet1", infoSheet); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	info := [][2]any{
		{"Name", doc.OriginalName},
		{"Type", doc.FileType},
		{"Status", doc.Status},
		{"Pages", doc.PageCount},
		{"Size (bytes)", doc.FileSize},
		{"Paragraphs", len(paras)},
		{"Variables", len(vars)},
		{"Uploaded", doc.CreatedAt.Format(time.RFC3339)},
	}
	for i, kv := range info {
		if err := setRow(f, infoSheet, i+1, kv[0], kv[1]); err != nil {
			return nil, err
		}
	}

	ids := make([]int64, len(paras))
	for i, p := range paras {
		ids[i] = p.ID
	}
	shared, err := s.store.ParagraphDocumentCount(ctx, ids)
	if err != nil {
		return nil, err
	}

	const paraSheet = "Paragraphs"
	if _, err := f.NewSheet(paraSheet); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := setRow(f, paraSheet, 1, "Position", "Shared With (docs)", "Text"); err != nil {
		return nil, err
	}
	for i, p := range paras {
		if err := setRow(f, paraSheet, i+2, p.Position, shared[p.ID], p.Text); err != nil {
			return nil, err
		}
	}

	const varSheet = "Variables"
	if _, err := f.NewSheet(varSheet); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := setRow(f, varSheet, 1, "Name", "Kind", "Occurrences"); err != nil {
		return nil, err
	}
	for i, v := range vars {
		if err := setRow(f, varSheet, i+2, v.Name, v.Kind, v.Count); err != nil {
			return nil, err
		}
	}

	const simSheet = "Similar Paragraphs"
	if _, err := f.NewSheet(simSheet); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := setRow(f, simSheet, 1, "Paragraph A", "Paragraph B", "Score"); err != nil {
		return nil, err
	}
	aps := make([]analyze.Paragraph, len(paras))
	for i, p := range paras {
		aps[i] = analyze.Paragraph{ID: p.ID, Text: p.Text, Hash: p.Hash}
	}
	for i, pair := range s.engine.SimilarPairs(aps) {
		if err := setRow(f, simSheet, i+2, pair.A.Text, pair.B.Text, pair.Score); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// VariablesSummary lists every variable with total occurrences and the
// number of documents using it.
func (s *Service) VariablesSummary(ctx context.Context) (*excelize.File, error) {
	vars, err := s.store.AllVariables(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(vars))
	for i, v := range vars {
		ids[i] = v.ID
	}
	docCounts, err := s.store.VariableDocumentCount(ctx, ids)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Variables"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := setRow(f, sheet, 1, "Name", "Kind", "Total Occurrences", "Documents"); err != nil {
		return nil, err
	}
	for i, v := range vars {
		if err := setRow(f, sheet, i+2, v.Name, v.Kind, v.Count, docCounts[v.ID]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// TemplateGroups groups processed documents by page count. Documents of
// the same template tend to share a page count, which makes this a cheap
// first cut at template detection.
func (s *Service) TemplateGroups(ctx context.Context) (*excelize.File, error) {
	docs, err := s.store.ListDocuments(ctx, store.ListFilter{Status: store.StatusProcessed})
	if err != nil {
		return nil, err
	}

	groups := make(map[int][]string)
	for _, d := range docs {
		groups[d.PageCount] = append(groups[d.PageCount], d.OriginalName)
	}
	pages := make([]int, 0, len(groups))
	for p := range groups {
		pages = append(pages, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(pages)))

	f := excelize.NewFile()
	const sheet = "Template Groups"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := setRow(f, sheet, 1, "Pages", "Documents", "Names"); err != nil {
		return nil, err
	}
	row := 2
	for _, p := range pages {
		names := groups[p]
		sort.Strings(names)
		if err := setRow(f, sheet, row, p, len(names), strings.Join(names, "; ")); err != nil {
			return nil, err
		}
		row++
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	return nil
}

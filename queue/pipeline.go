package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/docsift/docsift/extract"
	"github.com/docsift/docsift/filestore"
	"github.com/docsift/docsift/segment"
	"github.com/docsift/docsift/store"
	"github.com/docsift/docsift/varscan"
)

// Pipeline turns a stored document into extracted text, paragraphs, and
// variables. Its Process method is the coordinator's Handler.
type Pipeline struct {
	Store     *store.Store
	Files     *filestore.Store
	Extractor *extract.Extractor
	Patterns  []varscan.Pattern
	Logger    *slog.Logger
}

// Process runs extract → segment → scan → persist for one document.
// Any failure marks the document errored and is returned to the
// coordinator for counting.
func (p *Pipeline) Process(ctx context.Context, docID string) error {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}

	doc, err := p.Store.GetDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("queue: load document %s: %w", docID, err)
	}
	if err := p.Store.SetProcessing(ctx, docID); err != nil {
		return fmt.Errorf("queue: mark processing: %w", err)
	}

	if !p.Files.Exists(doc.StoredName) {
		err := fmt.Errorf("queue: backing file %s missing", doc.StoredName)
		p.fail(ctx, docID, err)
		return err
	}
	path, err := p.Files.Resolve(doc.StoredName)
	if err != nil {
		p.fail(ctx, docID, err)
		return err
	}

	res, err := p.Extractor.Extract(ctx, path, extract.FileType(doc.FileType))
	if err != nil {
		p.fail(ctx, docID, err)
		return fmt.Errorf("queue: extract %s: %w", docID, err)
	}

	paras := segment.Segment(res.FullText)
	matches := varscan.Scan(res.FullText, p.Patterns)

	if err := p.persist(ctx, docID, res, paras, matches); err != nil {
		p.fail(ctx, docID, err)
		return fmt.Errorf("queue: persist %s: %w", docID, err)
	}

	log.Info("queue: extraction complete", "id", docID,
		"pages", res.PageCount, "paragraphs", len(paras), "variables", len(matches))
	return nil
}

func (p *Pipeline) persist(ctx context.Context, docID string, res *extract.Result,
	paras []segment.Paragraph, matches []varscan.Match) error {

	layout, err := json.Marshal(res.Layout)
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}

	for _, para := range paras {
		id, err := p.Store.UpsertParagraph(ctx, para.Hash, para.Text)
		if err != nil {
			return err
		}
		if err := p.Store.AssociateParagraph(ctx, docID, id, para.Position); err != nil {
			return err
		}
	}

	// Occurrence counts per (name, kind).
	type varKey struct{ name, kind string }
	counts := make(map[varKey]int)
	order := make([]varKey, 0)
	for _, m := range matches {
		k := varKey{m.Name, m.Kind}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	for _, k := range order {
		id, err := p.Store.UpsertVariable(ctx, k.name, k.kind)
		if err != nil {
			return err
		}
		if err := p.Store.AssociateVariable(ctx, docID, id, counts[k]); err != nil {
			return err
		}
	}

	return p.Store.SetExtraction(ctx, docID, res.FullText, string(layout), res.PageCount)
}

// fail records the error on the document. The original error wins even
// if recording it also fails.
func (p *Pipeline) fail(ctx context.Context, docID string, cause error) {
	if err := p.Store.SetError(context.WithoutCancel(ctx), docID, cause.Error()); err != nil {
		log := p.Logger
		if log == nil {
			log = slog.Default()
		}
		log.Warn("queue: recording document error failed", "id", docID, "error", err)
	}
}

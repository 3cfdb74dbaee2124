package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/docsift/docsift/analyze"
	"github.com/docsift/docsift/store"
)

// handleUpload accepts a multipart upload under the "file" field,
// stores it, creates the document record, and queues it for processing.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		jsonErr(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, `missing "file" field`)
		return
	}
	defer file.Close()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if !s.cfg.TypeAllowed(ext) {
		jsonErr(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported file type %q", ext))
		return
	}

	stored, size, err := s.files.Save(header.Filename, file)
	if err != nil {
		s.log.Error("save upload", "error", err)
		jsonErr(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	doc := &store.Document{
		OriginalName: header.Filename,
		StoredName:   stored,
		FileType:     ext,
		FileSize:     size,
	}
	if err := s.store.CreateDocument(r.Context(), doc); err != nil {
		_ = s.files.Delete(stored)
		s.storeErr(w, err)
		return
	}
	s.coord.Enqueue(doc.ID)
	s.log.Info("document uploaded", "id", doc.ID, "name", doc.OriginalName, "size", size)
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docs, err := s.store.ListDocuments(r.Context(), store.ListFilter{
		FileType: q.Get("type"),
		Status:   q.Get("status"),
		Sort:     q.Get("sort"),
	})
	if err != nil {
		s.storeErr(w, err)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "count": len(docs)})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeErr(w, err)
		return
	}
	// Full text and layout have their own endpoint.
	doc.FullText = ""
	doc.Layout = ""
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeErr(w, err)
		return
	}
	layout := json.RawMessage(doc.Layout)
	if doc.Layout == "" {
		layout = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        doc.ID,
		"full_text": doc.FullText,
		"layout":    layout,
	})
}

func (s *Server) handleParagraphs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetDocument(r.Context(), id); err != nil {
		s.storeErr(w, err)
		return
	}
	paras, err := s.store.DocumentParagraphs(r.Context(), id)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	if paras == nil {
		paras = []store.StoredParagraph{}
	}
	aps := make([]analyze.Paragraph, len(paras))
	for i, p := range paras {
		aps[i] = analyze.Paragraph{ID: p.ID, Text: p.Text, Hash: p.Hash}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"paragraphs": paras,
		"stats":      analyze.Stats(aps),
	})
}

func (s *Server) handleVariables(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetDocument(r.Context(), id); err != nil {
		s.storeErr(w, err)
		return
	}
	vars, err := s.store.DocumentVariables(r.Context(), id)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	if vars == nil {
		vars = []store.StoredVariable{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"variables": vars, "count": len(vars)})
}

// handleAnalyze runs redundancy analysis over a document's paragraphs
// and records the similar pairs. An optional threshold query parameter
// overrides the configured one for this run.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	if doc.Status != store.StatusProcessed {
		jsonErr(w, http.StatusConflict,
			fmt.Sprintf("document is %s, not processed", doc.Status))
		return
	}

	var threshold float64
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		threshold, err = strconv.ParseFloat(raw, 64)
		if err != nil || threshold <= 0 || threshold > 1 {
			jsonErr(w, http.StatusBadRequest, "threshold must be in (0, 1]")
			return
		}
	}
	engine := s.engine(threshold)

	paras, err := s.store.DocumentParagraphs(r.Context(), id)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	aps := make([]analyze.Paragraph, len(paras))
	ids := make([]int64, len(paras))
	for i, p := range paras {
		aps[i] = analyze.Paragraph{ID: p.ID, Text: p.Text, Hash: p.Hash}
		ids[i] = p.ID
	}

	pairs := engine.SimilarPairs(aps)
	links := make([]store.Link, len(pairs))
	for i, p := range pairs {
		links[i] = store.Link{ParagraphA: p.A.ID, ParagraphB: p.B.ID, Score: p.Score}
	}
	if err := s.store.ReplaceLinks(r.Context(), id, links); err != nil {
		s.storeErr(w, err)
		return
	}

	shared, err := s.store.ParagraphDocumentCount(r.Context(), ids)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	sharedOut := make(map[string]int)
	for pid, n := range shared {
		if n > 1 {
			sharedOut[strconv.FormatInt(pid, 10)] = n
		}
	}

	if pairs == nil {
		pairs = []analyze.Pair{}
	}
	phrases := engine.CommonPhrases(aps)
	if phrases == nil {
		phrases = []analyze.Phrase{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id":       id,
		"exact_duplicates":  engine.ExactDuplicates(aps),
		"similar_pairs":     pairs,
		"common_phrases":    phrases,
		"shared_paragraphs": sharedOut,
		"stats":             analyze.Stats(aps),
	})
}

// handleReprocess resets a document and queues it again.
func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.ResetDocument(r.Context(), id); err != nil {
		s.storeErr(w, err)
		return
	}
	s.coord.Enqueue(id)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": store.StatusPending})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	if err := s.store.DeleteDocument(r.Context(), id); err != nil {
		s.storeErr(w, err)
		return
	}
	if err := s.files.Delete(doc.StoredName); err != nil {
		s.log.Warn("delete stored file", "id", id, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.StatusCounts(r.Context())
	if err != nil {
		s.storeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"counts": counts,
		"queue":  s.coord.Status(),
	})
}

func (s *Server) handleQueuePause(w http.ResponseWriter, _ *http.Request) {
	s.coord.Pause()
	writeJSON(w, http.StatusOK, s.coord.Status())
}

func (s *Server) handleQueueResume(w http.ResponseWriter, _ *http.Request) {
	s.coord.Resume()
	writeJSON(w, http.StatusOK, s.coord.Status())
}

func (s *Server) handleQueueClear(w http.ResponseWriter, _ *http.Request) {
	dropped := s.coord.Clear()
	writeJSON(w, http.StatusOK, map[string]any{
		"dropped": dropped,
		"queue":   s.coord.Status(),
	})
}

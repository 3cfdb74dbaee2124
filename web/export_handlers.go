package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) writeWorkbook(w http.ResponseWriter, f *excelize.File, filename string) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(w); err != nil {
		s.log.Error("write workbook", "error", err)
	}
}

func (s *Server) handleExportDocuments(w http.ResponseWriter, r *http.Request) {
	f, err := s.exports.DocumentsSummary(r.Context())
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.writeWorkbook(w, f, "documents.xlsx")
}

func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f, err := s.exports.DocumentAnalysis(r.Context(), id)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.writeWorkbook(w, f, "document-"+id+".xlsx")
}

func (s *Server) handleExportVariables(w http.ResponseWriter, r *http.Request) {
	f, err := s.exports.VariablesSummary(r.Context())
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.writeWorkbook(w, f, "variables.xlsx")
}

func (s *Server) handleExportTemplates(w http.ResponseWriter, r *http.Request) {
	f, err := s.exports.TemplateGroups(r.Context())
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.writeWorkbook(w, f, "templates.xlsx")
}

package web

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/csvmap/internal/core"
	"github.com/JonMunkholm/csvmap/internal/logging"
	"github.com/JonMunkholm/csvmap/internal/schema"
	"github.com/JonMunkholm/csvmap/internal/web/templates"
)

// maxMappingSize bounds the mapping part of a multipart upload.
const maxMappingSize = 1 << 20

// multipartMemory is how much of a multipart form is held in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.service.ImportsEnabled(),
	})
}

// handleIndex renders the schema overview page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	byGroup := s.service.ListSchemasByGroup()
	names := make([]string, 0, len(byGroup))
	for name := range byGroup {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]templates.SchemaGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, templates.SchemaGroup{Name: name, Schemas: byGroup[name]})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Index(groups, s.service.ImportsEnabled()).Render(r.Context(), w)
}

// handleListSchemas returns all schemas organized by group.
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListSchemasByGroup())
}

// handleListTypes returns the field types usable in a mapping.
func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	names := append(s.service.Registry().Names(), string(schema.TypeEnum))
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string][]string{"types": names})
}

// handleDownloadTemplate returns a CSV holding only the schema's header row.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "schemaKey")
	columns, err := s.service.Template(key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", contentDisposition(key+"_template.csv"))

	cw := csv.NewWriter(w)
	cw.Write(columns)
	cw.Flush()
}

// handleParse maps an uploaded file with a registered schema, or with the
// mapping supplied alongside the file when no schema key is given.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "schemaKey")

	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer up.Close()

	var report *core.Report
	switch {
	case key != "":
		report, err = s.service.Parse(r.Context(), key, up.name, up.body)
	case up.spec != nil:
		report, err = s.service.ParseWithSpec(r.Context(), up.spec, up.name, up.body)
	default:
		err = fmt.Errorf("%w: no schema key or mapping given", schema.ErrInvalidSpec)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondReport(w, r, report)
}

// handleImport parses an uploaded file and copies its valid rows into the
// schema's table.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "schemaKey")

	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer up.Close()

	report, err := s.service.Import(r.Context(), key, up.name, up.body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondReport(w, r, report)
}

// handleGetReport returns a finished report.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.report(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondReport(w, r, report)
}

// handleExportFailedRows returns the failed rows of a report as CSV.
func (s *Server) handleExportFailedRows(w http.ResponseWriter, r *http.Request) {
	report, err := s.report(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	name := strings.TrimSuffix(report.FileName, filepath.Ext(report.FileName))
	if name == "" {
		name = report.SchemaKey
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", contentDisposition(name+"_failed.csv"))

	if err := core.WriteFailedRowsCSV(w, report); err != nil {
		// Headers are already sent.
		logging.FromContext(r.Context()).Error("failed rows export", "error", err, "report", report.ID)
	}
}

// handleStatus returns the job limiter state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":    s.service.JobLimiterStatus(),
		"imports": s.service.ImportsEnabled(),
	})
}

func (s *Server) report(r *http.Request) (*core.Report, error) {
	id, err := uuid.Parse(chi.URLParam(r, "reportID"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrReportNotFound, err)
	}
	return s.service.Report(id)
}

func (s *Server) respondReport(w http.ResponseWriter, r *http.Request, report *core.Report) {
	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		templates.ReportPage(report).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// upload is the file part of a parse or import request.
type upload struct {
	name string
	body io.Reader
	spec *schema.Spec

	closer io.Closer
}

func (u *upload) Close() error {
	if u.closer == nil {
		return nil
	}
	return u.closer.Close()
}

// readUpload accepts either a multipart form with a "file" part and an
// optional "mapping" part, or the CSV as the raw request body.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	limit := s.cfg.Upload.MaxFileSize
	if limit > 0 {
		// Room for the form envelope and the mapping part.
		r.Body = http.MaxBytesReader(w, r.Body, limit+maxMappingSize+multipartMemory)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if r.ContentLength == 0 {
			return nil, core.ErrNoFile
		}
		return &upload{name: r.URL.Query().Get("filename"), body: r.Body}, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, core.ErrFileTooLarge
		}
		return nil, fmt.Errorf("read form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, core.ErrNoFile
	}
	if header.Size == 0 {
		file.Close()
		return nil, core.ErrEmptyFile
	}
	up := &upload{name: header.Filename, body: file, closer: file}

	if m := r.FormValue("mapping"); m != "" {
		if len(m) > maxMappingSize {
			file.Close()
			return nil, fmt.Errorf("%w: mapping exceeds %d bytes", schema.ErrInvalidSpec, maxMappingSize)
		}
		spec, err := schema.Parse([]byte(m))
		if err != nil {
			file.Close()
			return nil, err
		}
		up.spec = spec
	}
	return up, nil
}

func contentDisposition(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

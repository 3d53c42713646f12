package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fdg312/dietplan/internal/batch"
	"github.com/fdg312/dietplan/internal/blob"
)

type indexPage struct {
	Error   string
	MaxMB   int
	AIMode  string
	Catalog string
}

type selectPage struct {
	UploadID string
	Filename string
	Filtered bool
	Rows     []selectRow
}

type selectRow struct {
	Index int
	Name  string
	Email string
	Goal  string
}

type resultsPage struct {
	Report    *batch.Report
	Succeeded int
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("render page", "page", name, "error", err)
	}
}

func (s *Server) renderIndex(w http.ResponseWriter, status int, msg string) {
	s.render(w, status, "index.html", indexPage{
		Error:   msg,
		MaxMB:   s.config.UploadMaxMB,
		AIMode:  s.config.AIMode,
		Catalog: s.config.CatalogPath,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, http.StatusOK, "")
}

// handleUpload parses the survey and shows the row selection page.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.config.UploadMaxMB) << 20
	if r.ContentLength > limit {
		s.renderIndex(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File is larger than %d MB", s.config.UploadMaxMB))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.renderIndex(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File is larger than %d MB", s.config.UploadMaxMB))
			return
		}
		s.renderIndex(w, http.StatusBadRequest, "Upload a CSV file")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("csv")
	if err != nil {
		s.renderIndex(w, http.StatusBadRequest, "Upload a CSV file")
		return
	}
	defer file.Close()

	if !strings.EqualFold(path.Ext(hdr.Filename), ".csv") {
		s.renderIndex(w, http.StatusBadRequest, "Only .csv files are accepted")
		return
	}

	survey, err := batch.ReadSurvey(file)
	if err != nil {
		s.renderIndex(w, http.StatusBadRequest, "Could not read the survey: "+err.Error())
		return
	}
	if len(survey.Rows) == 0 {
		s.renderIndex(w, http.StatusBadRequest, "The survey has no respondents to process")
		return
	}

	u := s.uploads.put(hdr.Filename, survey)
	s.log.Info("survey uploaded", "upload_id", u.ID, "file", hdr.Filename, "rows", len(survey.Rows))

	page := selectPage{UploadID: u.ID, Filename: hdr.Filename, Filtered: survey.Filtered}
	for _, row := range survey.Rows {
		page.Rows = append(page.Rows, selectRow{
			Index: row.Index,
			Name:  row.Name(),
			Email: row.Get(batch.FieldEmail),
			Goal:  row.Get(batch.FieldGoals),
		})
	}
	s.render(w, http.StatusOK, "select.html", page)
}

// handleGenerate runs the batch for the selected rows and waits for it.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderIndex(w, http.StatusBadRequest, "Invalid form")
		return
	}
	u, ok := s.uploads.get(r.PostForm.Get("upload_id"))
	if !ok {
		s.renderIndex(w, http.StatusNotFound, "Upload expired, please upload the survey again")
		return
	}
	indices, err := batch.ParseSelection(r.PostForm["rows"])
	if err != nil {
		s.renderIndex(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.runner.Run(r.Context(), u.Survey, indices)
	if errors.Is(err, batch.ErrUnknownRow) {
		s.renderIndex(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.log.Error("batch run failed", "upload_id", u.ID, "error", err)
		s.renderIndex(w, http.StatusInternalServerError, "Plan generation failed")
		return
	}
	s.render(w, http.StatusOK, "results.html", resultsPage{Report: rep, Succeeded: rep.Succeeded()})
}

func parseRunID(r *http.Request) (string, bool) {
	id, err := uuid.Parse(r.PathValue("runID"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func (s *Server) handleDownloadBundle(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseRunID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_run_id", "Run id must be a UUID")
		return
	}
	s.serveObject(w, r, batch.BundleKey(runID), "diet_plans_"+runID+".zip", "application/zip")
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseRunID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_run_id", "Run id must be a UUID")
		return
	}
	file := r.PathValue("file")
	name := strings.TrimSuffix(file, ".pdf")
	if name == file || batch.SanitizeName(name, "") != name {
		writeError(w, http.StatusBadRequest, "invalid_file", "Unknown file name")
		return
	}
	s.serveObject(w, r, batch.RunKey(runID, file), file, "application/pdf")
}

// serveObject redirects to a presigned URL when the store supports it and
// streams the object otherwise.
func (s *Server) serveObject(w http.ResponseWriter, r *http.Request, key, filename, contentType string) {
	url, err := s.store.PresignGet(r.Context(), key, s.config.Blob.S3.PresignTTLSeconds)
	if err == nil {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}
	if !errors.Is(err, blob.ErrPresignUnsupported) {
		s.log.Error("presign download", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Download unavailable")
		return
	}

	data, err := s.store.GetObject(r.Context(), key)
	if errors.Is(err, blob.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "File not found")
		return
	}
	if err != nil {
		s.log.Error("read download", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Download unavailable")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

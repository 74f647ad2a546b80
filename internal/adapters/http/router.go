package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kirillkom/invoice-compliance/internal/core/ports"
	"github.com/kirillkom/invoice-compliance/internal/observability/metrics"
)

const (
	maxFilesPerBatch  = 8
	defaultMaxUpload  = 75 << 20
	multipartMemLimit = 32 << 20
)

type Router struct {
	ingest    ports.BatchIngestor
	docs      ports.DocumentReader
	reports   ports.ReportReader
	exporter  ports.ReportExporter
	metrics   *metrics.HTTPMetrics
	maxUpload int64
}

func NewRouter(
	ingest ports.BatchIngestor,
	docs ports.DocumentReader,
	reports ports.ReportReader,
	exporter ports.ReportExporter,
	httpMetrics *metrics.HTTPMetrics,
	maxUploadBytes int64,
) *Router {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUpload
	}
	return &Router{
		ingest:    ingest,
		docs:      docs,
		reports:   reports,
		exporter:  exporter,
		metrics:   httpMetrics,
		maxUpload: maxUploadBytes,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/v1/batches", rt.instrument("/v1/batches", http.HandlerFunc(rt.batches)))
	mux.Handle("/v1/batches/", rt.instrument("/v1/batches/{id}", http.HandlerFunc(rt.batchSubtree)))
	mux.Handle("/v1/documents/", rt.instrument("/v1/documents/{id}", http.HandlerFunc(rt.getDocumentByID)))
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) instrument(pattern string, next http.Handler) http.Handler {
	if rt.metrics == nil {
		return next
	}
	return rt.metrics.Middleware(pattern, next)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) batches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.submitBatch(w, r)
	case http.MethodGet:
		rt.listBatches(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) submitBatch(w http.ResponseWriter, r *http.Request) {
	// The size cap is per file; the request body is bounded by the worst
	// legal batch plus room for multipart framing.
	requestCap := int64(maxFilesPerBatch)*rt.maxUpload + multipartMemLimit
	r.Body = http.MaxBytesReader(w, r.Body, requestCap)
	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("batch exceeds %d bytes", requestCap),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}
	if len(headers) > maxFilesPerBatch {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("at most %d files per batch", maxFilesPerBatch),
		})
		return
	}

	uploads := make([]ports.Upload, 0, len(headers))
	for _, header := range headers {
		if header.Size > rt.maxUpload {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("file %s exceeds %d bytes", header.Filename, rt.maxUpload),
			})
			return
		}
		file, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("open upload %s", header.Filename),
			})
			return
		}
		defer file.Close()
		uploads = append(uploads, ports.Upload{Filename: header.Filename, Body: file})
	}

	batchID, docs, err := rt.ingest.SubmitBatch(r.Context(), r.FormValue("name"), uploads)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"batch_id":  batchID,
		"documents": docs,
	})
}

func (rt *Router) listBatches(w http.ResponseWriter, r *http.Request) {
	refs, err := rt.reports.ListBatches(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": refs})
}

func (rt *Router) batchSubtree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/batches/")
	batchID, resource, _ := strings.Cut(rest, "/")
	if batchID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "batch id is required"})
		return
	}

	switch resource {
	case "report":
		rt.getReport(w, r, batchID)
	case "report.xlsx":
		rt.downloadReport(w, r, batchID, "xlsx")
	case "report.csv":
		rt.downloadReport(w, r, batchID, "csv")
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown batch resource"})
	}
}

func (rt *Router) getReport(w http.ResponseWriter, r *http.Request, batchID string) {
	report, err := rt.reports.GetByBatch(r.Context(), batchID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) downloadReport(w http.ResponseWriter, r *http.Request, batchID, format string) {
	report, err := rt.reports.GetByBatch(r.Context(), batchID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "xlsx":
		data, err = rt.exporter.Excel(report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		data, err = rt.exporter.CSV(report)
		contentType = "text/csv"
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_report.%s", batchID, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

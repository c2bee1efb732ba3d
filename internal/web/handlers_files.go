package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/csvhub/csvhub/internal/ingest"
	"github.com/csvhub/csvhub/internal/logging"
	"github.com/csvhub/csvhub/internal/query"
	"github.com/csvhub/csvhub/internal/upload"
)

// handleUploadFile accepts a multipart CSV upload and streams it into the
// blob store. The file is not parsed here; ingestion is a separate call
// so clients can retry it without re-uploading.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	// Small memory threshold: multipart spills large parts to temp files
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	id, size, err := s.blobs.Put(r.Context(), header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	meta := upload.File{
		ID:         id,
		Name:       header.Filename,
		Size:       size,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.files.Create(r.Context(), meta); err != nil {
		// Orphaned blobs are useless; clean up on registry failure
		if derr := s.blobs.Delete(r.Context(), id); derr != nil {
			logging.FromContext(r.Context()).Warn("orphan blob cleanup failed", "fileId", id, "error", derr)
		}
		s.respondError(w, r, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, meta)
}

// ingestRequest is the POST /api/files/{fileID}/ingest body.
type ingestRequest struct {
	Prompt         string `json:"prompt"`
	OrganizationID string `json:"organisationId"`
}

// ingestResponse reports what one ingestion run did.
type ingestResponse struct {
	FileID      string `json:"fileId"`
	Filename    string `json:"filename"`
	RecordCount int    `json:"recordCount"`
	RowsDropped int    `json:"rowsDropped,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

// handleIngestFile runs the CSV pipeline over a previously uploaded file,
// then asks the summarizer for an overview of the leading records.
// Summarization is best effort: its failure never fails the ingestion.
func (s *Server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	// Body is optional; prompt and organisation default to empty
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	meta, err := s.files.Get(r.Context(), fileID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	logger := logging.WithFields(ctx, "fileId", fileID, "filename", meta.Name)

	src, err := s.blobs.Open(ctx, fileID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer src.Close()

	result, runErr := s.pipe.Run(ctx, fileID, meta.Name, src)
	if runErr != nil {
		var decodeErr *ingest.DecodeError
		if errors.As(runErr, &decodeErr) {
			// Partially ingested: what decoded cleanly was kept
			logger.Warn("ingestion stopped on malformed input", "line", decodeErr.Line, "kept", result.RecordCount)
			writeJSONStatus(w, http.StatusUnprocessableEntity, map[string]any{
				"error":       runErr.Error(),
				"fileId":      fileID,
				"recordCount": result.RecordCount,
			})
			return
		}
		s.respondError(w, r, runErr)
		return
	}

	if req.OrganizationID != "" {
		if err := s.orgs.SetCSVFilename(ctx, req.OrganizationID, meta.Name); err != nil {
			logger.Warn("organisation filename update failed", "organisationId", req.OrganizationID, "error", err)
		}
	}

	resp := ingestResponse{
		FileID:      fileID,
		Filename:    meta.Name,
		RecordCount: result.RecordCount,
		RowsDropped: result.RowsDropped,
	}

	if s.insight != nil && s.cfg.Insight.Enabled && len(result.Sample) > 0 {
		summary, err := s.insight.Summarize(ctx, query.FlattenAll(result.Sample), req.Prompt)
		if err != nil {
			logger.Warn("summarization failed", "error", err)
		} else {
			resp.Summary = summary
		}
	}

	writeJSON(w, resp)
}

// handleDeleteFile removes an uploaded file: its ingested records, its
// blob, and its registry entry.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	if _, err := s.files.Get(r.Context(), fileID); err != nil {
		s.respondError(w, r, err)
		return
	}

	removed, err := s.records.DeleteByFileID(r.Context(), fileID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.blobs.Delete(r.Context(), fileID); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.files.Delete(r.Context(), fileID); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{
		"deleted":        fileID,
		"recordsRemoved": removed,
	})
}

package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/extract"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/rag"
)

// UploadResponse is the response body for POST /api/v1/upload.
type UploadResponse struct {
	Filename    string `json:"filename"`
	Message     string `json:"message"`
	ChunksCount int    `json:"chunks_count"`
}

// QueryRequest is the request body for POST /api/v1/query. History is
// accepted for forward compatibility with chat clients but not yet used.
type QueryRequest struct {
	Query   string           `json:"query"`
	History []map[string]any `json:"history,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Medical RAG Agent API"})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

// handleUpload ingests one uploaded document into the vector index.
func (s *Server) handleUpload(c echo.Context) error {
	start := time.Now()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}

	if !extract.Supported(fileHeader.Filename) {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("unsupported file type %q, allowed: %s", fileHeader.Filename, strings.Join(extract.SupportedExtensions(), ", ")))
	}

	maxBytes := s.cfg.Ingest.MaxUploadBytes
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds maximum size of %d bytes", maxBytes))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}

	count, err := s.ingestor.Process(c.Request().Context(), data, fileHeader.Filename)
	if err != nil {
		s.metrics.ObserveIngest(time.Since(start), 0, err)
		s.logger.Error("ingestion failed",
			zap.String("filename", fileHeader.Filename),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process document")
	}
	s.metrics.ObserveIngest(time.Since(start), count, nil)

	return c.JSON(http.StatusOK, UploadResponse{
		Filename:    fileHeader.Filename,
		Message:     "File processed successfully",
		ChunksCount: count,
	})
}

// handleQuery streams a generated answer as server-sent events.
func (s *Server) handleQuery(c echo.Context) error {
	start := time.Now()

	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	stream, err := s.answerer.Answer(c.Request().Context(), req.Query)
	if err != nil {
		s.metrics.ObserveQuery(time.Since(start), err)
		if errors.Is(err, rag.ErrEmptyQuery) {
			return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
		}
		s.logger.Error("query failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to answer query")
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)

	for fragment := range stream.Fragments() {
		writeSSE(resp, fragment)
		resp.Flush()
	}

	if err := stream.Err(); err != nil {
		s.metrics.ObserveQuery(time.Since(start), err)
		s.logger.Error("generation failed mid-stream", zap.Error(err))
		fmt.Fprint(resp, "event: error\ndata: generation failed\n\n")
		resp.Flush()
		return nil
	}

	s.metrics.ObserveQuery(time.Since(start), nil)
	return nil
}

// writeSSE frames one fragment as a server-sent event. Fragments containing
// newlines become multiple data lines of the same event.
func writeSSE(w io.Writer, fragment string) {
	for _, line := range strings.Split(fragment, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/grid-test-engine/internal/catalog"
	"github.com/terra-clan/grid-test-engine/internal/generator"
	"github.com/terra-clan/grid-test-engine/internal/health"
	"github.com/terra-clan/grid-test-engine/internal/models"
	"github.com/terra-clan/grid-test-engine/internal/storage"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.catalog.IsReady() {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "catalog not initialized")
		return
	}

	results := s.checks.CheckAll(r.Context())
	checks := make(map[string]string, len(results))
	for name, err := range results {
		if err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	if !health.Healthy(results) {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}

// Catalog handlers

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics := s.catalog.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"topics": topics,
		"total":  len(topics),
	})
}

func (s *Server) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	params := s.catalog.Get(id)
	if params == nil {
		respondError(w, http.StatusNotFound, "not_found", "topic not found")
		return
	}
	respondJSON(w, http.StatusOK, params)
}

// Test handlers

func (s *Server) handleDefaultTest(w http.ResponseWriter, r *http.Request) {
	s.serveStaticTest(w, r, s.defaultTestID)
}

func (s *Server) handleGetStaticTest(w http.ResponseWriter, r *http.Request) {
	s.serveStaticTest(w, r, chi.URLParam(r, "id"))
}

func (s *Server) serveStaticTest(w http.ResponseWriter, r *http.Request, id string) {
	test, err := s.tests.ReadStaticTest(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrTopicNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "No tests were found!")
			return
		}
		slog.Error("failed to read static test", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read test")
		return
	}

	respondJSON(w, http.StatusOK, test)
}

func (s *Server) handleGenerateTest(w http.ResponseWriter, r *http.Request) {
	test, err := s.tests.Generate(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, generator.ErrEmptyCatalog):
			respondError(w, http.StatusServiceUnavailable, "catalog_empty", "no topics available for generation")
		case errors.Is(err, generator.ErrPersistFailed):
			slog.Error("failed to persist generated test", "error", err)
			respondError(w, http.StatusInternalServerError, "persist_failed", "failed to save generated test")
		default:
			slog.Error("failed to generate test", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to generate test")
		}
		return
	}

	respondJSON(w, http.StatusCreated, test)
}

// Generated test handlers

func (s *Server) handleListGenerated(w http.ResponseWriter, r *http.Request) {
	tests, err := s.archive.List(r.Context())
	if err != nil {
		slog.Error("failed to list generated tests", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list generated tests")
		return
	}

	if tests == nil {
		tests = []models.GeneratedTestSummary{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tests": tests,
		"total": len(tests),
	})
}

func (s *Server) handleGetGenerated(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	test, err := s.archive.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "generated test not found")
			return
		}
		slog.Error("failed to get generated test", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get generated test")
		return
	}

	respondJSON(w, http.StatusOK, test)
}

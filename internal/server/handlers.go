package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/florafind/internal/models"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	return req.Query, true
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	s.logger.Debug("query request", zap.String("query", query))
	s.respondJSON(w, http.StatusOK, s.engine.ProcessQuery(r.Context(), query))
}

// handleSearch returns the scored and ranked results without composing an answer.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(query) == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	s.logger.Debug("search request", zap.String("query", query))
	s.respondJSON(w, http.StatusOK, s.engine.Search(r.Context(), query))
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Statistics(r.Context())
	if err != nil {
		s.logger.Error("statistics failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"entries": s.engine.History()})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.engine.ClearHistory()
	s.logger.Info("conversation history cleared")
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "record store is read-only")
		return
	}
	var rec models.Record
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&rec); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	s.logger.Debug("create record request", zap.String("id", rec.ID), zap.String("title", rec.Title))
	if err := s.store.CreateRecord(r.Context(), &rec); err != nil {
		if errors.Is(err, models.ErrInvalidRecord) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("create record failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.engine.Invalidate()
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": rec.ID, "status": "created"})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "record store is read-only")
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			s.respondError(w, http.StatusNotFound, "record not found")
			return
		}
		s.logger.Error("get record failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "record store is read-only")
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete record request", zap.String("id", id))
	if err := s.store.DeleteRecord(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			s.respondError(w, http.StatusNotFound, "record not found")
			return
		}
		s.logger.Error("delete record failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.engine.Invalidate()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

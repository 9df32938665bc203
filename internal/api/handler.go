// Package api exposes the dashboard over HTTP: section data, the chat
// engine, and report generation.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/comigor/snowpatrol/internal/agent"
	"github.com/comigor/snowpatrol/internal/chat"
	"github.com/comigor/snowpatrol/internal/logger"
	"github.com/comigor/snowpatrol/internal/report"
	"github.com/comigor/snowpatrol/internal/warehouse"
)

const defaultRecentMessages = 3

// Handler wires the warehouse, chat engine, session registry and report
// generator into HTTP endpoints.
type Handler struct {
	store    *warehouse.Store
	engine   *agent.Engine
	sessions *chat.Store
	reports  *report.Generator
	window   warehouse.Window
}

// NewHandler creates a Handler with its dependencies.
func NewHandler(store *warehouse.Store, engine *agent.Engine, sessions *chat.Store, reports *report.Generator, window warehouse.Window) *Handler {
	return &Handler{
		store:    store,
		engine:   engine,
		sessions: sessions,
		reports:  reports,
		window:   window,
	}
}

// Router builds the chi router for the API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/pages/anomalies/export", h.handleAnomalyExport)
		r.Get("/pages/{page}", h.handlePage)
		r.Post("/sessions", h.handleCreateSession)
		r.Delete("/sessions/{id}", h.handleDeleteSession)
		r.Post("/sessions/{id}/messages", h.handleSendMessage)
		r.Get("/sessions/{id}/messages", h.handleRecentMessages)
		r.Post("/report", h.handleReport)
	})
	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response with an error kind for clients.
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, map[string]string{"error": message, "kind": kind})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		Error(w, http.StatusServiceUnavailable, "query", "warehouse unreachable")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) dateRange(r *http.Request) (warehouse.DateRange, error) {
	return h.window.ParseRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	JSON(w, http.StatusCreated, map[string]string{"id": s.ID})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s, ok := h.sessions.Get(id); ok {
		s.Reset()
		h.sessions.Delete(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendMessageRequest struct {
	Page     string `json:"page"`
	Question string `json:"question"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "validation", "unknown session")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}

	dr, err := h.window.ParseRange(req.Start, req.End)
	if err != nil {
		Error(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	label, summary, err := h.pageSummary(r.Context(), req.Page, dr)
	if err != nil {
		Error(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	answer, err := h.engine.Ask(r.Context(), sess, agent.Question{
		Text:        req.Question,
		PageLabel:   label,
		Range:       dr,
		DataSummary: summary.Text,
	})
	if err != nil {
		var httpErr *agent.HTTPError
		switch {
		case errors.Is(err, agent.ErrEmptyQuestion):
			Error(w, http.StatusBadRequest, "validation", err.Error())
		case errors.As(err, &httpErr):
			Error(w, http.StatusBadGateway, "agent_http", httpErr.Error())
		case errors.Is(err, agent.ErrMalformedResponse):
			Error(w, http.StatusBadGateway, "decode", err.Error())
		default:
			logger.L.Error("chat interaction failed", "error", err)
			Error(w, http.StatusInternalServerError, "internal", "chat interaction failed")
		}
		return
	}

	JSON(w, http.StatusOK, answer)
}

func (h *Handler) handleRecentMessages(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "validation", "unknown session")
		return
	}
	n := defaultRecentMessages
	if raw := r.URL.Query().Get("n"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			n = v
		}
	}
	JSON(w, http.StatusOK, map[string]any{"messages": sess.Recent(n)})
}

type reportRequest struct {
	Sections []string `json:"sections"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}
	dr, err := h.window.ParseRange(req.Start, req.End)
	if err != nil {
		Error(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	doc, err := h.reports.Generate(r.Context(), req.Sections, dr)
	if err != nil {
		Error(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(dr)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		logger.L.Warn("report write failed", "error", err)
	}
}

package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/fundwatch/internal/common"
	"github.com/bobmcallan/fundwatch/internal/feed"
	"github.com/bobmcallan/fundwatch/internal/services/analysis"
	"github.com/bobmcallan/fundwatch/internal/services/chat"
	"github.com/bobmcallan/fundwatch/internal/services/ingest"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)

	// Funds
	mux.HandleFunc("/api/funds/", s.routeFunds)
	mux.HandleFunc("/api/funds", s.handleFundList)

	// Ingest
	mux.HandleFunc("/api/ingest/run", s.handleIngestRun)
	mux.HandleFunc("/api/ingest/status", s.handleIngestStatus)

	// Chat
	mux.HandleFunc("/api/chat", s.handleChat)
}

// routeFunds dispatches /api/funds/{code}/... subroutes.
func (s *Server) routeFunds(w http.ResponseWriter, r *http.Request) {
	subpath := strings.TrimPrefix(r.URL.Path, "/api/funds/")

	switch {
	case strings.HasSuffix(subpath, "/history"):
		s.handleFundHistory(w, r)
	case strings.HasSuffix(subpath, "/scorecard"):
		s.handleFundScorecard(w, r)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	uptime := time.Since(s.app.StartupTime).Round(time.Second)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":          s.app.Config.Environment,
		"uptime":               uptime.String(),
		"storage_path":         s.app.Config.Storage.Path,
		"feed_url":             s.app.Config.Clients.AMFI.FeedURL,
		"ingest_schedule":      s.app.Config.Ingest.Schedule,
		"conformity_threshold": s.app.Config.Ingest.ConformityThreshold,
		"risk_free_rate":       s.app.Config.Analysis.RiskFreeRate,
		"logging_level":        s.app.Config.Logging.Level,
		"gemini_configured":    s.app.GeminiClient != nil,
	})
}

// --- Fund handlers ---

func (s *Server) handleFundList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	funds, err := s.app.AnalysisService.ListFunds(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(funds),
		"funds": funds,
	})
}

func (s *Server) handleFundHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code, ok := SchemeCodeParam(w, r, "/api/funds/", "/history")
	if !ok {
		return
	}

	history, err := s.app.AnalysisService.GetHistory(r.Context(), code)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"scheme_code": code,
		"count":       len(history),
		"history":     history,
	})
}

func (s *Server) handleFundScorecard(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code, ok := SchemeCodeParam(w, r, "/api/funds/", "/scorecard")
	if !ok {
		return
	}

	card, err := s.app.AnalysisService.GetScorecard(r.Context(), code)
	if err != nil {
		if errors.Is(err, analysis.ErrNoData) {
			WriteError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, card)
}

// --- Ingest handlers ---

func (s *Server) handleIngestRun(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	report, err := s.app.IngestService.RunBatch(r.Context())
	if err != nil {
		if errors.Is(err, ingest.ErrIngestRunning) {
			WriteError(w, http.StatusConflict, "Ingest batch already running")
			return
		}
		status := http.StatusBadGateway
		var vErr *feed.ValidationError
		if errors.As(err, &vErr) {
			status = http.StatusUnprocessableEntity
		}
		WriteJSON(w, status, map[string]interface{}{
			"error":  err.Error(),
			"report": report,
		})
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	report, err := s.app.IngestService.LastReport(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"last_run": report,
	})
}

// --- Chat handlers ---

// ChatRequest is the POST /api/chat payload.
type ChatRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req ChatRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		WriteError(w, http.StatusBadRequest, "Question is required")
		return
	}

	fund, answer, err := s.app.ChatService.Ask(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, chat.ErrNoGeminiClient) {
			WriteError(w, http.StatusServiceUnavailable, "Chat is not configured")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"fund":   fund,
			"answer": "",
			"error":  err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"fund":   fund,
		"answer": answer,
	})
}

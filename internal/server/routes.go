package server

import (
	"errors"
	"net/http"

	"github.com/bobmcallan/dhandash/internal/clients/dhan"
	"github.com/bobmcallan/dhandash/internal/common"
	"github.com/bobmcallan/dhandash/internal/services/equity"
	"github.com/bobmcallan/dhandash/internal/services/quote"
)

// registerRoutes sets up all routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Dashboard
	mux.HandleFunc("/portfolio", s.handlePortfolio)
	mux.HandleFunc("/equity-series", s.handleEquitySeries)
	mux.HandleFunc("/equity-series.png", s.handleEquityChart)
	mux.HandleFunc("/quote", s.handleQuote)

	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.Handle("/metrics", s.app.Metrics.Handler())
}

// handlePortfolio handles GET /portfolio. Broker failures are already folded
// into a mock snapshot, so this always answers 200.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.PortfolioService.GetSnapshot(r.Context()))
}

// handleEquitySeries handles GET /equity-series. Each call observes one
// fresh snapshot before returning the series.
func (s *Server) handleEquitySeries(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	s.app.EquityService.Observe(r.Context())
	WriteJSON(w, http.StatusOK, s.app.EquityService.Points())
}

// handleEquityChart handles GET /equity-series.png. It renders the stored
// series without observing.
func (s *Server) handleEquityChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	png, err := equity.RenderChart(s.app.EquityService.Points(), s.app.Config.DisplayCurrency)
	if err != nil {
		if errors.Is(err, equity.ErrNotEnoughPoints) {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Equity chart render failed")
		WriteError(w, http.StatusInternalServerError, "chart render failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleQuote handles GET /quote?symbol=SYM.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	q, err := s.app.QuoteService.GetQuote(r.Context(), r.URL.Query().Get("symbol"))
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, q)
	case errors.Is(err, quote.ErrMissingSymbol):
		WriteError(w, http.StatusBadRequest, "symbol query parameter is required")
	case errors.Is(err, dhan.ErrNotConfigured):
		WriteError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, dhan.ErrQuoteUnavailable):
		WriteError(w, http.StatusNotFound, "quote not found")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

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

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/nsefolio/internal/apperr"
	"github.com/seenimoa/nsefolio/internal/portfolio"
	"github.com/seenimoa/nsefolio/internal/validator"
	"github.com/seenimoa/nsefolio/internal/view"
	"github.com/seenimoa/nsefolio/pkg/models"
	"github.com/seenimoa/nsefolio/pkg/utils"
)

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cur := s.orch.Current()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":        "ok",
			"version":       Version,
			"state":         cur.State,
			"market_status": utils.MarketStatus(),
			"time_ist":      utils.FormatDateTimeIST(utils.NowIST()),
			"ws_clients":    s.wsHub.ClientCount(),
		},
	})
}

// handleQuote serves the price provider. Upstream failures still return 200
// with a synthetic-tagged quote and an error field.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "Symbol parameter is required")
		return
	}
	exchange, err := models.ParseExchange(r.URL.Query().Get("exchange"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := s.prices.Fetch(r.Context(), symbol, exchange)
	writeJSON(w, http.StatusOK, res.Quote)
}

// handleRatios serves the ratio provider with the same conventions as
// handleQuote.
func (s *Server) handleRatios(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "Symbol parameter is required")
		return
	}

	res := s.ratios.Fetch(r.Context(), symbol)
	writeJSON(w, http.StatusOK, res.Ratios)
}

func (s *Server) handleListHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.holdings.List(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: holdings})
}

func (s *Server) handleAddHolding(w http.ResponseWriter, r *http.Request) {
	var in models.HoldingInput
	if err := decodeBody(w, r, &in); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validator.Struct(in); err != nil {
		writeAppError(w, r, err)
		return
	}

	h, err := s.orch.AddHolding(r.Context(), in)
	if err != nil && h.ID == "" {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: h})
}

func (s *Server) handleUpdateHolding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.HoldingPatch
	if err := decodeBody(w, r, &patch); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validator.Struct(patch); err != nil {
		writeAppError(w, r, err)
		return
	}

	h, err := s.orch.UpdateHolding(r.Context(), id, patch)
	if err != nil && h.ID == "" {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: h})
}

func (s *Server) handleRemoveHolding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.orch.RemoveHolding(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: RemoveResponse{ID: id}})
}

func (s *Server) handleClearHoldings(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.ClearPortfolio(r.Context()); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.dashboard(view.SortNone, view.Asc)})
}

// handlePortfolio returns the dashboard with the table sorted by the
// optional sort and dir query parameters.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	key, dir, err := view.ParseSort(r.URL.Query().Get("sort"), r.URL.Query().Get("dir"))
	if err != nil {
		writeAppError(w, r, apperr.WithMessage(apperr.ErrValidation, "%v", err))
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.dashboard(key, dir)})
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: view.Sectors(s.orch.Current().Snapshot)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: portfolio.Stats(s.orch.Current().Snapshot)})
}

// handleRefresh runs a manual full cycle and returns the resulting dashboard.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if _, err := s.orch.Refresh(r.Context()); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.dashboard(view.SortNone, view.Asc)})
}

func (s *Server) handleDismissWarnings(w http.ResponseWriter, r *http.Request) {
	s.orch.DismissWarnings()
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.dashboard(view.SortNone, view.Asc)})
}

func (s *Server) handleDismissError(w http.ResponseWriter, r *http.Request) {
	s.orch.DismissError()
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.dashboard(view.SortNone, view.Asc)})
}

func (s *Server) dashboard(key view.SortKey, dir view.Direction) view.Dashboard {
	return view.Build(s.orch.Current(), key, dir)
}

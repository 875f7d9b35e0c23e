package api

import (
	"encoding/json"
	"net/http"
	"time"

	"optiflow/internal/domain/market"
	"optiflow/internal/domain/signal"
	"optiflow/internal/services/alerts"
	"optiflow/internal/services/history"
	"optiflow/pkg/errors"
	"optiflow/pkg/logger"
)

const (
	signalHistoryWindow = 24 * time.Hour
	signalHistoryLimit  = 50
)

// Handlers serves the read API over the in-memory state and the stores
type Handlers struct {
	state   *market.State
	history *history.Service
	signals signal.Repository
	alerts  *alerts.Service
	log     *logger.Logger
}

// NewHandlers creates the API handler set
func NewHandlers(state *market.State, hist *history.Service, signals signal.Repository, alertStore *alerts.Service) *Handlers {
	return &Handlers{
		state:   state,
		history: hist,
		signals: signals,
		alerts:  alertStore,
		log:     logger.Get().With("component", "api"),
	}
}

// HandleOptionChain returns the latest per-symbol state in cycle order
func (h *Handlers) HandleOptionChain(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state.All())
}

// HandleOIHistory returns today's aggregated OI series for one symbol
func (h *Handlers) HandleOIHistory(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol query parameter is required")
		return
	}

	points, err := h.history.OIHistory(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidSymbol) {
			writeError(w, http.StatusBadRequest, "unknown symbol: "+symbol)
			return
		}
		h.log.Errorw("oi history query failed", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// HandleSignalHistory returns recent signals per symbol over the last day
func (h *Handlers) HandleSignalHistory(w http.ResponseWriter, r *http.Request) {
	since := market.NowIST().Add(-signalHistoryWindow)

	out := make(map[string][]signal.Signal, len(market.Symbols()))
	for _, symbol := range market.Symbols() {
		sigs, err := h.signals.GetSince(r.Context(), symbol, since, signalHistoryLimit)
		if err != nil {
			h.log.Errorw("signal history query failed", "symbol", symbol, "error", err)
			writeError(w, http.StatusInternalServerError, "signal history unavailable")
			return
		}
		if sigs == nil {
			sigs = []signal.Signal{}
		}
		out[symbol] = sigs
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleWebhook records an externally posted alert
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload alerts.Alert
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if payload.Ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	stored := h.alerts.Record(payload)
	h.log.Infow("webhook alert received", "ticker", stored.Ticker, "strategy", stored.Strategy)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleAlerts returns the retained webhook alerts, optionally for one ticker
func (h *Handlers) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	if ticker := r.URL.Query().Get("ticker"); ticker != "" {
		writeJSON(w, http.StatusOK, h.alerts.Recent(ticker))
		return
	}
	writeJSON(w, http.StatusOK, h.alerts.All())
}

// HandleHealth reports liveness
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

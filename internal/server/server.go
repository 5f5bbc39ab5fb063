package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-planner/internal/app"
	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/datetime"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/iwvelando/finance-planner/pkg/output"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultForecastMonths is the projection length when a request names none.
const DefaultForecastMonths = 12

type handler struct {
	logger        *zap.Logger
	state         *app.State
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the command API over
// the given application state.
func NewHandler(logger *zap.Logger, state *app.State, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, state: state, maxUploadSize: maxUploadSize, version: trimmedVersion}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/version", h.handleVersion)
	mux.HandleFunc("GET /api/collections", h.handleCollections)
	mux.HandleFunc("GET /api/scenarios/{id}", h.handleScenario)
	mux.HandleFunc("GET /api/scenarios/{id}/forecast", h.handleForecast)
	mux.HandleFunc("POST /api/loans/schedule", h.handleSchedule)
	mux.HandleFunc("POST /api/loans/compare", h.handleCompare)
	mux.HandleFunc("POST /api/tax/calculate", h.handleTax)
	mux.HandleFunc("POST /api/entities/{id}", h.handleUpdate)
	mux.HandleFunc("POST /api/save", h.handleSave)

	return mux
}

// Serve runs the command API until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, logger *zap.Logger, cfg *Config, handler http.Handler) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("serving command API on %s", cfg.Address),
			zap.String("op", "server.Serve"),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	grace := cfg.ShutdownGrace()
	if grace <= 0 {
		grace = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	logger.Info("command API stopped", zap.String("op", "server.Serve"))
	return nil
}

type scheduleRequest struct {
	Loan       string `json:"loan"`
	ApplyExtra bool   `json:"applyExtra"`
}

type taxRequest struct {
	Bracket string `json:"bracket"`
	Income  any    `json:"income"`
}

type updateRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type updateResponse struct {
	ID   uuid.UUID      `json:"id"`
	Kind planner.Kind   `json:"kind"`
	Data map[string]any `json:"data"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleCollections(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.state.Collections())
}

func (h *handler) handleScenario(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleScenario"
	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}

	var view output.ScenarioView
	err := h.state.View(id, func(e planner.Entity) error {
		scenario, ok := e.(*planner.Scenario)
		if !ok {
			return fmt.Errorf("%s is a %s, not a scenario: %w", id, e.Kind(), planner.ErrNotFound)
		}
		view = output.NewScenarioView(scenario)
		return nil
	})
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecast"
	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}

	query := r.URL.Query()
	months := DefaultForecastMonths
	if raw := query.Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid months %q", raw), op)
			return
		}
		months = n
	}
	start := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := query.Get("start"); raw != "" {
		parsed, err := datetime.Parse(raw)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid start date %q", raw), op)
			return
		}
		start = parsed
	}
	balance := decimal.Zero
	if raw := query.Get("balance"); raw != "" {
		parsed, ok := mathutil.FromAny(raw)
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid balance %q", raw), op)
			return
		}
		balance = parsed
	}

	entity, err := h.state.FindByID(id)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	scenario, ok := entity.(*planner.Scenario)
	if !ok {
		h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("%s is not a scenario", id), op)
		return
	}

	result, err := h.state.Forecast(scenario, start, months, balance)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, output.NewForecastView(result))
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchedule"
	var req scheduleRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	loan, ok := h.findLoan(w, req.Loan, op)
	if !ok {
		return
	}

	var view output.ScheduleView
	_ = h.state.View(loan.Base().ID, func(planner.Entity) error {
		view = output.NewScheduleView(loan.Base().Name, loan.AmortizationSchedule(req.ApplyExtra))
		return nil
	})
	h.writeJSON(w, http.StatusOK, view)
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	var req scheduleRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	loan, ok := h.findLoan(w, req.Loan, op)
	if !ok {
		return
	}

	var view output.ComparisonView
	_ = h.state.View(loan.Base().ID, func(planner.Entity) error {
		view = output.NewComparisonView(loan.Base().Name, loan.CompareSchedules())
		return nil
	})
	h.writeJSON(w, http.StatusOK, view)
}

func (h *handler) handleTax(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTax"
	var req taxRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	income, ok := mathutil.FromAny(req.Income)
	if !ok || income.IsNegative() {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid income %v", req.Income), op)
		return
	}

	entity, err := h.state.Find(req.Bracket, planner.KindTaxBracket)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	bracket := entity.(*planner.TaxBracket)

	var result planner.TaxResult
	_ = h.state.View(bracket.ID, func(planner.Entity) error {
		result = bracket.Calculate(income)
		return nil
	})
	if !result.Ok {
		h.respondErr(w, fmt.Errorf("tax bracket %s: %w", bracket.Name, planner.ErrNoRanges), op)
		return
	}
	h.writeJSON(w, http.StatusOK, output.NewTaxView(bracket.Name, income, result))
}

func (h *handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdate"
	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}
	var req updateRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing key", op)
		return
	}

	accepted, err := h.state.Update(id, req.Key, req.Value)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	if !accepted {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, fmt.Sprintf("value rejected for %s", req.Key), op)
		return
	}

	var resp updateResponse
	_ = h.state.View(id, func(e planner.Entity) error {
		resp = updateResponse{ID: id, Kind: e.Kind(), Data: e.Data()}
		return nil
	})
	h.logger.Debug(fmt.Sprintf("updated %s of %s", req.Key, id),
		zap.String("op", op),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleSave(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSave"
	if err := h.state.Save(); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to save: %v", err), op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *handler) findLoan(w http.ResponseWriter, ref, op string) (planner.Borrowing, bool) {
	entity, err := h.state.Find(ref, planner.KindLoan, planner.KindMortgage, planner.KindAuto, planner.KindStudent, planner.KindPersonal)
	if err != nil {
		h.respondErr(w, err, op)
		return nil, false
	}
	return entity.(planner.Borrowing), true
}

func (h *handler) pathID(w http.ResponseWriter, r *http.Request, op string) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid id %q", raw), op)
		return uuid.Nil, false
	}
	return id, true
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondErr(w http.ResponseWriter, err error, op string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, planner.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, planner.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, planner.ErrNoRanges):
		status = http.StatusUnprocessableEntity
	}
	h.respondErrorWithOp(w, status, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("command request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

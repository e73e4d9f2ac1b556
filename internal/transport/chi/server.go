package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/budgetd/internal/logger"

	"github.com/kailas-cloud/budgetd/internal/domain"
	budgetuc "github.com/kailas-cloud/budgetd/internal/usecase/budget"
	healthuc "github.com/kailas-cloud/budgetd/internal/usecase/health"
)

// ErrorCode is the machine-readable error code in error replies.
type ErrorCode string

// Error codes. Each engine failure maps to a distinct code so monitoring
// can tell configuration problems from storage outages from bad input.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeConfigNotFound    ErrorCode = "config_not_found"
	ErrorCodeConfigUnavailable ErrorCode = "config_unavailable"
	ErrorCodeInvalidSpend      ErrorCode = "invalid_spend"
	ErrorCodeLedgerUnavailable ErrorCode = "ledger_unavailable"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the error reply body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// BudgetVerdictResponse is the reply shape shared by both operations.
// It carries only the verdict: failures always travel on the error
// channel, never as sentinel reply values.
type BudgetVerdictResponse struct {
	ExceedsBudget bool `json:"exceeds_budget"`
}

// RecordSpendRequest is the body of a record-spend call. SpentBudget is a
// pointer so an absent field is distinguishable from an explicit zero.
type RecordSpendRequest struct {
	SpentBudget *float64 `json:"spent_budget"`
}

// SpendResponse is the reply of a spend read. UpdatedAt is zero for a
// project that has never recorded spend.
type SpendResponse struct {
	SpentBudget float64 `json:"spent_budget"`
	UpdatedAt   int64   `json:"updated_at"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP façade over the budget evaluator. It decodes
// requests, validates field presence, and maps engine errors to
// transport statuses; no business logic lives here.
type Server struct {
	budgets       *budgetuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(budgets *budgetuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		budgets: budgets,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrConfigNotFound, http.StatusNotFound, ErrorCodeConfigNotFound),
		sentinelHandler(domain.ErrInvalidSpend, http.StatusBadRequest, ErrorCodeInvalidSpend),
		sentinelHandler(domain.ErrConfigUnavailable, http.StatusServiceUnavailable, ErrorCodeConfigUnavailable),
		sentinelHandler(domain.ErrLedgerUnavailable, http.StatusServiceUnavailable, ErrorCodeLedgerUnavailable),
	}
	return s
}

// Mount registers all routes on the router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/budgets/{config}/projects/{project}/exceeds", s.ExceedsBudget)
		r.Get("/budgets/{config}/projects/{project}/spend", s.GetSpend)
		r.Post("/budgets/{config}/projects/{project}/spend", s.RecordBudgetSpend)
	})
}

// ExceedsBudget handles GET /api/v1/budgets/{config}/projects/{project}/exceeds.
func (s *Server) ExceedsBudget(w http.ResponseWriter, r *http.Request) {
	configName, projectID, ok := s.budgetParams(w, r)
	if !ok {
		return
	}

	exceeds, err := s.budgets.Exceeds(r.Context(), configName, projectID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, BudgetVerdictResponse{ExceedsBudget: exceeds})
}

// GetSpend handles GET /api/v1/budgets/{config}/projects/{project}/spend.
func (s *Server) GetSpend(w http.ResponseWriter, r *http.Request) {
	configName, projectID, ok := s.budgetParams(w, r)
	if !ok {
		return
	}

	entry, err := s.budgets.Spend(r.Context(), configName, projectID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SpendResponse{
		SpentBudget: entry.Total(),
		UpdatedAt:   entry.UpdatedAt(),
	})
}

// RecordBudgetSpend handles POST /api/v1/budgets/{config}/projects/{project}/spend.
func (s *Server) RecordBudgetSpend(w http.ResponseWriter, r *http.Request) {
	configName, projectID, ok := s.budgetParams(w, r)
	if !ok {
		return
	}

	var req RecordSpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SpentBudget == nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "spent_budget is required")
		return
	}

	exceeds, err := s.budgets.Record(r.Context(), configName, projectID, *req.SpentBudget)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, BudgetVerdictResponse{ExceedsBudget: exceeds})
}

// budgetParams extracts and validates the common path parameters.
func (s *Server) budgetParams(w http.ResponseWriter, r *http.Request) (string, uint64, bool) {
	configName := chi.URLParam(r, "config")
	if configName == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "config name is required")
		return "", 0, false
	}

	projectID, err := strconv.ParseUint(chi.URLParam(r, "project"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			"project id must be an unsigned 64-bit integer")
		return "", 0, false
	}

	return configName, projectID, true
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrConfigNotFound,
		domain.ErrConfigUnavailable,
		domain.ErrInvalidSpend,
		domain.ErrLedgerUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// Prefer the request-scoped logger (carries request_id).
	reqLogger := logpkg.FromContextOr(r.Context(), s.logger)
	reqLogger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	reqLogger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/apperr"
	"github.com/moneta-app/moneta/internal/ledger"
	"github.com/moneta-app/moneta/internal/logger"
	"github.com/moneta-app/moneta/internal/models"
	"github.com/moneta-app/moneta/internal/planning"
)

// requesterHeader carries the authenticated user id. Authentication itself
// happens upstream; the engine only enforces ownership.
const requesterHeader = "X-Requester-Id"

type server struct {
	accounts     *ledger.AccountService
	transactions *ledger.TransactionService
	budgets      *planning.BudgetService
	goals        *planning.GoalService
	log          *logger.Logger
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /accounts", s.handleListAccounts)
	mux.HandleFunc("GET /accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PATCH /accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("GET /accounts/{id}/transactions", s.handleListTransactions)

	mux.HandleFunc("POST /transactions", s.handleRecordTransaction)
	mux.HandleFunc("POST /transactions/{id}/void", s.handleVoidTransaction)

	mux.HandleFunc("POST /budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /budgets", s.handleListBudgets)
	mux.HandleFunc("GET /budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("GET /budgets/{id}/spent", s.handleBudgetSpent)
	mux.HandleFunc("PATCH /budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("POST /goals", s.handleCreateGoal)
	mux.HandleFunc("GET /goals", s.handleListGoals)
	mux.HandleFunc("GET /goals/{id}", s.handleGetGoal)
	mux.HandleFunc("PATCH /goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("POST /goals/{id}/contribute", s.handleContributeGoal)
	mux.HandleFunc("POST /goals/{id}/cancel", s.handleCancelGoal)

	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	var req struct {
		Name           string             `json:"name"`
		Kind           models.AccountKind `json:"kind"`
		CurrencyCode   string             `json:"currency_code"`
		OpeningBalance decimal.Decimal    `json:"opening_balance"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	account, err := s.accounts.Create(r.Context(), requesterID, req.Name, req.Kind, req.CurrencyCode, req.OpeningBalance)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, account)
}

func (s *server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	accountID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	get := s.accounts.Get
	if r.URL.Query().Get("include_deleted") == "true" {
		get = s.accounts.GetForAudit
	}
	account, err := get(r.Context(), accountID, requesterID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, account)
}

func (s *server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	page, pageSize := pageParams(r)
	accounts, meta, err := s.accounts.List(r.Context(), requesterID, page, pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts, "meta": meta})
}

func (s *server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	accountID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var patch models.AccountPatch
	if !s.decode(w, r, &patch) {
		return
	}
	account, err := s.accounts.Update(r.Context(), accountID, requesterID, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, account)
}

func (s *server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	accountID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	deleted, err := s.accounts.SoftDelete(r.Context(), accountID, requesterID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	var req struct {
		AccountID        uuid.UUID              `json:"account_id"`
		Kind             models.TransactionKind `json:"kind"`
		Amount           decimal.Decimal        `json:"amount"`
		RelatedAccountID *uuid.UUID             `json:"related_account_id,omitempty"`
		OccurredAt       time.Time              `json:"occurred_at,omitempty"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	tx, err := s.transactions.Record(r.Context(), req.AccountID, requesterID, req.Kind, req.Amount, req.RelatedAccountID, req.OccurredAt)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tx)
}

func (s *server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	accountID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	filter, err := transactionFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	txs, err := s.transactions.ListForAccount(r.Context(), accountID, requesterID, filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (s *server) handleVoidTransaction(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	transactionID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	offset, err := s.transactions.Void(r.Context(), transactionID, requesterID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, offset)
}

func (s *server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	var req struct {
		Name         string                 `json:"name"`
		CurrencyCode string                 `json:"currency_code"`
		Amount       decimal.Decimal        `json:"amount"`
		Frequency    models.BudgetFrequency `json:"frequency"`
		StartDate    time.Time              `json:"start_date"`
		EndDate      time.Time              `json:"end_date"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	budget, err := s.budgets.Create(r.Context(), requesterID, req.Name, req.CurrencyCode, req.Amount, req.Frequency, req.StartDate, req.EndDate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, budget)
}

func (s *server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	budgetID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	budget, err := s.budgets.Get(r.Context(), budgetID, requesterID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, budget)
}

func (s *server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	page, pageSize := pageParams(r)
	budgets, meta, err := s.budgets.List(r.Context(), requesterID, page, pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"budgets": budgets, "meta": meta})
}

func (s *server) handleBudgetSpent(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	budgetID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	spent, err := s.budgets.Spent(r.Context(), budgetID, requesterID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"spent": spent})
}

func (s *server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	budgetID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var patch models.BudgetPatch
	if !s.decode(w, r, &patch) {
		return
	}
	budget, err := s.budgets.Update(r.Context(), budgetID, requesterID, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, budget)
}

func (s *server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	budgetID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.budgets.Delete(r.Context(), budgetID, requesterID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	var req struct {
		Name         string          `json:"name"`
		CurrencyCode string          `json:"currency_code"`
		TargetAmount decimal.Decimal `json:"target_amount"`
		DueDate      *time.Time      `json:"due_date,omitempty"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	goal, err := s.goals.Create(r.Context(), requesterID, req.Name, req.CurrencyCode, req.TargetAmount, req.DueDate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, goal)
}

func (s *server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	goalID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	goal, err := s.goals.Get(r.Context(), goalID, requesterID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, goal)
}

func (s *server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	page, pageSize := pageParams(r)
	goals, meta, err := s.goals.List(r.Context(), requesterID, page, pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"goals": goals, "meta": meta})
}

func (s *server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	goalID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var patch models.GoalPatch
	if !s.decode(w, r, &patch) {
		return
	}
	goal, err := s.goals.Update(r.Context(), goalID, requesterID, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, goal)
}

func (s *server) handleContributeGoal(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	goalID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	goal, err := s.goals.Contribute(r.Context(), goalID, requesterID, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, goal)
}

func (s *server) handleCancelGoal(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := s.requester(w, r)
	if !ok {
		return
	}
	goalID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	goal, err := s.goals.Cancel(r.Context(), goalID, requesterID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, goal)
}

func (s *server) requester(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get(requesterHeader))
	if err != nil {
		s.writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing_requester", Message: "valid " + requesterHeader + " header required"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_id", Message: "path id must be a uuid"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_body", Message: err.Error()})
		return false
	}
	return true
}

func pageParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}

func transactionFilter(r *http.Request) (models.TransactionFilter, error) {
	var filter models.TransactionFilter
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperr.New(apperr.KindValidation, "invalid_filter", err)
		}
		filter.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperr.New(apperr.KindValidation, "invalid_filter", err)
		}
		filter.To = &t
	}
	if raw := q.Get("kind"); raw != "" {
		kind := models.TransactionKind(raw)
		filter.Kind = &kind
	}
	return filter, nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	code := "internal"
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	status := statusFor(apperr.KindOf(err))
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	body := errorBody{Error: code}
	if appErr != nil && appErr.Err != nil && status < http.StatusInternalServerError {
		body.Message = appErr.Err.Error()
	}
	s.writeJSON(w, status, body)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindCurrencyMismatch:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("failed to encode response", "error", err)
	}
}

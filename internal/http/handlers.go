package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/export"
)

const maxImportBytes = 4 << 20

type createTransactionRequest struct {
	Kind     string `json:"kind"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Note     string `json:"note"`
	Payer    string `json:"payer"`
	Date     string `json:"date"`
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a positive decimal number")
		return
	}

	year, month, day, err := parseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD form")
		return
	}

	payer := strings.TrimSpace(req.Payer)
	if payer == "" {
		payer = s.store.CurrentUser()
	}
	if payer == "" {
		payer = s.defaultPayer
	}

	txn := core.NewTransactionOn(core.Kind(req.Kind), amount, core.Category(req.Category),
		payer, req.Note, year, month, day)

	saved, err := s.transactions.Add(r.Context(), txn)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidKind):
			writeError(w, http.StatusBadRequest, "kind must be expense or income")
		case errors.Is(err, core.ErrInvalidCategory):
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", req.Category))
		case errors.Is(err, core.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, "amount must be positive")
		default:
			s.logger.ErrorContext(r.Context(), "Failed to add transaction", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save transaction")
		}
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var filter *core.MonthKey
	if strings.TrimSpace(r.URL.Query().Get("month")) != "" {
		month, err := monthFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be in YYYY-MM form")
			return
		}
		filter = &month
	}

	txns := []core.Transaction{}
	for txn := range s.store.Transactions() {
		if filter != nil && txn.MonthKey() != *filter {
			continue
		}
		txns = append(txns, txn)
	}
	sort.Slice(txns, func(i, j int) bool {
		return txns[i].OccurredAt.After(txns[j].OccurredAt)
	})

	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction id")
		return
	}

	removed, err := s.transactions.Remove(r.Context(), id)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to remove transaction",
			"transaction_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove transaction")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type summaryResponse struct {
	Month      core.MonthKey  `json:"month"`
	Income     core.Money     `json:"income"`
	Spent      core.Money     `json:"spent"`
	Remaining  core.Money     `json:"remaining"`
	Categories []categoryView `json:"categories"`
}

type categoryView struct {
	Category    core.Category `json:"category"`
	Spent       core.Money    `json:"spent"`
	Cap         *core.Money   `json:"cap,omitempty"`
	Remaining   *core.Money   `json:"remaining,omitempty"`
	PercentUsed *int          `json:"percentUsed,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := monthFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be in YYYY-MM form")
		return
	}

	key := fmt.Sprintf("%s@%d", month, s.store.Revision())
	if cached, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	totals := s.store.MonthlyTotals(month)
	resp := summaryResponse{
		Month:     month,
		Income:    totals.Income,
		Spent:     totals.Spent,
		Remaining: totals.Remaining,
	}
	for _, ct := range s.store.CategoryTotals(month) {
		view := categoryView{Category: ct.Category, Spent: ct.Spent}
		if ct.HasCap {
			limit, remaining, pct := ct.Cap, ct.Remaining, ct.PercentUsed
			view.Cap = &limit
			view.Remaining = &remaining
			view.PercentUsed = &pct
		}
		resp.Categories = append(resp.Categories, view)
	}

	s.summaryCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	months := core.AvailableMonths(s.store.Transactions(), s.monthWindow, time.Now())
	writeJSON(w, http.StatusOK, months)
}

type setBudgetsRequest struct {
	Caps         map[string]string `json:"caps"`
	ApplyDefault bool              `json:"applyDefault"`
}

func (s *Server) handleSetBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonthKey(r.PathValue("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be in YYYY-MM form")
		return
	}

	var req setBudgetsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	caps := core.CategoryCaps{}
	for name, raw := range req.Caps {
		category := core.Category(name)
		if !core.KnownCategory(category) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", name))
			return
		}
		amount, err := core.ParseBudgetAmount(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid cap for %q", name))
			return
		}
		if amount.Cents > 0 {
			caps[category] = amount
		}
	}

	if err := s.store.SetMonthCaps(r.Context(), month, caps, req.ApplyDefault); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to save budgets",
			"month", month, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save budgets")
		return
	}
	writeJSON(w, http.StatusOK, s.store.EffectiveCaps(month))
}

type setBaseBudgetRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleSetBaseBudget(w http.ResponseWriter, r *http.Request) {
	var req setBaseBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := core.ParseBudgetAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a non-negative decimal number")
		return
	}

	if err := s.store.SetBaseBudget(r.Context(), amount); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to save base budget", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save base budget")
		return
	}
	writeJSON(w, http.StatusOK, map[string]core.Money{"baseBudget": amount})
}

type setUserRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSetUser(w http.ResponseWriter, r *http.Request) {
	var req setUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.SetCurrentUser(r.Context(), strings.TrimSpace(req.Name)); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to save current user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"currentUser": strings.TrimSpace(req.Name)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	raw, err := export.Marshal(s.store.Snapshot(), time.Now())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to build export", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger-export.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	patch, err := export.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "import file must be a JSON object")
		return
	}

	if err := s.store.ApplyImport(r.Context(), patch); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to apply import", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to apply import")
		return
	}

	imported := map[string]bool{
		"transactions": patch.Transactions != nil,
		"baseBudget":   patch.BaseBudget != nil,
	}
	writeJSON(w, http.StatusOK, imported)
}

package devapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 500
	chatContextSize         = 20
	alertWindow             = 7 * 24 * time.Hour
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.repo.Summary(r.Context(), userFrom(r.Context()).ID, s.now())
	if err != nil {
		fail(w, r, log.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTotalBalance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TotalBalance decimal.NullDecimal `json:"total_balance"`
	}
	if err := decodeJSON(r, &req); err != nil || !req.TotalBalance.Valid {
		writeError(w, http.StatusBadRequest, "total_balance must be a number")
		return
	}
	if err := s.ledger.SetTotalBalance(r.Context(), userFrom(r.Context()).ID, req.TotalBalance.Decimal); err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, ack{Success: true, Message: "Total balance updated"})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := defaultTransactionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = min(n, maxTransactionLimit)
	}

	txs, err := s.repo.ListTransactions(r.Context(), userFrom(r.Context()).ID, limit)
	if err != nil {
		fail(w, r, log.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      decimal.Decimal      `json:"amount"`
		Category    string               `json:"category"`
		Date        string               `json:"date"`
		Description string               `json:"description"`
		Type        core.TransactionType `json:"type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction")
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	if req.Type == "" {
		req.Type = core.Expense
	}

	id, err := s.ledger.CreateTransaction(r.Context(), userFrom(r.Context()).ID, core.Transaction{
		Date:        date,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		Type:        req.Type,
	})
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, ack{Success: true, Message: "Transaction added successfully", ID: id.String()})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.repo.ListBudgets(r.Context(), userFrom(r.Context()).ID, s.now())
	if err != nil {
		fail(w, r, log.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": budgets})
}

// Collection creates arrive as flat objects of strings, the way the forms
// were filled in.
func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var form core.Form
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid budget")
		return
	}
	limit, err := core.ParseAmount(form.Get("limit"))
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}

	id, err := s.ledger.CreateBudget(r.Context(), userFrom(r.Context()).ID, core.Budget{
		Category: form.Get("category"),
		Limit:    limit,
		Period:   form.Get("period"),
	})
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, ack{Success: true, ID: id.String()})
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.repo.ListSavingsGoals(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		fail(w, r, log.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var form core.Form
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid savings goal")
		return
	}
	target, err := core.ParseAmount(form.Get("target"))
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	current := decimal.Zero
	if v := form.Get("current"); v != "" {
		if current, err = decimal.NewFromString(strings.ReplaceAll(v, ",", ".")); err != nil {
			fail(w, r, log.OpCreate, core.ErrInvalidAmount)
			return
		}
	}
	targetDate, err := core.ParseDate(form.Get("target_date"))
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}

	id, err := s.ledger.CreateSavingsGoal(r.Context(), userFrom(r.Context()).ID, core.SavingsGoal{
		Name:       form.Get("name"),
		Current:    current,
		Target:     target,
		TargetDate: targetDate,
	})
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, ack{Success: true, ID: id.String()})
}

func (s *Server) handleReorderGoals(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GoalIDs []core.ID `json:"goal_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "goal_ids must be a list of ids")
		return
	}
	if err := s.ledger.ReorderSavingsGoals(r.Context(), userFrom(r.Context()).ID, req.GoalIDs); err != nil {
		fail(w, r, log.OpReorder, err)
		return
	}
	writeJSON(w, http.StatusOK, ack{Success: true})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.repo.ListFamilyMembers(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		fail(w, r, log.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var form core.Form
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid family member")
		return
	}
	id, err := s.ledger.CreateFamilyMember(r.Context(), userFrom(r.Context()).ID, core.FamilyMember{
		Name:  form.Get("name"),
		Email: form.Get("email"),
	})
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, ack{Success: true, ID: id.String()})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(ctx).ID
	now := s.now()

	week, err := s.repo.TransactionsSince(ctx, userID, now.Add(-alertWindow))
	if err != nil {
		fail(w, r, log.OpLoad, err)
		return
	}
	budgets, err := s.repo.ListBudgets(ctx, userID, now)
	if err != nil {
		fail(w, r, log.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": services.DeriveAlerts(now, week, budgets)})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	recent, err := s.repo.ListTransactions(r.Context(), userFrom(r.Context()).ID, chatContextSize)
	if err != nil {
		fail(w, r, log.OpChat, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": services.ChatReply(req.Message, recent)})
}

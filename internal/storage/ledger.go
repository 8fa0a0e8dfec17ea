package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const dateLayout = "2006-01-02"

func idOf(n int64) core.ID {
	return core.ID(strconv.FormatInt(n, 10))
}

func monthPrefix(now time.Time) string {
	return now.Format("2006-01") + "%"
}

// ListTransactions returns the newest transactions first, at most limit of them.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT id, txn_date, category, description, amount, type
		FROM transactions WHERE user_id = ?
		ORDER BY txn_date DESC, id DESC LIMIT ?`, userID, limit)
}

// TransactionsSince returns every transaction dated on or after since.
func (r *SQLiteRepository) TransactionsSince(ctx context.Context, userID int64, since time.Time) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT id, txn_date, category, description, amount, type
		FROM transactions WHERE user_id = ? AND txn_date >= ?
		ORDER BY txn_date DESC, id DESC`, userID, since.Format(dateLayout))
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			id                 int64
			date, amount, kind string
			t                  core.Transaction
		)
		if err := rows.Scan(&id, &date, &t.Category, &t.Description, &amount, &kind); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		t.ID = idOf(id)
		t.Type = core.TransactionType(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTransaction stores a validated transaction. An empty date means today.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.ID, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	date := t.Date.String()
	if date == "" {
		date = time.Now().Format(dateLayout)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, txn_date, category, description, amount, type)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, date, strings.TrimSpace(t.Category), strings.TrimSpace(t.Description), t.Amount.String(), string(t.Type))
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("transaction id: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved",
		log.FieldOperation, log.OpCreate, "id", id, "type", t.Type, "amount", t.Amount.String())
	return idOf(id), nil
}

// ListBudgets returns every budget with this month's spending in its
// category, compared case-insensitively.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64, now time.Time) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, limit_amount, period FROM budgets
		WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select budgets: %w", err)
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		var (
			b     core.Budget
			limit string
		)
		if err := rows.Scan(&b.Category, &limit, &b.Period); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.Limit, err = parseDecimal(limit); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	spent, err := r.monthlyExpensesByCategory(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	for i := range budgets {
		budgets[i].Spent = spent[strings.ToLower(budgets[i].Category)]
	}
	return budgets, nil
}

func (r *SQLiteRepository) monthlyExpensesByCategory(ctx context.Context, userID int64, now time.Time) (map[string]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, amount FROM transactions
		WHERE user_id = ? AND type = 'expense' AND txn_date LIKE ?`, userID, monthPrefix(now))
	if err != nil {
		return nil, fmt.Errorf("select monthly expenses: %w", err)
	}
	defer rows.Close()

	spent := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category, amount string
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		d, err := parseDecimal(amount)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(category)
		spent[key] = spent[key].Add(d)
	}
	return spent, rows.Err()
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, userID int64, b core.Budget) (core.ID, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	period := strings.TrimSpace(b.Period)
	if period == "" {
		period = "monthly"
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category, limit_amount, period) VALUES (?, ?, ?, ?)`,
		userID, strings.TrimSpace(b.Category), b.Limit.String(), period)
	if err != nil {
		return "", fmt.Errorf("insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("budget id: %w", err)
	}
	return idOf(id), nil
}

// ListSavingsGoals returns the goals in priority order.
func (r *SQLiteRepository) ListSavingsGoals(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, current_amount, target_amount, COALESCE(target_date, ''), priority
		FROM savings_goals WHERE user_id = ?
		ORDER BY priority, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select savings goals: %w", err)
	}
	defer rows.Close()

	goals := []core.SavingsGoal{}
	for rows.Next() {
		var (
			id                    int64
			current, target, date string
			g                     core.SavingsGoal
		)
		if err := rows.Scan(&id, &g.Name, &current, &target, &date, &g.Priority); err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		if g.Current, err = parseDecimal(current); err != nil {
			return nil, err
		}
		if g.Target, err = parseDecimal(target); err != nil {
			return nil, err
		}
		if g.TargetDate, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		g.ID = idOf(id)
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// CreateSavingsGoal appends a goal after the current lowest priority.
func (r *SQLiteRepository) CreateSavingsGoal(ctx context.Context, userID int64, g core.SavingsGoal) (core.ID, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	var targetDate any
	if !g.TargetDate.IsEmpty() {
		targetDate = g.TargetDate.String()
	}

	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(priority), 0) + 1 FROM savings_goals WHERE user_id = ?`, userID).
			Scan(&next); err != nil {
			return fmt.Errorf("next priority: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO savings_goals (user_id, name, current_amount, target_amount, target_date, priority)
			VALUES (?, ?, ?, ?, ?, ?)`,
			userID, strings.TrimSpace(g.Name), g.Current.String(), g.Target.String(), targetDate, next)
		if err != nil {
			return fmt.Errorf("insert savings goal: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return "", err
	}
	return idOf(id), nil
}

// ReorderSavingsGoals gives the goal at position i priority i+1. The ids
// must name every goal of the user exactly once.
func (r *SQLiteRepository) ReorderSavingsGoals(ctx context.Context, userID int64, ids []core.ID) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id FROM savings_goals WHERE user_id = ?`, userID)
		if err != nil {
			return fmt.Errorf("select goal ids: %w", err)
		}
		existing := make(map[core.ID]bool)
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan goal id: %w", err)
			}
			existing[idOf(id)] = false
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if len(ids) != len(existing) {
			return ErrIncompleteOrder
		}
		for _, id := range ids {
			seen, ok := existing[id]
			if !ok || seen {
				return ErrIncompleteOrder
			}
			existing[id] = true
		}

		for i, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`UPDATE savings_goals SET priority = ? WHERE id = ? AND user_id = ?`,
				i+1, string(id), userID); err != nil {
				return fmt.Errorf("update priority: %w", err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) ListFamilyMembers(ctx context.Context, userID int64) ([]core.FamilyMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email FROM family_members WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select family members: %w", err)
	}
	defer rows.Close()

	members := []core.FamilyMember{}
	for rows.Next() {
		var (
			id int64
			m  core.FamilyMember
		)
		if err := rows.Scan(&id, &m.Name, &m.Email); err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		m.ID = idOf(id)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *SQLiteRepository) CreateFamilyMember(ctx context.Context, userID int64, m core.FamilyMember) (core.ID, error) {
	if strings.TrimSpace(m.Name) == "" {
		return "", core.ErrEmptyName
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO family_members (user_id, name, email) VALUES (?, ?, ?)`,
		userID, strings.TrimSpace(m.Name), normalizeEmail(m.Email))
	if err != nil {
		return "", fmt.Errorf("insert family member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("family member id: %w", err)
	}
	return idOf(id), nil
}

// Summary computes the dashboard figures. The total balance is the last
// value set by hand plus the net of every later transaction.
func (r *SQLiteRepository) Summary(ctx context.Context, userID int64, now time.Time) (core.DashboardSummary, error) {
	var (
		anchor   sql.NullString
		anchorID int64
		s        core.DashboardSummary
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT balance_anchor, anchor_txn_id FROM users WHERE id = ?`, userID).Scan(&anchor, &anchorID)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	if err != nil {
		return s, fmt.Errorf("select balance anchor: %w", err)
	}
	if anchor.Valid {
		if s.TotalBalance, err = parseDecimal(anchor.String); err != nil {
			return s, err
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, txn_date, amount, type FROM transactions
		WHERE user_id = ? AND (id > ? OR txn_date LIKE ?)`, userID, anchorID, monthPrefix(now))
	if err != nil {
		return s, fmt.Errorf("select transactions for summary: %w", err)
	}
	defer rows.Close()

	month := now.Format("2006-01")
	for rows.Next() {
		var (
			id                 int64
			date, amount, kind string
		)
		if err := rows.Scan(&id, &date, &amount, &kind); err != nil {
			return s, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := parseDecimal(amount)
		if err != nil {
			return s, err
		}
		if kind == string(core.Expense) {
			d = d.Neg()
		}
		if id > anchorID {
			s.TotalBalance = s.TotalBalance.Add(d)
		}
		if strings.HasPrefix(date, month) {
			if d.IsNegative() {
				s.MonthlyExpenses = s.MonthlyExpenses.Add(d.Neg())
			} else {
				s.MonthlyIncome = s.MonthlyIncome.Add(d)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return s, err
	}

	goals, err := r.ListSavingsGoals(ctx, userID)
	if err != nil {
		return s, err
	}
	for _, g := range goals {
		s.SavingsGoal = s.SavingsGoal.Add(g.Target)
	}
	return s, nil
}

// SetTotalBalance records value as the balance as of the latest transaction.
func (r *SQLiteRepository) SetTotalBalance(ctx context.Context, userID int64, value decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET balance_anchor = ?,
			anchor_txn_id = (SELECT COALESCE(MAX(id), 0) FROM transactions WHERE user_id = ?)
		WHERE id = ?`, value.String(), userID, userID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

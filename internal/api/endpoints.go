package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	PathAuthCheck            = "/api/auth/check"
	PathAuthLogin            = "/api/auth/login"
	PathAuthLogout           = "/api/auth/logout"
	PathDashboard            = "/api/dashboard"
	PathTotalBalance         = "/api/dashboard/total-balance"
	PathTransactions         = "/api/transactions"
	PathBudgets              = "/api/budgets"
	PathSavingsGoals         = "/api/savings-goals"
	PathSavingsGoalsReorder  = "/api/savings-goals/reorder"
	PathFamilyMembers        = "/api/family_members"
	PathNotifications        = "/api/notifications"
	PathChat                 = "/api/chat"
	PathParseReceipt         = "/api/parse-receipt"
	PathSettingsProfile      = "/api/settings/profile"
	PathSettingsPassword     = "/api/settings/password"
	PathSettingsNotification = "/api/settings/notifications"
)

func (c *Client) Transactions() Collection[core.Transaction] {
	return NewCollection[core.Transaction](c, PathTransactions, "transactions")
}

func (c *Client) Budgets() Collection[core.Budget] {
	return NewCollection[core.Budget](c, PathBudgets, "budgets")
}

func (c *Client) SavingsGoals() Collection[core.SavingsGoal] {
	return NewCollection[core.SavingsGoal](c, PathSavingsGoals, "goals", "savings_goals")
}

func (c *Client) FamilyMembers() Collection[core.FamilyMember] {
	return NewCollection[core.FamilyMember](c, PathFamilyMembers, "members", "family_members")
}

func (c *Client) NotificationFeed() Collection[core.Notification] {
	return NewCollection[core.Notification](c, PathNotifications, "notifications", "alerts")
}

// CheckAuth asks the server whether the session is logged in.
func (c *Client) CheckAuth(ctx context.Context) (core.AuthStatus, error) {
	var st core.AuthStatus
	if err := c.getJSON(ctx, PathAuthCheck, &st); err != nil {
		return core.AuthStatus{}, err
	}
	return st, nil
}

// Login exchanges credentials for a session token. Wrong credentials come
// back as ErrUnauthorized.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var reply struct {
		successBody
		Token string `json:"token"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, PathAuthLogin, body, &reply); err != nil {
		return "", err
	}
	if err := reply.check(); err != nil {
		return "", err
	}
	if reply.Token == "" {
		return "", fmt.Errorf("login: %w: no token", ErrUnexpectedResponse)
	}
	return reply.Token, nil
}

// Logout ends the session on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.sendJSON(ctx, http.MethodPost, PathAuthLogout, struct{}{}, nil)
}

// Dashboard fetches the headline figures.
func (c *Client) Dashboard(ctx context.Context) (core.DashboardSummary, error) {
	var s core.DashboardSummary
	if err := c.getJSON(ctx, PathDashboard, &s); err != nil {
		return core.DashboardSummary{}, err
	}
	return s, nil
}

// SetTotalBalance persists a new total balance. Only {"success": true} counts as saved.
func (c *Client) SetTotalBalance(ctx context.Context, value decimal.Decimal) error {
	body := struct {
		TotalBalance json.Number `json:"total_balance"`
	}{TotalBalance: json.Number(value.String())}

	var ack successBody
	if err := c.sendJSON(ctx, http.MethodPost, PathTotalBalance, body, &ack); err != nil {
		return err
	}
	if ack.Success == nil || !*ack.Success {
		return &RejectedError{Message: ack.Message}
	}
	return nil
}

// CreateTransaction posts a validated transaction with a numeric amount.
func (c *Client) CreateTransaction(ctx context.Context, t core.Transaction) error {
	body := struct {
		Amount      json.Number          `json:"amount"`
		Category    string               `json:"category"`
		Date        string               `json:"date"`
		Description string               `json:"description"`
		Type        core.TransactionType `json:"type"`
	}{
		Amount:      json.Number(t.Amount.String()),
		Category:    t.Category,
		Date:        t.Date.String(),
		Description: t.Description,
		Type:        t.Type,
	}

	var ack successBody
	if err := c.sendJSON(ctx, http.MethodPost, PathTransactions, body, &ack); err != nil {
		return err
	}
	return ack.check()
}

// ReorderSavingsGoals sends the complete ordered id list; the server assigns
// priority index+1 to each position.
func (c *Client) ReorderSavingsGoals(ctx context.Context, ids []core.ID) error {
	body := struct {
		GoalIDs []core.ID `json:"goal_ids"`
	}{GoalIDs: ids}
	if body.GoalIDs == nil {
		body.GoalIDs = []core.ID{}
	}
	return c.sendJSON(ctx, http.MethodPut, PathSavingsGoalsReorder, body, nil)
}

// Chat sends one message and returns the assistant's reply text.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	body := struct {
		Message string `json:"message"`
	}{Message: message}

	var reply struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, PathChat, body, &reply); err != nil {
		return "", err
	}
	if reply.Error != "" {
		return "", &RejectedError{Message: reply.Error}
	}
	return reply.Response, nil
}

// ParseReceipt uploads a receipt image as multipart field "receipt".
func (c *Client) ParseReceipt(ctx context.Context, filename string, image io.Reader) (core.ReceiptDraft, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("receipt", filename)
	if err != nil {
		return core.ReceiptDraft{}, fmt.Errorf("create receipt part: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return core.ReceiptDraft{}, fmt.Errorf("copy receipt: %w", err)
	}
	if err := mw.Close(); err != nil {
		return core.ReceiptDraft{}, fmt.Errorf("close multipart: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, PathParseReceipt, mw.FormDataContentType(), &buf)
	if err != nil {
		return core.ReceiptDraft{}, err
	}

	var reply struct {
		core.ReceiptDraft
		Error string `json:"error"`
	}
	if err := decode(PathParseReceipt, raw, &reply); err != nil {
		return core.ReceiptDraft{}, err
	}
	if reply.Error != "" {
		return core.ReceiptDraft{}, &RejectedError{Message: reply.Error}
	}
	return reply.ReceiptDraft, nil
}

func (c *Client) Profile(ctx context.Context) (core.Profile, error) {
	var p core.Profile
	if err := c.getJSON(ctx, PathSettingsProfile, &p); err != nil {
		return core.Profile{}, err
	}
	return p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, p core.Profile) error {
	var ack successBody
	if err := c.sendJSON(ctx, http.MethodPut, PathSettingsProfile, p, &ack); err != nil {
		return err
	}
	if ack.Success == nil || !*ack.Success {
		return &RejectedError{Message: ack.Message}
	}
	return nil
}

// ChangePassword returns a *RejectedError carrying the server's message when refused.
func (c *Client) ChangePassword(ctx context.Context, pc core.PasswordChange) error {
	var ack successBody
	err := c.sendJSON(ctx, http.MethodPut, PathSettingsPassword, pc, &ack)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Message != "" {
			return &RejectedError{Message: se.Message}
		}
		return err
	}
	if ack.Success == nil || !*ack.Success {
		return &RejectedError{Message: strings.TrimSpace(ack.Message)}
	}
	return nil
}

func (c *Client) NotificationSettings(ctx context.Context) (core.NotificationSettings, error) {
	var ns core.NotificationSettings
	if err := c.getJSON(ctx, PathSettingsNotification, &ns); err != nil {
		return core.NotificationSettings{}, err
	}
	return ns, nil
}

func (c *Client) UpdateNotificationSettings(ctx context.Context, ns core.NotificationSettings) error {
	var ack successBody
	if err := c.sendJSON(ctx, http.MethodPut, PathSettingsNotification, ns, &ack); err != nil {
		return err
	}
	return ack.check()
}

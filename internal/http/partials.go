package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ui"
	"fintrack/internal/view"
)

const maxReceiptBytes = 10 << 20

// partialHandler answers one htmx request against the caller's workspace.
// A nil builder means 204 No Content.
type partialHandler func(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder

// partial resolves the workspace, runs h, then attaches whatever the
// controllers left behind: a pending navigation and undelivered toasts.
func (s *Server) partial(h partialHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, token, ok := s.sessions.Workspace(r)
		if !ok {
			NewHTMXResponse().Redirect(s.cfg.LoginURL).Status(http.StatusNoContent).Write(w)
			return
		}

		b := h(r, ws)
		if b == nil {
			b = NewHTMXResponse().Status(http.StatusNoContent)
		}
		if target, ok := s.takeRedirect(ws, token); ok {
			b.Redirect(target)
		}
		b.TriggerToasts(ws.Notifications.Drain(), ws.Notifications.Duration()).Write(w)
	}
}

// fragment renders a shared template into a response body.
func (s *Server) fragment(r *http.Request, name string, data any) *HTMXResponseBuilder {
	html, err := s.templates.partial(name, data)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Partial template execution failed",
			log.FieldOperation, log.OpRender, "template", name, log.FieldError, err)
		return InternalServerError("Template rendering failed")
	}
	return NewHTMXResponse().BodyHTML(html)
}

// creatable is a list page with a create modal.
type creatable interface {
	Region() *view.Region
	OpenCreateModal()
	CloseCreateModal()
	ModalOpen() bool
	ModalFields() core.Form
	SubmitCreate(ctx context.Context, form core.Form) bool
}

func listByName(ws *ui.Workspace, name string) (creatable, bool) {
	switch name {
	case "budgets":
		return ws.Budgets, true
	case "savings":
		return ws.Savings, true
	case "family":
		return ws.Family, true
	default:
		return nil, false
	}
}

func transactionModal(ws *ui.Workspace) modalData {
	return modalData{Name: "transaction", Open: ws.Transaction.IsOpen(), Fields: ws.Transaction.Fields()}
}

type modalChange int

const (
	modalKeep modalChange = iota
	modalShow
	modalHide
)

// renderModal applies change to the modal called name and renders it.
func (s *Server) renderModal(r *http.Request, ws *ui.Workspace, name string, change modalChange) *HTMXResponseBuilder {
	var m modalData
	if name == "transaction" {
		switch change {
		case modalShow:
			ws.Transaction.Open()
		case modalHide:
			ws.Transaction.Close()
		}
		m = transactionModal(ws)
	} else {
		l, ok := listByName(ws, name)
		if !ok {
			return NotFoundError("Unknown form")
		}
		switch change {
		case modalShow:
			l.OpenCreateModal()
		case modalHide:
			l.CloseCreateModal()
		}
		m = modalData{Name: name, Open: l.ModalOpen(), Fields: l.ModalFields()}
	}
	return s.fragment(r, name+"_modal", m)
}

func (s *Server) handleRegion(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	region, ok := ws.Regions()[r.PathValue("id")]
	if !ok {
		return NotFoundError("Unknown region")
	}
	return NewHTMXResponse().BodyHTML(region.HTML())
}

// handleBalance drives the inline total-balance edit. The blur posts the
// typed text; a parseable value is answered with the confirmation bar, whose
// buttons post back with confirmed=true or false.
func (s *Server) handleBalance(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	p, bad := parseBody(r)
	if bad != nil {
		return bad
	}
	d := ws.Dashboard
	summary := func() *HTMXResponseBuilder {
		return NewHTMXResponse().BodyHTML(d.SummaryRegion().HTML())
	}

	if checked(p.Get("cancel")) {
		d.CancelBalance()
		return summary()
	}

	text := p.Get("value")
	d.EditBalance(text)

	answer := p.Get("confirmed")
	if answer == "" {
		value, err := core.ParseMetricInput(text)
		if err != nil {
			d.CommitBalance(r.Context(), nil)
			return summary()
		}
		bar := view.ConfirmBar(ui.BalancePrompt(core.FormatCurrency(value)), "/ui/dashboard/balance",
			map[string]string{"value": text})
		return NewHTMXResponse().BodyHTML(d.SummaryRegion().HTML() + bar)
	}

	outcome := d.CommitBalance(r.Context(), ui.Answer(checked(answer)))
	log.FromContext(r.Context()).DebugContext(r.Context(), "Balance edit finished",
		log.FieldOperation, log.OpUpdate, "outcome", outcome.String())
	b := summary()
	if outcome == ui.BalanceSaved {
		b.TriggerEvent(EventDashboardRefresh)
	}
	return b
}

func (s *Server) handleModal(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	return s.renderModal(r, ws, r.PathValue("name"), modalKeep)
}

func (s *Server) handleModalOpen(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	return s.renderModal(r, ws, r.PathValue("name"), modalShow)
}

func (s *Server) handleModalClose(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	return s.renderModal(r, ws, r.PathValue("name"), modalHide)
}

// handleKeyDown receives document-level key presses. Escape closes every
// modal and tells the page to re-fetch them.
func (s *Server) handleKeyDown(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	p, bad := parseBody(r)
	if bad != nil {
		return bad
	}
	key := p.Get("key")
	ws.KeyDown(key)
	if key != ui.KeyEscape {
		return nil
	}
	return NewHTMXResponse().Status(http.StatusNoContent).TriggerEvent(EventModalsClosed)
}

func (s *Server) handleCreateTransaction(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	p, bad := parseBody(r)
	if bad != nil {
		return bad
	}
	ok := ws.Transaction.Submit(r.Context(), p.Form())
	b := s.fragment(r, "transaction_modal", transactionModal(ws))
	if ok {
		b.TriggerEvent(EventTransactionAdded)
	}
	return b
}

func (s *Server) handleReceipt(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	r.Body = io.NopCloser(io.LimitReader(r.Body, maxReceiptBytes))
	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		return BadRequestError("Receipt upload is too large or malformed")
	}
	file, header, err := r.FormFile("receipt")
	if err != nil {
		return BadRequestError("Please choose a receipt image")
	}
	defer file.Close()

	ws.Transactions.UploadReceipt(r.Context(), header.Filename, file)
	return s.fragment(r, "transaction_modal", transactionModal(ws))
}

func (s *Server) handleCreateItem(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	name := r.PathValue("name")
	l, ok := listByName(ws, name)
	if !ok {
		return NotFoundError("Unknown list")
	}
	p, bad := parseBody(r)
	if bad != nil {
		return bad
	}

	created := l.SubmitCreate(r.Context(), p.Form())
	b := s.fragment(r, name+"_modal", modalData{Name: name, Open: l.ModalOpen(), Fields: l.ModalFields()})
	if created {
		b.TriggerEvent(ListChangedEvent(name))
	}
	return b
}

// handleReorder persists the order the cards were dropped in and answers
// with the list as it now stands.
func (s *Server) handleReorder(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	p, bad := parseBody(r)
	if bad != nil {
		return bad
	}
	values := p.Values("goal_ids")
	ids := make([]core.ID, 0, len(values))
	for _, v := range values {
		ids = append(ids, core.ID(v))
	}

	if err := ws.Savings.ApplyOrder(r.Context(), ids); errors.Is(err, ui.ErrAlreadyDragging) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Reorder dropped, another drag is in flight",
			log.FieldOperation, log.OpReorder, log.FieldError, err)
	}
	return NewHTMXResponse().BodyHTML(ws.Savings.Region().HTML())
}

func (s *Server) bell(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	return s.fragment(r, "notification_bell", bellData{
		Open:   ws.Notifications.IsOpen(),
		Unread: ws.Notifications.HasUnread(),
		Items:  ws.Notifications.Region().HTML(),
	})
}

func (s *Server) handleNotificationsToggle(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	ws.Notifications.ToggleDropdown(r.Context())
	return s.bell(r, ws)
}

func (s *Server) handleNotificationsClick(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	p, bad := parseBody(r)
	if bad != nil {
		return bad
	}
	ws.Notifications.ClickOutside(clickTarget(p))
	return s.bell(r, ws)
}

func (s *Server) chatWidget(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	return s.fragment(r, "chat_widget", chatData{Open: ws.Chat.IsOpen(), Transcript: ws.Chat.Region().HTML()})
}

func (s *Server) handleChatToggle(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	ws.Chat.Toggle()
	return s.chatWidget(r, ws)
}

func (s *Server) handleChatSend(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	p, bad := parseBody(r)
	if bad != nil {
		return bad
	}
	ws.Chat.Send(r.Context(), p.Get("message"))
	return NewHTMXResponse().BodyHTML(ws.Chat.Region().HTML())
}

func (s *Server) handleProfile(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	p, bad := parseBody(r)
	if bad != nil {
		return bad
	}
	ws.Settings.UpdateProfile(r.Context(), core.Profile{Name: p.Get("name"), Email: p.Get("email")})
	return nil
}

func (s *Server) handlePassword(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	p, bad := parseBody(r)
	if bad != nil {
		return bad
	}
	changed := ws.Settings.ChangePassword(r.Context(), core.PasswordChange{
		CurrentPassword: p.Get("current_password"),
		NewPassword:     p.Get("new_password"),
		ConfirmPassword: p.Get("confirm_password"),
	})
	if !changed {
		return nil
	}
	return NewHTMXResponse().Status(http.StatusNoContent).TriggerEvent("password:changed")
}

// handlePreferences saves the notification toggles. Unchecked boxes are not
// submitted, so absence means off.
func (s *Server) handlePreferences(r *http.Request, ws *ui.Workspace) *HTMXResponseBuilder {
	p, bad := parseBody(r)
	if bad != nil {
		return bad
	}
	ws.Settings.UpdatePreferences(r.Context(), core.NotificationSettings{
		WeeklySummary:  checked(p.Get("weekly_summary")),
		BudgetAlerts:   checked(p.Get("budget_alerts")),
		SavingsUpdates: checked(p.Get("savings_updates")),
	})
	return nil
}

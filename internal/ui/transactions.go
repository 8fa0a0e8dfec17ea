package ui

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"time"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/view"
)

const (
	msgTransactionAdded  = "Transaction added successfully!"
	msgTransactionFailed = "Error adding transaction"
	msgReceiptFailed     = "Error parsing receipt"
)

// TransactionModal is the create-transaction form shared by every page that
// offers "add transaction". Pages subscribe with OnAdded to refresh
// themselves after a successful create.
type TransactionModal struct {
	mu        sync.Mutex
	api       TransactionCreator
	notifier  *NotificationCenter
	gate      loginGate
	today     func() time.Time
	modal     Modal
	listeners []func(context.Context)
	logger    *log.Logger
}

func NewTransactionModal(creator TransactionCreator, notifier *NotificationCenter, nav Navigator, loginURL string, logger *log.Logger) *TransactionModal {
	return &TransactionModal{
		api:      creator,
		notifier: notifier,
		gate:     loginGate{nav: nav, loginURL: loginURL},
		today:    time.Now,
		modal:    Modal{fields: core.Form{}},
		logger:   log.OrDefault(logger, log.ComponentUI),
	}
}

// OnAdded registers fn to run after every successful create.
func (m *TransactionModal) OnAdded(fn func(context.Context)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Open shows the form with the date preset to today.
func (m *TransactionModal) Open() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modal.Open()
	if m.modal.fields.Get("date") == "" {
		m.modal.fields["date"] = m.today().Format("2006-01-02")
	}
}

func (m *TransactionModal) Close() {
	m.mu.Lock()
	m.modal.Close()
	m.mu.Unlock()
}

func (m *TransactionModal) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modal.IsOpen()
}

func (m *TransactionModal) Fields() core.Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modal.Fields()
}

// Prefill opens the form populated from a parsed receipt.
func (m *TransactionModal) Prefill(d core.ReceiptDraft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := core.Form{
		"category":    d.Category,
		"description": d.Description,
		"date":        d.Date,
		"type":        string(core.Expense),
	}
	if !d.Amount.IsZero() {
		f["amount"] = d.Amount.String()
	}
	if f["date"] == "" {
		f["date"] = m.today().Format("2006-01-02")
	}
	m.modal.set(f)
	m.modal.open = true
}

// Submit validates the form locally; any problem is shown as one joined
// toast and nothing is sent. A successful create closes the form and
// notifies every listener.
func (m *TransactionModal) Submit(ctx context.Context, form core.Form) bool {
	m.mu.Lock()
	m.modal.set(form)
	m.mu.Unlock()

	tx, err := core.TransactionFromForm(form)
	if err != nil {
		m.notifier.Toast(ToastError, err.Error())
		return false
	}

	if err := m.api.CreateTransaction(ctx, tx); err != nil {
		m.logger.ErrorContext(ctx, "Transaction create failed",
			log.FieldOperation, log.OpCreate, log.FieldCollection, "transactions", log.FieldError, err)
		if !m.gate.redirectIfUnauthorized(err) {
			m.notifier.Toast(ToastError, msgTransactionFailed)
		}
		return false
	}

	m.notifier.Toast(ToastSuccess, msgTransactionAdded)
	m.Close()

	m.mu.Lock()
	listeners := append([]func(context.Context){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(ctx)
	}
	return true
}

// TransactionsPage lists every transaction and adds receipt upload on top of
// the shared transaction form.
type TransactionsPage struct {
	*ResourceList[core.Transaction]
	modal    *TransactionModal
	parser   ReceiptParser
	notifier *NotificationCenter
	logger   *log.Logger
}

func NewTransactionsPage(list *ResourceList[core.Transaction], modal *TransactionModal, parser ReceiptParser, notifier *NotificationCenter, logger *log.Logger) *TransactionsPage {
	p := &TransactionsPage{
		ResourceList: list,
		modal:        modal,
		parser:       parser,
		notifier:     notifier,
		logger:       log.OrDefault(logger, log.ComponentUI),
	}
	modal.OnAdded(func(ctx context.Context) { _ = p.Load(ctx) })
	return p
}

// Arrive loads the list; action=add opens the shared transaction form.
func (p *TransactionsPage) Arrive(ctx context.Context, query url.Values) {
	_ = p.Load(ctx)
	if query.Get("action") == "add" {
		p.modal.Open()
	}
}

func (p *TransactionsPage) Modal() *TransactionModal {
	return p.modal
}

// UploadReceipt sends an image to the receipt parser and, on success, opens
// the transaction form prefilled with what was extracted.
func (p *TransactionsPage) UploadReceipt(ctx context.Context, filename string, image io.Reader) bool {
	draft, err := p.parser.ParseReceipt(ctx, filename, image)
	if err != nil {
		p.logger.WarnContext(ctx, "Receipt parse failed", log.FieldOperation, log.OpParse, log.FieldError, err)
		msg := msgReceiptFailed
		var rej *api.RejectedError
		if errors.As(err, &rej) && rej.Message != "" {
			msg = rej.Message
		}
		p.notifier.Toast(ToastError, msg)
		return false
	}
	p.modal.Prefill(draft)
	return true
}

// KeyDown closes the list modal and the transaction form on Escape.
func (p *TransactionsPage) KeyDown(key string) {
	if key == KeyEscape {
		p.ResourceList.KeyDown(key)
		p.modal.Close()
	}
}

// NewTransactionList builds the transactions collection controller.
func NewTransactionList(source Collection[core.Transaction], opts ...ListOption) *ResourceList[core.Transaction] {
	return NewResourceList[core.Transaction]("transactions", source, view.TransactionTable, opts...)
}

package ui

import (
	"context"
	"html/template"
	"net/url"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/view"
)

// Modal is a create form that can be shown or hidden. Closing always
// discards whatever was typed.
type Modal struct {
	open   bool
	fields core.Form
}

func (m *Modal) Open() {
	m.open = true
}

func (m *Modal) Close() {
	m.open = false
	m.fields = core.Form{}
}

func (m *Modal) IsOpen() bool {
	return m.open
}

// Fields returns a copy of the current form values.
func (m *Modal) Fields() core.Form {
	return m.fields.Clone()
}

func (m *Modal) set(f core.Form) {
	m.fields = f.Clone()
}

// ResourceList is the list-page controller: it loads one collection into a
// region, and creates new items through a modal form, refetching the whole
// list after every successful write.
type ResourceList[T any] struct {
	mu     sync.Mutex
	name   string
	source Collection[T]
	render func([]T) template.HTML
	region *view.Region
	modal  Modal
	items  []T
	gate   loginGate
	logger *log.Logger

	// replaced runs under mu after Load swaps in fresh items.
	replaced func()
}

// ListOption configures a ResourceList.
type ListOption func(*listOptions)

type listOptions struct {
	gate   loginGate
	logger *log.Logger
}

// WithLogin redirects to loginURL whenever the collection answers 401.
func WithLogin(nav Navigator, loginURL string) ListOption {
	return func(o *listOptions) {
		o.gate = loginGate{nav: nav, loginURL: loginURL}
	}
}

func WithListLogger(l *log.Logger) ListOption {
	return func(o *listOptions) {
		o.logger = l
	}
}

// NewResourceList builds a controller for collection name. The region starts
// with the rendering of an empty list.
func NewResourceList[T any](name string, source Collection[T], render func([]T) template.HTML, opts ...ListOption) *ResourceList[T] {
	var o listOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &ResourceList[T]{
		name:   name,
		source: source,
		render: render,
		region: view.NewRegion(name+"-list", render(nil)),
		modal:  Modal{fields: core.Form{}},
		gate:   o.gate,
		logger: log.OrDefault(o.logger, log.ComponentUI).With(log.FieldCollection, name),
	}
}

func (l *ResourceList[T]) Name() string {
	return l.name
}

func (l *ResourceList[T]) Region() *view.Region {
	return l.region
}

// Items returns a copy of the last successfully loaded list.
func (l *ResourceList[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Load fetches the collection and replaces the list and its region
// wholesale. On any error the previous list and fragment stay as they were.
func (l *ResourceList[T]) Load(ctx context.Context) error {
	items, err := l.source.List(ctx)
	if err != nil {
		l.logger.WarnContext(ctx, "Collection load failed, keeping previous content",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		l.gate.redirectIfUnauthorized(err)
		return err
	}

	l.mu.Lock()
	l.items = items
	l.region.Replace(l.render(items))
	if l.replaced != nil {
		l.replaced()
	}
	l.mu.Unlock()

	l.logger.DebugContext(ctx, "Collection loaded", log.FieldOperation, log.OpLoad, log.FieldCount, len(items))
	return nil
}

func (l *ResourceList[T]) OpenCreateModal() {
	l.mu.Lock()
	l.modal.Open()
	l.mu.Unlock()
}

func (l *ResourceList[T]) CloseCreateModal() {
	l.mu.Lock()
	l.modal.Close()
	l.mu.Unlock()
}

func (l *ResourceList[T]) ModalOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.modal.IsOpen()
}

func (l *ResourceList[T]) ModalFields() core.Form {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.modal.Fields()
}

// SubmitCreate posts the form. Success closes the modal and reloads the list;
// failure is only logged and the modal keeps the typed values.
func (l *ResourceList[T]) SubmitCreate(ctx context.Context, form core.Form) bool {
	l.mu.Lock()
	l.modal.set(form)
	l.mu.Unlock()

	if err := l.source.Create(ctx, form); err != nil {
		l.logger.ErrorContext(ctx, "Create failed",
			log.FieldOperation, log.OpCreate, log.FieldError, err)
		l.gate.redirectIfUnauthorized(err)
		return false
	}

	l.CloseCreateModal()
	_ = l.Load(ctx)
	return true
}

// Arrive loads the page and opens the create modal when the URL asks for it
// with action=add.
func (l *ResourceList[T]) Arrive(ctx context.Context, query url.Values) {
	_ = l.Load(ctx)
	if query.Get("action") == "add" {
		l.OpenCreateModal()
	}
}

// KeyDown closes the create modal on Escape.
func (l *ResourceList[T]) KeyDown(key string) {
	if key == KeyEscape {
		l.CloseCreateModal()
	}
}

// KeyEscape is the key name that closes every open modal.
const KeyEscape = "Escape"

// Package inventory is the item list view model: it owns the fetched
// collection, mediates mutations and derives the filtered view.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/erazemk/zaloga/internal/client"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/session"
)

var (
	// ErrNotAuthenticated is returned by Load when no user is signed in.
	ErrNotAuthenticated = errors.New("not signed in")
	// ErrNoSelection is returned by Update when no item is being edited.
	ErrNoSelection = errors.New("no item selected")
	// ErrNotFound is returned for ids that are not in the collection.
	ErrNotFound = errors.New("item not in list")
	// ErrBusy is returned when a change to the same item is still in flight.
	ErrBusy = errors.New("item is already being updated")
	// ErrSessionChanged is returned by Refresh when the user signed out or
	// changed while the fetch was in flight.
	ErrSessionChanged = errors.New("session changed during load")
)

// ValidationError rejects input before it reaches the API.
type ValidationError struct {
	Errors model.FieldErrors
}

func (e *ValidationError) Error() string {
	for _, field := range []string{"name", "category", "status", "frequency", "price", "needBy"} {
		if msgs := e.Errors[field]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	for _, msgs := range e.Errors {
		if len(msgs) > 0 {
			return msgs[0]
		}
	}
	return "invalid item"
}

// API is the part of the API client the model uses.
type API interface {
	GetItems(ctx context.Context, filters client.ItemFilters) ([]model.Item, error)
	CreateItem(ctx context.Context, d model.Draft) (*model.Item, error)
	UpdateItem(ctx context.Context, id int64, p model.ItemPatch) (*model.Item, error)
	UpdateItemStatus(ctx context.Context, id int64, status string) (*model.Item, error)
	DeleteItem(ctx context.Context, id int64) (*model.Message, error)
}

// Session gates loading on a signed-in user.
type Session interface {
	Authenticated() bool
}

// watchedSession is a Session that reports changes. A Model built on one
// drops its collection whenever the user signs out or changes.
type watchedSession interface {
	Session
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Snapshot)) (unsubscribe func())
}

// Notifier shows short messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Confirmer asks the user to confirm deleting item.
type Confirmer interface {
	ConfirmDelete(item model.Item) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(item model.Item) bool

func (f ConfirmFunc) ConfirmDelete(item model.Item) bool { return f(item) }

// Dialog is the add/edit dialog state. Editing is nil when adding.
type Dialog struct {
	Open    bool
	Editing *model.Item
}

// Model is the item list view model. It is safe for concurrent use; API calls
// run without holding its lock.
type Model struct {
	api     API
	session Session
	notify  Notifier
	confirm Confirmer
	log     *slog.Logger

	unsubscribe func()

	mu       sync.Mutex
	loaded   bool
	owner    int64
	gen      uint64
	items    []model.Item
	filter   Filter
	visible  []model.Item
	dialog   Dialog
	inflight map[int64]bool
}

// Option configures a Model.
type Option func(*Model)

// WithNotifier sets where success and failure messages go.
func WithNotifier(n Notifier) Option {
	return func(m *Model) { m.notify = n }
}

// WithConfirmer sets the delete confirmation prompt. Without one every delete is declined.
func WithConfirmer(c Confirmer) Option {
	return func(m *Model) { m.confirm = c }
}

// WithLogger sets the model's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.log = l }
}

// New returns an empty model. When sess can be subscribed to, as a
// *session.Store can, the model clears itself on sign-out or a change of
// user; call Close to stop watching.
func New(api API, sess Session, opts ...Option) *Model {
	m := &Model{
		api:      api,
		session:  sess,
		confirm:  ConfirmFunc(func(model.Item) bool { return false }),
		log:      slog.Default(),
		filter:   DefaultFilter(),
		items:    []model.Item{},
		visible:  []model.Item{},
		inflight: map[int64]bool{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notify == nil {
		m.notify = logNotifier{m.log}
	}
	if ws, ok := sess.(watchedSession); ok {
		if snap := ws.Snapshot(); snap.Authenticated() {
			m.owner = snap.User.ID
		}
		m.unsubscribe = ws.Subscribe(m.sessionChanged)
	}
	return m
}

// Close stops following the session.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Model) sessionChanged(snap session.Snapshot) {
	if !snap.Authenticated() {
		m.Reset()
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != snap.User.ID {
		if m.owner != 0 {
			m.resetLocked()
		}
		m.owner = snap.User.ID
	}
}

// Reset drops the collection, the dialog and any in-flight bookkeeping. The
// next Load fetches again. Responses to requests sent before Reset are
// discarded.
func (m *Model) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	m.owner = 0
}

func (m *Model) resetLocked() {
	m.gen++
	m.loaded = false
	m.items = []model.Item{}
	m.visible = []model.Item{}
	m.dialog = Dialog{}
	m.inflight = map[int64]bool{}
}

type logNotifier struct{ log *slog.Logger }

func (n logNotifier) Success(msg string) { n.log.Info(msg) }
func (n logNotifier) Error(msg string)   { n.log.Error(msg) }

// Load fetches the collection once. Filtering happens locally, so the fetch
// is unfiltered. Later calls are no-ops; use Refresh to refetch.
func (m *Model) Load(ctx context.Context) error {
	m.mu.Lock()
	loaded := m.loaded
	m.mu.Unlock()
	if loaded {
		return nil
	}
	return m.Refresh(ctx)
}

// Refresh refetches the collection.
func (m *Model) Refresh(ctx context.Context) error {
	if !m.session.Authenticated() {
		return ErrNotAuthenticated
	}

	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()

	items, err := m.api.GetItems(ctx, client.ItemFilters{})
	if err != nil {
		m.notify.Error(client.Message(err))
		return err
	}
	if items == nil {
		items = []model.Item{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return ErrSessionChanged
	}
	m.loaded = true
	m.setItemsLocked(items)
	return nil
}

// Items returns a copy of the full collection. It is empty while no user
// is signed in.
func (m *Model) Items() []model.Item {
	if !m.session.Authenticated() {
		return []model.Item{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Item(nil), m.items...)
}

// Visible returns a copy of the filtered collection. It is empty while no
// user is signed in.
func (m *Model) Visible() []model.Item {
	if !m.session.Authenticated() {
		return []model.Item{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Item(nil), m.visible...)
}

// Filter returns the active filter.
func (m *Model) Filter() Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

// SetFilter replaces the filter and recomputes the visible items.
func (m *Model) SetFilter(f Filter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = f
	m.visible = Apply(m.items, m.filter)
}

// setItemsLocked swaps in a new collection and recomputes the visible items.
func (m *Model) setItemsLocked(items []model.Item) {
	m.items = items
	m.visible = Apply(m.items, m.filter)
}

// Dialog returns the dialog state.
func (m *Model) Dialog() Dialog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dialog
}

// OpenCreate opens the dialog for a new item.
func (m *Model) OpenCreate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialog = Dialog{Open: true}
}

// OpenEdit opens the dialog for the item with id.
func (m *Model) OpenEdit(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := indexOf(m.items, id)
	if i < 0 {
		return ErrNotFound
	}
	item := m.items[i]
	m.dialog = Dialog{Open: true, Editing: &item}
	return nil
}

// CloseDialog closes the dialog and clears the selection.
func (m *Model) CloseDialog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialog = Dialog{}
}

// Create validates d, sends it and puts the server's record first.
func (m *Model) Create(ctx context.Context, d model.Draft) (*model.Item, error) {
	d.Normalize()
	if errs := d.Validate(); !errs.Empty() {
		return nil, &ValidationError{Errors: errs}
	}

	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()

	item, err := m.api.CreateItem(ctx, d)
	if err != nil {
		m.notify.Error(client.Message(err))
		return nil, err
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return item, nil
	}
	items := make([]model.Item, 0, len(m.items)+1)
	items = append(items, *item)
	items = append(items, m.items...)
	m.setItemsLocked(items)
	m.dialog = Dialog{}
	m.mu.Unlock()

	m.notify.Success(fmt.Sprintf("Added %s", item.Name))
	return item, nil
}

// Update replaces the item being edited with p and swaps the server's record in.
func (m *Model) Update(ctx context.Context, p model.ItemPatch) (*model.Item, error) {
	m.mu.Lock()
	editing := m.dialog.Editing
	m.mu.Unlock()
	if editing == nil {
		return nil, ErrNoSelection
	}

	d := p.Replace()
	d.Normalize()
	if errs := d.Validate(); !errs.Empty() {
		return nil, &ValidationError{Errors: errs}
	}

	id := editing.ID
	gen, err := m.begin(id)
	if err != nil {
		return nil, err
	}
	defer m.end(id, gen)

	item, err := m.api.UpdateItem(ctx, id, p)
	if err != nil {
		m.notify.Error(client.Message(err))
		return nil, err
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return item, nil
	}
	m.replaceLocked(*item)
	m.dialog = Dialog{}
	m.mu.Unlock()

	m.notify.Success(fmt.Sprintf("Updated %s", item.Name))
	return item, nil
}

// SetStatus changes one item's stock status.
func (m *Model) SetStatus(ctx context.Context, id int64, status string) (*model.Item, error) {
	if !model.ValidStatus(status) {
		return nil, &ValidationError{Errors: model.FieldErrors{"status": {"invalid status"}}}
	}
	gen, err := m.begin(id)
	if err != nil {
		return nil, err
	}
	defer m.end(id, gen)

	item, err := m.api.UpdateItemStatus(ctx, id, status)
	if err != nil {
		m.notify.Error(client.Message(err))
		return nil, err
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return item, nil
	}
	m.replaceLocked(*item)
	m.mu.Unlock()

	m.notify.Success(fmt.Sprintf("%s is now %s", item.Name, strings.ReplaceAll(item.Status, "_", " ")))
	return item, nil
}

// Delete asks for confirmation and removes the item. It reports false
// without error when the user declines.
func (m *Model) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	i := indexOf(m.items, id)
	var item model.Item
	if i >= 0 {
		item = m.items[i]
	}
	m.mu.Unlock()
	if i < 0 {
		return false, ErrNotFound
	}

	if !m.confirm.ConfirmDelete(item) {
		return false, nil
	}

	gen, err := m.begin(id)
	if err != nil {
		return false, err
	}
	defer m.end(id, gen)

	if _, err := m.api.DeleteItem(ctx, id); err != nil {
		m.notify.Error(client.Message(err))
		return false, err
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return true, nil
	}
	items := make([]model.Item, 0, len(m.items))
	for _, it := range m.items {
		if it.ID != id {
			items = append(items, it)
		}
	}
	m.setItemsLocked(items)
	if m.dialog.Editing != nil && m.dialog.Editing.ID == id {
		m.dialog = Dialog{}
	}
	m.mu.Unlock()

	m.notify.Success(fmt.Sprintf("Deleted %s", item.Name))
	return true, nil
}

// replaceLocked swaps in item by id in a new collection.
func (m *Model) replaceLocked(item model.Item) {
	items := make([]model.Item, len(m.items))
	copy(items, m.items)
	if i := indexOf(items, item.ID); i >= 0 {
		items[i] = item
	}
	m.setItemsLocked(items)
}

// begin claims id for one mutation and returns the collection generation
// the result belongs to.
func (m *Model) begin(id int64) (uint64, error) {
	m.mu.Lock()
	busy := m.inflight[id]
	if !busy {
		m.inflight[id] = true
	}
	gen := m.gen
	m.mu.Unlock()

	if busy {
		m.notify.Error("This item is already being updated.")
		return 0, ErrBusy
	}
	return gen, nil
}

func (m *Model) end(id int64, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen == gen {
		delete(m.inflight, id)
	}
}

func indexOf(items []model.Item, id int64) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

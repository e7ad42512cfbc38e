package editor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rawjoystick/joymap/internal/logging"
	"github.com/rawjoystick/joymap/internal/mapping"
	"github.com/rawjoystick/joymap/internal/store"
)

// Store is the part of store.Client the editor talks to
type Store interface {
	Load(ctx context.Context) (*mapping.Document, error)
	Save(ctx context.Context, doc *mapping.Document) (string, error)
	Watch(ctx context.Context) (<-chan store.Event, error)
}

// Options configure an editor session
type Options struct {
	StoreURL string // Shown in the header
	Strict   bool   // Reject field text that would be saved as null
}

const (
	// Own saves come back as post notifications; ignore them for this long
	ownSaveWindow = 2 * time.Second

	watchRetryDelay = 5 * time.Second
)

// statusKind selects the style of the status line
type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusError
)

type status struct {
	kind statusKind
	text string
}

// Model is the bubbletea model of the mapping editor. It owns a
// mapping.Model and is its only mutator.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	store  Store
	opts   Options
	doc    *mapping.Model

	// UI state
	Width  int
	Height int

	// Form navigation
	form form
	row  int
	col  int

	// Field editing
	editing bool
	input   textinput.Model
	pending map[fieldKey]string // Field text not yet applied to the model

	// Requests
	loading   bool
	saving    bool
	lastSaved time.Time
	spinner   spinner.Model

	status         status
	changedOnStore string // Source of the last external change, "" when none

	help help.Model
	keys keyMap
}

// New creates an editor for st. Nothing is fetched until the program runs
// Init.
func New(ctx context.Context, st Store, opts Options) Model {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.CharLimit = 32
	input.Width = 24
	input.Prompt = ""

	return Model{
		ctx:     ctx,
		cancel:  cancel,
		store:   st,
		opts:    opts,
		doc:     mapping.NewModel(),
		input:   input,
		pending: make(map[fieldKey]string),
		loading: true,
		spinner: s,
		status:  status{kind: statusInfo, text: "Loading mapping..."},
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Mapping returns the model being edited
func (m Model) Mapping() *mapping.Model {
	return m.doc
}

// Init fetches the mapping and subscribes to store notifications
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadCmd(m.ctx, m.store),
		watchCmd(m.ctx, m.store),
	)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		return m.handleLoaded(msg), nil

	case savedMsg:
		return m.handleSaved(msg), nil

	case watchStartedMsg:
		logging.Debug("Subscribed to store notifications", zap.String("store", m.opts.StoreURL))
		return m, waitForEvent(msg.events)

	case storeChangedMsg:
		if msg.event.Source == store.SourcePost && (m.saving || time.Since(m.lastSaved) < ownSaveWindow) {
			return m, waitForEvent(msg.events)
		}
		logging.Info("Mapping changed on store", zap.String("source", msg.event.Source))
		m.changedOnStore = msg.event.Source
		if m.changedOnStore == "" {
			m.changedOnStore = "unknown"
		}
		return m, waitForEvent(msg.events)

	case watchClosedMsg:
		if msg.err != nil {
			logging.Debug("Store notifications unavailable", zap.Error(msg.err))
		}
		if m.ctx.Err() != nil {
			return m, nil
		}
		return m, tea.Tick(watchRetryDelay, func(time.Time) tea.Msg { return watchRetryMsg{} })

	case watchRetryMsg:
		return m, watchCmd(m.ctx, m.store)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateNormal(msg)
	}

	if m.editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) busy() bool {
	return m.loading || m.saving
}

func (m Model) handleLoaded(msg loadedMsg) Model {
	m.loading = false
	fallback := m.doc.LoadFrom(msg.doc, msg.err)
	m.pending = make(map[fieldKey]string)
	m.changedOnStore = ""
	m.rebuildForm()

	switch {
	case fallback && store.IsParseError(msg.err):
		logging.Warn("Store sent an unreadable mapping, showing an empty document", zap.Error(msg.err))
		m.status = status{statusError, "Store sent a mapping that could not be read"}
	case fallback && msg.err != nil:
		logging.Warn("Failed to load mapping, showing an empty document", zap.Error(msg.err))
		m.status = status{statusError, "Could not load mapping: " + store.GetShortErrorMessage(msg.err)}
	case fallback:
		m.status = status{statusError, "Store returned no mapping"}
	default:
		m.status = status{statusInfo, fmt.Sprintf("Loaded %d device(s)", m.doc.DeviceCount())}
		if warnings := mapping.CheckDocument(m.doc.Document()); len(warnings) > 0 {
			logging.Warn("Loaded mapping has values that save as null", zap.Int("count", len(warnings)))
		}
	}
	return m
}

func (m Model) handleSaved(msg savedMsg) Model {
	m.saving = false
	m.lastSaved = time.Now()

	if msg.err != nil {
		logging.Warn("Failed to save mapping", zap.Error(msg.err))
		text := strings.TrimSpace(msg.text)
		if text == "" {
			text = store.GetShortErrorMessage(msg.err)
		}
		switch {
		case store.IsHTTPError(msg.err):
			m.status = status{statusError, "Store replied: " + text}
		case store.IsNetworkError(msg.err):
			m.status = status{statusError, "Store unreachable, mapping not saved: " + text}
		default:
			m.status = status{statusError, "Save failed: " + text}
		}
		return m
	}

	logging.Info("Mapping saved", zap.String("response", msg.text))
	m.changedOnStore = ""
	m.status = status{statusSuccess, msg.text}
	return m
}

// updateNormal handles keys when no field is being edited
func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.NextDevice):
		m.selectDevice(m.doc.Selected() + 1)

	case key.Matches(msg, m.keys.PrevDevice):
		m.selectDevice(m.doc.Selected() - 1)

	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
			m.clampCol()
		}

	case key.Matches(msg, m.keys.Down):
		if m.row < len(m.form.rows())-1 {
			m.row++
			m.clampCol()
		}

	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
		}

	case key.Matches(msg, m.keys.Right):
		if cells := m.rowCells(); m.col < len(cells)-1 {
			m.col++
		}

	case key.Matches(msg, m.keys.Toggle):
		if k, ok := m.focused(); ok && k.field == string(mapping.AxisInvert) {
			m.toggle(k)
		}

	case key.Matches(msg, m.keys.Edit):
		return m.startEditing()

	case key.Matches(msg, m.keys.Revert):
		if k, ok := m.focused(); ok {
			delete(m.pending, k)
		}

	case key.Matches(msg, m.keys.Save):
		return m.save()

	case key.Matches(msg, m.keys.Reload):
		return m.reload()
	}

	return m, nil
}

// updateEditing handles keys while the field input is open
func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit

	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil

	case "enter":
		k, ok := m.focused()
		if !ok {
			m.editing = false
			m.input.Blur()
			return m, nil
		}
		value := m.input.Value()
		if m.opts.Strict {
			if err := mapping.ValidateFieldValue(k.field, value); err != nil {
				m.status = status{statusError, err.Error()}
				return m, nil
			}
		}
		m.setPending(k, value)
		m.editing = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) startEditing() (tea.Model, tea.Cmd) {
	k, ok := m.focused()
	if !ok {
		return m, nil
	}
	if k.field == string(mapping.AxisInvert) {
		m.toggle(k)
		return m, nil
	}
	m.editing = true
	m.input.SetValue(m.fieldText(k))
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m *Model) toggle(k fieldKey) {
	if m.fieldText(k) == "true" {
		m.setPending(k, "false")
	} else {
		m.setPending(k, "true")
	}
}

// setPending records text for k, or forgets it when it equals the stored value
func (m *Model) setPending(k fieldKey, value string) {
	if stored, ok := storedText(m.doc.Document(), k); ok && stored == value {
		delete(m.pending, k)
		return
	}
	m.pending[k] = value
}

// save applies pending field text to the model and posts the serialized
// document
func (m Model) save() (tea.Model, tea.Cmd) {
	if m.busy() {
		m.status = status{statusInfo, "Busy, wait for the current request to finish"}
		return m, nil
	}

	if err := m.doc.Apply(editsFrom(m.pending)); err != nil {
		logging.Warn("Some edits were not applied", zap.Error(err))
	}
	m.pending = make(map[fieldKey]string)

	m.saving = true
	m.status = status{statusInfo, "Saving mapping..."}
	return m, tea.Batch(m.spinner.Tick, saveCmd(m.ctx, m.store, m.doc.Serialize()))
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	if m.busy() {
		m.status = status{statusInfo, "Busy, wait for the current request to finish"}
		return m, nil
	}
	if n := len(m.pending); n > 0 {
		logging.Info("Discarding unsaved edits on reload", zap.Int("count", n))
	}
	m.loading = true
	m.status = status{statusInfo, "Loading mapping..."}
	return m, tea.Batch(m.spinner.Tick, loadCmd(m.ctx, m.store))
}

func (m *Model) selectDevice(index int) {
	n := m.doc.DeviceCount()
	if n == 0 {
		return
	}
	index = ((index % n) + n) % n
	m.doc.SelectDevice(index)
	m.rebuildForm()
}

func (m *Model) rebuildForm() {
	m.row, m.col = 0, 0
	dev, ok := m.doc.SelectedDevice()
	if !ok {
		m.form = form{}
		return
	}
	m.form = buildForm(m.doc.Selected(), dev)
}

func (m Model) rowCells() []fieldKey {
	rows := m.form.rows()
	if m.row < 0 || m.row >= len(rows) {
		return nil
	}
	return rows[m.row].cells
}

func (m *Model) clampCol() {
	if cells := m.rowCells(); m.col >= len(cells) {
		m.col = len(cells) - 1
	}
	if m.col < 0 {
		m.col = 0
	}
}

// focused returns the field under the cursor
func (m Model) focused() (fieldKey, bool) {
	cells := m.rowCells()
	if m.col < 0 || m.col >= len(cells) {
		return fieldKey{}, false
	}
	return cells[m.col], true
}

// fieldText is the text a field shows: pending text if edited, otherwise the
// model value
func (m Model) fieldText(k fieldKey) string {
	if v, ok := m.pending[k]; ok {
		return v
	}
	text, _ := storedText(m.doc.Document(), k)
	return text
}

// Dirty reports whether there are field edits not yet saved
func (m Model) Dirty() bool {
	return len(m.pending) > 0
}

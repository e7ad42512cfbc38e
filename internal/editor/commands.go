package editor

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rawjoystick/joymap/internal/mapping"
	"github.com/rawjoystick/joymap/internal/store"
)

// Message types for async operations
type loadedMsg struct {
	doc *mapping.Document
	err error
}

type savedMsg struct {
	text string
	err  error
}

type watchStartedMsg struct {
	events <-chan store.Event
}

type storeChangedMsg struct {
	event  store.Event
	events <-chan store.Event
}

type watchClosedMsg struct {
	err error
}

type watchRetryMsg struct{}

func loadCmd(ctx context.Context, st Store) tea.Cmd {
	return func() tea.Msg {
		doc, err := st.Load(ctx)
		return loadedMsg{doc: doc, err: err}
	}
}

func saveCmd(ctx context.Context, st Store, doc *mapping.Document) tea.Cmd {
	return func() tea.Msg {
		text, err := st.Save(ctx, doc)
		return savedMsg{text: text, err: err}
	}
}

func watchCmd(ctx context.Context, st Store) tea.Cmd {
	return func() tea.Msg {
		events, err := st.Watch(ctx)
		if err != nil {
			return watchClosedMsg{err: err}
		}
		return watchStartedMsg{events: events}
	}
}

// waitForEvent delivers the next store notification
func waitForEvent(events <-chan store.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return watchClosedMsg{}
		}
		return storeChangedMsg{event: ev, events: events}
	}
}

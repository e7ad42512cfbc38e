// Package editor is the terminal mapping editor.
//
// It is a bubbletea program over a mapping.Model. On start it loads the
// mapping from a Store (an empty document when the load fails) and shows one
// tab per device, labelled with mapping.TabLabels. The selected device's axes
// and buttons are laid out as a grid of fields.
//
// Field text is kept as pending edits until the operator saves; saving turns
// them into mapping.Edit commands, applies them to the model and posts
// Model.Serialize to the store. The store's reply is shown verbatim in the
// status line. Loads and saves run as tea.Cmds and never overlap.
//
// When the store pushes a change notification the editor shows a banner and
// the operator can reload.
//
// Usage:
//
//	client := store.NewClientWithURL(url)
//	m := editor.New(ctx, client, editor.Options{StoreURL: url})
//	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
package editor

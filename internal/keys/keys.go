package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding
	Rerun  key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Selection pickers
	Accounts key.Binding
	Folders  key.Binding

	// Sync
	Sync key.Binding

	// Per-message actions
	Interested key.Binding
	Suggest    key.Binding

	// Forms
	Agenda     key.Binding
	NewAccount key.Binding
	Webhook    key.Binding

	// Journal
	Activity key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "choose"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Rerun: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "re-run search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Accounts: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "accounts"),
		),
		Folders: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "folders"),
		),
		Sync: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sync"),
		),
		Interested: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "mark interested"),
		),
		Suggest: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "suggest reply"),
		),
		Agenda: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "add agenda"),
		),
		NewAccount: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new account"),
		),
		Webhook: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "webhook url"),
		),
		Activity: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "activity"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Rerun, k.Command, k.Help},
		{k.Accounts, k.Folders, k.Sync, k.Activity},
		{k.Interested, k.Suggest, k.Agenda, k.NewAccount, k.Webhook},
	}
}

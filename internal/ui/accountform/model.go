package accountform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/theme"
)

// SubmitMsg is dispatched when the user completes the form.
type SubmitMsg struct {
	Draft model.AccountDraft
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	provider    string
	host        string
	port        string
	username    string
	password    string
	useSSL      bool
	description string
}

// Model is the Bubble Tea model for the new-account form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new account form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form from a draft, so a draft the backend
// rejected can be corrected rather than retyped.
func (m *Model) Start(d model.AccountDraft) tea.Cmd {
	m.fb.provider = d.Provider
	m.fb.host = d.Host
	m.fb.port = strconv.Itoa(d.Port)
	m.fb.username = d.Username
	m.fb.password = d.Password
	m.fb.useSSL = d.UseSSL
	m.fb.description = d.Description
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the account form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		draft := m.fb.draft()
		m.form = nil
		return m, func() tea.Msg { return SubmitMsg{Draft: draft} }
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the account form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	content := theme.TitleStyle.Render("New Account") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Provider").
				Options(
					huh.NewOption("Custom IMAP", model.ProviderCustom),
					huh.NewOption("Gmail", model.ProviderGmail),
					huh.NewOption("Outlook", model.ProviderOutlook),
				).
				Value(&m.fb.provider),
			huh.NewInput().
				Title("IMAP Host").
				Placeholder("imap.example.com (blank uses the provider default)").
				Value(&m.fb.host),
			huh.NewInput().
				Title("Port").
				Value(&m.fb.port).
				Validate(validatePort),
			huh.NewConfirm().
				Title("SSL").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fb.useSSL),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&m.fb.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password),
			huh.NewInput().
				Title("Description").
				Placeholder("Optional label").
				Value(&m.fb.description),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// draft converts the bound values into a draft. The port has already
// been validated; an unparsable value falls back to the default.
func (fb *formBindings) draft() model.AccountDraft {
	port, err := strconv.Atoi(strings.TrimSpace(fb.port))
	if err != nil {
		port = model.DefaultIMAPPort
	}

	host := strings.TrimSpace(fb.host)
	if host == "" {
		host = model.ProviderHost(fb.provider)
	}

	return model.AccountDraft{
		Provider:    fb.provider,
		Host:        host,
		Port:        port,
		Username:    strings.TrimSpace(fb.username),
		Password:    fb.password,
		UseSSL:      fb.useSSL,
		Description: strings.TrimSpace(fb.description),
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePort(s string) error {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

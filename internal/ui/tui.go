package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"kbase/internal/client"
	"kbase/internal/model"
)

const apiKeysURL = "https://platform.openai.com/account/api-keys"

// =============================================================================
// MESSAGES
// =============================================================================

type filesReadMsg struct {
	files   []client.File
	skipped map[string]string
}

type questionDoneMsg struct {
	seq    uint64
	answer *model.Answer
	err    error
}

type uploadDoneMsg struct {
	seq    uint64
	result *model.UploadResult
	err    error
}

// =============================================================================
// KEYS & STYLES
// =============================================================================

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Toggle key.Binding
	Up     key.Binding
	Down   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Submit, k.Toggle, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Submit}, {k.Up, k.Down, k.Toggle, k.Quit}}
}

var keys = keyMap{
	Next:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	Prev:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Toggle: key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "expand context")),
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "previous context")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "next context")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
}

var (
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#C0392B")).Padding(0, 1)
	dropzoneStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	loadingStyle  = dropzoneStyle.BorderForeground(lipgloss.Color("#888888")).Foreground(lipgloss.Color("#888888"))
	focusedBorder = lipgloss.Color("#7D56F4")
	headerStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(focusedBorder)
	boldStyle     = lipgloss.NewStyle().Bold(true)
	linkStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#27AE60"))
	failureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0392B"))
)

// =============================================================================
// MODEL
// =============================================================================

// Model renders a Page in the terminal.
type Model struct {
	ctx  context.Context
	page *Page

	focus    Focus
	selected int // context snippet under the cursor

	dropInput       textinput.Model
	questionInput   textinput.Model
	credentialInput textinput.Model

	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model

	notice string // local file problems, shown below the dropzone
	width  int
	ready  bool
}

// NewModel creates the terminal renderer. ctx bounds every request it sends.
func NewModel(ctx context.Context, page *Page) Model {
	drop := textinput.New()
	drop.Prompt = "+ "
	drop.Placeholder = "drop or paste file paths, then press enter"

	question := textinput.New()
	question.Prompt = "? "
	question.Placeholder = "Enter your question here..."
	question.CharLimit = 4000

	credential := textinput.New()
	credential.Prompt = "🔑 "
	credential.Placeholder = "Enter your OpenAI API key here..."
	credential.EchoMode = textinput.EchoPassword

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:             ctx,
		page:            page,
		dropInput:       drop,
		questionInput:   question,
		credentialInput: credential,
		spinner:         sp,
		help:            help.New(),
	}
	m.setFocus(FocusQuestion)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-14, 5))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(msg.Height-14, 5)
		}
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case filesReadMsg:
		m.notice = skippedSummary(msg.skipped)
		pending, ok := m.page.BeginUpload(msg.files)
		if !ok {
			return m, nil
		}
		m.notice = strings.TrimSpace(fmt.Sprintf("Sending %d file(s), %s. %s",
			len(pending.Files), humanize.Bytes(totalSize(pending.Files)), m.notice))
		m.refreshViewport()
		return m, m.uploadCmd(pending)

	case uploadDoneMsg:
		m.page.FinishUpload(msg.seq, msg.result, msg.err)
		m.notice = ""
		m.refreshViewport()
		return m, nil

	case questionDoneMsg:
		if m.page.FinishQuestion(msg.seq, msg.answer, msg.err) {
			m.selected = 0
			m.viewport.GotoTop()
		}
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Next):
		m.setFocus(m.nextFocus(1))
		return m, nil
	case key.Matches(msg, keys.Prev):
		m.setFocus(m.nextFocus(-1))
		return m, nil
	}

	switch m.focus {
	case FocusQuestion:
		if pending, ok := m.page.HandleKey(msg.String(), m.focus); ok {
			m.refreshViewport()
			return m, m.questionCmd(pending)
		}
	case FocusDropzone:
		if key.Matches(msg, keys.Submit) {
			if m.page.UploadPhase() == PhaseLoading {
				return m, nil
			}
			paths := splitPaths(m.dropInput.Value())
			m.dropInput.Reset()
			if len(paths) == 0 {
				return m, nil
			}
			return m, readFilesCmd(paths)
		}
	case FocusCredential:
		if key.Matches(msg, keys.Submit) {
			if err := m.page.ApplyCredential(m.credentialInput.Value()); err != nil {
				m.notice = "Could not store the API key: " + err.Error()
				return m, nil
			}
			m.credentialInput.Reset()
			m.setFocus(FocusQuestion)
			return m, nil
		}
	case FocusContext:
		return m.handleContextKey(msg)
	}

	return m.updateInputs(msg)
}

func (m Model) handleContextKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	answer := m.page.Answer()
	if answer == nil || len(answer.Context) == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Up):
		m.selected = max(m.selected-1, 0)
	case key.Matches(msg, keys.Down):
		m.selected = min(m.selected+1, len(answer.Context)-1)
	case key.Matches(msg, keys.Toggle):
		m.page.ToggleSnippet(m.selected)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.refreshViewport()
	return m, nil
}

// updateInputs forwards a message to the focused input. Inputs of a loading flow
// are disabled and ignore typing.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case FocusDropzone:
		if m.page.UploadPhase() != PhaseLoading {
			m.dropInput, cmd = m.dropInput.Update(msg)
		}
	case FocusQuestion:
		if m.page.QuestionPhase() != PhaseLoading {
			m.questionInput, cmd = m.questionInput.Update(msg)
			m.page.SetQuestion(m.questionInput.Value())
		}
	case FocusCredential:
		m.credentialInput, cmd = m.credentialInput.Update(msg)
	}
	return m, cmd
}

// nextFocus walks the focus ring, skipping controls that are not shown.
func (m Model) nextFocus(step int) Focus {
	ring := []Focus{FocusDropzone, FocusQuestion}
	if m.page.CredentialPanelVisible() {
		ring = append(ring, FocusCredential)
	}
	if a := m.page.Answer(); a != nil && len(a.Context) > 0 {
		ring = append(ring, FocusContext)
	}

	idx := 0
	for i, f := range ring {
		if f == m.focus {
			idx = i
		}
	}
	return ring[(idx+step+len(ring))%len(ring)]
}

func (m *Model) setFocus(f Focus) {
	m.focus = f
	m.dropInput.Blur()
	m.questionInput.Blur()
	m.credentialInput.Blur()
	switch f {
	case FocusDropzone:
		m.dropInput.Focus()
	case FocusQuestion:
		m.questionInput.Focus()
	case FocusCredential:
		m.credentialInput.Focus()
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func readFilesCmd(paths []string) tea.Cmd {
	return func() tea.Msg {
		files, skipped := readFiles(paths)
		return filesReadMsg{files: files, skipped: skipped}
	}
}

func (m Model) questionCmd(p PendingQuestion) tea.Cmd {
	api, ctx := m.page.api, m.ctx
	return func() tea.Msg {
		answer, err := api.SubmitQuestion(ctx, p.Text, p.Model)
		return questionDoneMsg{seq: p.Seq, answer: answer, err: err}
	}
}

func (m Model) uploadCmd(p PendingUpload) tea.Cmd {
	api, ctx := m.page.api, m.ctx
	return func() tea.Msg {
		result, err := api.UploadFiles(ctx, p.Files)
		return uploadDoneMsg{seq: p.Seq, result: result, err: err}
	}
}

// =============================================================================
// VIEW
// =============================================================================

func (m Model) View() string {
	var b strings.Builder

	if msg := m.page.ErrorMessage(); msg != "" {
		b.WriteString(errorStyle.Render(msg) + "\n\n")
	}

	b.WriteString(m.viewDropzone() + "\n")
	if m.notice != "" {
		b.WriteString(mutedStyle.Render(m.notice) + "\n")
	}
	b.WriteString("\n" + m.viewQuestion() + "\n")

	if m.page.CredentialPanelVisible() {
		b.WriteString("\n" + m.credentialInput.View() + "\n")
		b.WriteString(fmt.Sprintf("To get an API key, visit the %s (%s)\n",
			linkStyle.Render("OpenAI API Keys Page"), apiKeysURL))
	}

	if m.ready {
		b.WriteString("\n" + m.viewport.View() + "\n")
	} else {
		b.WriteString("\n" + m.body() + "\n")
	}

	b.WriteString("\n" + m.help.View(keys))
	return b.String()
}

func (m Model) viewDropzone() string {
	style := dropzoneStyle
	if m.page.UploadPhase() == PhaseLoading {
		return loadingStyle.Render(m.page.DropzoneCaption())
	}
	if m.focus == FocusDropzone {
		style = style.BorderForeground(focusedBorder)
	}
	return style.Render(m.page.DropzoneCaption() + "\n" + m.dropInput.View())
}

func (m Model) viewQuestion() string {
	line := m.questionInput.View()
	switch {
	case m.page.QuestionPhase() == PhaseLoading:
		line += "  " + m.spinner.View()
	case m.page.CanSubmit():
		line += "  " + boldStyle.Render("[Submit]")
	default:
		line += "  " + mutedStyle.Render("[Submit]")
	}
	return line
}

// body renders everything below the inputs: tokens, answer, context and file lists.
func (m Model) body() string {
	var b strings.Builder

	if a := m.page.Answer(); a != nil {
		if a.Tokens != nil && *a.Tokens > 0 {
			b.WriteString("TOTAL TOKENS USED: " + boldStyle.Render(fmt.Sprint(*a.Tokens)) + "\n\n")
		}
		b.WriteString(a.Answer + "\n")
		for i, s := range a.Context {
			header := fmt.Sprintf("Context %d %s %s", i+1, s.Title, s.Arrow())
			if m.focus == FocusContext && i == m.selected {
				header = selectedStyle.Render("> " + header)
			} else {
				header = headerStyle.Render("  " + header)
			}
			b.WriteString("\n" + header + "\n")
			b.WriteString(m.snippetStyle().Render(s.Body()) + "\n")
		}
	}

	outcome := m.page.Outcome()
	if len(outcome.Successful) > 0 {
		b.WriteString("\n" + headerStyle.Render("Uploaded Files:") + "\n")
		for _, name := range outcome.Successful {
			b.WriteString(successStyle.Render("  • "+name) + "\n")
		}
	}
	if names := outcome.FailedNames(); len(names) > 0 {
		b.WriteString("\n" + headerStyle.Render("Failed Files:") + "\n")
		for _, name := range names {
			b.WriteString(failureStyle.Render("  • "+name) + "\n")
			b.WriteString("    Reason: " + outcome.Failed[name] + "\n")
		}
	}
	return b.String()
}

func (m Model) snippetStyle() lipgloss.Style {
	style := lipgloss.NewStyle().PaddingLeft(4)
	if m.width > 20 {
		style = style.Width(m.width - 2)
	}
	return style
}

func (m *Model) refreshViewport() {
	if m.ready {
		m.viewport.SetContent(m.body())
	}
}

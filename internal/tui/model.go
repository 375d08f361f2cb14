package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docsearch/internal/domain"
	"docsearch/internal/tokenize"
)

// SearchPort is the TUI-facing subset of the search service.
type SearchPort interface {
	Search(ctx context.Context, query string) (domain.ResultSet, error)
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service    SearchPort
	input      textinput.Model
	viewport   viewport.Model
	results    []domain.ResultItem
	suggestion string
	summary    string
	status     string
	cursor     int
	ready      bool
	lastQuery  string
}

// New creates a new TUI model instance. summary is shown under the header.
func New(service SearchPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter  (*boost !exclude ^require a~b near)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, input: ti, viewport: vp, summary: summary, status: "Index loaded. Type to search."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and summary, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if q := strings.TrimSpace(m.input.Value()); q != "" {
				m.search(q)
				return m, nil
			}
		case "tab":
			if m.suggestion != "" {
				m.input.SetValue(m.suggestion)
				m.input.CursorEnd()
				m.search(m.suggestion)
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) search(q string) {
	set, err := m.service.Search(context.Background(), q)
	m.cursor = 0
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
		m.suggestion = ""
	} else {
		m.results = set.Items
		m.suggestion = set.Suggestion
		m.lastQuery = q
		m.status = fmt.Sprintf("%d results for %q", len(set.Items), q)
		if set.Suggestion != "" {
			m.status += fmt.Sprintf("  Did you mean %q? (Tab)", set.Suggestion)
		}
	}
	m.viewport.SetContent(m.renderCurrentResult())
	m.viewport.GotoTop()
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("docsearch")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		if m.lastQuery != "" {
			return "No matching documents."
		}
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  %s  score=%.3f", m.cursor+1, len(m.results), titleStyle.Render(r.Title), r.Score)
	body := highlightTerms(r.Snippet, m.lastQuery)
	if body == "" {
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("(no excerpt)")
	}
	return title + "\n\n" + body
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe         = regexp.MustCompile(`\S+`)
)

// highlightTerms renders every word of text that normalizes to a query term
// in the highlight style.
func highlightTerms(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	terms := make(map[string]struct{})
	for _, t := range tokenize.Words().Split(query) {
		terms[t] = struct{}{}
	}
	if len(terms) == 0 {
		return text
	}
	words := tokenize.Words()
	return wordRe.ReplaceAllStringFunc(text, func(w string) string {
		norm := words.Split(w)
		if len(norm) != 1 {
			return w
		}
		if _, ok := terms[norm[0]]; ok {
			return highlightStyle.Render(w)
		}
		return w
	})
}

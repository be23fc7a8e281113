package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rani/internal/composer"
	"rani/internal/domain"
)

// ChatPort is the TUI-facing subset of the assistant service.
type ChatPort interface {
	Ask(ctx context.Context, sessionID string, question string) (string, error)
}

type answerMsg struct {
	answer string
	err    error
}

// Model is the Bubble Tea model of a single chat session.
type Model struct {
	ctx       context.Context
	service   ChatPort
	sessionID string
	title     string
	assistant string
	summary   string

	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	transcript []domain.Turn
	status     string
	thinking   bool
	ready      bool
}

// New creates a chat model bound to an existing session. assistant is the
// label shown for assistant turns.
func New(ctx context.Context, service ChatPort, sessionID, assistant, title, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:       ctx,
		service:   service,
		sessionID: sessionID,
		title:     title,
		assistant: assistant,
		summary:   summary,
		input:     ti,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
		status:    "Ready. Ctrl+C to quit.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, spinner and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.thinking {
				return m, nil
			}
			m.input.Reset()
			m.transcript = append(m.transcript, domain.Turn{Speaker: domain.SpeakerUser, Text: q})
			m.thinking = true
			m.status = m.assistant + " is thinking..."
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case answerMsg:
		m.thinking = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.transcript = append(m.transcript, domain.Turn{Speaker: domain.SpeakerAssistant, Text: msg.answer})
		if composer.IsDiagnostic(msg.answer) {
			m.status = "The generation service failed; try again."
		} else {
			m.status = "Ready. Ctrl+C to quit."
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.thinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	ctx, svc, id := m.ctx, m.service, m.sessionID
	return func() tea.Msg {
		answer, err := svc.Ask(ctx, id, question)
		return answerMsg{answer: answer, err: err}
	}
}

// View renders the header, transcript, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render(m.title)
	summary := summaryStyle.Render(m.summary)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())

	status := statusStyle.Render(m.status)
	if m.thinking {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "No messages yet."
	}

	wrap := lipgloss.NewStyle().Width(max(10, m.viewport.Width-4))
	blocks := make([]string, len(m.transcript))
	for i, turn := range m.transcript {
		if turn.Speaker == domain.SpeakerUser {
			blocks[i] = userStyle.Render("User") + "\n" + wrap.Render(turn.Text)
			continue
		}

		body := turn.Text
		if i > 0 && !composer.IsDiagnostic(body) {
			body = highlightBestSentence(body, m.transcript[i-1].Text)
		}
		blocks[i] = assistantStyle.Render(m.assistant) + "\n" + wrap.Render(body)
	}
	return strings.Join(blocks, "\n\n")
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	summaryStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe      = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe         = regexp.MustCompile(`[^.!?\n]+[.!?]*`)
)

// highlightBestSentence emphasises the sentence of text sharing the most
// words with query. Everything outside that sentence, line breaks included,
// is kept as is. Text without any overlap is returned unchanged.
func highlightBestSentence(text, query string) string {
	spans := sentenceRe.FindAllStringIndex(text, -1)
	qTokens := toTokenSet(query)
	if len(spans) < 2 || len(qTokens) == 0 {
		return text
	}

	bestIdx, bestScore := 0, 0
	for i, span := range spans {
		if score := tokenOverlapScore(qTokens, text[span[0]:span[1]]); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestScore == 0 {
		return text
	}

	sent := text[spans[bestIdx][0]:spans[bestIdx][1]]
	core := strings.TrimSpace(sent)
	from := spans[bestIdx][0] + strings.Index(sent, core)
	to := from + len(core)

	return text[:from] + highlightStyle.Render(core) + text[to:]
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}

// Summary formats corpus statistics for the header line.
func Summary(passages, indexed int, summary string) string {
	line := fmt.Sprintf("%d passages indexed", indexed)
	if indexed != passages {
		line = fmt.Sprintf("%d of %d passages indexed", indexed, passages)
	}
	if summary != "" {
		line += " · " + summary
	}
	return line
}

// Package tui provides a Bubble Tea terminal user interface for manga-downloader.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/manga-downloader/internal/config"
	"github.com/handiism/manga-downloader/internal/download"
	"github.com/handiism/manga-downloader/internal/manifest"
	"github.com/handiism/manga-downloader/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	chapterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// maxLogs is the number of progress messages kept on screen.
const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateLoading
	StateDownloading
	StateComplete
	StateError
)

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []download.ProgressEvent
	chapters  []string
	summary   model.Summary
	err       error

	// ctx is cancelled by esc and ctrl+c and replaced on reset.
	ctx    context.Context
	cancel context.CancelFunc

	manager *download.Manager
	jobs    []model.ChapterJob
	events  chan download.ProgressEvent

	completed int64
	total     int64

	a4              bool
	retryFailedOnly bool
	verbose         bool
}

// NewModel creates a new TUI model using settings.
func NewModel(settings *config.Settings) Model {
	ti := textinput.New()
	ti.Placeholder = "chapters.yaml"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:           StateInput,
		textInput:       ti,
		spinner:         sp,
		progress:        prog,
		settings:        settings,
		ctx:             ctx,
		cancel:          cancel,
		a4:              settings.PageSize == config.PageSizeA4,
		retryFailedOnly: settings.RetryFailedOnly,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

type (
	// LoadDoneMsg is sent when the manifest has been read.
	LoadDoneMsg struct {
		Jobs    []model.ChapterJob
		Manager *download.Manager
		Events  chan download.ProgressEvent
		Err     error
	}

	// DownloadDoneMsg is sent when the batch completes.
	DownloadDoneMsg struct {
		Outcomes []model.ChapterOutcome
		Err      error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateLoading {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateLoading
				return m, tea.Batch(m.loadManifest(), m.spinner.Tick)
			}

		case "tab":
			if m.state == StateInput {
				m.a4 = !m.a4
			}

		case "ctrl+r":
			if m.state == StateInput {
				m.retryFailedOnly = !m.retryFailedOnly
			}

		case "ctrl+o":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m = m.reset()
				return m, textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case LoadDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.jobs = msg.Jobs
			m.manager = msg.Manager
			m.events = msg.Events
			m.chapters = chapterNames(msg.Jobs)
			m.state = StateDownloading
			cmds = append(cmds, m.startDownload(), m.tickProgress())
		}

	case DownloadDoneMsg:
		m = m.drainEvents()
		if m.manager != nil {
			m.completed, m.total = m.manager.GetProgress()
		}
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.summary = model.Summarize(msg.Outcomes)
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateDownloading {
			m = m.drainEvents()
			m.completed, m.total = m.manager.GetProgress()

			var percent float64
			if m.total > 0 {
				percent = float64(m.completed) / float64(m.total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// reset prepares the model for another manifest.
func (m Model) reset() Model {
	m.state = StateInput
	m.logs = nil
	m.chapters = nil
	m.jobs = nil
	m.summary = model.Summary{}
	m.err = nil
	m.completed = 0
	m.total = 0
	m.manager = nil
	m.events = nil
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
	return m
}

// drainEvents moves queued progress events into the log.
func (m Model) drainEvents() Model {
	if m.events == nil {
		return m
	}
	for {
		select {
		case e := <-m.events:
			m = m.appendLog(e)
		default:
			return m
		}
	}
}

func (m Model) appendLog(e download.ProgressEvent) Model {
	if e.Level == download.LevelVerbose && !m.verbose {
		return m
	}
	m.logs = append(m.logs, e)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
	return m
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("📚 Manga Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download chapters and assemble them into PDFs"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateLoading:
		b.WriteString(m.viewLoading())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter manifest path:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	pageSize := "Letter"
	if m.a4 {
		pageSize = "A4"
	}
	retryCheck := "[ ]"
	if m.retryFailedOnly {
		retryCheck = "[×]"
	}
	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[×]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Page size: %s (tab)\n", pageSize))
	b.WriteString(fmt.Sprintf("  %s Retry failed chapters only (ctrl+r)\n", retryCheck))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+o)\n", verboseCheck))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output path: %s", m.settings.OutputPath)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewLoading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Reading manifest..."))
	b.WriteString("\n\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if len(m.chapters) > 0 {
		b.WriteString(successStyle.Render(fmt.Sprintf("%d chapter(s) queued:", len(m.chapters))))
		b.WriteString("\n")
		for _, c := range m.chapters {
			b.WriteString(chapterStyle.Render(fmt.Sprintf("  ▸ %s", c)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	var percent float64
	if m.total > 0 {
		percent = float64(m.completed) / float64(m.total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf("Steps: %d/%d", m.completed, m.total)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	headline := "✨ Download Complete!"
	if m.summary.Failed > 0 {
		headline = "⚠️  Download finished with failures"
	}

	box := boxStyle.Render(fmt.Sprintf(
		"%s\n\n"+
			"Chapters: %d\n"+
			"Saved: %d\n"+
			"Failed: %d\n"+
			"Output: %s",
		headline,
		m.summary.Total,
		m.summary.Succeeded,
		m.summary.Failed,
		m.settings.OutputPath,
	))
	b.WriteString(box)
	b.WriteString("\n")

	for _, o := range m.summary.Chapters {
		if !o.Success {
			b.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %s", o.ChapterID, o.Reason)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, e := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch e.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + e.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • tab: page size • ctrl+r: retry mode • ctrl+o: verbose • esc: quit"
	case StateLoading, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// loadManifest reads the manifest and creates the manager.
func (m *Model) loadManifest() tea.Cmd {
	path := strings.TrimSpace(m.textInput.Value())

	settings := *m.settings
	settings.RetryFailedOnly = m.retryFailedOnly
	if m.a4 {
		settings.PageSize = config.PageSizeA4
	} else {
		settings.PageSize = config.PageSizeLetter
	}

	return func() tea.Msg {
		jobs, err := manifest.Load(path)
		if err != nil {
			return LoadDoneMsg{Err: err}
		}
		if err := settings.Validate(); err != nil {
			return LoadDoneMsg{Err: err}
		}

		// The UI drains events on every tick; drop rather than block the batch
		events := make(chan download.ProgressEvent, 256)
		manager := download.NewManager(&settings, func(event download.ProgressEvent) {
			select {
			case events <- event:
			default:
			}
		})

		return LoadDoneMsg{Jobs: jobs, Manager: manager, Events: events}
	}
}

// startDownload runs the batch in background.
func (m *Model) startDownload() tea.Cmd {
	manager, jobs, ctx := m.manager, m.jobs, m.ctx
	return func() tea.Msg {
		if manager == nil {
			return DownloadDoneMsg{Err: fmt.Errorf("no manager")}
		}

		outcomes, err := manager.ProcessBatch(ctx, jobs)
		return DownloadDoneMsg{Outcomes: outcomes, Err: err}
	}
}

func chapterNames(jobs []model.ChapterJob) []string {
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = fmt.Sprintf("%s (%d pages)", j.Label(), len(j.ImageURLs))
	}
	return names
}

// Run starts the TUI application with settings.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

package tui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"transcript-logger/internal/ingest"
)

const maxRecentTurns = 20

// Config holds the static information displayed in the TUI header.
type Config struct {
	Version    string
	LokiURL    string
	Job        string
	ListenAddr string
}

// Model is the Bubble Tea model for the transcript-logger dashboard.
type Model struct {
	cfg         Config
	eventCh     <-chan ingest.IngestEvent
	ctx         context.Context
	errCount    *atomic.Int64
	pushed      int
	errors      int64
	lastTurn    time.Time
	recentTurns []ingest.IngestEvent
}

// NewModel creates a new TUI model.
func NewModel(cfg Config, eventCh <-chan ingest.IngestEvent, ctx context.Context, errCount *atomic.Int64) Model {
	return Model{
		cfg:      cfg,
		eventCh:  eventCh,
		ctx:      ctx,
		errCount: errCount,
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// --- Messages ---

type eventMsg ingest.IngestEvent
type tickMsg time.Time

// --- Bubble Tea interface ---

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.eventCh, m.ctx), tickEvery(time.Second))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case eventMsg:
		evt := ingest.IngestEvent(msg)
		m.pushed++
		m.lastTurn = time.Now()
		m.recentTurns = append([]ingest.IngestEvent{evt}, m.recentTurns...)
		if len(m.recentTurns) > maxRecentTurns {
			m.recentTurns = m.recentTurns[:maxRecentTurns]
		}
		return m, waitForEvent(m.eventCh, m.ctx)

	case tickMsg:
		m.errors = m.errCount.Load()
		return m, tickEvery(time.Second)
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	sep := sepStyle.Render(strings.Repeat("─", 50))

	// Header
	b.WriteString(sep + "\n")
	b.WriteString("  " + titleStyle.Render(fmt.Sprintf("transcript-logger %s", m.cfg.Version)) + "\n")
	b.WriteString(sep + "\n")

	// Config block
	b.WriteString("  " + labelStyle.Render("Loki:") + "       " + valueStyle.Render(fmt.Sprintf("%s (job: %s)", m.cfg.LokiURL, m.cfg.Job)) + "\n")
	b.WriteString("  " + labelStyle.Render("Listening:") + "  " + valueStyle.Render(m.cfg.ListenAddr) + "\n")
	b.WriteString("  " + labelStyle.Render("Endpoints:") + "  " + valueStyle.Render("POST /ingest  GET /health  GET /stats") + "\n")
	b.WriteString(sep + "\n")

	// Stats line
	errLabel := fmt.Sprintf("Errors: %d", m.errors)
	if m.errors > 0 {
		errLabel = errorStyle.Render(errLabel)
	} else {
		errLabel = valueStyle.Render(errLabel)
	}

	lastStr := "never"
	if !m.lastTurn.IsZero() {
		ago := time.Since(m.lastTurn).Truncate(time.Second)
		lastStr = fmt.Sprintf("%s ago", ago)
	}

	b.WriteString(fmt.Sprintf("  %s     %s     %s\n",
		valueStyle.Render(fmt.Sprintf("Pushed: %d", m.pushed)),
		errLabel,
		valueStyle.Render(fmt.Sprintf("Last: %s", lastStr)),
	))
	b.WriteString(sep + "\n")

	// Activity log
	b.WriteString("  " + titleStyle.Render("Recent Turns") + "\n")
	if len(m.recentTurns) == 0 {
		b.WriteString("  " + dimStyle.Render("Waiting for turns...") + "\n")
	} else {
		for _, evt := range m.recentTurns {
			msgType := messageStyle(evt.MessageType).Render(fmt.Sprintf("%-10s", evt.MessageType))

			sessionCol := dimStyle.Render(fmt.Sprintf("%-14s", shortSession(evt.SessionID)))

			turnCol := dimStyle.Render(fmt.Sprintf("turn %-4d", evt.TurnNumber))

			sizeCol := dimStyle.Render(fmt.Sprintf("%8s", formatBytes(evt.BodySize)))

			timeCol := dimStyle.Render(evt.Timestamp.Local().Format("15:04:05"))

			b.WriteString(fmt.Sprintf("  %s %s %s %s   %s\n", msgType, sessionCol, turnCol, sizeCol, timeCol))
		}
	}
	b.WriteString(sep + "\n")

	// Footer
	b.WriteString("  " + footerStyle.Render("q: quit") + "\n")

	return b.String()
}

// --- Commands ---

func waitForEvent(ch <-chan ingest.IngestEvent, ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case evt, ok := <-ch:
			if !ok {
				return tea.Quit()
			}
			return eventMsg(evt)
		case <-ctx.Done():
			return tea.Quit()
		}
	}
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func shortSession(id string) string {
	if len(id) > 12 {
		return id[:12] + "…"
	}
	return id
}

func formatBytes(b int) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

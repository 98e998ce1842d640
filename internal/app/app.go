// Package app is the terminal progress view shown while a batch runs.
package app

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/talesin/civics100-sub000/internal/pipeline"
	"github.com/talesin/civics100-sub000/internal/strategy"
	"github.com/talesin/civics100-sub000/internal/ui/components"
	"github.com/talesin/civics100-sub000/internal/ui/layout"
	"github.com/talesin/civics100-sub000/internal/ui/report"
	"github.com/talesin/civics100-sub000/internal/ui/theme"
)

// recentLimit bounds the finished-question log shown under the bar.
const recentLimit = 6

// ResultMsg reports one finished question.
type ResultMsg struct {
	Done   int
	Total  int
	Result pipeline.Result
}

// FinishedMsg reports the end of the batch.
type FinishedMsg struct {
	Batch pipeline.Batch
}

// ProgressModel is the Bubble Tea model for a running batch.
type ProgressModel struct {
	spinner spinner.Model
	cancel  func()

	total    int
	done     int
	recent   []pipeline.Result
	counts   map[strategy.Strategy]int
	batch    *pipeline.Batch
	quitting bool
	width    int
}

// NewProgressModel creates the model. cancel is called when the user
// interrupts the run.
func NewProgressModel(total int, cancel func()) ProgressModel {
	return ProgressModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Accent))),
		cancel:  cancel,
		total:   total,
		counts:  make(map[strategy.Strategy]int),
		width:   layout.DefaultWidth,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" && !m.quitting {
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case ResultMsg:
		m.done = msg.Done
		if msg.Total > 0 {
			m.total = msg.Total
		}
		m.counts[msg.Result.Strategy]++
		m.recent = append(m.recent, msg.Result)
		if len(m.recent) > recentLimit {
			m.recent = m.recent[len(m.recent)-recentLimit:]
		}
		return m, nil

	case FinishedMsg:
		b := msg.Batch
		m.batch = &b
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m ProgressModel) View() tea.View {
	v := tea.NewView("")
	v.SetContent(m.render())
	return v
}

func (m ProgressModel) render() string {
	if m.batch != nil {
		return report.RenderSummary(*m.batch)
	}

	var sb strings.Builder
	status := "Generating distractors"
	if m.quitting {
		status = "Cancelling, waiting for in-flight questions"
	}
	sb.WriteString(m.spinner.View() + " " + theme.Title.Render(status) + "\n\n")
	sb.WriteString(components.ProgressBar{Done: m.done, Total: m.total, Width: m.width - 4}.View())
	sb.WriteString("\n\n")

	for _, r := range m.recent {
		sb.WriteString(recentLine(r))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(layout.RenderFooter([]layout.KeyHint{{Key: "Ctrl+C", Description: "Cancel"}}))
	return sb.String()
}

// Done returns the number of finished questions seen so far.
func (m ProgressModel) Done() int { return m.done }

// Cancelled reports whether the user interrupted the run.
func (m ProgressModel) Cancelled() bool { return m.quitting }

func recentLine(r pipeline.Result) string {
	style := theme.Good
	switch r.Strategy {
	case strategy.Error:
		style = theme.Bad
	case strategy.Cancelled, strategy.None:
		style = theme.Warn
	}
	return fmt.Sprintf("%s %s  %s",
		style.Render("•"),
		theme.Body.Render(r.QuestionID),
		theme.Label.Render(fmt.Sprintf("%s, %d distractors", r.Strategy, len(r.Distractors))))
}

// Run starts the Bubble Tea program and returns it so the caller can feed
// it ResultMsg and FinishedMsg values from the batch.
func Run(model ProgressModel, opts ...tea.ProgramOption) (*tea.Program, <-chan error) {
	p := tea.NewProgram(model, opts...)
	errc := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errc <- err
	}()
	return p, errc
}

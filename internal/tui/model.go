// Package tui is a terminal front end for a Trainer: pick a year, term and
// subject, then drill through the questions.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/denkain-drill/backend/internal/domain/catalog"
	"github.com/denkain-drill/backend/internal/domain/questionbank"
	"github.com/denkain-drill/backend/internal/service"
)

type screen int

const (
	screenYear screen = iota
	screenTerm
	screenSubject
	screenQuiz
)

type catalogLoadedMsg struct {
	catalog *catalog.Catalog
	err     error
}

type datasetLoadedMsg struct {
	ref catalog.DatasetRef
	err error
}

// Model is the bubbletea model. It renders from Trainer snapshots and keeps
// only navigation state of its own.
type Model struct {
	ctx     context.Context
	trainer *service.Trainer
	logger  *slog.Logger

	catalog    *catalog.Catalog
	catalogErr error
	screen     screen
	cursor     int
	yearIdx    int
	termIdx    int

	loading bool
	warning string
	report  *service.DatasetReport

	keys    keyMap
	help    help.Model
	spinner spinner.Model
}

func New(ctx context.Context, trainer *service.Trainer, logger *slog.Logger) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:     ctx,
		trainer: trainer,
		logger:  logger,
		loading: true,
		keys:    defaultKeys(),
		help:    help.New(),
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd {
	trainer, ctx := m.trainer, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		c, err := trainer.Catalog(ctx)
		return catalogLoadedMsg{catalog: c, err: err}
	})
}

// selectDataset starts loading ref in the background. Stale results come
// back as ErrSuperseded and are ignored.
func (m *Model) selectDataset(ref catalog.DatasetRef) tea.Cmd {
	m.loading = true
	m.warning = ""
	m.report = nil
	m.screen = screenQuiz

	trainer, ctx := m.trainer, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return datasetLoadedMsg{ref: ref, err: trainer.SelectDataset(ctx, ref)}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case catalogLoadedMsg:
		if msg.err != nil {
			m.loading = false
			m.catalogErr = msg.err
			m.logger.Error("catalog load failed", "error", msg.err)
			return m, nil
		}
		m.catalog = msg.catalog
		ref, ok := m.catalog.First()
		if !ok {
			m.loading = false
			return m, nil
		}
		return m, m.selectDataset(ref)

	case datasetLoadedMsg:
		if errors.Is(msg.err, service.ErrSuperseded) {
			return m, nil
		}
		m.loading = false
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.catalog == nil {
			return m, nil
		}
		if m.screen == screenQuiz {
			return m.updateQuiz(msg)
		}
		return m.updatePicker(msg)
	}
	return m, nil
}

func (m Model) pickerItems() []string {
	var items []string
	switch m.screen {
	case screenYear:
		for _, y := range m.catalog.Years {
			items = append(items, y.Year)
		}
	case screenTerm:
		for _, t := range m.catalog.Years[m.yearIdx].Terms {
			items = append(items, orDefault(t.Label, t.Term))
		}
	case screenSubject:
		for _, s := range m.catalog.Years[m.yearIdx].Terms[m.termIdx].Subjects {
			items = append(items, orDefault(s.Label, s.ID))
		}
	}
	return items
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.pickerItems()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Confirm):
		if len(items) == 0 {
			return m, nil
		}
		switch m.screen {
		case screenYear:
			m.yearIdx, m.cursor, m.screen = m.cursor, 0, screenTerm
		case screenTerm:
			m.termIdx, m.cursor, m.screen = m.cursor, 0, screenSubject
		case screenSubject:
			y := m.catalog.Years[m.yearIdx]
			t := y.Terms[m.termIdx]
			ref := catalog.DatasetRef{Year: y.Year, Term: t.Term, Subject: t.Subjects[m.cursor].ID}
			return m, m.selectDataset(ref)
		}
	case key.Matches(msg, m.keys.Back):
		switch m.screen {
		case screenSubject:
			m.cursor, m.screen = m.termIdx, screenTerm
		case screenTerm:
			m.cursor, m.screen = m.yearIdx, screenYear
		case screenYear:
			if m.trainer.Snapshot().Status != service.StatusIdle {
				m.screen = screenQuiz
			}
		}
	}
	return m, nil
}

func (m Model) updateQuiz(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		if key.Matches(msg, m.keys.Back) {
			m.screen, m.cursor = screenYear, m.yearIdx
		}
		return m, nil
	}
	snap := m.trainer.Snapshot()

	switch {
	case key.Matches(msg, m.keys.Choose):
		n := int(msg.String()[0] - '1')
		if snap.Question != nil && n < len(snap.Choices) {
			m.trainer.Select(snap.Choices[n].ID)
		}

	case key.Matches(msg, m.keys.Confirm):
		switch {
		case snap.Status == service.StatusLoadError:
			return m, m.selectDataset(snap.Dataset)
		case snap.Status == service.StatusQuestion && snap.Outcome == nil:
			if _, _, err := m.trainer.Check(m.ctx); err != nil {
				m.warning = "statistics could not be saved"
			}
		case snap.Outcome != nil:
			m.trainer.Advance()
			m.warning = ""
		}

	case key.Matches(msg, m.keys.Mode):
		m.trainer.ToggleMode(m.ctx)
		m.report = nil

	case key.Matches(msg, m.keys.Restart):
		if err := m.trainer.Restart(m.ctx); err == nil {
			m.report = nil
			m.warning = ""
		}

	case key.Matches(msg, m.keys.Stats):
		if m.report != nil {
			m.report = nil
			break
		}
		if r, err := m.trainer.DatasetStats(m.ctx); err == nil {
			m.report = &r
		}

	case key.Matches(msg, m.keys.Back):
		m.screen, m.cursor = screenYear, m.yearIdx
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Denkain Drill"))
	b.WriteString("\n\n")

	switch {
	case m.catalogErr != nil:
		b.WriteString(styleError.Render("Could not load the catalog: " + m.catalogErr.Error()))
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.Quit}))
		return b.String()
	case m.catalog == nil:
		b.WriteString(m.spinner.View() + " Loading catalog…")
		return b.String()
	case m.screen == screenQuiz:
		m.quizView(&b)
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView(m.keys.quizHelp()))
	default:
		m.pickerView(&b)
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView(m.keys.pickerHelp()))
	}
	return b.String()
}

func (m Model) pickerView(b *strings.Builder) {
	titles := map[screen]string{
		screenYear:    "Choose a year",
		screenTerm:    "Choose a term",
		screenSubject: "Choose a subject",
	}
	b.WriteString(styleHeader.Render(titles[m.screen]))
	b.WriteString("\n")

	items := m.pickerItems()
	if len(items) == 0 {
		b.WriteString(styleSubtle.Render("  nothing to choose"))
		return
	}
	for i, item := range items {
		if i == m.cursor {
			b.WriteString(styleSelected.Render("> " + item))
		} else {
			b.WriteString("  " + item)
		}
		b.WriteString("\n")
	}
}

func (m Model) quizView(b *strings.Builder) {
	snap := m.trainer.Snapshot()

	label := snap.DatasetLabel
	if label == "" {
		label = m.catalog.Label(snap.Dataset)
	}
	b.WriteString(styleHeader.Render(label))
	b.WriteString(styleSubtle.Render("  ·  " + snap.Mode.Label()))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " Loading " + m.catalog.Label(snap.Dataset) + "…")
		return
	}

	switch snap.Status {
	case service.StatusLoadError:
		b.WriteString(styleError.Render("Could not load this dataset: " + snap.LoadError.Error()))
		b.WriteString("\n")
		b.WriteString(styleSubtle.Render("enter retries, esc picks another dataset"))
	case service.StatusEmpty:
		b.WriteString(styleSubtle.Render("No questions available in this mode."))
	case service.StatusComplete:
		b.WriteString(styleCorrect.Render(fmt.Sprintf("All %d questions done!", snap.Total)))
		b.WriteString("\n")
		b.WriteString(styleSubtle.Render("r restarts, m switches the mode"))
	case service.StatusQuestion:
		m.questionView(b, snap)
	}

	if m.warning != "" {
		b.WriteString("\n\n")
		b.WriteString(styleWarning.Render("! " + m.warning))
	}
	if m.report != nil {
		b.WriteString("\n\n")
		b.WriteString(reportView(*m.report))
	}
}

func (m Model) questionView(b *strings.Builder, snap service.Snapshot) {
	q := snap.Question
	fmt.Fprintf(b, "Question %d/%d", snap.Position, snap.Total)
	if q.No != "" {
		b.WriteString(styleSubtle.Render("  No." + string(q.No)))
	}
	b.WriteString("\n\n")

	if q.Text != "" {
		b.WriteString(q.Text)
		b.WriteString("\n")
	}
	if q.Image != "" {
		b.WriteString(styleSubtle.Render("[image: " + q.Image + "]"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, c := range snap.Choices {
		line := fmt.Sprintf("%d) %s", i+1, orDefault(c.Text, c.ID))
		switch {
		case snap.Outcome != nil && c.ID == q.Answer:
			line = styleCorrect.Render("  " + line)
		case snap.Outcome != nil && c.ID == snap.Outcome.SelectedChoiceID:
			line = styleIncorrect.Render("  " + line)
		case c.ID == snap.Selected:
			line = styleSelected.Render("> " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if out := snap.Outcome; out != nil {
		b.WriteString("\n")
		if out.Correct {
			b.WriteString(styleCorrect.Render(fmt.Sprintf("✓ Correct (streak %d)", out.Streak)))
		} else {
			b.WriteString(styleIncorrect.Render(fmt.Sprintf("✗ Incorrect. The answer is %d.", out.CorrectPosition)))
		}
	}
}

func reportView(r service.DatasetReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Seen %d/%d  ·  Accuracy %.0f%%", r.Summary.Seen, r.Summary.TotalQuestions, r.Summary.Accuracy()*100)

	weakest := make([]service.QuestionStat, len(r.Questions))
	copy(weakest, r.Questions)
	sort.SliceStable(weakest, func(i, j int) bool { return weakest[i].Weakness > weakest[j].Weakness })
	if len(weakest) > 3 {
		weakest = weakest[:3]
	}
	if len(weakest) > 0 {
		b.WriteString("\nWeakest:")
	}
	for _, q := range weakest {
		fmt.Fprintf(&b, "\n  No.%s  %s  (%.1f)", orDefault(string(q.No), "?"), describe(q.Record), q.Weakness)
	}
	return stylePanel.Render(b.String())
}

func describe(r questionbank.StatRecord) string {
	if r.Seen == 0 {
		return "not seen yet"
	}
	return fmt.Sprintf("%d/%d wrong, streak %d", r.Wrong, r.Seen, r.Streak)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

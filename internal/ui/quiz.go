package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/kavita/internal/quiz"
	"github.com/five82/kavita/internal/results"
	"github.com/five82/kavita/internal/state"
)

type quizStage int

const (
	stageIdentity quizStage = iota
	stageQuestion
	stageResult
)

type saveStatus int

const (
	saveIdle saveStatus = iota
	saveSending
	saveDone
	saveFailed
)

// quizState holds the embedded quiz between launch and close.
type quizState struct {
	stage    quizStage
	launch   quiz.Launch
	inputs   [2]textinput.Model // name, roll
	focusIdx int

	runner   *quiz.Runner
	option   int
	answered bool
	correct  bool
	err      string

	record  results.Record
	save    saveStatus
	saveErr string
}

func newQuizState(launch quiz.Launch) quizState {
	name := textinput.New()
	name.Placeholder = "Your name"
	name.CharLimit = 60
	name.Prompt = "Name: "
	name.Focus()

	roll := textinput.New()
	roll.Placeholder = "Roll number"
	roll.CharLimit = 12
	roll.Prompt = "Roll: "

	return quizState{
		stage:  stageIdentity,
		launch: launch,
		inputs: [2]textinput.Model{name, roll},
	}
}

func (q *quizState) focusInput(idx int) {
	q.focusIdx = idx
	for i := range q.inputs {
		if i == idx {
			q.inputs[i].Focus()
		} else {
			q.inputs[i].Blur()
		}
	}
}

// launchQuiz hands the open chapter to the quiz runner.
func (m Model) launchQuiz() (tea.Model, tea.Cmd) {
	if err := m.machine.LaunchQuiz(); err != nil {
		var unavailable *state.QuizUnavailableError
		if errors.As(err, &unavailable) {
			m.setNotice("Quiz unavailable: " + unavailable.Reason)
			return m, nil
		}
		m.log.Warn("quiz launch failed", zap.Error(err))
		m.setNotice("Could not start the quiz: " + err.Error())
		return m, nil
	}
	launch, err := quiz.LoadLaunch(m.session)
	if err != nil {
		m.machine.CloseQuiz()
		m.log.Warn("quiz hand-off unreadable", zap.Error(err))
		m.setNotice("Could not start the quiz: " + err.Error())
		return m, nil
	}
	m.quiz = newQuizState(launch)
	m.currentView = ViewQuiz
	return m, textinput.Blink
}

func (m Model) closeQuiz() Model {
	m.machine.CloseQuiz()
	m.quiz = quizState{}
	m.currentView = ViewReader
	return m
}

func (m Model) handleQuizKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.quiz.stage {
	case stageIdentity:
		return m.handleIdentityKey(msg)
	case stageQuestion:
		return m.handleQuestionKey(msg)
	default:
		switch msg.String() {
		case "enter", "esc", "q":
			return m.closeQuiz(), nil
		}
		return m, nil
	}
}

func (m Model) handleIdentityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closeQuiz(), nil
	case "tab", "shift+tab", "up", "down":
		m.quiz.focusInput(1 - m.quiz.focusIdx)
		return m, nil
	case "enter":
		name := m.quiz.inputs[0].Value()
		roll := m.quiz.inputs[1].Value()
		if m.quiz.focusIdx == 0 && strings.TrimSpace(roll) == "" {
			m.quiz.focusInput(1)
			return m, nil
		}
		runner, err := quiz.NewRunner(m.quiz.launch, name, roll, m.now())
		if err != nil {
			m.quiz.err = "Enter your name and roll number to begin."
			return m, nil
		}
		m.quiz.runner = runner
		m.quiz.stage = stageQuestion
		m.quiz.option = 0
		m.quiz.err = ""
		return m, nil
	}
	return m.updateIdentityInputs(msg)
}

func (m Model) updateIdentityInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	idx := m.quiz.focusIdx
	m.quiz.inputs[idx], cmd = m.quiz.inputs[idx].Update(msg)
	return m, cmd
}

func (m Model) handleQuestionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	_, q, ok := m.quiz.runner.Current()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Escape):
		return m.closeQuiz(), nil
	case key.Matches(msg, m.keys.Up):
		if m.quiz.option > 0 {
			m.quiz.option--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.quiz.option < len(q.Options)-1 {
			m.quiz.option++
		}
		return m, nil
	case key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.ReadLine):
		return m.answer(m.quiz.option)
	}
	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		choice := int(s[0] - '1')
		if choice < len(q.Options) {
			return m.answer(choice)
		}
	}
	return m, nil
}

func (m Model) answer(option int) (tea.Model, tea.Cmd) {
	correct, err := m.quiz.runner.Answer(option)
	if err != nil {
		m.quiz.err = err.Error()
		return m, nil
	}
	m.quiz.answered = true
	m.quiz.correct = correct
	m.quiz.option = 0
	m.quiz.err = ""
	if !m.quiz.runner.Done() {
		return m, nil
	}
	return m.finishQuiz()
}

// finishQuiz records completion locally, then submits the attempt.
func (m Model) finishQuiz() (tea.Model, tea.Cmd) {
	launch := m.quiz.launch
	className := launch.ClassID
	if cls, ok := m.machine.Catalog().ByID(launch.ClassID); ok {
		className = cls.Name
	}
	rec := m.quiz.runner.Result(className, m.now())
	m.quiz.record = rec
	m.quiz.stage = stageResult

	if err := quiz.Finish(m.session, m.quiz.runner); err != nil {
		m.log.Warn("record quiz completion failed", zap.Error(err))
		m.quiz.err = "Could not record completion: " + err.Error()
	}
	m.log.Info("quiz finished",
		zap.String("class", launch.ClassID),
		zap.String("chapter", launch.Chapter.ID),
		zap.Int("score", rec.Score),
		zap.Int("total", rec.TotalQuestions),
	)

	if m.saver == nil {
		m.quiz.save = saveFailed
		m.quiz.saveErr = "no results server configured"
		return m, nil
	}
	m.quiz.save = saveSending
	return m, saveResultCmd(m.ctx, m.saver, rec)
}

func (m *Model) handleResultSaved(err error) {
	if err != nil {
		m.log.Warn("save result failed", zap.Error(err))
	}
	if m.currentView != ViewQuiz || m.quiz.stage != stageResult {
		if err != nil {
			m.setNotice("Quiz result was not saved: " + err.Error())
		}
		return
	}
	if err != nil {
		m.quiz.save = saveFailed
		m.quiz.saveErr = err.Error()
		return
	}
	m.quiz.save = saveDone
}

func saveResultCmd(ctx context.Context, saver ResultSaver, rec results.Record) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, SaveTimeout)
		defer cancel()
		return resultSavedMsg{err: saver.SaveResult(ctx, rec)}
	}
}

// renderQuiz renders the quiz panel for the current stage.
func (m Model) renderQuiz() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	inner := m.width - 6
	title := "Quiz · " + m.quiz.launch.Chapter.Name

	var out []string
	out = append(out, "")
	switch m.quiz.stage {
	case stageIdentity:
		out = append(out,
			" "+styles.Text.Render("Enter your details to start the quiz."),
			"",
			" "+m.quiz.inputs[0].View(),
			" "+m.quiz.inputs[1].View(),
			"",
		)
		out = append(out, " "+m.help.ShortHelpView([]key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}))

	case stageQuestion:
		idx, q, _ := m.quiz.runner.Current()
		out = append(out, " "+styles.MutedText.Render(fmt.Sprintf("Question %d of %d", idx+1, m.quiz.runner.Total())), "")
		for _, line := range wrap(q.Question, inner) {
			out = append(out, " "+styles.Text.Bold(true).Render(line))
		}
		out = append(out, "")
		for i, opt := range q.Options {
			label := fmt.Sprintf("%d. %s", i+1, truncate(opt, inner-6))
			if i == m.quiz.option {
				out = append(out, " "+styles.AccentText.Render("› ")+m.theme.Styles().Selected.Render(label))
			} else {
				out = append(out, "   "+styles.Text.Render(label))
			}
		}
		out = append(out, "")
		if m.quiz.answered {
			if m.quiz.correct {
				out = append(out, " "+styles.SuccessText.Render("Previous answer: correct"))
			} else {
				out = append(out, " "+styles.DangerText.Render("Previous answer: incorrect"))
			}
		}
		out = append(out, " "+styles.FaintText.Render(fmt.Sprintf("Score so far: %d", m.quiz.runner.Score())))

	case stageResult:
		rec := m.quiz.record
		out = append(out,
			" "+styles.SuccessText.Render("Quiz complete!"),
			"",
			" "+styles.Text.Render(fmt.Sprintf("%s (roll %s)", rec.StudentName, rec.StudentRoll)),
			" "+styles.Text.Bold(true).Render(fmt.Sprintf("Score: %d / %d  (%.0f%%)", rec.Score, rec.TotalQuestions, rec.Percent())),
			" "+styles.MutedText.Render(fmt.Sprintf("Time taken: %ds", rec.TotalTimeSeconds)),
			"",
			" "+m.renderSaveStatus(styles),
			"",
			" "+styles.FaintText.Render("Press enter to return to the chapter."),
		)
	}

	if m.quiz.err != "" {
		out = append(out, "", " "+styles.DangerText.Render(m.quiz.err))
	}

	box := m.renderTitledBox(title, strings.Join(out, "\n"), m.width, height, true)
	return lipgloss.NewStyle().MaxHeight(height).Render(box)
}

func (m Model) renderSaveStatus(styles Styles) string {
	switch m.quiz.save {
	case saveSending:
		return styles.WarningText.Render("Saving result…")
	case saveDone:
		return styles.SuccessText.Render("Result saved for your teacher.")
	case saveFailed:
		return styles.DangerText.Render("Result not saved: " + m.quiz.saveErr)
	default:
		return ""
	}
}

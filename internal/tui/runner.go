package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/omopkit/omopload/internal/tui/components"
)

func PromptContinue(message string) bool {
	if !IsInteractive() {
		return true
	}

	fmt.Printf("%s [Y/n]: ", message)

	var response string
	fmt.Scanln(&response)

	return response == "" || response == "y" || response == "Y"
}

type ProgressDisplay struct{}

func NewProgressDisplay() *ProgressDisplay {
	return &ProgressDisplay{}
}

func (p *ProgressDisplay) Start(message string) {
	if !IsInteractive() {
		fmt.Println(message)
		return
	}
	fmt.Printf("◐ %s\n", message)
}

func (p *ProgressDisplay) Success(message string) {
	fmt.Printf("✓ %s\n", message)
}

func (p *ProgressDisplay) Error(message string) {
	fmt.Printf("✗ %s\n", message)
}

// stageModel drives a spinner until the stage function reports in.
type stageModel struct {
	spinner components.Spinner
	err     error
}

func newStageModel(message string) stageModel {
	return stageModel{spinner: components.NewSpinner(message)}
}

// Init implements tea.Model.
func (m stageModel) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update implements tea.Model.
func (m stageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if done, ok := msg.(components.SpinnerDoneMsg); ok {
		m.err = done.Err
		m.spinner, _ = m.spinner.Update(done)
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m stageModel) View() string {
	return m.spinner.View() + "\n"
}

// RunStage executes fn behind a progress indicator. fn returns the completion
// text shown when the stage finishes. Interactive sessions get a live
// spinner; pipelines and scripts get plain start and finish lines.
func RunStage(message string, fn func() (string, error)) error {
	if !IsInteractive() {
		display := NewProgressDisplay()
		display.Start(message)

		result, err := fn()
		if err != nil {
			display.Error(err.Error())
			return err
		}
		display.Success(result)
		return nil
	}

	program := tea.NewProgram(newStageModel(message))
	go func() {
		result, err := fn()
		if err != nil {
			program.Send(components.SpinnerFailed(err))
			return
		}
		program.Send(components.SpinnerDone(result))
	}()

	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("progress display failed: %w", err)
	}
	if m, ok := final.(stageModel); ok {
		return m.err
	}
	return nil
}

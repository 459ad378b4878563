package app

import (
	"fmt"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"
)

// toolFinishedMsg is emitted when the spawned tool exits.
type toolFinishedMsg struct{ err error }

// openModel runs an external CLI via Bubble Tea's ExecProcess so the
// terminal state is properly restored when the process exits.
type openModel struct {
	name string
	cmd  *exec.Cmd
	err  error
}

func (m openModel) Init() tea.Cmd {
	return tea.ExecProcess(m.cmd, func(err error) tea.Msg {
		return toolFinishedMsg{err: err}
	})
}

func (m openModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case toolFinishedMsg:
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m openModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("%s 运行出错: %v\n", m.name, m.err)
	}
	return fmt.Sprintf("正在启动 %s ...\n", m.name)
}

// Open hands the terminal to cmd until it exits and returns its error.
func Open(name string, cmd *exec.Cmd) error {
	final, err := tea.NewProgram(openModel{name: name, cmd: cmd}).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(openModel); ok {
		return m.err
	}
	return nil
}

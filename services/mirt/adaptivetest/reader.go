// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package adaptivetest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// =============================================================================
// AnswerReader Interface
// =============================================================================

// AnswerReader abstracts how a session collects one answer line.
//
// # Description
//
// AnswerReader enables mocking of stdin in unit tests. Production
// implementations wrap bufio.Reader or a terminal input widget; the
// test implementation returns predetermined answers.
//
// # Outputs
//
// ReadAnswer returns the line read (trimmed) and any error.
// Returns io.EOF when input is exhausted.
type AnswerReader interface {
	// ReadAnswer reads a single answer line, trimmed, blocking until
	// input is available. Returns io.EOF when input is exhausted.
	ReadAnswer() (string, error)
}

// PromptingAnswerReader is implemented by readers that display their
// own prompt (like the terminal widget reader). The session checks for
// this interface to avoid double-prompting.
type PromptingAnswerReader interface {
	AnswerReader
	// SetPrompt sets the prompt string to display before input.
	SetPrompt(prompt string)
}

// NewAnswerReader picks the production reader for the current stdin:
// the terminal widget when stdin is a TTY, a plain buffered reader for
// piped input and CI.
func NewAnswerReader() AnswerReader {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return NewStdinAnswerReader()
	}
	return &InteractiveAnswerReader{prompt: "> "}
}

// =============================================================================
// StdinAnswerReader Implementation
// =============================================================================

// StdinAnswerReader reads answers line by line from os.Stdin.
//
// # Thread Safety
//
// Not thread-safe. Single reader per stdin.
type StdinAnswerReader struct {
	reader *bufio.Reader
}

// NewStdinAnswerReader creates a reader wrapping os.Stdin.
func NewStdinAnswerReader() *StdinAnswerReader {
	return &StdinAnswerReader{
		reader: bufio.NewReader(os.Stdin),
	}
}

// ReadAnswer reads until newline and returns the trimmed line.
// Returns io.EOF when stdin is closed.
func (r *StdinAnswerReader) ReadAnswer() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// =============================================================================
// InteractiveAnswerReader Implementation
// =============================================================================

// InteractiveAnswerReader collects answers through a terminal input
// widget with line editing and proper terminal handling.
//
// # Limitations
//
//   - Requires a TTY; construct through NewAnswerReader which falls
//     back to StdinAnswerReader for piped input.
//
// # Thread Safety
//
// Not thread-safe. Single reader per stdin.
type InteractiveAnswerReader struct {
	prompt string
}

// answerModel is the bubbletea model for one answer prompt.
type answerModel struct {
	textInput textinput.Model
	done      bool
	cancelled bool
}

// SetPrompt sets the prompt the widget displays before input.
func (r *InteractiveAnswerReader) SetPrompt(prompt string) {
	r.prompt = prompt
}

// ReadAnswer displays the prompt and reads one submitted line.
//
// # Description
//
// Runs the input widget until:
//   - Enter: submit input
//   - Ctrl+C: cancel current input (returns empty string)
//   - Ctrl+D: EOF (returns io.EOF)
//
// # Outputs
//
//   - string: The line read, with leading/trailing whitespace trimmed
//   - error: io.EOF on Ctrl+D, or other error
func (r *InteractiveAnswerReader) ReadAnswer() (string, error) {
	ti := textinput.New()
	ti.Prompt = r.prompt
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	p := tea.NewProgram(answerModel{textInput: ti}, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	// Defensive type assertion - finalModel should never be nil when
	// err is nil, but we check anyway to prevent potential panic
	result, ok := finalModel.(answerModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type from bubbletea: %T", finalModel)
	}

	if result.cancelled {
		return "", io.EOF
	}
	return strings.TrimSpace(result.textInput.Value()), nil
}

// Init initializes the bubbletea model.
func (m answerModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input events for the bubbletea model.
func (m answerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlC:
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlD:
			m.cancelled = true
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the answer prompt.
func (m answerModel) View() string {
	if m.done {
		return ""
	}
	return m.textInput.View()
}

// =============================================================================
// ScriptedAnswerReader Implementation (for testing)
// =============================================================================

// ScriptedAnswerReader returns predetermined answers for unit testing
// sessions without requiring actual user input. Each call to
// ReadAnswer returns the next answer in sequence, then io.EOF.
//
// # Thread Safety
//
// Not thread-safe. Designed for single-threaded tests.
type ScriptedAnswerReader struct {
	answers []string
	index   int
}

// NewScriptedAnswerReader creates a reader that replays the given
// answers in order.
func NewScriptedAnswerReader(answers []string) *ScriptedAnswerReader {
	return &ScriptedAnswerReader{
		answers: answers,
		index:   0,
	}
}

// ReadAnswer returns the next predetermined answer, then io.EOF.
func (r *ScriptedAnswerReader) ReadAnswer() (string, error) {
	if r.index >= len(r.answers) {
		return "", io.EOF
	}
	answer := r.answers[r.index]
	r.index++
	return answer, nil
}

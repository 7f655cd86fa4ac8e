// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Interactive menu around the kmerfreq engine. The session genome is
// loaded once at startup and owned by this driver, the engine itself
// stays stateless.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/shenwei356/xopen"

	"kmerfreq"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F3F4F6")).
			Background(lipgloss.Color("#111827")).
			Padding(1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Italic(true)
)

type action int

const (
	actionRevComp action = iota
	actionCount
	actionFrequent
	actionQuit
)

type menuItem struct {
	action action
	title  string
	desc   string
}

func (i menuItem) FilterValue() string { return i.title }
func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }

type state int

const (
	stateMenu state = iota
	stateInput
	stateResult
)

type model struct {
	genome []byte

	state  state
	action action
	menu   list.Model
	input  textinput.Model
	result string
	errMsg string
	width  int
	height int
}

func initialModel(genome []byte) model {
	items := []list.Item{
		menuItem{actionRevComp, "Reverse complement", "Compute the reverse complement of a pattern"},
		menuItem{actionCount, "Count pattern", "Count a pattern and its reverse complement in the genome"},
		menuItem{actionFrequent, "Frequent k-mers", "Find the most frequent canonical k-mers"},
		menuItem{actionQuit, "Quit", "Exit the program"},
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "kmerfreq"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	ti := textinput.New()
	ti.CharLimit = 128
	ti.Width = 40

	return model{
		genome: genome,
		state:  stateMenu,
		menu:   l,
		input:  ti,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetWidth(msg.Width)
		m.menu.SetHeight(msg.Height - 2)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateMenu:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "enter":
				item := m.menu.SelectedItem().(menuItem)
				if item.action == actionQuit {
					return m, tea.Quit
				}
				m.action = item.action
				m.errMsg = ""
				m.input.SetValue("")
				if item.action == actionFrequent {
					m.input.Placeholder = "k, e.g. 9"
				} else {
					m.input.Placeholder = "pattern, e.g. ACGT"
				}
				m.input.Focus()
				m.state = stateInput
				return m, textinput.Blink
			}

		case stateInput:
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc":
				m.state = stateMenu
				return m, nil
			case "enter":
				result, err := m.run(strings.TrimSpace(m.input.Value()))
				if err != nil {
					// re-prompt, like the original menu loop
					m.errMsg = err.Error()
					m.input.SetValue("")
					return m, nil
				}
				m.result = result
				m.errMsg = ""
				m.state = stateResult
				return m, nil
			}

		case stateResult:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			default:
				m.state = stateMenu
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case stateMenu:
		m.menu, cmd = m.menu.Update(msg)
	case stateInput:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// run executes the selected menu action against the session genome.
func (m model) run(value string) (string, error) {
	switch m.action {
	case actionRevComp:
		rc, err := kmerfreq.RevComp(bytes.ToUpper([]byte(value)))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Reverse complement: %s", rc), nil

	case actionCount:
		n, err := kmerfreq.CountPattern(m.genome, bytes.ToUpper([]byte(value)))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Count: %d", n), nil

	case actionFrequent:
		k, err := strconv.Atoi(value)
		if err != nil {
			return "", fmt.Errorf("k must be a number")
		}
		t, err := kmerfreq.CountKmers(m.genome, k)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Most frequent k-mers (count %d):\n", t.MaxCount())
		for _, mer := range t.MostFrequent() {
			fmt.Fprintf(&b, "%s\n", mer)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
	return "", nil
}

func (m model) View() string {
	switch m.state {
	case stateInput:
		var prompt string
		if m.action == actionFrequent {
			prompt = "Enter the value of k:"
		} else {
			prompt = "Enter the pattern:"
		}
		s := titleStyle.Render(prompt) + "\n\n" + m.input.View() + "\n"
		if m.errMsg != "" {
			s += "\n" + errorStyle.Render(m.errMsg) + "\n"
		}
		s += "\n" + helpStyle.Render("enter: run • esc: back • ctrl+c: quit")
		return s

	case stateResult:
		return resultStyle.Render(m.result) + "\n" +
			helpStyle.Render("press any key to return to the menu")
	}
	return m.menu.View()
}

// loadGenome reads a genome from a plain-text or FASTA file,
// strips whitespace and upper-cases bases.
func loadGenome(file string) ([]byte, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	data, err := io.ReadAll(fh)
	if err != nil {
		return nil, err
	}

	genome := make([]byte, 0, len(data))
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if bytes.HasPrefix(line, []byte{'>'}) {
			continue
		}
		for _, b := range line {
			switch b {
			case ' ', '\t', '\r':
			default:
				genome = append(genome, b)
			}
		}
	}
	genome = bytes.ToUpper(genome)
	if !kmerfreq.IsValidDNA(genome) {
		return nil, fmt.Errorf("invalid genome sequence in %s", file)
	}
	return genome, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <genome file>\n", os.Args[0])
		os.Exit(1)
	}

	genome, err := loadGenome(os.Args[1])
	if err != nil {
		log.Fatal("failed to load genome", "err", err)
	}
	if len(genome) == 0 {
		log.Fatal("empty genome", "file", os.Args[1])
	}

	p := tea.NewProgram(initialModel(genome), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal("program error", "err", err)
	}
}

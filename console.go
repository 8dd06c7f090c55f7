// console.go
//
// Console mode: one terminal driven from stdin, rendered to stdout.
// Responsibilities:
//   - Print every new log line with its category prefix.
//   - Colour lines per category when stdout is a terminal.
//   - Wait for background work (boot pacing, riddle requests) before the next prompt.
//
// "exit" reboots the terminal like in the browser; EOF or SIGINT ends the process.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/robalobadob/neuroterm/internal/game"
	"github.com/robalobadob/neuroterm/internal/session"
)

var categoryStyles = map[game.Category]lipgloss.Style{
	game.CategoryInput:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	game.CategoryOutput:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	game.CategoryError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	game.CategorySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	game.CategorySystem:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	game.CategoryAI:      lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Italic(true),
}

// consoleView writes log events to out. It is called with the terminal lock held.
type consoleView struct {
	out    io.Writer
	styled bool
}

func (v *consoleView) observe(e game.Event) {
	if e.Cleared {
		if v.styled {
			fmt.Fprint(v.out, "\033[H\033[2J")
		}
		return
	}
	// Input lines were already typed by the user.
	if v.styled && e.Line.Category == game.CategoryInput {
		return
	}
	text := e.Line.Category.Prefix() + e.Line.Text
	if st, ok := categoryStyles[e.Line.Category]; ok && v.styled {
		text = st.Render(text)
	}
	fmt.Fprintln(v.out, text)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// runConsole runs a single terminal until in is exhausted or ctx is cancelled.
func runConsole(ctx context.Context, in io.Reader, out io.Writer, opts session.Options) error {
	view := &consoleView{out: out, styled: isTTY(out)}
	opts.Observer = view.observe

	t := session.New("console", opts)
	defer t.Close()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		t.Wait()
		if view.styled {
			fmt.Fprint(out, t.Snapshot().Prompt)
		}

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := t.Submit(ctx, line); err != nil && !errors.Is(err, session.ErrBusy) {
				return err
			}
		}
	}
}

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// errBadSelection aborts an operation and returns to the menu.
var errBadSelection = errors.New("bad selection made, returning to main menu")

// A prompter asks questions and reads whitespace separated answers. onAsk
// runs when a prompt waits for an answer and onAnswer when it is given one.
type prompter struct {
	out      io.Writer
	scanner  *bufio.Scanner
	onAsk    func()
	onAnswer func()
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)

	return &prompter{
		out:     out,
		scanner: scanner,
	}
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// ask prints the prompt and returns the next answer. It returns io.EOF when
// the input is exhausted.
func (p *prompter) ask(prompt string) (string, error) {
	p.printf("%s", prompt)

	if p.onAsk != nil {
		p.onAsk()
	}

	if !p.scanner.Scan() {
		p.printf("\n")

		if err := p.scanner.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	if p.onAnswer != nil {
		p.onAnswer()
	}

	return p.scanner.Text(), nil
}

func (p *prompter) askUint(prompt string) (uint64, error) {
	answer, err := p.ask(prompt)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseUint(answer, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a non-negative integer", answer)
	}

	return v, nil
}

func (p *prompter) askInt(prompt string) (int64, error) {
	answer, err := p.ask(prompt)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseInt(answer, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", answer)
	}

	return v, nil
}

type menuItem struct {
	label string
	run   func() error
}

// A menu repeatedly lets the user pick one of its items. The quit item is
// appended after the given items.
type menu struct {
	title string
	items []menuItem
}

func (m menu) display(p *prompter) {
	p.printf("\n%s:\n%s\n", m.title, strings.Repeat("-", len(m.title)))

	for i, item := range m.items {
		p.printf("%d) %s\n", i+1, item.label)
	}

	p.printf("%d) Quit\n", len(m.items)+1)
}

// run returns when the user quits or the input ends. Errors of the items are
// reported and the menu is shown again.
func (m menu) run(p *prompter) error {
	quit := len(m.items) + 1

	for {
		m.display(p)

		selection, err := p.ask("Enter selection: ")
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		option, err := strconv.Atoi(selection)
		if err != nil || option < 1 || option > quit {
			continue
		}

		if option == quit {
			return nil
		}

		err = m.items[option-1].run()

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			p.printf("Error: %v\n", err)
		}
	}
}

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// asker reads missing answers from the terminal. It opens the terminal only
// when a question is actually asked.
type asker struct {
	rl *readline.Instance
}

func (a *asker) ask(question string) (string, error) {
	if a.rl == nil {
		rl, err := readline.New("")
		if err != nil {
			return "", fmt.Errorf("unable to open terminal: %w", err)
		}
		a.rl = rl
	}
	a.rl.SetPrompt(question + " ")
	line, err := a.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", errors.New("input cancelled")
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// fill asks question when *value is empty.
func (a *asker) fill(value *string, question string) error {
	if strings.TrimSpace(*value) != "" {
		return nil
	}
	answer, err := a.ask(question)
	if err != nil {
		return err
	}
	*value = answer
	return nil
}

func (a *asker) Close() {
	if a.rl != nil {
		_ = a.rl.Close()
	}
}

// dirArg returns the directory argument or asks for it.
func dirArg(a *asker, args []string) (string, error) {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	if err := a.fill(&dir, "Enter the path of the folder:"); err != nil {
		return "", err
	}
	if dir == "" {
		return "", errors.New("no folder given")
	}
	return dir, nil
}

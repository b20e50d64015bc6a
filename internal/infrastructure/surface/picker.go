package surface

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/ports"
)

const previewRunes = 120

// ConsolePicker shows a numbered operation menu and reads the choice from
// stdin. The read happens on its own goroutine so a cancelled context can
// abandon the prompt.
type ConsolePicker struct {
	out io.Writer
	in  *bufio.Reader
}

// NewConsolePicker creates a picker reading from in and writing to out.
func NewConsolePicker(in io.Reader, out io.Writer) *ConsolePicker {
	return &ConsolePicker{out: out, in: bufio.NewReader(in)}
}

// Pick prompts for an operation. An empty line or "q" dismisses the menu.
func (p *ConsolePicker) Pick(ctx context.Context, ops []domain.Operation, captured domain.CaptureResult) (domain.Operation, string, bool, error) {
	fmt.Fprintf(p.out, "\nCaptured: %s\n", preview(captured.Text))
	for i, op := range ops {
		fmt.Fprintf(p.out, "  %2d. %s\n", i+1, op.Name)
	}
	fmt.Fprint(p.out, "Operation (number or name, empty to cancel): ")

	line, err := p.readLine(ctx)
	if err != nil {
		return domain.Operation{}, "", false, err
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.EqualFold(line, "q") {
		return domain.Operation{}, "", false, nil
	}

	op, ok := matchOperation(ops, line)
	if !ok {
		return domain.Operation{}, "", false, fmt.Errorf("unknown operation %q", line)
	}

	var change string
	if op.CustomChange {
		fmt.Fprint(p.out, "Describe your change: ")
		change, err = p.readLine(ctx)
		if err != nil {
			return domain.Operation{}, "", false, err
		}
		change = strings.TrimSpace(change)
		if change == "" {
			return domain.Operation{}, "", false, nil
		}
	}
	return op, change, true, nil
}

func matchOperation(ops []domain.Operation, input string) (domain.Operation, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(ops) {
			return ops[n-1], true
		}
		return domain.Operation{}, false
	}
	for _, op := range ops {
		if strings.EqualFold(op.Name, input) {
			return op, true
		}
	}
	return domain.Operation{}, false
}

func (p *ConsolePicker) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- result{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil && r.line == "" {
			return "", r.err
		}
		return r.line, nil
	}
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "(no selection)"
	}
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}

var _ ports.OperationPicker = (*ConsolePicker)(nil)

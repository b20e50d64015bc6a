package surface

import (
	"bufio"
	"io"
)

// Feed funnels terminal input through one reader goroutine. The interactive
// loop and the operation picker both take lines from it, so a prompt can
// never race the chat loop for the same keystrokes. Lines are whole: a Read
// returns at most one line per call.
type Feed struct {
	lines chan string
	err   error
	rest  []byte
}

// NewFeed starts reading lines from r.
func NewFeed(r io.Reader) *Feed {
	f := &Feed{lines: make(chan string)}
	go func() {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			f.lines <- scanner.Text()
		}
		f.err = scanner.Err()
		close(f.lines)
	}()
	return f
}

// Lines exposes the channel for select-based consumers. A received line has
// its trailing newline stripped.
func (f *Feed) Lines() <-chan string {
	return f.lines
}

// Read implements io.Reader for line-oriented consumers such as the picker.
// Callers must not read concurrently with a Lines receive.
func (f *Feed) Read(p []byte) (int, error) {
	if len(f.rest) == 0 {
		line, ok := <-f.lines
		if !ok {
			if f.err != nil {
				return 0, f.err
			}
			return 0, io.EOF
		}
		f.rest = append([]byte(line), '\n')
	}
	n := copy(p, f.rest)
	f.rest = f.rest[n:]
	return n, nil
}

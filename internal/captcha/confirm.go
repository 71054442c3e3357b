package captcha

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Confirmer blocks until a human signals that a challenge is solved.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) error
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt string) error

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) error {
	return f(ctx, prompt)
}

// ConsoleConfirmer prints the prompt and waits for a line on its reader.
// One goroutine owns the reader for the confirmer's lifetime and hands lines
// out in order, so a cancelled Confirm leaves the next line for the next call.
type ConsoleConfirmer struct {
	in  *bufio.Reader
	out io.Writer

	start sync.Once
	lines chan struct{}
	err   error
}

func NewConsoleConfirmer(in io.Reader, out io.Writer) *ConsoleConfirmer {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleConfirmer{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan struct{}),
	}
}

func (c *ConsoleConfirmer) Confirm(ctx context.Context, prompt string) error {
	fmt.Fprintln(c.out, prompt)
	c.start.Do(func() { go c.readLines() })

	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-c.lines:
		if !ok {
			return c.err
		}
		return nil
	}
}

// readLines delivers one signal per input line and closes lines when the
// input ends. err is written before the close.
func (c *ConsoleConfirmer) readLines() {
	for {
		if _, err := c.in.ReadString('\n'); err != nil {
			if err == io.EOF {
				err = errors.New("input closed before confirmation")
			}
			c.err = err
			close(c.lines)
			return
		}
		c.lines <- struct{}{}
	}
}

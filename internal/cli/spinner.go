package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a status line while a slow step runs. It stops on Stop
// or when its context ends, whichever comes first.
type spinner struct {
	msg  string
	out  io.Writer
	ctx  context.Context
	quit chan struct{}
	done chan struct{}
	once sync.Once
	mu   sync.Mutex
}

// startSpinner starts animating msg on out.
func startSpinner(ctx context.Context, out io.Writer, msg string) *spinner {
	s := &spinner{
		msg:  msg,
		out:  out,
		ctx:  ctx,
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *spinner) loop() {
	defer close(s.done)
	t := time.NewTicker(spinnerInterval)
	defer t.Stop()
	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.clear()
			return
		case <-s.quit:
			return
		case <-t.C:
			s.mu.Lock()
			fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]), StyleDim.Render(s.msg))
			s.mu.Unlock()
		}
	}
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len([]rune(s.msg))+2))
}

// Stop ends the animation and clears the line. Later calls do nothing.
func (s *spinner) Stop() {
	s.once.Do(func() {
		close(s.quit)
		<-s.done
		s.clear()
	})
}

// Success stops the spinner and prints a success line.
func (s *spinner) Success(format string, args ...any) {
	s.Stop()
	printSuccess(format, args...)
}

// Fail stops the spinner and prints an error line.
func (s *spinner) Fail(format string, args ...any) {
	s.Stop()
	printError(format, args...)
}

// Cancelled reports whether the context ended the spinner.
func (s *spinner) Cancelled() bool { return s.ctx.Err() != nil }

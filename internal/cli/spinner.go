package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerTick is the frame interval.
const spinnerTick = 80 * time.Millisecond

// spinner animates a status line on stderr while a render runs. After the
// first second the elapsed time is appended to the message.
type spinner struct {
	w       io.Writer
	message string
	started time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	width    int // widest line drawn, for clearing
}

// startSpinner begins animating until Stop is called or ctx ends.
func startSpinner(ctx context.Context, message string) *spinner {
	return startSpinnerTo(ctx, os.Stderr, message)
}

func startSpinnerTo(ctx context.Context, w io.Writer, message string) *spinner {
	return startSpinnerAt(ctx, w, message, time.Now())
}

func startSpinnerAt(ctx context.Context, w io.Writer, message string, started time.Time) *spinner {
	s := &spinner{
		w:       w,
		message: message,
		started: started,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.loop(ctx)
	return s
}

func (s *spinner) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(spinnerTick)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-ctx.Done():
			s.clear()
			return
		case <-s.stop:
			s.clear()
			return
		case <-ticker.C:
			s.draw(spinnerFrames[frame%len(spinnerFrames)])
		}
	}
}

func (s *spinner) draw(frame string) {
	msg := s.message
	if elapsed := time.Since(s.started); elapsed >= time.Second {
		msg += " " + elapsed.Truncate(time.Second).String()
	}
	s.width = max(s.width, len(msg)+2)
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(msg))
}

func (s *spinner) clear() {
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// Stop clears the line and waits for the animation to end. It is safe to
// call more than once, and after ctx has ended.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

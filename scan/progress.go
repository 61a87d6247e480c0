package scan

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ProgressSpinner redraws one status line while an import runs. A nil
// spinner accepts updates and ignores them.
type ProgressSpinner struct {
	out     io.Writer
	found   atomic.Int64
	visited atomic.Int64
	bytes   atomic.Int64
	started time.Time
	stop    chan struct{}
	stopped chan struct{}
}

// NewProgressSpinner starts drawing on out every 100ms until Stop.
func NewProgressSpinner(out io.Writer) *ProgressSpinner {
	s := &ProgressSpinner{
		out:     out,
		started: time.Now(),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.draw(100 * time.Millisecond)
	return s
}

func (s *ProgressSpinner) draw(every time.Duration) {
	defer close(s.stopped)
	tick := time.NewTicker(every)
	defer tick.Stop()

	for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
		select {
		case <-s.stop:
			return
		case <-tick.C:
			fmt.Fprintf(s.out, "\r%s Importing: %s / %s items, %s read",
				spinnerFrames[frame],
				humanize.Comma(s.visited.Load()),
				humanize.Comma(s.found.Load()),
				humanize.Bytes(uint64(s.bytes.Load())))
		}
	}
}

func (s *ProgressSpinner) discovered(n int) {
	if s != nil {
		s.found.Add(int64(n))
	}
}

func (s *ProgressSpinner) processed() {
	if s != nil {
		s.visited.Add(1)
	}
}

func (s *ProgressSpinner) loaded(n int64) {
	if s != nil {
		s.bytes.Add(n)
	}
}

// Stop ends the animation and prints the import summary.
func (s *ProgressSpinner) Stop(sum Summary) {
	close(s.stop)
	<-s.stopped

	fmt.Fprintf(s.out, "\r✓ Imported %s items (%s) in %.1fs, skipped %s\n",
		humanize.Comma(int64(sum.Entities)),
		humanize.Bytes(uint64(sum.Bytes)),
		time.Since(s.started).Seconds(),
		humanize.Comma(int64(sum.Skipped)))
}

// Package progress renders migration progress for operators.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Bar is a terminal progress bar sink.
type Bar struct {
	bar   *progressbar.ProgressBar
	w     io.Writer
	start time.Time
}

// NewBar returns a bar sized for total migrations drawing on w.
func NewBar(total int, w io.Writer) *Bar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "#",
			SaucerHead:    "#",
			SaucerPadding: "-",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Bar{bar: bar, w: w, start: time.Now()}
}

// Advance implements migration.ProgressSink.
func (b *Bar) Advance(label string) {
	b.bar.Describe("Applied migration " + label)
	_ = b.bar.Add(1)
}

// Finish implements migration.ProgressSink.
func (b *Bar) Finish() {
	_ = b.bar.Finish()
	fmt.Fprintf(b.w, "\nDone in %s\n", time.Since(b.start).Round(time.Millisecond))
}

// Log is a sink that records progress through a logger, for output that is
// not a terminal.
type Log struct {
	logger *slog.Logger
	total  int
	done   int
}

// NewLog returns a log sink for total migrations.
func NewLog(total int, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger, total: total}
}

// Advance implements migration.ProgressSink.
func (l *Log) Advance(label string) {
	l.done++
	l.logger.Info("applied migration", "migration", label, "progress", fmt.Sprintf("%d/%d", l.done, l.total))
}

// Finish implements migration.ProgressSink.
func (l *Log) Finish() {
	l.logger.Info("migration run finished", "applied", l.done)
}

// Interactive reports whether f is a terminal.
func Interactive(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(lipgloss.Color("2"))

// Banner renders the " env@host " label shown before a run.
func Banner(env, host string) string {
	return bannerStyle.Render(fmt.Sprintf(" %s@%s ", env, host))
}

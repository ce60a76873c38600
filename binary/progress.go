package binary

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const unknown = "--"

// Progress is a snapshot of a running download.
// Total is zero when the server didn't announce the content length.
type Progress struct {
	Received int64
	Total    int64
	Elapsed  time.Duration
}

// Percent returns the completed share in the 0-100 range.
// The second value is false when the total size is unknown.
func (p Progress) Percent() (float64, bool) {
	if p.Total <= 0 {
		return 0, false
	}
	return float64(p.Received) / float64(p.Total) * 100, true
}

// Throughput is the average speed since the start of the download, in bytes per second.
func (p Progress) Throughput() float64 {
	elapsed := max(p.Elapsed.Seconds(), 1e-6)
	return float64(p.Received) / elapsed
}

// ETA estimates the remaining time.
// The second value is false when the total size is unknown or nothing was received yet.
func (p Progress) ETA() (time.Duration, bool) {
	speed := p.Throughput()
	if p.Total <= 0 || speed <= 0 {
		return 0, false
	}

	remaining := max(p.Total-p.Received, 0)
	seconds := float64(remaining) / speed
	if seconds > math.MaxInt64/float64(time.Second) {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// String renders the snapshot as a single status line, e.g.
// "1.5 MB/3.0 MB (50.0%) | 750.0 KB/s | ETA 00:00:02".
func (p Progress) String() string {
	total := unknown
	if p.Total > 0 {
		total = formatSize(p.Total)
	}

	percent := unknown
	if pct, ok := p.Percent(); ok {
		percent = fmt.Sprintf("%.1f%%", pct)
	}

	return fmt.Sprintf(
		"%s/%s (%s) | %s | ETA %s",
		formatSize(p.Received), total, percent, formatSpeed(p.Throughput()), p.etastring(),
	)
}

func (p Progress) etastring() string {
	eta, ok := p.ETA()
	if !ok {
		return "--:--:--"
	}

	secs := int64(eta.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

func formatSize(size int64) string {
	if size < 0 {
		return unknown
	}
	return scale(float64(size), []string{"B", "KB", "MB", "GB", "TB"})
}

func formatSpeed(bps float64) string {
	if bps <= 0 {
		return unknown + "/s"
	}
	return scale(bps, []string{"B/s", "KB/s", "MB/s", "GB/s"})
}

func scale(value float64, units []string) string {
	for i, unit := range units {
		if value < 1024 || i == len(units)-1 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return unknown
}

// reporter receives a progress snapshot after every chunk.
type reporter interface {
	update(p Progress)
	finish()
}

// newReporter shows a progress bar when writing to a terminal and plain status lines otherwise.
func newReporter(out io.Writer, total int64) reporter {
	if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		bar := pb.
			New64(total).
			SetWriter(out).
			SetTemplate(
				pb.ProgressBarTemplate(
					color.New(color.FgHiBlack).Sprint(
						`   └ {{counters . }}` +
							` {{bar . "[" "=" ">" " " "]" }} {{percent . }}` +
							` {{speed . }} {{string . "suffix"}}`,
					),
				),
			).
			SetRefreshRate(time.Second / 60).
			SetMaxWidth(100).
			Start()

		return &barreporter{bar: bar}
	}

	return &linereporter{out: out}
}

// linereporter rewrites a status line, only when its text changes.
type linereporter struct {
	out  io.Writer
	last string
}

func (r *linereporter) update(p Progress) {
	line := p.String()
	if line == r.last {
		return
	}
	r.last = line
	fmt.Fprintf(r.out, "\r   └ downloading... %s   ", line)
}

func (r *linereporter) finish() {
	if r.last != "" {
		fmt.Fprintln(r.out)
	}
}

type barreporter struct {
	bar  *pb.ProgressBar
	last string
}

func (r *barreporter) update(p Progress) {
	r.bar.SetCurrent(p.Received)

	eta := "ETA " + p.etastring()
	if eta != r.last {
		r.last = eta
		r.bar.Set("suffix", eta)
	}
}

func (r *barreporter) finish() {
	r.bar.Finish()
}

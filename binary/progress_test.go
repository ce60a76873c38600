package binary

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgress_KnownTotal(t *testing.T) {
	p := Progress{Received: 1024 * 1024, Total: 2 * 1024 * 1024, Elapsed: 2 * time.Second}

	pct, ok := p.Percent()
	assert.True(t, ok)
	assert.InDelta(t, 50.0, pct, 0.001)

	assert.InDelta(t, 512*1024, p.Throughput(), 0.001)

	eta, ok := p.ETA()
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, eta)

	assert.Equal(t, "1.0 MB/2.0 MB (50.0%) | 512.0 KB/s | ETA 00:00:02", p.String())
}

func TestProgress_UnknownTotal(t *testing.T) {
	p := Progress{Received: 4096, Total: 0, Elapsed: time.Second}

	assert.NotPanics(t, func() { _ = p.String() })

	_, ok := p.Percent()
	assert.False(t, ok)

	_, ok = p.ETA()
	assert.False(t, ok)

	assert.Equal(t, "4.0 KB/-- (--) | 4.0 KB/s | ETA --:--:--", p.String())
}

func TestProgress_NothingReceived(t *testing.T) {
	p := Progress{Received: 0, Total: 100, Elapsed: 0}

	_, ok := p.ETA()
	assert.False(t, ok)
	assert.Contains(t, p.String(), "--/s")
	assert.Contains(t, p.String(), "ETA --:--:--")
}

func TestProgress_LongETA(t *testing.T) {
	p := Progress{Received: 1, Total: 3600*2 + 61 + 1, Elapsed: time.Second}
	assert.Equal(t, "02:01:01", p.etastring())
}

func TestProgress_StalledETA(t *testing.T) {
	p := Progress{Received: 1, Total: 1 << 40, Elapsed: time.Hour}

	_, ok := p.ETA()
	assert.False(t, ok)
	assert.Contains(t, p.String(), "ETA --:--:--")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0.0 B", formatSize(0))
	assert.Equal(t, "1023.0 B", formatSize(1023))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "1.0 GB", formatSize(1<<30))
	assert.Equal(t, "2048.0 TB", formatSize(1<<51))
	assert.Equal(t, "--", formatSize(-1))
}

func TestLineReporter_OnlyOnChange(t *testing.T) {
	var buf bytes.Buffer
	rep := newReporter(&buf, 100)

	rep.update(Progress{Received: 50, Total: 100, Elapsed: time.Second})
	rep.update(Progress{Received: 50, Total: 100, Elapsed: time.Second})
	rep.update(Progress{Received: 100, Total: 100, Elapsed: 2 * time.Second})
	rep.finish()

	output := buf.String()
	assert.Equal(t, 2, strings.Count(output, "downloading..."))
	assert.True(t, strings.HasSuffix(output, "\n"))
}

func TestLineReporter_SilentWithoutData(t *testing.T) {
	var buf bytes.Buffer
	rep := newReporter(&buf, 0)
	rep.finish()

	assert.Empty(t, buf.String())
}

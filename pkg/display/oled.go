package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"gitlab.com/justnurik/luxq/pkg/sensor"
)

const DefaultColumns = 16

// OLED draws each sample as a two-line text frame: the reading and a bar
// scaled to sensor.MaxLux. Write failures are logged once and swallowed.
type OLED struct {
	l    *zap.Logger
	cols int

	mu     sync.Mutex
	w      io.Writer
	last   string
	frames uint64
	failed bool
}

func NewOLED(l *zap.Logger, w io.Writer, cols int) *OLED {
	if cols <= 0 {
		cols = DefaultColumns
	}

	return &OLED{
		l:    l.With(zap.String("component", "oled")),
		cols: cols,
		w:    w,
	}
}

func (d *OLED) Render(s sensor.Sample) {
	frame := d.frame(s)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = frame
	d.frames++

	if _, err := io.WriteString(d.w, frame); err != nil && !d.failed {
		d.failed = true
		d.l.Error("display write failed", zap.Error(err))
	}
}

func (d *OLED) frame(s sensor.Sample) string {
	filled := int(uint64(s) * uint64(d.cols) / uint64(sensor.MaxLux))
	filled = min(filled, d.cols)

	return fmt.Sprintf("Luz = %d lx\n[%s%s]\n",
		s,
		strings.Repeat("#", filled),
		strings.Repeat(".", d.cols-filled))
}

// Frame returns the text currently shown.
func (d *OLED) Frame() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.last
}

func (d *OLED) Frames() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.frames
}

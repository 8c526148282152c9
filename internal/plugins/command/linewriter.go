package command

import (
	"bytes"
	"sync"

	"github.com/Iron-Ham/weft/internal/step"
)

// lineWriter reports each complete line written to it through a step
// runner. Flush reports a trailing partial line.
type lineWriter struct {
	mu    sync.Mutex
	r     step.Runner
	level step.Level
	buf   bytes.Buffer
}

func newLineWriter(r step.Runner, level step.Level) *lineWriter {
	return &lineWriter{r: r, level: level}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(w.buf.Next(i+1), "\r\n"))
		w.r.Log(w.level, line)
	}
	return len(p), nil
}

// Flush reports any buffered partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.r.Log(w.level, w.buf.String())
		w.buf.Reset()
	}
}

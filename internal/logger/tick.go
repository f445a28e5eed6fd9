package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

var (
	tickMu  sync.Mutex
	tickLog *log.Logger
)

// SetTickWriter installs a dedicated writer for per-tick transcripts.
// Passing nil disables transcript output.
func SetTickWriter(w io.Writer) {
	tickMu.Lock()
	defer tickMu.Unlock()
	if w == nil {
		tickLog = nil
		return
	}
	tickLog = log.New(w, "", log.LstdFlags)
}

// Tick writes one tick transcript block. Lines are prefixed with the trace id
// so transcripts from interleaved restarts stay greppable.
func Tick(traceID, block string) {
	tickMu.Lock()
	l := tickLog
	tickMu.Unlock()
	if l == nil {
		return
	}
	block = strings.TrimSpace(block)
	if block == "" {
		return
	}
	var b strings.Builder
	b.WriteString("[TICK]")
	if traceID != "" {
		b.WriteString("[")
		b.WriteString(traceID)
		b.WriteString("]")
	}
	b.WriteString("\n")
	b.WriteString(block)
	l.Print(b.String())
}

package utils

import (
	"bytes"
	"io"
	"sync"
)

// DeferredWriter forwards writes to an underlying writer, except while held:
// then writes are buffered in memory until Release. Safe for concurrent use.
type DeferredWriter struct {
	mu   sync.Mutex
	out  io.Writer
	held bool
	buf  bytes.Buffer
}

// NewDeferredWriter creates a writer forwarding to out.
func NewDeferredWriter(out io.Writer) *DeferredWriter {
	return &DeferredWriter{out: out}
}

// Write forwards p, or buffers it while the writer is held.
func (d *DeferredWriter) Write(p []byte) (n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.held || d.out == nil {
		return d.buf.Write(p)
	}
	return d.out.Write(p)
}

// Hold starts buffering. Calling Hold on a nil writer is a no-op.
func (d *DeferredWriter) Hold() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.held = true
}

// Release writes everything buffered to the underlying writer and resumes
// forwarding. Calling Release on a nil writer is a no-op.
func (d *DeferredWriter) Release() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.held = false
	if d.buf.Len() == 0 || d.out == nil {
		return nil
	}

	_, err := d.buf.WriteTo(d.out)
	return err
}

// Package logrotate implements a size-rotating log sink. It exists so the
// application log uses an injected writer with explicit rollover and
// retention instead of process-global handler state.
package logrotate

import (
	"os"
	"sync"

	"storeman/pkg/backup"
)

// Writer is an io.Writer appending to a single file and rolling it over
// into a timestamped backup once it exceeds MaxSize bytes. At most Keep
// backups are retained; older ones are removed on rollover.
type Writer struct {
	mu sync.Mutex

	path    string
	maxSize int64
	keep    int

	file *os.File
	size int64
}

func New(path string, maxSize int64, keep int) *Writer {
	return &Writer{
		path:    path,
		maxSize: maxSize,
		keep:    keep,
	}
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}

	if w.size+int64(len(p)) > w.maxSize && w.size > 0 {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)

	return n, err
}

func (w *Writer) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	w.file = f
	w.size = fi.Size()

	return nil
}

func (w *Writer) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	w.file = nil

	if _, err := backup.Rename(w.path); err != nil {
		return err
	}

	// Best effort: a failed prune must not block logging.
	_, _ = backup.Prune(w.path, w.keep)

	return w.open()
}

// Close releases the underlying file. Further writes reopen it.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil
	w.size = 0

	return err
}

// Package jsonl implements an asynchronous append-only JSONL writer: Write
// only enqueues, while JSON encoding and the actual file I/O happen on a
// background goroutine so the hot path never blocks on disk.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

type opType int

const (
	opWrite opType = iota
	opFlush
	opClose
)

type op struct {
	typ  opType
	val  any
	done chan error
}

// Writer is an asynchronous JSONL file writer.
type Writer struct {
	// path is the output file path.
	path string
	// ch carries write/flush/close requests to the background goroutine.
	ch chan op

	closeOnce sync.Once
	closeErr  error
	closed    int32

	sendMu sync.Mutex

	wg sync.WaitGroup
}

// NewWriter creates a JSONL writer appending to path, with bufferSize
// controlling the request channel's capacity.
func NewWriter(path string, bufferSize int) (*Writer, error) {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	w := &Writer{
		path: path,
		ch:   make(chan op, bufferSize),
	}

	w.wg.Add(1)
	go w.loop(f)

	return w, nil
}

// Write asynchronously appends one JSONL record.
func (w *Writer) Write(v any) error {
	if w == nil {
		return fmt.Errorf("writer is nil")
	}
	if atomic.LoadInt32(&w.closed) == 1 {
		return fmt.Errorf("writer is closed")
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if atomic.LoadInt32(&w.closed) == 1 {
		return fmt.Errorf("writer is closed")
	}
	w.ch <- op{typ: opWrite, val: v}
	return nil
}

// Flush forces the file buffer to be flushed.
func (w *Writer) Flush() error {
	if w == nil {
		return nil
	}
	if atomic.LoadInt32(&w.closed) == 1 {
		return nil
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if atomic.LoadInt32(&w.closed) == 1 {
		return nil
	}
	done := make(chan error, 1)
	w.ch <- op{typ: opFlush, done: done}
	return <-done
}

// Close flushes and closes the writer.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.closeOnce.Do(func() {
		atomic.StoreInt32(&w.closed, 1)
		w.sendMu.Lock()
		defer w.sendMu.Unlock()
		done := make(chan error, 1)
		w.ch <- op{typ: opClose, done: done}
		w.closeErr = <-done
		close(w.ch)
	})
	w.wg.Wait()
	return w.closeErr
}

func (w *Writer) loop(f *os.File) {
	defer w.wg.Done()
	defer f.Close()

	bw := bufio.NewWriterSize(f, 1<<20) // 1MB buffer
	encErr := func(err error, done chan error) {
		if done != nil {
			done <- err
		}
	}

	for req := range w.ch {
		switch req.typ {
		case opWrite:
			b, err := json.Marshal(req.val)
			if err != nil {
				continue
			}
			if _, err := bw.Write(b); err != nil {
				continue
			}
			if err := bw.WriteByte('\n'); err != nil {
				continue
			}
		case opFlush:
			encErr(bw.Flush(), req.done)
		case opClose:
			err := bw.Flush()
			encErr(err, req.done)
			return
		}
	}
}

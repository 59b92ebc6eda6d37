package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Sink receives serialized diagnostic records.
type Sink interface {
	Write(text string) error
}

type namedSink interface {
	Name() string
}

func sinkName(s Sink) string {
	if n, ok := s.(namedSink); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// WriterSink appends each record plus a newline to w.
type WriterSink struct {
	mu   sync.Mutex
	w    io.Writer
	name string
}

func NewWriterSink(name string, w io.Writer) *WriterSink {
	return &WriterSink{w: w, name: name}
}

func (s *WriterSink) Name() string { return s.name }

func (s *WriterSink) Write(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, text+"\n")
	return err
}

// FileSink writes one compact record per line into a file per day.
type FileSink struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File
	now  func() time.Time
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileSink{dir: dir, now: time.Now}, nil
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Write(text string) error {
	var line bytes.Buffer
	if err := json.Compact(&line, []byte(text)); err != nil {
		line.Reset()
		line.WriteString(text)
	}
	line.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rotate(); err != nil {
		return err
	}
	_, err := s.file.Write(line.Bytes())
	return err
}

func (s *FileSink) rotate() error {
	day := s.now().Format("2006-01-02")
	if s.file != nil && day == s.day {
		return nil
	}
	if s.file != nil {
		_ = s.file.Close()
	}
	filename := filepath.Join(s.dir, "diagnostics-"+day+".jsonl")
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.file = nil
		return err
	}
	s.file = f
	s.day = day
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// MultiSink writes to every sink, even after one fails.
type MultiSink []Sink

func (m MultiSink) Name() string { return "multi" }

func (m MultiSink) Write(text string) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sinkName(s), err))
		}
	}
	return errors.Join(errs...)
}

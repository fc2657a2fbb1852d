package main

import (
	"bufio"
	"os"
	"path/filepath"
)

// make sure it implements Sink
var _ Sink = (*FileSink)(nil)

// FileSink appends serialized entries to a file, one JSON object per line.
// Writes go through a buffered writer that is flushed every flushEvery
// entries and on Flush/Close, so a crash loses at most one flush window.
type FileSink struct {
	path       string
	f          *os.File
	w          *bufio.Writer
	flushEvery uint64
	written    uint64
}

const (
	defaultFileName       = "generated.log"
	defaultFileFlushEvery = 1000
	fileBufferSize        = 64 * 1024
)

func newFileSink(ec ExporterConfig) (*FileSink, error) {
	dir := getField(ec.Fields, "path", ".")
	name := getField(ec.Fields, "filename", defaultFileName)
	flushEvery, err := getIntField(ec.Name, ec.Fields, "flush_every", defaultFileFlushEvery)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, configErrorf("exporter file: unable to create path %s: %v", dir, err)
	}
	full := filepath.Join(dir, name)
	f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, configErrorf("exporter file: path %s is not writable: %v", full, err)
	}
	return &FileSink{
		path:       full,
		f:          f,
		w:          bufio.NewWriterSize(f, fileBufferSize),
		flushEvery: uint64(flushEvery),
	}, nil
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Write(e *Entry) error {
	line, err := e.JSONLine()
	if err != nil {
		return permanentErr(s.Name(), err)
	}
	if _, err := s.w.Write(line); err != nil {
		return transientErr(s.Name(), err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return transientErr(s.Name(), err)
	}
	s.written++
	if s.written%s.flushEvery == 0 {
		return s.Flush()
	}
	return nil
}

func (s *FileSink) Flush() error {
	if err := s.w.Flush(); err != nil {
		return transientErr(s.Name(), err)
	}
	return nil
}

func (s *FileSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return transientErr(s.Name(), err)
	}
	if err := s.f.Close(); err != nil {
		return transientErr(s.Name(), err)
	}
	return nil
}

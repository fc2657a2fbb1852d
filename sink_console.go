package main

import (
	"fmt"
	"io"
	"os"
)

// make sure it implements Sink
var _ Sink = (*ConsoleSink)(nil)

// ConsoleSink writes entries to stdout. In verbose mode every entry is
// printed, which is documented as throughput-reducing. Otherwise the sink
// prints the first entry in full, a running count every cadence entries,
// and finally the last entry in full plus a total.
type ConsoleSink struct {
	out     io.Writer
	verbose bool
	cadence uint64
	written uint64
	last    *Entry
}

const defaultConsoleCadence = 100000

func newConsoleSink(ec ExporterConfig, log Logger) (*ConsoleSink, error) {
	cadence, err := getIntField(ec.Name, ec.Fields, "cadence", defaultConsoleCadence)
	if err != nil {
		return nil, err
	}
	if ec.Verbose {
		log.Warn("console exporter is verbose; expect reduced throughput\n")
	}
	return &ConsoleSink{
		out:     os.Stdout,
		verbose: ec.Verbose,
		cadence: uint64(cadence),
	}, nil
}

func (s *ConsoleSink) Name() string { return "console" }

func (s *ConsoleSink) Write(e *Entry) error {
	if s.verbose {
		if err := s.print(e); err != nil {
			return err
		}
		s.written++
		return nil
	}

	if s.written == 0 {
		if err := s.print(e); err != nil {
			return err
		}
	} else if s.written%s.cadence == 0 {
		if _, err := fmt.Fprintf(s.out, "... %d entries\n", s.written); err != nil {
			return transientErr(s.Name(), err)
		}
	}
	s.written++
	s.last = e
	return nil
}

func (s *ConsoleSink) print(e *Entry) error {
	line, err := e.JSONLine()
	if err != nil {
		return permanentErr(s.Name(), err)
	}
	if _, err := fmt.Fprintf(s.out, "%s\n", line); err != nil {
		return transientErr(s.Name(), err)
	}
	return nil
}

func (s *ConsoleSink) Flush() error { return nil }

func (s *ConsoleSink) Close() error {
	if !s.verbose && s.last != nil && s.written > 1 {
		if err := s.print(s.last); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.out, "total: %d entries\n", s.written); err != nil {
		return transientErr(s.Name(), err)
	}
	return nil
}

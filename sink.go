package main

import (
	"errors"
	"fmt"
)

// A Sink consumes the generated entry stream. Implementations own their
// state exclusively; the dispatcher drives each sink from a single worker
// goroutine, so sinks do not need to be safe for concurrent use.
type Sink interface {
	Name() string
	Write(e *Entry) error
	Flush() error
	Close() error
}

// SinkError wraps a sink-level failure. Transient errors (timeouts,
// temporary I/O trouble) are retried or tolerated; permanent errors mark
// the sink degraded and stop further writes to it, without touching other
// sinks or the generator.
type SinkError struct {
	Sink      string
	Permanent bool
	Err       error
}

func (e *SinkError) Error() string {
	kind := "transient"
	if e.Permanent {
		kind = "permanent"
	}
	return fmt.Sprintf("sink %s: %s: %v", e.Sink, kind, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

func transientErr(sink string, err error) error {
	return &SinkError{Sink: sink, Err: err}
}

func permanentErr(sink string, err error) error {
	return &SinkError{Sink: sink, Permanent: true, Err: err}
}

// isPermanent reports whether err should take the sink out of rotation.
// Unclassified errors are treated as permanent: a sink that fails in a way
// it didn't anticipate shouldn't keep receiving the stream.
func isPermanent(err error) bool {
	var se *SinkError
	if errors.As(err, &se) {
		return se.Permanent
	}
	return true
}

// buildSinks validates every enabled exporter entry into a constructed
// sink. Unknown exporter names and malformed field values fail here, before
// any generation starts.
func buildSinks(cfg *Config, log Logger) ([]Sink, error) {
	var sinks []Sink
	for _, ec := range cfg.Exporters {
		if !ec.Enabled {
			log.Debug("exporter %s is disabled, skipping\n", ec.Name)
			continue
		}
		var (
			s   Sink
			err error
		)
		switch ec.Name {
		case "console", "stdout":
			s, err = newConsoleSink(ec, log)
		case "file":
			s, err = newFileSink(ec)
		case "clickhouse":
			s, err = newClickHouseSink(ec, log)
		default:
			return nil, configErrorf("unknown exporter name %q (want console, file, or clickhouse)", ec.Name)
		}
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

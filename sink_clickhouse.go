package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goware/urlx"
)

// make sure it implements Sink
var _ Sink = (*ClickHouseSink)(nil)

// ClickHouseSink batches entries and inserts each batch with one HTTP
// request (INSERT ... FORMAT JSONEachRow). A batch is sent when it reaches
// batch_size entries or when batch_timeout has passed since its first
// entry. Failed batches are retried with exponential backoff up to
// max_retries times; a batch that still fails is dropped and counted, and
// the stream continues. Authentication failures are permanent and take the
// sink out of rotation.
type ClickHouseSink struct {
	endpoint *url.URL
	user     string
	password string
	table    string

	batchSize     int
	batchTimeout  time.Duration
	reqTimeout    time.Duration
	maxRetries    int
	retryInterval time.Duration

	client     *http.Client
	log        Logger
	buf        bytes.Buffer
	pending    int
	batchStart time.Time

	entriesSent   uint64
	batchesSent   uint64
	batchesFailed uint64
}

const (
	defaultCHBatchSize     = 1000
	defaultCHBatchTimeout  = 5 * time.Second
	defaultCHReqTimeout    = 10 * time.Second
	defaultCHMaxRetries    = 3
	defaultCHRetryInterval = 500 * time.Millisecond
	defaultCHTable         = "entries"
)

func newClickHouseSink(ec ExporterConfig, log Logger) (*ClickHouseSink, error) {
	rawurl, ok := ec.Fields["url"]
	if !ok || rawurl == "" {
		return nil, configErrorf("exporter clickhouse: field url is required")
	}
	u, err := urlx.ParseWithDefaultScheme(rawurl, "http")
	if err != nil {
		return nil, configErrorf("exporter clickhouse: unable to parse url %q: %v", rawurl, err)
	}
	batchSize, err := getIntField(ec.Name, ec.Fields, "batch_size", defaultCHBatchSize)
	if err != nil {
		return nil, err
	}
	batchTimeout, err := getDurationField(ec.Name, ec.Fields, "batch_timeout", defaultCHBatchTimeout)
	if err != nil {
		return nil, err
	}
	reqTimeout, err := getDurationField(ec.Name, ec.Fields, "request_timeout", defaultCHReqTimeout)
	if err != nil {
		return nil, err
	}
	maxRetries, err := getIntField(ec.Name, ec.Fields, "max_retries", defaultCHMaxRetries)
	if err != nil {
		return nil, err
	}
	retryInterval, err := getDurationField(ec.Name, ec.Fields, "retry_interval", defaultCHRetryInterval)
	if err != nil {
		return nil, err
	}

	return &ClickHouseSink{
		endpoint:      u,
		user:          getField(ec.Fields, "user", "default"),
		password:      getField(ec.Fields, "password", ""),
		table:         getField(ec.Fields, "table", defaultCHTable),
		batchSize:     batchSize,
		batchTimeout:  batchTimeout,
		reqTimeout:    reqTimeout,
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
		client:        &http.Client{},
		log:           log,
	}, nil
}

func (s *ClickHouseSink) Name() string { return "clickhouse" }

func (s *ClickHouseSink) Write(e *Entry) error {
	line, err := e.JSONLine()
	if err != nil {
		return permanentErr(s.Name(), err)
	}
	if s.pending == 0 {
		s.batchStart = time.Now()
	}
	s.buf.Write(line)
	s.buf.WriteByte('\n')
	s.pending++

	if s.pending >= s.batchSize || time.Since(s.batchStart) >= s.batchTimeout {
		return s.sendBatch()
	}
	return nil
}

func (s *ClickHouseSink) Flush() error {
	if s.pending == 0 {
		return nil
	}
	return s.sendBatch()
}

func (s *ClickHouseSink) Close() error {
	err := s.Flush()
	s.log.Info("clickhouse sink: %d entries in %d batches sent, %d batches failed\n",
		s.entriesSent, s.batchesSent, s.batchesFailed)
	return err
}

// BatchesFailed reports how many batches were dropped after exhausting
// their retries.
func (s *ClickHouseSink) BatchesFailed() uint64 { return s.batchesFailed }

func (s *ClickHouseSink) sendBatch() error {
	body := make([]byte, s.buf.Len())
	copy(body, s.buf.Bytes())
	count := s.pending
	s.buf.Reset()
	s.pending = 0

	op := func() error {
		return s.insert(body)
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.retryInterval
	bo := backoff.WithMaxRetries(exp, uint64(s.maxRetries))
	if err := backoff.Retry(op, bo); err != nil {
		s.batchesFailed++
		var se *SinkError
		if errors.As(err, &se) && se.Permanent {
			return se
		}
		s.log.Warn("clickhouse sink: dropping batch of %d entries after %d retries: %v\n", count, s.maxRetries, err)
		return transientErr(s.Name(), fmt.Errorf("batch of %d entries dropped: %w", count, err))
	}
	s.entriesSent += uint64(count)
	s.batchesSent++
	return nil
}

// insert performs one INSERT attempt with a per-request timeout.
func (s *ClickHouseSink) insert(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.reqTimeout)
	defer cancel()

	u := *s.endpoint
	q := u.Query()
	q.Set("query", fmt.Sprintf("INSERT INTO %s FORMAT JSONEachRow", s.table))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(permanentErr(s.Name(), err))
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	req.SetBasicAuth(s.user, s.password)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(permanentErr(s.Name(), fmt.Errorf("authentication failed: %s: %s", resp.Status, msg)))
	default:
		return fmt.Errorf("insert failed: %s: %s", resp.Status, msg)
	}
}

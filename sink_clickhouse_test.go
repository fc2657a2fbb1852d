package main

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testCHSink(t *testing.T, url string, fields map[string]string) *ClickHouseSink {
	t.Helper()
	merged := map[string]string{
		"url":            url,
		"batch_size":     "2",
		"max_retries":    "2",
		"retry_interval": "1ms",
	}
	for k, v := range fields {
		merged[k] = v
	}
	sink, err := newClickHouseSink(ExporterConfig{Name: "clickhouse", Fields: merged}, NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	return sink
}

func Test_ClickHouseSink(t *testing.T) {
	t.Run("inserts batches with the right request shape", func(t *testing.T) {
		var queries []string
		var bodies []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			queries = append(queries, r.URL.Query().Get("query"))
			bodies = append(bodies, string(body))
			if user, pass, ok := r.BasicAuth(); !ok || user != "writer" || pass != "secret" {
				t.Errorf("bad credentials: %s/%s", user, pass)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/x-ndjson" {
				t.Errorf("bad content type %s", ct)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		sink := testCHSink(t, srv.URL, map[string]string{
			"user":     "writer",
			"password": "secret",
			"table":    "logs.entries",
		})
		for _, e := range consoleEntries(t, 5) {
			if err := sink.Write(e); err != nil {
				t.Fatal(err)
			}
		}
		if err := sink.Close(); err != nil {
			t.Fatal(err)
		}

		// two full batches plus the final partial one flushed on close
		if len(queries) != 3 {
			t.Fatalf("server saw %d inserts, want 3", len(queries))
		}
		for _, q := range queries {
			if q != "INSERT INTO logs.entries FORMAT JSONEachRow" {
				t.Errorf("unexpected query %q", q)
			}
		}
		total := 0
		for _, b := range bodies {
			total += strings.Count(b, "\n")
		}
		if total != 5 {
			t.Errorf("server received %d lines, want 5", total)
		}
	})

	t.Run("a failing batch is retried then dropped, later batches still go", func(t *testing.T) {
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			// the third batch carries seqs 4 and 5; refuse it every time
			if strings.Contains(string(body), `"seq":4`) {
				attempts++
				http.Error(w, "too many parts", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		sink := testCHSink(t, srv.URL, nil)
		var dropped error
		for _, e := range consoleEntries(t, 10) {
			if err := sink.Write(e); err != nil {
				if isPermanent(err) {
					t.Fatalf("drop reported as permanent: %v", err)
				}
				dropped = err
			}
		}
		if err := sink.Close(); err != nil {
			t.Fatal(err)
		}

		if dropped == nil {
			t.Fatal("failing batch did not surface an error")
		}
		// initial attempt plus two retries
		if attempts != 3 {
			t.Errorf("failing batch was attempted %d times, want 3", attempts)
		}
		if sink.BatchesFailed() != 1 {
			t.Errorf("batchesFailed=%d, want 1", sink.BatchesFailed())
		}
		if sink.batchesSent != 4 {
			t.Errorf("batchesSent=%d, want 4", sink.batchesSent)
		}
		if sink.entriesSent != 8 {
			t.Errorf("entriesSent=%d, want 8", sink.entriesSent)
		}
	})

	t.Run("authentication failure is permanent and not retried", func(t *testing.T) {
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			http.Error(w, "wrong password", http.StatusUnauthorized)
		}))
		defer srv.Close()

		sink := testCHSink(t, srv.URL, nil)
		var got error
		for _, e := range consoleEntries(t, 2) {
			if err := sink.Write(e); err != nil {
				got = err
			}
		}
		if got == nil {
			t.Fatal("expected an error")
		}
		if !isPermanent(got) {
			t.Errorf("auth failure not permanent: %v", got)
		}
		if attempts != 1 {
			t.Errorf("auth failure was attempted %d times, want 1", attempts)
		}
	})

	t.Run("requires a url", func(t *testing.T) {
		_, err := newClickHouseSink(ExporterConfig{Name: "clickhouse"}, NewLogger(0))
		if err == nil {
			t.Fatal("expected an error")
		}
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("error is not a config error: %v", err)
		}
	})
}

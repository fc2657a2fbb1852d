package main

import (
	"testing"
	"time"
)

func testStream(t *testing.T, plan GenerationPlan) *EntryStream {
	t.Helper()
	ip, err := BuildIntervalPlan(plan)
	if err != nil {
		t.Fatal(err)
	}
	fielder, err := NewFielder(plan.Seed, nil, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	return NewEntryStream(ip, newAssigner(plan.WindowStart, plan.Seed), fielder)
}

func Test_EntryStream(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := GenerationPlan{
		TotalEntries:   2500,
		WindowStart:    start,
		WindowDuration: 10 * time.Minute,
		Strategy:       StrategyEven,
		Seed:           "stream",
	}

	for _, strategy := range []Strategy{StrategyEven, StrategyEarlyFill, StrategySparseFill} {
		p := plan
		p.Strategy = strategy
		t.Run(strategy.String(), func(t *testing.T) {
			s := testStream(t, p)
			end := start.Add(p.WindowDuration)

			var n uint64
			last := time.Time{}
			for {
				e, ok := s.Next()
				if !ok {
					break
				}
				if e.Seq != n {
					t.Fatalf("entry %d has sequence id %d", n, e.Seq)
				}
				if e.Timestamp.Before(last) {
					t.Fatalf("entry %d timestamp %s is before its predecessor %s", n, e.Timestamp, last)
				}
				if e.Timestamp.Before(start) || !e.Timestamp.Before(end) {
					t.Fatalf("entry %d timestamp %s is outside [%s, %s)", n, e.Timestamp, start, end)
				}
				last = e.Timestamp
				n++
			}
			if n != p.TotalEntries {
				t.Errorf("stream produced %d entries, want %d", n, p.TotalEntries)
			}
			// the stream is single-pass
			if _, ok := s.Next(); ok {
				t.Error("exhausted stream produced another entry")
			}
		})
	}
}

func Test_EntryStream_timestampsInsideIntervals(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := GenerationPlan{
		TotalEntries:   997,
		WindowStart:    start,
		WindowDuration: time.Minute,
		Strategy:       StrategyEven,
		Seed:           "bounds",
	}
	ip, err := BuildIntervalPlan(plan)
	if err != nil {
		t.Fatal(err)
	}
	a := newAssigner(start, plan.Seed)
	for _, iv := range ip.Intervals {
		lo := start.Add(iv.Start)
		hi := start.Add(iv.Start + iv.Width)
		for i := 0; i < int(iv.Count); i++ {
			ts := a.at(iv, i)
			if ts.Before(lo) || !ts.Before(hi) {
				t.Fatalf("interval %d entry %d: %s outside [%s, %s)", iv.Index, i, ts, lo, hi)
			}
		}
	}
}

func Test_EntryStream_payload(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := GenerationPlan{
		TotalEntries:   10,
		WindowStart:    start,
		WindowDuration: time.Second,
		Strategy:       StrategyEven,
		Seed:           "payload",
	}
	s := testStream(t, plan)
	e, ok := s.Next()
	if !ok {
		t.Fatal("empty stream")
	}
	if e.Service == "" || e.Level == "" || e.Message == "" {
		t.Errorf("incomplete payload: %+v", e)
	}
	if e.RunID != s.RunID() {
		t.Errorf("entry run id %s does not match stream run id %s", e.RunID, s.RunID())
	}
	if _, ok := e.Fields["process_id"]; !ok {
		t.Error("payload is missing process_id")
	}
	if _, err := e.JSONLine(); err != nil {
		t.Errorf("entry does not serialize: %v", err)
	}
}

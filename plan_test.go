package main

import (
	"reflect"
	"testing"
	"time"
)

func sum(counts []uint64) uint64 {
	var s uint64
	for _, c := range counts {
		s += c
	}
	return s
}

func Test_fillEven(t *testing.T) {
	t.Run("remainder goes to the first intervals", func(t *testing.T) {
		counts := fillEven(10, 4)
		want := []uint64{3, 3, 2, 2}
		if !reflect.DeepEqual(counts, want) {
			t.Errorf("got %v, want %v", counts, want)
		}
	})

	t.Run("sum is exact and counts differ by at most 1", func(t *testing.T) {
		for _, tc := range []struct {
			total uint64
			m     int
		}{
			{1, 1}, {7, 7}, {10, 3}, {1000, 7}, {999983, 1000}, {5, 100},
		} {
			counts := fillEven(tc.total, tc.m)
			if got := sum(counts); got != tc.total {
				t.Errorf("fillEven(%d, %d) sums to %d", tc.total, tc.m, got)
			}
			min, max := counts[0], counts[0]
			for _, c := range counts {
				if c < min {
					min = c
				}
				if c > max {
					max = c
				}
			}
			if max-min > 1 {
				t.Errorf("fillEven(%d, %d) spread is %d, want <= 1", tc.total, tc.m, max-min)
			}
		}
	})

	t.Run("more intervals than entries leaves only trailing gaps", func(t *testing.T) {
		counts := fillEven(5, 100)
		for i, c := range counts {
			if i < 5 && c != 1 {
				t.Errorf("interval %d has count %d, want 1", i, c)
			}
			if i >= 5 && c != 0 {
				t.Errorf("interval %d has count %d, want 0", i, c)
			}
		}
	})
}

func Test_fillEarly(t *testing.T) {
	t.Run("five entries at capacity two over four intervals", func(t *testing.T) {
		counts := fillEarly(5, 4, 2)
		want := []uint64{2, 2, 1, 0}
		if !reflect.DeepEqual(counts, want) {
			t.Errorf("got %v, want %v", counts, want)
		}
	})

	t.Run("plateau then nothing", func(t *testing.T) {
		for _, tc := range []struct {
			total    uint64
			m        int
			capacity uint64
		}{
			{100, 50, 7}, {1, 10, 3}, {1000, 10, 200}, {17, 4, 5},
		} {
			counts := fillEarly(tc.total, tc.m, tc.capacity)
			if got := sum(counts); got != tc.total {
				t.Fatalf("fillEarly(%d, %d, %d) sums to %d", tc.total, tc.m, tc.capacity, got)
			}
			lastNonzero := -1
			for i, c := range counts {
				if c > 0 {
					lastNonzero = i
				}
			}
			for i := 0; i < lastNonzero; i++ {
				if counts[i] != tc.capacity {
					t.Errorf("interval %d has count %d, want capacity %d", i, counts[i], tc.capacity)
				}
			}
			for i := lastNonzero + 1; i < tc.m; i++ {
				if counts[i] != 0 {
					t.Errorf("interval %d has count %d, want 0", i, counts[i])
				}
			}
		}
	})
}

func Test_fillSparse(t *testing.T) {
	t.Run("sum is exact", func(t *testing.T) {
		for _, total := range []uint64{1, 10, 1000, 123457} {
			counts := fillSparse(total, 200, NewRng("sparse"))
			if got := sum(counts); got != total {
				t.Errorf("fillSparse(%d, 200) sums to %d", total, got)
			}
		}
	})

	t.Run("has a multi-interval gap", func(t *testing.T) {
		counts := fillSparse(10000, 500, NewRng("gap"))
		longest, run := 0, 0
		for _, c := range counts {
			if c == 0 {
				run++
				if run > longest {
					longest = run
				}
			} else {
				run = 0
			}
		}
		if longest < sparseMinGap {
			t.Errorf("longest zero run is %d, want >= %d", longest, sparseMinGap)
		}
	})

	t.Run("hot intervals are a minority", func(t *testing.T) {
		counts := fillSparse(100000, 1000, NewRng("minority"))
		hot := 0
		for _, c := range counts {
			if c > 0 {
				hot++
			}
		}
		if hot > 300 {
			t.Errorf("%d hot intervals of 1000, want at most 30%%", hot)
		}
	})
}

func Test_BuildIntervalPlan(t *testing.T) {
	base := GenerationPlan{
		TotalEntries:   10000,
		WindowStart:    time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		WindowDuration: 10 * time.Minute,
		Strategy:       StrategyEven,
		Seed:           "hello",
	}

	t.Run("rejects zero entries", func(t *testing.T) {
		p := base
		p.TotalEntries = 0
		if _, err := BuildIntervalPlan(p); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("rejects non-positive window", func(t *testing.T) {
		p := base
		p.WindowDuration = 0
		if _, err := BuildIntervalPlan(p); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("intervals tile the window", func(t *testing.T) {
		ip, err := BuildIntervalPlan(base)
		if err != nil {
			t.Fatal(err)
		}
		var offset time.Duration
		for _, iv := range ip.Intervals {
			if iv.Start != offset {
				t.Fatalf("interval %d starts at %s, want %s", iv.Index, iv.Start, offset)
			}
			offset += iv.Width
		}
		if offset != base.WindowDuration {
			t.Errorf("intervals cover %s, want %s", offset, base.WindowDuration)
		}
		if got := ip.TotalEntries(); got != base.TotalEntries {
			t.Errorf("plan totals %d entries, want %d", got, base.TotalEntries)
		}
	})

	t.Run("deterministic under a fixed seed", func(t *testing.T) {
		for _, strategy := range []Strategy{StrategyEven, StrategyEarlyFill, StrategySparseFill} {
			p := base
			p.Strategy = strategy
			a, err := BuildIntervalPlan(p)
			if err != nil {
				t.Fatal(err)
			}
			b, err := BuildIntervalPlan(p)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(a, b) {
				t.Errorf("strategy %s: two plans with the same seed differ", strategy)
			}
		}
	})

	t.Run("sub-millisecond window collapses to a single interval", func(t *testing.T) {
		p := base
		p.TotalEntries = 100
		p.WindowDuration = 500 * time.Microsecond
		ip, err := BuildIntervalPlan(p)
		if err != nil {
			t.Fatal(err)
		}
		if len(ip.Intervals) != 1 {
			t.Fatalf("got %d intervals, want 1", len(ip.Intervals))
		}
		if ip.Intervals[0].Width != p.WindowDuration {
			t.Errorf("interval width %s, want %s", ip.Intervals[0].Width, p.WindowDuration)
		}
		if got := ip.TotalEntries(); got != 100 {
			t.Errorf("plan totals %d entries, want 100", got)
		}
	})

	t.Run("never plans more intervals than entries", func(t *testing.T) {
		p := base
		p.TotalEntries = 3
		ip, err := BuildIntervalPlan(p)
		if err != nil {
			t.Fatal(err)
		}
		if len(ip.Intervals) != 3 {
			t.Errorf("got %d intervals, want 3", len(ip.Intervals))
		}
	})
}

func Test_earlyFillCapacity(t *testing.T) {
	// the whole load must fit into the chosen capacity times a quarter of
	// the window
	for _, tc := range []struct {
		total uint64
		m     int
	}{
		{10, 4}, {1000, 1000}, {1, 1}, {7, 3},
	} {
		c := earlyFillCapacity(tc.total, tc.m)
		if c == 0 {
			t.Fatalf("capacity 0 for total=%d m=%d", tc.total, tc.m)
		}
		quarter := uint64((tc.m + 3) / 4)
		if c*quarter < tc.total {
			t.Errorf("capacity %d over %d intervals cannot hold %d entries", c, quarter, tc.total)
		}
	}
}

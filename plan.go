package main

import (
	"fmt"
	"time"
)

// PlanningError is a fatal pre-generation error: the requested plan is
// degenerate and there is nothing meaningful to generate.
type PlanningError struct {
	msg string
}

func (e *PlanningError) Error() string { return e.msg }

func planningErrorf(format string, v ...interface{}) error {
	return &PlanningError{msg: fmt.Sprintf(format, v...)}
}

// Strategy selects how entry counts are spread across the window.
type Strategy int

const (
	StrategyEven Strategy = iota
	StrategyEarlyFill
	StrategySparseFill
)

func (s Strategy) String() string {
	switch s {
	case StrategyEven:
		return "even"
	case StrategyEarlyFill:
		return "early_fill"
	case StrategySparseFill:
		return "sparse_fill"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

func parseStrategy(s string) (Strategy, error) {
	switch s {
	case "even":
		return StrategyEven, nil
	case "early_fill":
		return StrategyEarlyFill, nil
	case "sparse_fill":
		return StrategySparseFill, nil
	default:
		return 0, configErrorf("unknown distribution model %q (want even, early_fill, or sparse_fill)", s)
	}
}

// GenerationPlan is the immutable description of one run, built once from
// validated configuration.
type GenerationPlan struct {
	TotalEntries   uint64
	WindowStart    time.Time
	WindowDuration time.Duration
	Strategy       Strategy
	Seed           string
}

// Interval is one sub-range of the generation window. Width is the same for
// every interval of a plan.
type Interval struct {
	Index int
	Start time.Duration
	Width time.Duration
	Count uint64
}

// An IntervalPlan assigns an entry count to each interval of the window.
// It is read-only after construction; the counts always sum to the plan's
// total exactly.
type IntervalPlan struct {
	Window    time.Duration
	Intervals []Interval
}

func (p *IntervalPlan) TotalEntries() uint64 {
	var sum uint64
	for _, iv := range p.Intervals {
		sum += iv.Count
	}
	return sum
}

const (
	// maxIntervals caps the planning resolution. A thousand buckets is fine
	// enough to show any of the three shapes without the plan itself
	// becoming a memory concern.
	maxIntervals = 1000
	// minIntervalWidth keeps intervals wide enough to be addressable at
	// millisecond resolution.
	minIntervalWidth = time.Millisecond
	// sparseMinGap is the smallest run of empty intervals sparse_fill
	// promises when the window has room for one.
	sparseMinGap = 2
)

// chooseIntervals picks the resolution M for a plan: never more intervals
// than entries, never narrower than minIntervalWidth, capped at
// maxIntervals.
func chooseIntervals(total uint64, window time.Duration) int {
	m := uint64(maxIntervals)
	if total < m {
		m = total
	}
	if byWidth := uint64(window / minIntervalWidth); byWidth < m {
		m = byWidth
	}
	if m == 0 {
		m = 1
	}
	return int(m)
}

// BuildIntervalPlan computes the per-interval entry counts for the plan's
// strategy. It is deterministic given the same seed.
func BuildIntervalPlan(plan GenerationPlan) (IntervalPlan, error) {
	if plan.TotalEntries == 0 {
		return IntervalPlan{}, planningErrorf("cannot plan distribution of 0 entries")
	}
	if plan.WindowDuration <= 0 {
		return IntervalPlan{}, planningErrorf("cannot plan distribution over non-positive window %s", plan.WindowDuration)
	}

	m := chooseIntervals(plan.TotalEntries, plan.WindowDuration)

	var counts []uint64
	switch plan.Strategy {
	case StrategyEven:
		counts = fillEven(plan.TotalEntries, m)
	case StrategyEarlyFill:
		counts = fillEarly(plan.TotalEntries, m, earlyFillCapacity(plan.TotalEntries, m))
	case StrategySparseFill:
		counts = fillSparse(plan.TotalEntries, m, NewRng(plan.Seed))
	default:
		return IntervalPlan{}, planningErrorf("unknown strategy %s", plan.Strategy)
	}

	width := plan.WindowDuration / time.Duration(m)
	intervals := make([]Interval, m)
	for i := range intervals {
		intervals[i] = Interval{
			Index: i,
			Start: time.Duration(i) * width,
			Width: width,
			Count: counts[i],
		}
	}
	// the last interval absorbs the division remainder so the plan covers
	// the full window
	intervals[m-1].Width = plan.WindowDuration - intervals[m-1].Start
	return IntervalPlan{Window: plan.WindowDuration, Intervals: intervals}, nil
}

// fillEven gives every interval total/m entries and hands the remainder to
// the first total%m intervals, one each. No two counts differ by more than
// one, and the counts sum to total exactly.
func fillEven(total uint64, m int) []uint64 {
	counts := make([]uint64, m)
	base := total / uint64(m)
	rem := total % uint64(m)
	for i := range counts {
		counts[i] = base
		if uint64(i) < rem {
			counts[i]++
		}
	}
	return counts
}

// earlyFillCapacity sizes the per-interval capacity so the whole load lands
// in roughly the first quarter of the window.
func earlyFillCapacity(total uint64, m int) uint64 {
	quarter := uint64((m + 3) / 4)
	c := (total + quarter - 1) / quarter
	if c == 0 {
		c = 1
	}
	return c
}

// fillEarly assigns capacity entries to each interval front-to-back until
// the total is exhausted. Every nonzero interval before the last nonzero one
// is exactly at capacity; everything after is zero.
func fillEarly(total uint64, m int, capacity uint64) []uint64 {
	counts := make([]uint64, m)
	remaining := total
	for i := 0; i < m && remaining > 0; i++ {
		n := capacity
		if n > remaining {
			n = remaining
		}
		counts[i] = n
		remaining -= n
	}
	return counts
}

// fillSparse concentrates the load into a few disjoint hot ranges covering
// 10-30% of the intervals and distributes evenly inside them; everything
// outside the hot ranges stays empty. When the window has room, at least
// one gap of sparseMinGap empty intervals separates the hot ranges from the
// rest.
func fillSparse(total uint64, m int, rng Rng) []uint64 {
	if m == 1 {
		return []uint64{total}
	}

	frac := rng.Float(0.10, 0.30)
	hot := int(float64(m) * frac)
	if hot < 1 {
		hot = 1
	}
	nranges := 1 + int(rng.Intn(4))
	if nranges > hot {
		nranges = hot
	}

	// split the hot intervals across the ranges, then scatter the ranges
	// over the window with the free intervals divided among the gaps
	lengths := make([]int, nranges)
	left := hot
	for i := 0; i < nranges; i++ {
		per := left / (nranges - i)
		if per < 1 {
			per = 1
		}
		lengths[i] = per
		left -= per
	}

	free := m - hot
	gaps := make([]int, nranges+1)
	// reserve a visible trailing gap when there is room
	if free >= sparseMinGap && nranges >= 1 {
		gaps[nranges] = sparseMinGap
		free -= sparseMinGap
	}
	for free > 0 {
		gaps[int(rng.Intn(nranges+1))]++
		free--
	}

	hotIdx := make([]int, 0, hot)
	pos := 0
	for i := 0; i < nranges; i++ {
		pos += gaps[i]
		for j := 0; j < lengths[i]; j++ {
			hotIdx = append(hotIdx, pos)
			pos++
		}
	}

	counts := make([]uint64, m)
	hotCounts := fillEven(total, len(hotIdx))
	for i, idx := range hotIdx {
		counts[idx] = hotCounts[i]
	}
	return counts
}

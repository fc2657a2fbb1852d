package main

import (
	"github.com/google/uuid"
)

// An EntryStream lazily produces the full ordered entry sequence for a
// plan. It is single-pass and holds one entry's worth of state, so the
// total entry count never matters for memory. Sequence ids start at 0 and
// match emission order; timestamps are non-decreasing.
type EntryStream struct {
	plan    IntervalPlan
	assign  *assigner
	fielder *Fielder
	runID   string

	seq  uint64
	iv   int
	inIv uint64
}

func NewEntryStream(plan IntervalPlan, assign *assigner, fielder *Fielder) *EntryStream {
	return &EntryStream{
		plan:    plan,
		assign:  assign,
		fielder: fielder,
		runID:   uuid.NewString(),
	}
}

// RunID identifies this generation run; every emitted entry carries it.
func (s *EntryStream) RunID() string {
	return s.runID
}

// TotalEntries returns how many entries the stream will produce in total.
func (s *EntryStream) TotalEntries() uint64 {
	return s.plan.TotalEntries()
}

// Next returns the next entry, or false when the stream is exhausted.
func (s *EntryStream) Next() (*Entry, bool) {
	for s.iv < len(s.plan.Intervals) && s.inIv >= s.plan.Intervals[s.iv].Count {
		s.iv++
		s.inIv = 0
	}
	if s.iv >= len(s.plan.Intervals) {
		return nil, false
	}

	interval := s.plan.Intervals[s.iv]
	e := &Entry{
		Seq:       s.seq,
		Timestamp: s.assign.at(interval, int(s.inIv)),
		RunID:     s.runID,
		Service:   s.fielder.GetServiceName(int(s.seq)),
		Level:     s.fielder.GetLevel(),
		Message:   s.fielder.GetMessage(),
		Fields:    s.fielder.GetFields(s.seq),
	}
	s.seq++
	s.inIv++
	return e, true
}

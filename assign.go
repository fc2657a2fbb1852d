package main

import (
	"time"

	"github.com/dgryski/go-wyhash"
	"pgregory.net/rand"
)

// An assigner turns an (interval, index-within-interval) pair into a
// concrete timestamp. Each interval is divided into count equal slots and
// entry i lands somewhere inside slot i, so timestamps are always inside
// the interval's bounds and never decrease in emission order, with or
// without jitter.
type assigner struct {
	start  time.Time
	jitter *rand.Rand
}

func newAssigner(start time.Time, seed string) *assigner {
	return &assigner{
		start:  start,
		jitter: rand.New(wyhash.Hash([]byte(seed), 5136253009)),
	}
}

func (a *assigner) at(iv Interval, i int) time.Time {
	if iv.Count == 0 {
		return a.start.Add(iv.Start)
	}
	slot := iv.Width / time.Duration(iv.Count)
	offset := iv.Start + time.Duration(i)*slot
	if slot > 0 {
		offset += time.Duration(a.jitter.Int63n(int64(slot)))
	}
	return a.start.Add(offset)
}

package main

import (
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
)

// SinkStatus is the per-sink outcome of a run.
type SinkStatus struct {
	Name    string
	Written uint64
	Failed  uint64
	State   string
	LastErr error
}

const (
	StateCompleted = "completed"
	StateDegraded  = "degraded"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// sinkWorker owns one sink, its bounded queue, and its counters. The worker
// goroutine is the only thing that touches the sink after construction.
type sinkWorker struct {
	sink    Sink
	ch      chan *Entry
	written uint64
	failed  uint64
	lastErr error
	dead    atomic.Bool // permanent failure, stop feeding
	discard atomic.Bool // cancellation, drain without writing
}

func (w *sinkWorker) run(wg *sync.WaitGroup, log Logger) {
	defer wg.Done()
	for e := range w.ch {
		if w.discard.Load() {
			continue
		}
		if err := w.sink.Write(e); err != nil {
			w.failed++
			w.lastErr = err
			if isPermanent(err) {
				log.Error("sink %s failed permanently, dropping it: %v\n", w.sink.Name(), err)
				w.dead.Store(true)
				w.discard.Store(true)
			}
			continue
		}
		w.written++
	}
}

// Dispatch replicates every entry of the stream to each sink. Each sink
// runs as an independent worker behind a bounded queue; a full queue blocks
// generation (backpressure) but never blocks the other sinks, which keep
// draining their own queues. A sink's failure is isolated: permanent errors
// drop that sink from the fan-out, everything else keeps running.
//
// After the stream is exhausted (or stop is closed), all queues are closed,
// workers are joined, and every sink is flushed and closed. The returned
// error aggregates flush/close failures only; per-write outcomes are in the
// statuses.
func Dispatch(stream *EntryStream, sinks []Sink, queueDepth int, stop chan struct{}, log Logger) ([]SinkStatus, bool, error) {
	workers := make([]*sinkWorker, len(sinks))
	wg := &sync.WaitGroup{}
	for i, s := range sinks {
		workers[i] = &sinkWorker{
			sink: s,
			ch:   make(chan *Entry, queueDepth),
		}
		wg.Add(1)
		go workers[i].run(wg, log)
	}

	cancelled := false
generate:
	for {
		select {
		case <-stop:
			cancelled = true
			break generate
		default:
		}

		e, ok := stream.Next()
		if !ok {
			break
		}
		for _, w := range workers {
			if w.dead.Load() {
				continue
			}
			select {
			case w.ch <- e:
			case <-stop:
				cancelled = true
				break generate
			}
		}
	}

	if cancelled {
		log.Warn("generation cancelled, discarding queued entries\n")
		for _, w := range workers {
			w.discard.Store(true)
		}
	}
	for _, w := range workers {
		close(w.ch)
	}
	wg.Wait()

	var errs error
	statuses := make([]SinkStatus, len(workers))
	for i, w := range workers {
		st := SinkStatus{
			Name:    w.sink.Name(),
			Written: w.written,
			Failed:  w.failed,
			LastErr: w.lastErr,
		}
		if !cancelled && !w.dead.Load() {
			if err := w.sink.Flush(); err != nil {
				st.Failed++
				st.LastErr = err
				errs = multierr.Append(errs, err)
			}
		}
		if err := w.sink.Close(); err != nil {
			st.LastErr = err
			errs = multierr.Append(errs, err)
		}

		switch {
		case w.dead.Load():
			st.State = StateFailed
		case cancelled:
			st.State = StateCancelled
		case st.Failed > 0:
			st.State = StateDegraded
		default:
			st.State = StateCompleted
		}
		statuses[i] = st
	}
	return statuses, cancelled, errs
}

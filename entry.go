package main

import (
	"encoding/json"
	"time"
)

// An Entry is one synthetic log record. Entries are created by the stream
// generator and never mutated afterward; the dispatcher hands the same entry
// to every sink as a read-only view.
type Entry struct {
	Seq       uint64         `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Service   string         `json:"service"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// JSONLine renders the entry as a single JSON object with no trailing
// newline. Both the file sink and the network sink write this form.
func (e *Entry) JSONLine() ([]byte, error) {
	return json.Marshal(e)
}

package main

// loggen generates synthetic, timestamped log entries for load-testing and
// seeding observability pipelines. Given a target entry count and a time
// window, it plans how many entries land in each sub-interval of the window
// according to a distribution strategy, then streams the entries to every
// enabled exporter.
//
// Strategies:
// - even spreads entries uniformly; no two intervals differ by more than one.
// - early_fill packs intervals front-to-back at a fixed capacity until the
//   budget runs out, leaving the rest of the window empty.
// - sparse_fill concentrates entries into a few hot ranges separated by
//   empty gaps.
//
// The window sizes the synthetic timestamps only. The process is not paced
// against the wall clock; it finishes as fast as the slowest exporter
// allows.
//
// Functionally, the system works by planning the full distribution up
// front (a small table of interval counts), then pulling entries one at a
// time from a lazy stream and fanning each one out to a worker per
// exporter. Every worker owns a bounded queue; when a slow exporter's
// queue fills, generation blocks until it drains, so memory stays flat no
// matter how many entries are requested. A failing exporter is isolated:
// its entries are counted and dropped while the others keep writing.
//
// Exporters are configured in a YAML file as a list of name/enabled/fields
// entries. Field values are strings and are validated into typed
// per-exporter configuration at startup; a bad value fails the run before
// anything is generated. See example.yml.

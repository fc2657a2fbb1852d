package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Generation struct {
		Entries      uint64 `long:"entries" description:"the number of entries to generate" default:"0"`
		Duration     string `long:"duration" description:"the width of the synthetic timestamp window (e.g. 10m, 2h, 1d)"`
		Start        string `long:"start" description:"RFC-3339 start of the window (implies not using the current time)"`
		Distribution string `long:"distribution" description:"how entries are spread across the window" choice:"even" choice:"early_fill" choice:"sparse_fill"`
		Seed         string `long:"seed" description:"string seed for deterministic output (defaults to a random value)"`
		Extra        int    `long:"extra" description:"the number of random fields in an entry beyond the standard ones" default:"0"`
		Services     int    `long:"services" description:"the number of distinct service names to emit (default 3)" default:"0"`
	} `group:"Generation Options"`
	Output struct {
		QueueDepth int `long:"queuedepth" description:"per-sink queue depth bounding memory under backpressure" default:"1000"`
	} `group:"Output Options"`
	Global struct {
		LogLevel string `long:"loglevel" description:"level of logging" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"warn"`
		Config   string `long:"config" description:"name of config file to load" default:""`
	} `group:"Global Options"`
}

func (o *Options) DebugLevel() int {
	switch o.Global.LogLevel {
	case "debug":
		return 3
	case "info":
		return 2
	case "warn":
		return 1
	default:
		return 0
	}
}

// defaultConfig is the configuration used when no file is given; flags and
// FIELD=VALUE args layer on top of it.
func defaultConfig() *Config {
	return &Config{
		NumberOfEntries:    1000,
		UseNowAsTimestamp:  true,
		GenerationDuration: "10m",
		DistributionBy:     "even",
		Services:           3,
		Fields:             map[string]string{},
		Exporters: []ExporterConfig{
			{Name: "console", Enabled: true},
		},
	}
}

// applyOptions overlays command-line values onto the configuration.
func applyOptions(cfg *Config, opts *Options) {
	if opts.Generation.Entries > 0 {
		cfg.NumberOfEntries = opts.Generation.Entries
	}
	if opts.Generation.Duration != "" {
		cfg.GenerationDuration = opts.Generation.Duration
	}
	if opts.Generation.Start != "" {
		cfg.StartTimestamp = opts.Generation.Start
		cfg.UseNowAsTimestamp = false
	}
	if opts.Generation.Distribution != "" {
		cfg.DistributionBy = opts.Generation.Distribution
	}
	if opts.Generation.Seed != "" {
		cfg.Seed = opts.Generation.Seed
	}
	if opts.Generation.Extra > 0 {
		cfg.Extra = opts.Generation.Extra
	}
	if opts.Generation.Services > 0 {
		cfg.Services = opts.Generation.Services
	}
}

func main() {
	opts := &Options{}

	parser := flags.NewParser(opts, flags.Default)
	parser.Usage = `[OPTIONS] [FIELD=VALUE]...

	loggen seeds observability pipelines with synthetic, timestamped log
	entries. Given an entry count and a time window it distributes the
	entries across the window (evenly, packed at the front, or in sparse
	bursts) and streams them to any combination of console, file, and
	clickhouse exporters. The window sizes timestamps only; the process
	runs as fast as the slowest enabled exporter allows.

	You can specify extra payload fields as FIELD=VALUE arguments. The
	value can be a constant, or a generator function starting with /.
	Example generators:
		- /s -- alphanumeric string of length 16
		- /sx32 -- hex string of 32 characters
		- /sw12 -- pronounceable word pairs with cardinality 12
		- /ir100 -- int in a range of 0 to 100
		- /fg50,30 -- float in a gaussian distribution with mean 50 and stddev 30
		- /b33 -- boolean, true with probability 33%

	Options can be set in a YAML config file given with --config; flags
	and FIELD=VALUE arguments override file values. See example.yml.
	`

	args, err := parser.Parse()
	if err != nil {
		switch flagsErr := err.(type) {
		case *flags.Error:
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		log.Fatalf("error reading command line: %v", err)
	}

	logg := NewLogger(opts.DebugLevel())

	cfg := defaultConfig()
	if opts.Global.Config != "" {
		if err := ReadConfig(cfg, opts.Global.Config); err != nil {
			logg.Fatal("err %v -- unable to read config file %s\n", err, opts.Global.Config)
		}
		if cfg.Fields == nil {
			cfg.Fields = map[string]string{}
		}
	}
	applyOptions(cfg, opts)

	// split the args into payload fields, potentially overwriting
	for _, arg := range args {
		s := strings.SplitN(arg, "=", 2)
		if len(s) < 2 {
			logg.Fatal("field `%s` missing required '='\n", arg)
		}
		cfg.Fields[s[0]] = s[1]
	}

	statuses, cancelled, err := run(cfg, opts.Output.QueueDepth, logg)
	if err != nil {
		logg.Fatal("%v\n", err)
	}

	exit := 0
	for _, st := range statuses {
		line := fmt.Sprintf("sink %s: %s, %d written", st.Name, st.State, st.Written)
		if st.Failed > 0 {
			line += fmt.Sprintf(", %d failed", st.Failed)
		}
		if st.LastErr != nil {
			line += fmt.Sprintf(", last error: %v", st.LastErr)
		}
		fmt.Fprintln(os.Stderr, line)
		if st.State == StateFailed {
			exit = 1
		}
	}
	if cancelled && exit == 0 {
		exit = 2
	}
	os.Exit(exit)
}

// run builds the plan and the pipeline and dispatches the stream. It is
// separate from main so tests can drive a whole run without flag parsing.
func run(cfg *Config, queueDepth int, logg Logger) ([]SinkStatus, bool, error) {
	plan, err := cfg.BuildPlan(time.Now())
	if err != nil {
		return nil, false, err
	}
	if plan.Seed == "" {
		// unseeded runs are intentionally non-reproducible
		plan.Seed = randomSeed()
	}

	intervals, err := BuildIntervalPlan(plan)
	if err != nil {
		return nil, false, err
	}
	logg.Info("planned %d entries over %s in %d intervals (%s)\n",
		plan.TotalEntries, plan.WindowDuration, len(intervals.Intervals), plan.Strategy)

	fielder, err := NewFielder(plan.Seed, cfg.Fields, cfg.Extra, cfg.Services)
	if err != nil {
		return nil, false, err
	}
	stream := NewEntryStream(intervals, newAssigner(plan.WindowStart, plan.Seed), fielder)
	logg.Info("run id %s, seed %q\n", stream.RunID(), plan.Seed)

	sinks, err := buildSinks(cfg, logg)
	if err != nil {
		return nil, false, err
	}

	// catch ctrl-c and close the stop channel
	stop := make(chan struct{})
	var stopOnce sync.Once
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigch:
			logg.Warn("\nshutting down from operating system signal\n")
			stopOnce.Do(func() { close(stop) })
		case <-stop:
		}
	}()

	statuses, cancelled, err := Dispatch(stream, sinks, queueDepth, stop, logg)
	signal.Stop(sigch)
	stopOnce.Do(func() { close(stop) })

	state := "completed"
	if cancelled {
		state = "cancelled"
	}
	fmt.Fprintf(os.Stderr, "generation %s: %d entries planned\n", state, stream.TotalEntries())
	if err != nil {
		logg.Error("sink shutdown errors: %v\n", err)
	}
	return statuses, cancelled, nil
}
